package paramsync

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
)

// Change thresholds. A side counts as changed when it moved by more than
// its epsilon since the last block.
const (
	HostEpsilon   = 1e-4 // normalized units
	EngineEpsilon = 1e-4 // native units
)

type binding struct {
	host   HostParameters
	engine EngineParameters
}

// Stats counts synchronization outcomes. Audio-thread counters and the
// control-plane counter each have a single writer.
type Stats struct {
	HostWins     uint64 // host change written to the engine
	Conflicts    uint64 // host change that overrode an engine change in the same block
	EngineQueued uint64 // engine change staged for the host
	Skipped      uint64 // index skipped because a side had no live parameter
	Pushed       uint64 // staged values delivered to the host
}

// Synchronizer runs the per-block compare/resolve cycle and the
// control-plane drain. Create it once with New; nothing after that
// allocates.
type Synchronizer struct {
	store    Store
	binding  atomic.Pointer[binding]
	inFlight atomic.Int32
	timer    *debug.BlockTimer

	hostWins     atomic.Uint64
	conflicts    atomic.Uint64
	engineQueued atomic.Uint64
	skipped      atomic.Uint64
	pushed       atomic.Uint64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithBlockTimer times every UpdateFromAudioThread call.
func WithBlockTimer(t *debug.BlockTimer) Option {
	return func(s *Synchronizer) {
		s.timer = t
	}
}

// New creates a synchronizer with no active parameters.
func New(opts ...Option) *Synchronizer {
	s := &Synchronizer{}
	s.store.Reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize binds the adapters and snapshots the first numParams indices
// as the baseline. Control plane only. An audio pass already in progress is
// allowed to finish before the table is rewritten; passes that start during
// Initialize see no binding and return immediately.
func (s *Synchronizer) Initialize(host HostParameters, engine EngineParameters, numParams int, sampleRate float64) {
	s.unbind()
	s.store.Initialize(host, engine, numParams, sampleRate)
	s.binding.Store(&binding{host: host, engine: engine})
}

// Reset unbinds the adapters and returns every slot to unsynced.
// Control plane only.
func (s *Synchronizer) Reset() {
	s.unbind()
	s.store.Reset()
}

// unbind withdraws the adapters and waits for the audio thread to leave
// any pass that loaded them. The audio side never waits.
func (s *Synchronizer) unbind() {
	s.binding.Store(nil)
	for s.inFlight.Load() != 0 {
		runtime.Gosched()
	}
}

// SetSampleRate records the sample rate.
func (s *Synchronizer) SetSampleRate(rate float64) {
	s.store.SetSampleRate(rate)
}

// SampleRate returns the recorded sample rate.
func (s *Synchronizer) SampleRate() float64 {
	return s.store.SampleRate()
}

// NumActive returns the number of synchronized parameters.
func (s *Synchronizer) NumActive() int {
	return s.store.NumActive()
}

// Store exposes the state table for observation.
func (s *Synchronizer) Store() *Store {
	return &s.store
}

// Deferred exposes the staged host updates for observation.
func (s *Synchronizer) Deferred() Channel {
	return s.store.Deferred()
}

// Bound reports whether adapters are currently bound.
func (s *Synchronizer) Bound() bool {
	return s.binding.Load() != nil
}

// UpdateFromAudioThread synchronizes every active parameter once, using the
// values both sides hold at entry. numSamples only feeds the block timer.
func (s *Synchronizer) UpdateFromAudioThread(numSamples int) {
	s.inFlight.Store(1)
	defer s.inFlight.Store(0)

	b := s.binding.Load()
	if b == nil {
		return
	}

	var start time.Time
	if s.timer != nil {
		start = s.timer.Begin()
	}

	n := s.store.NumActive()
	for i := 0; i < n; i++ {
		s.syncIndex(b, i)
	}

	if s.timer != nil {
		s.timer.End(start, numSamples)
	}
}

// syncIndex resolves one index. A side with no live parameter, or with a
// non-finite value or range, is skipped for this block.
func (s *Synchronizer) syncIndex(b *binding, i int) {
	st := &s.store.states[i]

	host, ok := b.host.Normalized(i)
	if !ok || !finite(host) {
		s.skipped.Add(1)
		return
	}
	r, ok := b.engine.RangeAndValue(i)
	if !ok || !finite(r.Value) || !finite(r.Range.Min) || !finite(r.Range.Max) {
		s.skipped.Add(1)
		return
	}

	hostChanged := math.Abs(host-st.LastHostNormalized()) > HostEpsilon
	engineChanged := math.Abs(r.Value-st.LastEngineNative()) > EngineEpsilon

	switch {
	case hostChanged:
		target := param.ToNative(host, r.Range.Min, r.Range.Max)
		b.engine.SetNativeValue(i, target)
		st.lastHost.Store(math.Float64bits(host))
		st.lastEngine.Store(math.Float64bits(target))
		st.cancel()
		s.hostWins.Add(1)
		if engineChanged {
			s.conflicts.Add(1)
		}
	case engineChanged:
		// Staged in [0,1] so the pushed value matches what the host stores.
		st.stage(clamp01(param.ToNormalized(r.Value, r.Range.Min, r.Range.Max)))
		st.lastEngine.Store(math.Float64bits(r.Value))
		s.engineQueued.Add(1)
	}
}

// finite reports whether x is neither NaN nor infinite.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// PushQueuedUpdates delivers staged engine changes to the host and returns
// how many notifications were made. Control plane only, and never
// concurrently with Initialize or Reset.
func (s *Synchronizer) PushQueuedUpdates() int {
	b := s.binding.Load()
	if b == nil {
		return 0
	}

	pushed := 0
	n := s.store.NumActive()
	for i := 0; i < n; i++ {
		st := &s.store.states[i]
		v, ok := st.take()
		if !ok {
			continue
		}
		prev := st.lastHost.Load()
		b.host.SetNormalizedNotifyingHost(i, v)
		// A host-wins write since prev means the host moved on; leave it.
		st.lastHost.CompareAndSwap(prev, math.Float64bits(v))
		pushed++
	}

	if pushed > 0 {
		s.pushed.Add(uint64(pushed))
	}
	return pushed
}

// Stats returns a snapshot of the outcome counters.
func (s *Synchronizer) Stats() Stats {
	return Stats{
		HostWins:     s.hostWins.Load(),
		Conflicts:    s.conflicts.Load(),
		EngineQueued: s.engineQueued.Load(),
		Skipped:      s.skipped.Load(),
		Pushed:       s.pushed.Load(),
	}
}
