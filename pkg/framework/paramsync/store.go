package paramsync

import (
	"math"
	"sync/atomic"
)

// MaxParameters is the fixed capacity of a Store.
const MaxParameters = 256

// unsynced marks a baseline that has never been observed. It is finite so
// that comparisons against it always report a change.
const unsynced = -math.MaxFloat64

var unsyncedBits = math.Float64bits(unsynced)

// State is the synchronization record for one parameter index.
type State struct {
	lastHost     atomic.Uint64 // normalized, float64 bits
	lastEngine   atomic.Uint64 // native, float64 bits
	pending      atomic.Bool
	pendingValue atomic.Uint64 // normalized, float64 bits
}

// LastHostNormalized returns the last host value the synchronizer accounted for.
func (s *State) LastHostNormalized() float64 {
	return math.Float64frombits(s.lastHost.Load())
}

// LastEngineNative returns the last engine value the synchronizer accounted for.
func (s *State) LastEngineNative() float64 {
	return math.Float64frombits(s.lastEngine.Load())
}

// PendingHostValue returns the staged value and whether one is waiting.
func (s *State) PendingHostValue() (float64, bool) {
	if !s.pending.Load() {
		return 0, false
	}
	return math.Float64frombits(s.pendingValue.Load()), true
}

// Synced reports whether both baselines hold observed values.
func (s *State) Synced() bool {
	return s.lastHost.Load() != unsyncedBits && s.lastEngine.Load() != unsyncedBits
}

func (s *State) clear() {
	s.lastHost.Store(unsyncedBits)
	s.lastEngine.Store(unsyncedBits)
	s.pending.Store(false)
	s.pendingValue.Store(0)
}

// Store is a fixed-size table of per-parameter state. It is never resized;
// indices at or past NumActive are inert.
type Store struct {
	states     [MaxParameters]State
	numActive  atomic.Int32
	sampleRate atomic.Uint64
}

// NewStore returns a store with every slot unsynced.
func NewStore() *Store {
	s := &Store{}
	s.Reset()
	return s
}

// Initialize records the current host and engine values of the first
// numParams indices as the baseline and clears staged updates. Slots an
// adapter reports absent stay unsynced. numParams is clamped to
// [0, MaxParameters]. The caller must ensure no audio pass is running.
func (s *Store) Initialize(host HostParameters, engine EngineParameters, numParams int, sampleRate float64) {
	if numParams < 0 {
		numParams = 0
	}
	if numParams > MaxParameters {
		numParams = MaxParameters
	}

	s.numActive.Store(0)
	for i := range s.states {
		st := &s.states[i]
		st.clear()
		if i >= numParams {
			continue
		}
		if h, ok := host.Normalized(i); ok {
			st.lastHost.Store(math.Float64bits(h))
		}
		if r, ok := engine.RangeAndValue(i); ok {
			st.lastEngine.Store(math.Float64bits(r.Value))
		}
	}
	s.SetSampleRate(sampleRate)
	s.numActive.Store(int32(numParams))
}

// Reset returns every slot to unsynced and deactivates all indices.
func (s *Store) Reset() {
	s.numActive.Store(0)
	for i := range s.states {
		s.states[i].clear()
	}
}

// SetSampleRate records the sample rate. Synchronization does not use it.
func (s *Store) SetSampleRate(rate float64) {
	s.sampleRate.Store(math.Float64bits(rate))
}

// SampleRate returns the recorded sample rate.
func (s *Store) SampleRate() float64 {
	return math.Float64frombits(s.sampleRate.Load())
}

// NumActive returns the number of synchronized indices.
func (s *Store) NumActive() int {
	return int(s.numActive.Load())
}

// State returns the slot for index, or nil outside capacity.
func (s *Store) State(index int) *State {
	if index < 0 || index >= MaxParameters {
		return nil
	}
	return &s.states[index]
}

// Deferred returns a view over the staged host updates.
func (s *Store) Deferred() Channel {
	return Channel{store: s}
}
