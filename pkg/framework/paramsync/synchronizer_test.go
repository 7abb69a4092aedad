package paramsync

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
)

var zeroToTen = param.Range{Min: 0, Max: 10, Step: 1}

func newSynced(t *testing.T, n int, r param.Range) (*Synchronizer, *fakeHost, *fakeEngine) {
	t.Helper()
	host := &fakeHost{}
	engine := newFakeEngine(n, r)
	s := New()
	s.Initialize(host, engine, n, 48000)
	return s, host, engine
}

func TestInitializeBaseline(t *testing.T) {
	host := &fakeHost{}
	engine := newFakeEngine(3, zeroToTen)
	host.set(0, 0.25)
	engine.set(0, 2.5)
	host.set(2, 0.9)
	engine.set(2, 1)

	s := New()
	assert.False(t, s.Bound())
	s.Initialize(host, engine, 3, 44100)

	require.True(t, s.Bound())
	assert.Equal(t, 3, s.NumActive())
	assert.Equal(t, 44100.0, s.SampleRate())
	assert.Equal(t, 0.25, s.Store().State(0).LastHostNormalized())
	assert.Equal(t, 2.5, s.Store().State(0).LastEngineNative())

	// Disagreeing baselines are not a change; nothing moves on the first block.
	s.UpdateFromAudioThread(64)
	assert.Equal(t, int64(0), engine.writes.Load())
	assert.Equal(t, 0, s.Deferred().Len())
}

func TestHostChangeWritesEngine(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	host.set(0, 0.3)
	s.UpdateFromAudioThread(128)

	assert.InDelta(t, 3.0, engine.get(0), 1e-12)
	_, pending := s.Deferred().Pending(0)
	assert.False(t, pending)
	assert.Equal(t, 0.3, s.Store().State(0).LastHostNormalized())
	assert.InDelta(t, 3.0, s.Store().State(0).LastEngineNative(), 1e-12)
	assert.Equal(t, uint64(1), s.Stats().HostWins)
}

func TestEngineChangeStagedUntilPush(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	engine.set(0, 6)
	s.UpdateFromAudioThread(128)

	v, pending := s.Deferred().Pending(0)
	require.True(t, pending)
	assert.InDelta(t, 0.6, v, 1e-12)
	assert.Equal(t, 0.0, host.get(0), "host must not move before the drain")
	assert.Equal(t, 0.0, s.Store().State(0).LastHostNormalized())
	assert.Equal(t, 6.0, s.Store().State(0).LastEngineNative())

	// Further blocks leave the staged value alone.
	s.UpdateFromAudioThread(128)
	assert.Equal(t, 0.0, host.get(0))

	assert.Equal(t, 1, s.PushQueuedUpdates())
	assert.InDelta(t, 0.6, host.get(0), 1e-12)
	assert.InDelta(t, 0.6, s.Store().State(0).LastHostNormalized(), 1e-12)
	assert.Equal(t, int64(1), host.notified.Load())

	// The pushed value does not bounce back into the engine.
	writes := engine.writes.Load()
	s.UpdateFromAudioThread(128)
	assert.Equal(t, writes, engine.writes.Load())
	assert.Equal(t, 0, s.PushQueuedUpdates())
}

func TestConflictHostWins(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	host.set(0, 0.2)
	engine.set(0, 9)
	s.UpdateFromAudioThread(64)

	assert.InDelta(t, 2.0, engine.get(0), 1e-12)
	_, pending := s.Deferred().Pending(0)
	assert.False(t, pending, "engine change in a conflicting block is dropped")
	assert.Equal(t, uint64(1), s.Stats().Conflicts)
	assert.Equal(t, 0, s.PushQueuedUpdates())
}

func TestHostChangeCancelsStaleEngineValue(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	engine.set(0, 7)
	s.UpdateFromAudioThread(64)
	_, pending := s.Deferred().Pending(0)
	require.True(t, pending)

	host.set(0, 0.1)
	s.UpdateFromAudioThread(64)

	_, pending = s.Deferred().Pending(0)
	assert.False(t, pending)
	assert.Equal(t, 0, s.PushQueuedUpdates(), "a superseded engine value must not overwrite the host")
	assert.Equal(t, 0.1, host.get(0))
	assert.InDelta(t, 1.0, engine.get(0), 1e-12)
}

func TestSmallMovesBelowEpsilonIgnored(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	host.set(0, HostEpsilon/2)
	engine.set(0, EngineEpsilon/2)
	s.UpdateFromAudioThread(64)

	assert.Equal(t, int64(0), engine.writes.Load())
	assert.Equal(t, 0, s.Deferred().Len())
}

func TestPushWithoutPendingIsNoop(t *testing.T) {
	s, host, _ := newSynced(t, 8, zeroToTen)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, s.PushQueuedUpdates())
	}
	assert.Equal(t, int64(0), host.notified.Load())

	unbound := New()
	assert.Equal(t, 0, unbound.PushQueuedUpdates())
}

func TestEngineChurnCoalesces(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	for _, v := range []float64{3, 5, 9, 4} {
		engine.set(0, v)
		s.UpdateFromAudioThread(64)
	}

	assert.Equal(t, 1, s.PushQueuedUpdates())
	assert.Equal(t, int64(1), host.notified.Load())
	assert.InDelta(t, 0.4, host.get(0), 1e-12)
	assert.Equal(t, uint64(4), s.Stats().EngineQueued)
}

func TestAbsentIndexSkipped(t *testing.T) {
	s, host, engine := newSynced(t, 3, zeroToTen)

	engine.count.Store(1) // engine mid-reload, only index 0 live
	host.set(1, 0.5)
	host.set(2, 0.5)
	s.UpdateFromAudioThread(64)

	assert.Equal(t, 0.0, engine.get(1))
	assert.Equal(t, 0.0, engine.get(2))
	assert.Equal(t, uint64(2), s.Stats().Skipped)

	// Once the parameter is live again the missed host change is applied.
	engine.count.Store(3)
	s.UpdateFromAudioThread(64)
	assert.InDelta(t, 5.0, engine.get(1), 1e-12)
	assert.InDelta(t, 5.0, engine.get(2), 1e-12)
}

func TestUnsyncedSlotTreatedAsFirstSeen(t *testing.T) {
	host := &fakeHost{}
	engine := newFakeEngine(2, zeroToTen)
	engine.count.Store(1) // index 1 not yet declared
	host.set(1, 0.7)

	s := New()
	s.Initialize(host, engine, 2, 48000)
	require.False(t, s.Store().State(1).Synced())

	engine.count.Store(2)
	s.UpdateFromAudioThread(64)

	assert.InDelta(t, 7.0, engine.get(1), 1e-12)
	assert.True(t, s.Store().State(1).Synced())
}

func TestResetThenInitializeWithFewerParams(t *testing.T) {
	s, host, engine := newSynced(t, 6, zeroToTen)

	s.Reset()
	assert.Equal(t, 0, s.NumActive())
	assert.False(t, s.Bound())

	// Nothing is compared while reset.
	host.set(0, 0.9)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 0.0, engine.get(0))

	host.set(0, 0.1)
	engine.set(0, 1)
	s.Initialize(host, engine, 2, 48000)
	assert.Equal(t, 2, s.NumActive())
	for i := 0; i < 2; i++ {
		h, _ := host.Normalized(i)
		assert.Equal(t, h, s.Store().State(i).LastHostNormalized())
		assert.Equal(t, engine.get(i), s.Store().State(i).LastEngineNative())
	}

	// Indices past the new count stay inert.
	engine.set(4, 8)
	host.set(5, 0.6)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 0, s.Deferred().Len())
	_, pending := s.Store().State(4).PendingHostValue()
	assert.False(t, pending)
	assert.Equal(t, 0.0, engine.get(5))
	assert.False(t, s.Store().State(4).Synced())
}

func TestConcreteScenario(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	host.set(0, 0.5)
	s.UpdateFromAudioThread(256)
	assert.InDelta(t, 5.0, engine.get(0), 1e-12)

	engine.set(0, 8)
	s.UpdateFromAudioThread(256)
	v, pending := s.Deferred().Pending(0)
	require.True(t, pending)
	assert.InDelta(t, 0.8, v, 1e-12)
	assert.Equal(t, 0.5, host.get(0))

	s.PushQueuedUpdates()
	assert.InDelta(t, 0.8, host.get(0), 1e-12)
	assert.Equal(t, 8.0, engine.get(0))
}

func TestDegenerateRange(t *testing.T) {
	s, host, engine := newSynced(t, 1, param.Range{Min: 3, Max: 3})

	engine.set(0, 5)
	s.UpdateFromAudioThread(64)
	v, ok := s.Deferred().Pending(0)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	s.PushQueuedUpdates()
	host.set(0, 0.5)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 3.0, engine.get(0))
}

func TestBlockTimerOption(t *testing.T) {
	timer := debug.NewBlockTimer()
	host := &fakeHost{}
	engine := newFakeEngine(4, zeroToTen)
	s := New(WithBlockTimer(timer))
	s.Initialize(host, engine, 4, 48000)

	for i := 0; i < 10; i++ {
		s.UpdateFromAudioThread(64)
	}

	m := timer.Snapshot()
	assert.Equal(t, int64(10), m.Count)
	assert.Equal(t, int64(640), m.Samples)
}

func TestUpdateDoesNotAllocate(t *testing.T) {
	s, host, engine := newSynced(t, MaxParameters, zeroToTen)
	var flip float64

	allocs := testing.AllocsPerRun(200, func() {
		flip = 1 - flip
		host.set(0, flip)
		engine.set(1, flip*10)
		s.UpdateFromAudioThread(128)
	})
	assert.Equal(t, 0.0, allocs)
}

// The audio loop and the control loop run concurrently while the engine and
// the host both keep moving. Once they stop, a few quiet cycles must bring
// both sides into agreement.
func TestConcurrentAudioAndControl(t *testing.T) {
	const (
		n      = 16
		rounds = 20000
	)
	s, host, engine := newSynced(t, n, param.Range{Min: -1, Max: 1})

	var stop atomic.Bool
	audioDone := make(chan struct{})
	go func() { // audio thread
		defer close(audioDone)
		for !stop.Load() {
			s.UpdateFromAudioThread(64)
			runtime.Gosched()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { // engine script
		defer wg.Done()
		for k := 0; k < rounds; k++ {
			engine.set(k%n, math.Sin(float64(k)*0.01))
			if k%64 == 0 {
				runtime.Gosched()
			}
		}
	}()
	go func() { // control plane, also plays host automation
		defer wg.Done()
		for k := 0; k < rounds/10; k++ {
			s.PushQueuedUpdates()
			if k%7 == 0 {
				host.set((k*3)%n, float64(k%100)/100)
			}
			runtime.Gosched()
		}
	}()

	wg.Wait()
	stop.Store(true)
	<-audioDone

	for i := 0; i < 3; i++ {
		s.UpdateFromAudioThread(64)
		s.PushQueuedUpdates()
	}

	for i := 0; i < n; i++ {
		r, _ := engine.RangeAndValue(i)
		assert.InDelta(t, r.Range.Normalize(r.Value), host.get(i), 1e-3, "parameter %d diverged", i)
	}
	assert.Positive(t, host.notified.Load())
}

func TestNonFiniteReadingSkipped(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	engine.ranges[0] = param.Range{Min: math.NaN(), Max: 10}
	host.set(0, 0.5)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 0.0, engine.get(0), "no write through a broken range")
	assert.Equal(t, uint64(1), s.Stats().Skipped)

	engine.ranges[0] = zeroToTen
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 5.0, engine.get(0), "host move applied once the range is valid")

	engine.set(0, 7)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 1, s.PushQueuedUpdates())
	assert.InDelta(t, 0.7, host.get(0), 1e-12)

	engine.set(0, math.Inf(1))
	s.UpdateFromAudioThread(64)
	host.set(0, math.NaN())
	s.UpdateFromAudioThread(64)
	assert.Equal(t, uint64(3), s.Stats().Skipped)
	assert.Zero(t, s.PushQueuedUpdates())

	engine.set(0, 7)
	host.set(0, 0.2)
	s.UpdateFromAudioThread(64)
	assert.Equal(t, 2.0, engine.get(0))
	st := s.Store().State(0)
	assert.Equal(t, 0.2, st.LastHostNormalized())
	assert.Equal(t, 2.0, st.LastEngineNative())
}

func TestOutOfRangeEngineValueStagedClamped(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)

	engine.set(0, 15)
	s.UpdateFromAudioThread(64)
	v, pending := s.Deferred().Pending(0)
	require.True(t, pending)
	assert.Equal(t, 1.0, v)

	s.PushQueuedUpdates()
	assert.Equal(t, 1.0, host.get(0))

	before := s.Stats()
	s.UpdateFromAudioThread(64)
	assert.Equal(t, before.HostWins, s.Stats().HostWins, "pushed value is not seen as a host move")
	assert.Equal(t, 15.0, engine.get(0))
}

func TestReloadWhileAudioRuns(t *testing.T) {
	host := &fakeHost{}
	engine := newFakeEngine(32, zeroToTen)
	s := New()

	var stop atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		for !stop.Load() {
			s.UpdateFromAudioThread(64)
		}
	}()

	for i := 0; i < 200; i++ {
		s.Reset()
		host.set(i%32, float64(i%10)/10)
		s.Initialize(host, engine, 1+i%32, 48000)
		s.PushQueuedUpdates()
	}
	stop.Store(true)
	<-done

	assert.Equal(t, 1+199%32, s.NumActive())
}

func TestSyncTraceGolden(t *testing.T) {
	s, host, engine := newSynced(t, 1, zeroToTen)
	var sb strings.Builder

	record := func(label string) {
		st := s.Store().State(0)
		v, pending := st.PendingHostValue()
		last := "last_host=unsynced last_engine=unsynced"
		if st.Synced() {
			last = fmt.Sprintf("last_host=%.4f last_engine=%.4f", st.LastHostNormalized(), st.LastEngineNative())
		}
		fmt.Fprintf(&sb, "%s: host=%.4f engine=%.4f pending=%t value=%.4f %s\n",
			label, host.get(0), engine.get(0), pending, v, last)
	}

	record("init")

	host.set(0, 0.5)
	s.UpdateFromAudioThread(64)
	record("host-move")

	engine.set(0, 8)
	s.UpdateFromAudioThread(64)
	record("engine-move")

	s.PushQueuedUpdates()
	record("push")

	s.UpdateFromAudioThread(64)
	record("quiet")

	host.set(0, 0.1)
	engine.set(0, 9)
	s.UpdateFromAudioThread(64)
	record("conflict")

	engine.set(0, 3)
	s.UpdateFromAudioThread(64)
	engine.set(0, 4)
	s.UpdateFromAudioThread(64)
	record("coalesce")

	s.PushQueuedUpdates()
	record("drain")

	s.Reset()
	record("reset")

	s.Initialize(host, engine, 1, 48000)
	record("reinit")

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "sync_trace", []byte(sb.String()))
}

func BenchmarkUpdateFromAudioThread(b *testing.B) {
	host := &fakeHost{}
	engine := newFakeEngine(MaxParameters, zeroToTen)
	s := New()
	s.Initialize(host, engine, MaxParameters, 48000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.set(i%MaxParameters, float64(i%10))
		s.UpdateFromAudioThread(128)
	}
}

func BenchmarkPushQueuedUpdates(b *testing.B) {
	host := &fakeHost{}
	engine := newFakeEngine(MaxParameters, zeroToTen)
	s := New()
	s.Initialize(host, engine, MaxParameters, 48000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.set(i%MaxParameters, float64(i%10))
		s.UpdateFromAudioThread(128)
		s.PushQueuedUpdates()
	}
}
