package paramsync

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/scripthost/pkg/framework/param"
)

// fakeHost is a lock-free host side for tests.
type fakeHost struct {
	values   [MaxParameters]atomic.Uint64
	absent   [MaxParameters]atomic.Bool
	notified atomic.Int64
}

func (h *fakeHost) Normalized(i int) (float64, bool) {
	if i < 0 || i >= MaxParameters || h.absent[i].Load() {
		return 0, false
	}
	return math.Float64frombits(h.values[i].Load()), true
}

func (h *fakeHost) SetNormalizedNotifyingHost(i int, v float64) {
	h.values[i].Store(math.Float64bits(v))
	h.notified.Add(1)
}

func (h *fakeHost) set(i int, v float64) {
	h.values[i].Store(math.Float64bits(v))
}

func (h *fakeHost) get(i int) float64 {
	v, _ := h.Normalized(i)
	return v
}

// fakeEngine is a lock-free engine side for tests.
type fakeEngine struct {
	values [MaxParameters]atomic.Uint64
	ranges [MaxParameters]param.Range
	count  atomic.Int32
	writes atomic.Int64
}

func newFakeEngine(n int, r param.Range) *fakeEngine {
	e := &fakeEngine{}
	for i := range e.ranges {
		e.ranges[i] = r
	}
	e.count.Store(int32(n))
	return e
}

func (e *fakeEngine) RangeAndValue(i int) (Reading, bool) {
	if i < 0 || i >= int(e.count.Load()) {
		return Reading{}, false
	}
	return Reading{Value: math.Float64frombits(e.values[i].Load()), Range: e.ranges[i]}, true
}

func (e *fakeEngine) SetNativeValue(i int, v float64) {
	if i < 0 || i >= MaxParameters {
		return
	}
	e.values[i].Store(math.Float64bits(v))
	e.writes.Add(1)
}

func (e *fakeEngine) set(i int, v float64) {
	e.values[i].Store(math.Float64bits(v))
}

func (e *fakeEngine) get(i int) float64 {
	return math.Float64frombits(e.values[i].Load())
}
