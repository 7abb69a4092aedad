package debug

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// BlockTimer measures how long each audio block takes. Begin/End are meant
// for the audio thread: they take no locks and never allocate. Every counter
// is written only by the goroutine calling End; readers use Snapshot.
type BlockTimer struct {
	enabled atomic.Bool
	reset   atomic.Bool

	count   atomic.Int64
	total   atomic.Int64 // ns
	min     atomic.Int64 // ns
	max     atomic.Int64 // ns
	last    atomic.Int64 // ns
	samples atomic.Int64
}

// Measurement is a point-in-time copy of a BlockTimer's statistics.
type Measurement struct {
	Count   int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Last    time.Duration
	Samples int64
}

// NewBlockTimer creates an enabled timer.
func NewBlockTimer() *BlockTimer {
	t := &BlockTimer{}
	t.min.Store(math.MaxInt64)
	t.enabled.Store(true)
	return t
}

// SetEnabled enables or disables timing.
func (t *BlockTimer) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// IsEnabled returns whether timing is enabled.
func (t *BlockTimer) IsEnabled() bool {
	return t.enabled.Load()
}

// Begin marks the start of a block. It returns the zero time when disabled.
func (t *BlockTimer) Begin() time.Time {
	if !t.enabled.Load() {
		return time.Time{}
	}
	return time.Now()
}

// End records a block that started at start and covered numSamples frames.
func (t *BlockTimer) End(start time.Time, numSamples int) {
	if start.IsZero() {
		return
	}
	elapsed := int64(time.Since(start))

	if t.reset.CompareAndSwap(true, false) {
		t.count.Store(0)
		t.total.Store(0)
		t.min.Store(math.MaxInt64)
		t.max.Store(0)
		t.samples.Store(0)
	}

	t.count.Add(1)
	t.total.Add(elapsed)
	t.samples.Add(int64(numSamples))
	t.last.Store(elapsed)
	if elapsed < t.min.Load() {
		t.min.Store(elapsed)
	}
	if elapsed > t.max.Load() {
		t.max.Store(elapsed)
	}
}

// Reset asks the timer to clear its statistics. The clear happens on the
// next End so the audio thread stays the only writer.
func (t *BlockTimer) Reset() {
	t.reset.Store(true)
}

// Snapshot returns the current statistics.
func (t *BlockTimer) Snapshot() Measurement {
	m := Measurement{
		Count:   t.count.Load(),
		Total:   time.Duration(t.total.Load()),
		Max:     time.Duration(t.max.Load()),
		Last:    time.Duration(t.last.Load()),
		Samples: t.samples.Load(),
	}
	if m.Count > 0 {
		m.Min = time.Duration(t.min.Load())
	}
	return m
}

// Average returns the mean block time.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// CPULoad returns the share of real time spent processing, in percent.
func (m Measurement) CPULoad(sampleRate float64) float64 {
	if m.Samples == 0 || sampleRate <= 0 {
		return 0
	}
	audio := float64(m.Samples) / sampleRate * float64(time.Second)
	return float64(m.Total) / audio * 100
}

// Report formats the statistics for humans.
func (m Measurement) Report(sampleRate float64) string {
	if m.Count == 0 {
		return "No blocks recorded"
	}
	var sb strings.Builder
	sb.WriteString("Block timing:\n")
	fmt.Fprintf(&sb, "  Count:    %d\n", m.Count)
	fmt.Fprintf(&sb, "  Average:  %v\n", m.Average())
	fmt.Fprintf(&sb, "  Min:      %v\n", m.Min)
	fmt.Fprintf(&sb, "  Max:      %v\n", m.Max)
	fmt.Fprintf(&sb, "  Last:     %v\n", m.Last)
	fmt.Fprintf(&sb, "  CPU Load: %.2f%%\n", m.CPULoad(sampleRate))
	return sb.String()
}
