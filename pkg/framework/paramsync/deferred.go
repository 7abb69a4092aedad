package paramsync

import "math"

// stage publishes an engine-originated normalized value for the control
// plane. The value is stored before the flag so a reader that sees the flag
// also sees the value. Audio thread only.
func (s *State) stage(normalized float64) {
	s.pendingValue.Store(math.Float64bits(normalized))
	s.pending.Store(true)
}

// cancel drops a staged value that a host change has superseded.
// Audio thread only.
func (s *State) cancel() {
	s.pending.Store(false)
}

// take claims the staged value. The flag is cleared before the value is
// read: if the audio thread stages again in between, the flag is raised
// once more and the newer value is drained on the next cycle.
// Control plane only.
func (s *State) take() (float64, bool) {
	if !s.pending.CompareAndSwap(true, false) {
		return 0, false
	}
	return math.Float64frombits(s.pendingValue.Load()), true
}

// Channel is a read-only view over the deferred slots of a Store.
type Channel struct {
	store *Store
}

// Pending returns the staged value for index, if any.
func (c Channel) Pending(index int) (float64, bool) {
	s := c.store.State(index)
	if s == nil || index >= c.store.NumActive() {
		return 0, false
	}
	return s.PendingHostValue()
}

// Len counts active parameters with a staged value.
func (c Channel) Len() int {
	n := 0
	for i := 0; i < c.store.NumActive(); i++ {
		if c.store.states[i].pending.Load() {
			n++
		}
	}
	return n
}
