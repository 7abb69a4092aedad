package plugin

import (
	"sync"
	"time"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
)

// Edit is one parameter change reported to the host.
type Edit struct {
	ID         uint32
	Normalized float64
	At         time.Time
}

// AutomationRecorder is a ComponentHandler that records edits the way a
// host in write mode would.
type AutomationRecorder struct {
	mu       sync.Mutex
	edits    []Edit
	open     map[uint32]int
	unpaired int
	now      func() time.Time
}

// NewAutomationRecorder creates an empty recorder.
func NewAutomationRecorder() *AutomationRecorder {
	return &AutomationRecorder{
		open: make(map[uint32]int),
		now:  time.Now,
	}
}

// BeginEdit implements ComponentHandler.
func (r *AutomationRecorder) BeginEdit(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open[id]++
}

// PerformEdit implements ComponentHandler. Edits outside a Begin/End pair
// are recorded and counted as unpaired.
func (r *AutomationRecorder) PerformEdit(id uint32, normalized float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open[id] == 0 {
		r.unpaired++
	}
	r.edits = append(r.edits, Edit{ID: id, Normalized: normalized, At: r.now()})
}

// EndEdit implements ComponentHandler.
func (r *AutomationRecorder) EndEdit(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open[id] > 0 {
		r.open[id]--
	}
	if r.open[id] == 0 {
		delete(r.open, id)
	}
}

// Edits returns a copy of the recorded edits in arrival order.
func (r *AutomationRecorder) Edits() []Edit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Edit, len(r.edits))
	copy(out, r.edits)
	return out
}

// Last returns the most recent value recorded for id.
func (r *AutomationRecorder) Last(id uint32) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.edits) - 1; i >= 0; i-- {
		if r.edits[i].ID == id {
			return r.edits[i].Normalized, true
		}
	}
	return 0, false
}

// Open reports how many gestures are still open.
func (r *AutomationRecorder) Open() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.open {
		n += c
	}
	return n
}

// Unpaired returns the number of edits made outside a gesture.
func (r *AutomationRecorder) Unpaired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unpaired
}

// Reset discards everything recorded.
func (r *AutomationRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = nil
	r.open = make(map[uint32]int)
	r.unpaired = 0
}

// LoggingHandler logs every edit at debug level and forwards it to Next,
// if set. With Params set, the log line carries the parameter name and
// display value.
type LoggingHandler struct {
	Log    *debug.Logger
	Params *ParameterManager
	Next   ComponentHandler
}

// BeginEdit implements ComponentHandler.
func (h LoggingHandler) BeginEdit(id uint32) {
	if h.Next != nil {
		h.Next.BeginEdit(id)
	}
}

// PerformEdit implements ComponentHandler.
func (h LoggingHandler) PerformEdit(id uint32, normalized float64) {
	if p := h.paramFor(id); p != nil {
		h.Log.Debug("edit", "id", id, "param", p.Name, "value", normalized, "display", p.FormatValue(normalized))
	} else {
		h.Log.Debug("edit", "id", id, "value", normalized)
	}
	if h.Next != nil {
		h.Next.PerformEdit(id, normalized)
	}
}

func (h LoggingHandler) paramFor(id uint32) *param.Parameter {
	if h.Params == nil {
		return nil
	}
	return h.Params.GetParameter(id)
}

// EndEdit implements ComponentHandler.
func (h LoggingHandler) EndEdit(id uint32) {
	if h.Next != nil {
		h.Next.EndEdit(id)
	}
}
