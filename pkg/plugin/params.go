package plugin

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/justyntemme/scripthost/pkg/framework/param"
)

// ComponentHandler receives edits the plugin makes on its own parameters,
// in the shape of the VST3 IComponentHandler: every PerformEdit is wrapped
// in BeginEdit/EndEdit. Called on the control plane only.
type ComponentHandler interface {
	BeginEdit(id uint32)
	PerformEdit(id uint32, normalized float64)
	EndEdit(id uint32)
}

// paramTable is immutable once published.
type paramTable struct {
	params   []*param.Parameter
	registry *param.Registry
}

var emptyTable = &paramTable{registry: param.NewRegistry()}

// ParameterManager is the host-facing parameter set. It implements
// paramsync.HostParameters: the table is swapped atomically on script load,
// so audio-thread reads never lock.
type ParameterManager struct {
	table atomic.Pointer[paramTable]

	mu      sync.Mutex
	handler ComponentHandler
}

// NewParameterManager creates an empty parameter manager. handler may be nil.
func NewParameterManager(handler ComponentHandler) *ParameterManager {
	m := &ParameterManager{handler: handler}
	m.table.Store(emptyTable)
	return m
}

// SetComponentHandler replaces the handler notified of plugin-side edits.
func (m *ParameterManager) SetComponentHandler(h ComponentHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Publish replaces the parameter set. Index i of the new set is params[i].
// Control plane only.
func (m *ParameterManager) Publish(params ...*param.Parameter) error {
	reg := param.NewRegistry()
	if err := reg.Add(params...); err != nil {
		return fmt.Errorf("publish parameters: %w", err)
	}
	m.table.Store(&paramTable{params: reg.All(), registry: reg})
	return nil
}

// Clear withdraws every parameter.
func (m *ParameterManager) Clear() {
	m.table.Store(emptyTable)
}

// GetParameterCount returns the number of parameters
func (m *ParameterManager) GetParameterCount() int {
	return len(m.table.Load().params)
}

// GetParameterByIndex returns a parameter by index, or nil
func (m *ParameterManager) GetParameterByIndex(index int) *param.Parameter {
	params := m.table.Load().params
	if index < 0 || index >= len(params) {
		return nil
	}
	return params[index]
}

// GetParameter returns a parameter by ID, or nil. IDs repeat across
// reloads, so the result describes the current script only.
func (m *ParameterManager) GetParameter(id uint32) *param.Parameter {
	return m.table.Load().registry.Get(id)
}

// Lookup returns the index and parameter with the given name.
func (m *ParameterManager) Lookup(name string) (int, *param.Parameter) {
	t := m.table.Load()
	p := t.registry.Lookup(name)
	if p == nil {
		return -1, nil
	}
	return t.registry.IndexOf(name), p
}

// All returns the current parameters in index order.
func (m *ParameterManager) All() []*param.Parameter {
	return m.table.Load().params
}

// Normalized implements paramsync.HostParameters. Audio-thread safe.
func (m *ParameterManager) Normalized(index int) (float64, bool) {
	p := m.GetParameterByIndex(index)
	if p == nil {
		return 0, false
	}
	return p.GetValue(), true
}

// SetFromHost applies a host-side change such as automation playback or a
// gesture. The host is not notified since it made the change. Safe on any
// thread.
func (m *ParameterManager) SetFromHost(index int, normalized float64) bool {
	p := m.GetParameterByIndex(index)
	if p == nil {
		return false
	}
	p.SetValue(normalized)
	return true
}

// SetNormalizedNotifyingHost implements paramsync.HostParameters: it stores
// the value and reports it to the component handler as a complete edit.
// Control plane only.
func (m *ParameterManager) SetNormalizedNotifyingHost(index int, normalized float64) {
	p := m.GetParameterByIndex(index)
	if p == nil {
		return
	}
	p.SetValue(normalized)

	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h == nil {
		return
	}
	h.BeginEdit(p.ID)
	h.PerformEdit(p.ID, p.GetValue())
	h.EndEdit(p.ID)
}
