package param

import (
	"fmt"
	"sync"
)

// Registry manages plugin parameters on the control plane. Audio-thread
// readers use the slice returned by All, which never changes after it is
// handed out.
type Registry struct {
	params map[uint32]*Parameter
	byName map[string]*Parameter
	order  []uint32 // Maintain order for indexed access
	mu     sync.RWMutex
}

// NewRegistry creates a new parameter registry
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		byName: make(map[string]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers parameters. IDs and names must be unique.
func (r *Registry) Add(params ...*Parameter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			return fmt.Errorf("parameter id %d already registered", p.ID)
		}
		if _, exists := r.byName[p.Name]; exists {
			return fmt.Errorf("parameter %q already registered", p.Name)
		}
		r.params[p.ID] = p
		r.byName[p.Name] = p
		r.order = append(r.order, p.ID)
	}

	return nil
}

// Get retrieves a parameter by ID
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.params[id]
}

// Lookup retrieves a parameter by name
func (r *Registry) Lookup(name string) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.byName[name]
}

// IndexOf returns the registration index of a named parameter, or -1
func (r *Registry) IndexOf(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[name]
	if !ok {
		return -1
	}
	for i, id := range r.order {
		if id == p.ID {
			return i
		}
	}
	return -1
}

// All returns all parameters in order
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}

	return result
}
