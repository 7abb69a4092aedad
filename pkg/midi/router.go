// Package midi routes MIDI control change messages to host parameters.
package midi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
)

// ErrPortNotFound is returned by Listen when no input port has the name.
var ErrPortNotFound = errors.New("midi: input port not found")

// Mapping binds one controller on one channel to a named parameter.
// Channel is 0-based.
type Mapping struct {
	Channel    uint8  `yaml:"channel"`
	Controller uint8  `yaml:"controller"`
	Param      string `yaml:"param"`
}

func (m Mapping) validate() error {
	if m.Channel > 15 {
		return fmt.Errorf("mapping %s: channel %d out of range 0-15", m.Param, m.Channel)
	}
	if m.Controller > 127 {
		return fmt.Errorf("mapping %s: controller %d out of range 0-127", m.Param, m.Controller)
	}
	if m.Param == "" {
		return fmt.Errorf("mapping cc%d on channel %d has no parameter", m.Controller, m.Channel)
	}
	return nil
}

// Target receives host-side parameter changes.
type Target interface {
	Lookup(name string) (int, *param.Parameter)
	SetFromHost(index int, normalized float64) bool
}

type routeKey struct {
	channel    uint8
	controller uint8
}

// Router translates control changes into host parameter changes. Names are
// resolved on every message, so bindings survive a script reload that
// reorders or removes parameters.
type Router struct {
	target Target
	log    *debug.Logger

	mu     sync.RWMutex
	routes map[routeKey]string

	handled  atomic.Uint64
	unmapped atomic.Uint64
}

// NewRouter creates a router with no bindings.
func NewRouter(target Target, log *debug.Logger) *Router {
	if log == nil {
		log = debug.Default().With("midi")
	}
	return &Router{
		target: target,
		log:    log,
		routes: make(map[routeKey]string),
	}
}

// Bind adds mappings. A later mapping for the same channel and controller
// replaces the earlier one. Nothing is bound if any mapping is invalid.
func (r *Router) Bind(mappings ...Mapping) error {
	for _, m := range mappings {
		if err := m.validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mappings {
		r.routes[routeKey{m.Channel, m.Controller}] = m.Param
	}
	return nil
}

// Unresolved returns the bound parameter names the target does not
// currently have.
func (r *Router) Unresolved() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	seen := make(map[string]bool)
	for _, name := range r.routes {
		if seen[name] {
			continue
		}
		seen[name] = true
		if idx, _ := r.target.Lookup(name); idx < 0 {
			out = append(out, name)
		}
	}
	return out
}

// Handle applies msg if it is a bound control change and reports whether
// a parameter was changed.
func (r *Router) Handle(msg gomidi.Message) bool {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return false
	}

	r.mu.RLock()
	name, ok := r.routes[routeKey{ch, cc}]
	r.mu.RUnlock()
	if !ok {
		r.unmapped.Add(1)
		return false
	}

	idx, _ := r.target.Lookup(name)
	if idx < 0 || !r.target.SetFromHost(idx, float64(val)/127) {
		r.unmapped.Add(1)
		return false
	}
	r.handled.Add(1)
	return true
}

// Stats returns how many control changes were applied and how many had no
// live destination.
func (r *Router) Stats() (handled, unmapped uint64) {
	return r.handled.Load(), r.unmapped.Load()
}

// Listen opens the named input port and feeds it to Handle until stop is
// called. A driver must be registered, usually by importing one for its
// side effects.
func (r *Router) Listen(portName string) (stop func(), err error) {
	in, err := gomidi.FindInPort(portName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, portName)
	}

	stopFn, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		r.Handle(msg)
	}, gomidi.HandleError(func(err error) {
		r.log.Warn("MIDI listener error", "port", portName, "err", err)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen on %q: %w", portName, err)
	}

	r.log.Info("MIDI input connected", "port", portName)
	return func() {
		stopFn()
		_ = in.Close()
		r.log.Info("MIDI input closed", "port", portName)
	}, nil
}

// Ports lists the input ports of the registered driver.
func Ports() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}
