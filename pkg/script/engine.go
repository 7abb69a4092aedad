package script

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
	"github.com/justyntemme/scripthost/pkg/framework/paramsync"
)

var (
	// ErrNotLoaded is returned when no script is loaded.
	ErrNotLoaded = errors.New("script: no script loaded")
	// ErrTooManyParameters is returned when a script declares more than
	// paramsync.MaxParameters parameters.
	ErrTooManyParameters = errors.New("script: too many parameters")
	// ErrDeclareAfterLoad is raised when host.declare runs outside loading.
	ErrDeclareAfterLoad = errors.New("script: parameters can only be declared while loading")
)

// Declaration describes one script parameter.
type Declaration struct {
	Name    string
	Unit    string
	Range   param.Range
	Default float64 // native
}

// slot holds a parameter's live native state. The range is swapped as a
// whole so readers never see a half-updated one.
type slot struct {
	value atomic.Uint64
	rng   atomic.Pointer[param.Range]
}

func (s *slot) load() paramsync.Reading {
	r := s.rng.Load()
	if r == nil {
		return paramsync.Reading{Value: math.Float64frombits(s.value.Load())}
	}
	return paramsync.Reading{Value: math.Float64frombits(s.value.Load()), Range: *r}
}

func (s *slot) publish(d Declaration) {
	r := d.Range
	s.rng.Store(&r)
	s.value.Store(math.Float64bits(d.Default))
}

// Engine is a Lua scripting engine exposing its parameters through
// paramsync.EngineParameters.
type Engine struct {
	mu      sync.Mutex // guards everything below slots/count; control plane only
	state   *lua.LState
	name    string
	decls   []Declaration
	index   map[string]int
	loading bool
	elapsed time.Duration
	failure error // sentinel behind the last Lua error raised by the host module

	slots      [paramsync.MaxParameters]slot
	count      atomic.Int32
	sampleRate atomic.Uint64

	log *debug.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *debug.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// New creates an engine with no script loaded.
func New(opts ...Option) *Engine {
	e := &Engine{
		log: debug.Default().With("script"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadFile reads and loads a script from disk.
func (e *Engine) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return e.Load(filepath.Base(path), string(src))
}

// Load replaces the running script. The previous script's parameters go
// absent first, so the audio thread skips them while loading. On error the
// engine is left unloaded.
func (e *Engine) Load(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.unloadLocked()

	L := lua.NewState()
	e.state = L
	e.name = name
	e.index = make(map[string]int)
	e.loading = true
	e.installHostModule(L)

	e.failure = nil
	err := L.DoString(source)
	e.loading = false
	if err != nil {
		e.unloadLocked()
		return fmt.Errorf("load %s: %w", name, e.wrapFailure(err))
	}

	for i, d := range e.decls {
		e.slots[i].publish(d)
	}
	e.count.Store(int32(len(e.decls)))
	e.log.Info("script loaded", "name", name, "params", len(e.decls))
	return nil
}

// Unload stops the script and withdraws its parameters.
func (e *Engine) Unload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unloadLocked()
}

// Close releases the Lua state.
func (e *Engine) Close() error {
	e.Unload()
	return nil
}

func (e *Engine) unloadLocked() {
	e.count.Store(0)
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
	e.decls = nil
	e.index = nil
	e.name = ""
	e.elapsed = 0
}

// Loaded reports whether a script is running.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != nil
}

// Name returns the loaded script's name.
func (e *Engine) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Declarations returns the loaded script's parameters in declaration order.
func (e *Engine) Declarations() []Declaration {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Declaration, len(e.decls))
	copy(out, e.decls)
	return out
}

// Index returns the 0-based index of a named parameter.
func (e *Engine) Index(name string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[name]
	return i, ok
}

// Count returns the number of live parameters.
func (e *Engine) Count() int {
	return int(e.count.Load())
}

// SetSampleRate makes the sample rate visible to scripts.
func (e *Engine) SetSampleRate(rate float64) {
	e.sampleRate.Store(math.Float64bits(rate))
}

// SampleRate returns the rate scripts see.
func (e *Engine) SampleRate() float64 {
	return math.Float64frombits(e.sampleRate.Load())
}

// Tick runs the script's on_tick(dt) callback, if defined. Script errors
// are returned; the script stays loaded.
func (e *Engine) Tick(dt time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == nil {
		return ErrNotLoaded
	}
	e.elapsed += dt

	fn, ok := e.state.GetGlobal("on_tick").(*lua.LFunction)
	if !ok {
		return nil
	}
	e.failure = nil
	if err := e.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, lua.LNumber(dt.Seconds())); err != nil {
		return fmt.Errorf("%s on_tick: %w", e.name, e.wrapFailure(err))
	}
	return nil
}

// wrapFailure attaches the sentinel recorded by the host module, if any,
// so callers can match it with errors.Is.
func (e *Engine) wrapFailure(err error) error {
	if e.failure == nil {
		return err
	}
	return fmt.Errorf("%w: %v", e.failure, err)
}

// RangeAndValue implements paramsync.EngineParameters. Audio-thread safe.
func (e *Engine) RangeAndValue(index int) (paramsync.Reading, bool) {
	if index < 0 || index >= int(e.count.Load()) {
		return paramsync.Reading{}, false
	}
	return e.slots[index].load(), true
}

// SetNativeValue implements paramsync.EngineParameters. Audio-thread safe.
func (e *Engine) SetNativeValue(index int, value float64) {
	if index < 0 || index >= int(e.count.Load()) {
		return
	}
	e.slots[index].value.Store(math.Float64bits(value))
}

// Value returns a parameter's native value.
func (e *Engine) Value(index int) (float64, bool) {
	r, ok := e.RangeAndValue(index)
	return r.Value, ok
}
