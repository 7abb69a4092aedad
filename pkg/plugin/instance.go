package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justyntemme/scripthost/pkg/dsp/gain"
	"github.com/justyntemme/scripthost/pkg/dsp/oscillator"
	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/param"
	"github.com/justyntemme/scripthost/pkg/framework/paramsync"
	fw "github.com/justyntemme/scripthost/pkg/framework/plugin"
	"github.com/justyntemme/scripthost/pkg/framework/process"
	"github.com/justyntemme/scripthost/pkg/script"
)

// Parameter names the built-in tone generator listens to. A gain declared
// with unit "dB" is converted to linear amplitude; wave is optional and
// selects the oscillator shape.
const (
	GainParam      = "gain"
	FrequencyParam = "freq"
	WaveParam      = "wave"
)

// Instance ties the host parameters, the script engine and the
// synchronizer together. ProcessAudio runs on the audio thread; every other
// method is control plane.
type Instance struct {
	*fw.BaseProcessor

	info   fw.Info
	params *ParameterManager
	engine *script.Engine
	sync   *paramsync.Synchronizer
	timer  *debug.BlockTimer
	log    *debug.Logger

	mu sync.Mutex // serializes LoadScript and Idle

	processing atomic.Bool
	suspended  atomic.Bool
	resetPhase atomic.Bool
	gainIdx    atomic.Int32
	freqIdx    atomic.Int32
	waveIdx    atomic.Int32
	gainDB     atomic.Bool

	osc *oscillator.Oscillator // audio thread only
}

// InstanceOption configures an Instance.
type InstanceOption func(*Instance)

// WithLogger sets the instance logger. The script engine logs under it.
func WithLogger(l *debug.Logger) InstanceOption {
	return func(i *Instance) {
		i.log = l
	}
}

// NewInstance creates an instance with no script loaded.
func NewInstance(info fw.Info, opts ...InstanceOption) *Instance {
	i := &Instance{
		BaseProcessor: fw.NewBaseProcessor(),
		info:          info,
		params:        NewParameterManager(nil),
		timer:         debug.NewBlockTimer(),
		log:           debug.Default().With("host"),
		osc:           oscillator.New(48000),
	}
	i.clearToneIndices()
	for _, opt := range opts {
		opt(i)
	}
	i.engine = script.New(script.WithLogger(i.log.With("script")))
	i.sync = paramsync.New(paramsync.WithBlockTimer(i.timer))
	i.OnInitialize(i.setup)
	i.OnSetActive(func(active bool) error {
		i.processing.Store(active)
		return nil
	})
	i.OnReset(func() { i.resetPhase.Store(true) })
	return i
}

func (i *Instance) setup(sampleRate float64, maxBlockSize int32) error {
	if err := i.info.ValidateUID(); err != nil {
		return err
	}
	i.engine.SetSampleRate(sampleRate)
	i.sync.SetSampleRate(sampleRate)
	i.log.Info("processing setup", "sample_rate", sampleRate, "max_block", maxBlockSize)
	return nil
}

// Info returns the plugin metadata, specialised to the loaded script.
func (i *Instance) Info() fw.Info {
	if name := i.engine.Name(); name != "" {
		return i.info.ForScript(name)
	}
	return i.info
}

// Parameters returns the host-facing parameters.
func (i *Instance) Parameters() *ParameterManager {
	return i.params
}

// Engine returns the script engine.
func (i *Instance) Engine() *script.Engine {
	return i.engine
}

// Synchronizer returns the parameter synchronizer.
func (i *Instance) Synchronizer() *paramsync.Synchronizer {
	return i.sync
}

// BlockTimer returns the timer fed by every synchronization pass.
func (i *Instance) BlockTimer() *debug.BlockTimer {
	return i.timer
}

// SetupProcessing records the processing setup and passes the sample rate
// on to the script and the synchronizer. The plugin ID must be set.
func (i *Instance) SetupProcessing(sampleRate float64, maxBlockSize int32) error {
	if err := i.Initialize(sampleRate, maxBlockSize); err != nil {
		return fmt.Errorf("setup processing: %w", err)
	}
	return nil
}

// SetProcessing starts or stops audio processing.
func (i *Instance) SetProcessing(on bool) error {
	return i.SetActive(on)
}

// Processing reports whether audio processing is on.
func (i *Instance) Processing() bool {
	return i.IsActive()
}

// LoadFile reads a script from disk and loads it.
func (i *Instance) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	return i.LoadScript(filepath.Base(path), string(src))
}

// LoadScript replaces the running script. Processing is suspended for the
// duration: the synchronizer is reset, the script runs and declares its
// parameters, the host parameters are rebuilt from those declarations, and
// the synchronizer is initialized against both. On error no script is
// loaded and no parameters are published.
func (i *Instance) LoadScript(name, source string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.suspended.Store(true)
	defer i.suspended.Store(false)

	i.clearToneIndices()
	i.sync.Reset()
	i.params.Clear()

	if err := i.engine.Load(name, source); err != nil {
		i.log.Error("script load failed", "name", name, "err", err)
		return err
	}

	decls := i.engine.Declarations()
	params := make([]*param.Parameter, len(decls))
	for k, d := range decls {
		params[k] = param.New(uint32(k), d.Name).
			Range(d.Range.Min, d.Range.Max).
			Step(d.Range.Step).
			Default(d.Default).
			Unit(d.Unit).
			Build()
	}
	if err := i.params.Publish(params...); err != nil {
		i.engine.Unload()
		return err
	}

	i.sync.Initialize(i.params, i.engine, len(decls), i.SampleRate())
	gainIdx := indexOf(i.engine, GainParam)
	if gainIdx >= 0 {
		i.gainDB.Store(decls[gainIdx].Unit == "dB" || decls[gainIdx].Unit == "db")
	}
	i.gainIdx.Store(int32(gainIdx))
	i.freqIdx.Store(int32(indexOf(i.engine, FrequencyParam)))
	i.waveIdx.Store(int32(indexOf(i.engine, WaveParam)))

	i.log.Info("script active", "name", name, "params", len(decls), "uid", i.info.ForScript(name).UUID())
	return nil
}

func (i *Instance) clearToneIndices() {
	i.gainIdx.Store(-1)
	i.freqIdx.Store(-1)
	i.waveIdx.Store(-1)
}

func indexOf(e *script.Engine, name string) int {
	if idx, ok := e.Index(name); ok {
		return idx
	}
	return -1
}

// Unload stops the script and withdraws all parameters.
func (i *Instance) Unload() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.suspended.Store(true)
	defer i.suspended.Store(false)

	i.clearToneIndices()
	i.sync.Reset()
	i.params.Clear()
	i.engine.Unload()
}

// Close releases the script engine.
func (i *Instance) Close() error {
	i.Unload()
	return i.engine.Close()
}

// ProcessAudio synchronizes parameters for the block, then renders a tone
// from the script's gain and freq parameters when both exist. Without them
// the input passes through. Output is silent while processing is off or a
// script is loading.
func (i *Instance) ProcessAudio(ctx *process.Context) {
	if !i.processing.Load() || i.suspended.Load() {
		ctx.Clear()
		return
	}
	if i.resetPhase.CompareAndSwap(true, false) {
		i.osc.Reset()
	}

	n := ctx.NumSamples()
	i.sync.UpdateFromAudioThread(n)

	level, ok := i.engine.Value(int(i.gainIdx.Load()))
	if !ok {
		ctx.PassThrough()
		return
	}
	freq, ok := i.engine.Value(int(i.freqIdx.Load()))
	if !ok || ctx.SampleRate <= 0 {
		ctx.PassThrough()
		return
	}

	shape := oscillator.Sine
	if w, ok := i.engine.Value(int(i.waveIdx.Load())); ok {
		shape = oscillator.ShapeFromValue(w)
	}
	if i.gainDB.Load() {
		level = gain.DbToLinear(level)
	}

	buf := ctx.WorkBuffer()
	i.osc.SetSampleRate(ctx.SampleRate)
	i.osc.SetFrequency(freq)
	i.osc.Process(buf, shape)
	gain.ApplyBuffer(buf, float32(level))
	gain.HardClipBuffer(buf, 1)
	ctx.FillOutputs(buf)
}

// Idle runs one control-plane cycle: the script's tick callback, then
// delivery of staged script changes to the host. It returns the number of
// host notifications made. A script error is returned after the delivery
// still happens.
func (i *Instance) Idle(dt time.Duration) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	err := i.engine.Tick(dt)
	if errors.Is(err, script.ErrNotLoaded) {
		err = nil
	}
	return i.sync.PushQueuedUpdates(), err
}

// RunController calls Idle at rate Hz until ctx is done. Script errors are
// logged and do not stop the loop.
func (i *Instance) RunController(ctx context.Context, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("control rate must be positive, got %g", rate)
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rate))
	defer ticker.Stop()

	last := time.Now()
	var failing bool
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			_, err := i.Idle(now.Sub(last))
			last = now
			switch {
			case err != nil && !failing:
				i.log.Warn("script tick failed", "err", err)
				failing = true
			case err == nil && failing:
				i.log.Info("script tick recovered")
				failing = false
			}
		}
	}
}

var _ Processor = (*Instance)(nil)
var _ paramsync.HostParameters = (*ParameterManager)(nil)
