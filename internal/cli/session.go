package cli

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/scripthost/internal/config"
	"github.com/justyntemme/scripthost/pkg/audio"
	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/midi"
	"github.com/justyntemme/scripthost/pkg/plugin"
)

// session is one loaded script with everything needed to play it.
type session struct {
	cfg      config.Config
	log      *debug.Logger
	inst     *plugin.Instance
	router   *midi.Router
	renderer *audio.Renderer
}

// newSession loads cfg.Script. Script-driven edits are logged and then
// passed to handler, which may be nil.
func newSession(cfg config.Config, log *debug.Logger, handler plugin.ComponentHandler) (*session, error) {
	if cfg.Script == "" {
		return nil, WrapExitError(ExitCommandError, "no script given", nil)
	}

	inst := plugin.NewInstance(HostInfo, plugin.WithLogger(log))
	inst.Parameters().SetComponentHandler(plugin.LoggingHandler{
		Log:    log.With("edits"),
		Params: inst.Parameters(),
		Next:   handler,
	})
	if err := inst.SetupProcessing(float64(cfg.Audio.SampleRate), int32(cfg.Audio.BlockSize)); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid audio setup", err)
	}
	if err := inst.LoadFile(cfg.Script); err != nil {
		_ = inst.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load script", err)
	}

	router := midi.NewRouter(inst.Parameters(), log.With("midi"))
	if err := router.Bind(cfg.MIDI.Mappings...); err != nil {
		_ = inst.Close()
		return nil, WrapExitError(ExitCommandError, "invalid MIDI mapping", err)
	}
	for _, name := range router.Unresolved() {
		log.Warn("MIDI mapping has no parameter", "param", name)
	}

	return &session{
		cfg:      cfg,
		log:      log,
		inst:     inst,
		router:   router,
		renderer: audio.NewRenderer(inst, float64(cfg.Audio.SampleRate), cfg.Audio.Channels, cfg.Audio.BlockSize),
	}, nil
}

// run plays the session until ctx is done: the control loop, the audio
// backend and the MIDI listener each get a goroutine, and the first error
// stops the others.
func (s *session) run(ctx context.Context) error {
	backend, err := audio.Open(audio.Options{
		Backend:    s.cfg.Audio.Backend,
		SampleRate: s.cfg.Audio.SampleRate,
		Latency:    s.cfg.Audio.Latency,
	}, s.renderer)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open audio backend", err)
	}

	if err := s.inst.SetProcessing(true); err != nil {
		_ = backend.Close()
		return WrapExitError(ExitFailure, "failed to start processing", err)
	}
	defer func() { _ = s.inst.SetProcessing(false) }()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.inst.RunController(ctx, s.cfg.ControlRate)
	})

	g.Go(func() error {
		if err := backend.Start(); err != nil {
			return fmt.Errorf("start %s backend: %w", backend.Name(), err)
		}
		s.log.Info("audio started", "backend", backend.Name(), "sample_rate", s.cfg.Audio.SampleRate, "block", s.cfg.Audio.BlockSize)
		<-ctx.Done()
		return backend.Close()
	})

	if port := s.cfg.MIDI.Port; port != "" {
		g.Go(func() error {
			stop, err := s.router.Listen(port)
			if err != nil {
				return err
			}
			<-ctx.Done()
			stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "host stopped", err)
	}
	return nil
}

func (s *session) close() {
	_ = s.inst.Close()
}
