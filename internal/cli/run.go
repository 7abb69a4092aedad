package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Backend     string
	SampleRate  int
	BlockSize   int
	ControlRate float64
	MIDIPort    string
	Duration    time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [script.lua]",
		Short: "Play a script through the audio device",
		Long: `Load a Lua script and run it as a plugin until interrupted.

The script path may come from the config file instead of the argument.
Flags override config file values.

Example:
  scripthost run examples/tone.lua
  scripthost run -c host.yaml --backend headless --duration 10s`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHost(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Backend, "backend", "", "audio backend (oto|headless)")
	cmd.Flags().IntVar(&opts.SampleRate, "sample-rate", 0, "sample rate in Hz")
	cmd.Flags().IntVar(&opts.BlockSize, "block-size", 0, "frames per audio block")
	cmd.Flags().Float64Var(&opts.ControlRate, "control-rate", 0, "script tick rate in Hz")
	cmd.Flags().StringVar(&opts.MIDIPort, "midi-port", "", "MIDI input port for CC mappings")
	cmd.Flags().DurationVar(&opts.Duration, "duration", 0, "stop after this long (0 runs until interrupted)")

	return cmd
}

func runHost(cmd *cobra.Command, opts *RunOptions, args []string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Script = args[0]
	}
	if opts.Backend != "" {
		cfg.Audio.Backend = opts.Backend
	}
	if opts.SampleRate != 0 {
		cfg.Audio.SampleRate = opts.SampleRate
	}
	if opts.BlockSize != 0 {
		cfg.Audio.BlockSize = opts.BlockSize
	}
	if opts.ControlRate != 0 {
		cfg.ControlRate = opts.ControlRate
	}
	if opts.MIDIPort != "" {
		cfg.MIDI.Port = opts.MIDIPort
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := newSession(cfg, log, nil)
	if err != nil {
		return err
	}
	defer s.close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s (%d parameters). Press Ctrl-C to stop.\n",
		s.inst.Engine().Name(), s.inst.Parameters().GetParameterCount())

	if err := s.run(ctx); err != nil {
		return err
	}

	stats := s.inst.Synchronizer().Stats()
	log.Info("host stopped",
		"blocks", s.renderer.Blocks(),
		"host_wins", stats.HostWins,
		"engine_queued", stats.EngineQueued,
		"pushed", stats.Pushed,
		"timing", s.inst.BlockTimer().Snapshot().Report(float64(cfg.Audio.SampleRate)))
	return nil
}
