// Package cli implements the scripthost command line.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/justyntemme/scripthost/internal/config"
	"github.com/justyntemme/scripthost/pkg/framework/debug"
	fw "github.com/justyntemme/scripthost/pkg/framework/plugin"
)

// HostInfo identifies the host plugin. Loaded scripts derive their own
// identity from it.
var HostInfo = fw.Info{
	ID:       "com.github.justyntemme.scripthost",
	Name:     "ScriptHost",
	Version:  "0.1.0",
	Vendor:   "scripthost",
	Category: "Fx",
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scripthost CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "scripthost",
		Short: "Lua-scripted plugin host",
		Long: `scripthost runs a Lua script as an audio plugin. Parameters the script
declares are published to the host side and kept in sync in both directions:
host automation reaches the script on the next audio block, and changes the
script makes are reported back to the host.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error|off)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (same as --log-level debug)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewParamsCommand(opts))
	cmd.AddCommand(NewMonitorCommand(opts))
	cmd.AddCommand(NewMIDICommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the config file, if any, and applies the global flags.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		cfg, err = config.Load(o.ConfigPath)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the logger for a command. A configured log file takes
// precedence over w.
func newLogger(cfg config.Config, w io.Writer) (*debug.Logger, error) {
	var log *debug.Logger
	if cfg.LogFile != "" {
		var err error
		log, err = debug.NewFileLogger(cfg.LogFile, "host", debug.DefaultFlags)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open log file", err)
		}
	} else {
		log = debug.New(w, "host", debug.DefaultFlags)
	}
	log.SetLevel(cfg.Level())
	return log, nil
}
