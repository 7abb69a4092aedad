// Package config loads the host's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/scripthost/pkg/audio"
	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/framework/paramsync"
	"github.com/justyntemme/scripthost/pkg/midi"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the top-level configuration file.
type Config struct {
	Script string      `yaml:"script"`
	Audio  AudioConfig `yaml:"audio"`
	// ControlRate is how often, in Hz, the script ticks and staged changes
	// are pushed to the host.
	ControlRate float64    `yaml:"control_rate"`
	LogLevel    string     `yaml:"log_level"`
	LogFile     string     `yaml:"log_file"`
	MIDI        MIDIConfig `yaml:"midi"`
}

// AudioConfig selects and configures the audio backend.
type AudioConfig struct {
	Backend    string        `yaml:"backend"`
	SampleRate int           `yaml:"sample_rate"`
	BlockSize  int           `yaml:"block_size"`
	Channels   int           `yaml:"channels"`
	Latency    time.Duration `yaml:"latency"`
}

// MIDIConfig names the input port and its CC bindings.
type MIDIConfig struct {
	Port     string         `yaml:"port"`
	Mappings []midi.Mapping `yaml:"mappings"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Backend:    audio.BackendOto,
			SampleRate: 48000,
			BlockSize:  256,
			Channels:   2,
		},
		ControlRate: 60,
		LogLevel:    "info",
	}
}

// Load reads path on top of the defaults. Relative script paths are
// resolved against the file's directory.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Script != "" && !filepath.IsAbs(cfg.Script) {
		cfg.Script = filepath.Join(filepath.Dir(path), cfg.Script)
	}
	return cfg, nil
}

// Decode parses YAML on top of the defaults and validates the result.
// Unknown fields are rejected.
func Decode(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and names.
func (c Config) Validate() error {
	switch c.Audio.Backend {
	case audio.BackendOto, audio.BackendHeadless:
	default:
		return fmt.Errorf("%w: audio.backend %q must be %s or %s", ErrInvalid, c.Audio.Backend, audio.BackendOto, audio.BackendHeadless)
	}
	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 384000 {
		return fmt.Errorf("%w: audio.sample_rate %d out of range 8000-384000", ErrInvalid, c.Audio.SampleRate)
	}
	if c.Audio.BlockSize < 16 || c.Audio.BlockSize > 8192 {
		return fmt.Errorf("%w: audio.block_size %d out of range 16-8192", ErrInvalid, c.Audio.BlockSize)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 8 {
		return fmt.Errorf("%w: audio.channels %d out of range 1-8", ErrInvalid, c.Audio.Channels)
	}
	if c.Audio.Latency < 0 {
		return fmt.Errorf("%w: audio.latency must not be negative", ErrInvalid)
	}
	if c.ControlRate <= 0 || c.ControlRate > 1000 {
		return fmt.Errorf("%w: control_rate %g out of range (0, 1000]", ErrInvalid, c.ControlRate)
	}
	if _, err := debug.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(c.MIDI.Mappings) > paramsync.MaxParameters {
		return fmt.Errorf("%w: more than %d MIDI mappings", ErrInvalid, paramsync.MaxParameters)
	}
	for i, m := range c.MIDI.Mappings {
		if m.Channel > 15 || m.Controller > 127 || m.Param == "" {
			return fmt.Errorf("%w: midi.mappings[%d]: need channel 0-15, controller 0-127 and a param", ErrInvalid, i)
		}
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() debug.LogLevel {
	l, _ := debug.ParseLevel(c.LogLevel)
	return l
}
