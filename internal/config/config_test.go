package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/scripthost/pkg/framework/debug"
	"github.com/justyntemme/scripthost/pkg/midi"
)

func TestDecodeEmptyUsesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, debug.LogLevelInfo, cfg.Level())
}

func TestDecodeOverrides(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
script: tone.lua
control_rate: 120
log_level: debug
audio:
  backend: headless
  sample_rate: 44100
  latency: 20ms
midi:
  port: "Launch Control XL"
  mappings:
    - {channel: 0, controller: 7, param: gain}
    - {channel: 1, controller: 74, param: freq}
`))
	require.NoError(t, err)

	assert.Equal(t, "tone.lua", cfg.Script)
	assert.Equal(t, 120.0, cfg.ControlRate)
	assert.Equal(t, debug.LogLevelDebug, cfg.Level())
	assert.Equal(t, "headless", cfg.Audio.Backend)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 256, cfg.Audio.BlockSize, "unset fields keep defaults")
	assert.Equal(t, 20*time.Millisecond, cfg.Audio.Latency)
	assert.Equal(t, "Launch Control XL", cfg.MIDI.Port)
	assert.Equal(t, []midi.Mapping{
		{Channel: 0, Controller: 7, Param: "gain"},
		{Channel: 1, Controller: 74, Param: "freq"},
	}, cfg.MIDI.Mappings)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("scirpt: typo.lua\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Audio.Backend = "jack" }, "audio.backend"},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 100 }, "audio.sample_rate"},
		{"block size", func(c *Config) { c.Audio.BlockSize = 0 }, "audio.block_size"},
		{"channels", func(c *Config) { c.Audio.Channels = 0 }, "audio.channels"},
		{"latency", func(c *Config) { c.Audio.Latency = -time.Second }, "audio.latency"},
		{"control rate", func(c *Config) { c.ControlRate = 0 }, "control_rate"},
		{"log level", func(c *Config) { c.LogLevel = "chatty" }, "unknown log level"},
		{"mapping", func(c *Config) {
			c.MIDI.Mappings = []midi.Mapping{{Channel: 16, Controller: 1, Param: "x"}}
		}, "midi.mappings[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLoadResolvesScriptPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "host.yaml")
	require.NoError(t, os.WriteFile(path, []byte("script: scripts/tone.lua\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scripts", "tone.lua"), cfg.Script)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
