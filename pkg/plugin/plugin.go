// Package plugin hosts a Lua script as a plugin: it owns the host-visible
// parameters and keeps them in step with the script's own parameters.
package plugin

import (
	"github.com/justyntemme/scripthost/pkg/framework/process"
)

// Processor handles the actual audio processing
type Processor interface {
	// Initialize is called when the processing setup changes
	Initialize(sampleRate float64, maxBlockSize int32) error

	// ProcessAudio processes audio - ZERO ALLOCATIONS!
	ProcessAudio(ctx *process.Context)

	// SetActive is called when processing starts/stops
	SetActive(active bool) error

	// GetLatencySamples returns the plugin's latency in samples
	GetLatencySamples() int32

	// GetTailSamples returns the tail length in samples
	GetTailSamples() int32
}
