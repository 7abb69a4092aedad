// Package plugin provides plugin metadata and base processor functionality.
package plugin

import (
	"errors"
)

// BaseProcessor provides common functionality for audio processors. Its
// methods run on the control plane.
type BaseProcessor struct {
	sampleRate   float64
	maxBlockSize int32
	active       bool

	// Optional callbacks for customization
	onInitialize func(sampleRate float64, maxBlockSize int32) error
	onSetActive  func(active bool) error
	onReset      func()
}

// NewBaseProcessor creates a new base processor
func NewBaseProcessor() *BaseProcessor {
	return &BaseProcessor{}
}

// Initialize records the processing setup and runs the OnInitialize hook.
func (b *BaseProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if maxBlockSize <= 0 {
		return errors.New("max block size must be positive")
	}
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize

	if b.onInitialize != nil {
		return b.onInitialize(sampleRate, maxBlockSize)
	}

	return nil
}

// SetActive is called when processing starts/stops
func (b *BaseProcessor) SetActive(active bool) error {
	b.active = active
	if !active && b.onReset != nil {
		b.onReset()
	}

	if b.onSetActive != nil {
		return b.onSetActive(active)
	}

	return nil
}

// IsActive reports the last SetActive state.
func (b *BaseProcessor) IsActive() bool {
	return b.active
}

// GetLatencySamples returns the latency in samples - default no latency
func (b *BaseProcessor) GetLatencySamples() int32 {
	return 0
}

// GetTailSamples returns the tail length in samples - default no tail
func (b *BaseProcessor) GetTailSamples() int32 {
	return 0
}

// SampleRate returns the current sample rate
func (b *BaseProcessor) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the largest block the host will send.
func (b *BaseProcessor) MaxBlockSize() int32 {
	return b.maxBlockSize
}

// OnInitialize sets a callback for initialization
func (b *BaseProcessor) OnInitialize(fn func(sampleRate float64, maxBlockSize int32) error) {
	b.onInitialize = fn
}

// OnSetActive sets a callback for activation/deactivation
func (b *BaseProcessor) OnSetActive(fn func(active bool) error) {
	b.onSetActive = fn
}

// OnReset sets a callback for when the processor should reset its state
func (b *BaseProcessor) OnReset(fn func()) {
	b.onReset = fn
}
