//go:build headless

package audio

import (
	"errors"
	"time"
)

// OtoBackend is unavailable in headless builds.
type OtoBackend struct{}

// NewOtoBackend always fails in headless builds.
func NewOtoBackend(sampleRate int, latency time.Duration, r *Renderer) (*OtoBackend, error) {
	return nil, errors.New("audio device output not built in (headless build)")
}

// Name implements Backend.
func (b *OtoBackend) Name() string { return BackendOto }

// Start implements Backend.
func (b *OtoBackend) Start() error { return nil }

// Stop implements Backend.
func (b *OtoBackend) Stop() error { return nil }

// Close implements Backend.
func (b *OtoBackend) Close() error { return nil }
