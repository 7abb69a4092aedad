package audio

import (
	"fmt"
	"time"
)

// Backend pulls audio from a Renderer.
type Backend interface {
	Name() string
	Start() error
	Stop() error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendOto      = "oto"
	BackendHeadless = "headless"
)

// Options configures Open.
type Options struct {
	Backend    string
	SampleRate int
	Latency    time.Duration // device buffer; zero picks the driver default
}

// Open creates the named backend for r.
func Open(opts Options, r *Renderer) (Backend, error) {
	switch opts.Backend {
	case BackendOto, "":
		return NewOtoBackend(opts.SampleRate, opts.Latency, r)
	case BackendHeadless:
		return NewHeadlessBackend(opts.SampleRate, r), nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", opts.Backend)
}
