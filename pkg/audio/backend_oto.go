//go:build !headless

package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoBackend plays a Renderer through the system audio device.
type OtoBackend struct {
	ctx    *oto.Context
	player *oto.Player

	mu      sync.Mutex // setup and control only
	started bool
}

// NewOtoBackend opens the audio device. The renderer's Read runs on oto's
// playback goroutine.
func NewOtoBackend(sampleRate int, latency time.Duration, r *Renderer) (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: r.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	return &OtoBackend{
		ctx:    ctx,
		player: ctx.NewPlayer(r),
	}, nil
}

// Name implements Backend.
func (b *OtoBackend) Name() string {
	return BackendOto
}

// Start implements Backend.
func (b *OtoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
	return nil
}

// Stop implements Backend.
func (b *OtoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
	return nil
}

// Close implements Backend.
func (b *OtoBackend) Close() error {
	_ = b.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.player == nil {
		return nil
	}
	b.player.Close()
	b.player = nil
	return nil
}
