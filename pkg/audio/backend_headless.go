package audio

import (
	"sync"
	"time"
)

// HeadlessBackend renders blocks on a timer at the pace a device would pull
// them, and discards the output. Used for CI and machines without audio.
type HeadlessBackend struct {
	r      *Renderer
	period time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewHeadlessBackend creates a backend pacing r at sampleRate.
func NewHeadlessBackend(sampleRate int, r *Renderer) *HeadlessBackend {
	period := time.Millisecond
	if sampleRate > 0 {
		period = time.Duration(int64(r.BlockSize()) * int64(time.Second) / int64(sampleRate))
	}
	return &HeadlessBackend{r: r, period: period}
}

// Name implements Backend.
func (b *HeadlessBackend) Name() string {
	return BackendHeadless
}

// Period returns the time between blocks.
func (b *HeadlessBackend) Period() time.Duration {
	return b.period
}

// Start implements Backend.
func (b *HeadlessBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop != nil {
		return nil
	}
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(b.stop, b.done)
	return nil
}

func (b *HeadlessBackend) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(b.period)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.r.RenderBlock()
		}
	}
}

// Stop implements Backend. It returns once the render goroutine has exited.
func (b *HeadlessBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stop == nil {
		return nil
	}
	close(b.stop)
	<-b.done
	b.stop, b.done = nil, nil
	return nil
}

// Close implements Backend.
func (b *HeadlessBackend) Close() error {
	return b.Stop()
}
