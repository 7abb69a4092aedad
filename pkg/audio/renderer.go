// Package audio drives a processor from an output device or a timer.
package audio

import (
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/justyntemme/scripthost/pkg/framework/process"
	"github.com/justyntemme/scripthost/pkg/plugin"
)

// Renderer runs a processor block by block and hands out the result as
// interleaved float32 samples. All buffers are allocated up front; Read and
// RenderBlock do not allocate.
type Renderer struct {
	proc     plugin.Processor
	ctx      *process.Context
	channels int

	interleaved []float32
	pos         int

	blocks atomic.Uint64
}

// NewRenderer creates a renderer producing channels outputs in blocks of
// blockSize frames. The processor sees silent inputs.
func NewRenderer(proc plugin.Processor, sampleRate float64, channels, blockSize int) *Renderer {
	ctx := process.NewContext(blockSize)
	ctx.SampleRate = sampleRate
	ctx.Input = make([][]float32, channels)
	ctx.Output = make([][]float32, channels)
	for ch := 0; ch < channels; ch++ {
		ctx.Input[ch] = make([]float32, blockSize)
		ctx.Output[ch] = make([]float32, blockSize)
	}

	interleaved := make([]float32, channels*blockSize)
	return &Renderer{
		proc:        proc,
		ctx:         ctx,
		channels:    channels,
		interleaved: interleaved,
		pos:         len(interleaved),
	}
}

// Channels returns the number of interleaved channels.
func (r *Renderer) Channels() int {
	return r.channels
}

// BlockSize returns the frames per block.
func (r *Renderer) BlockSize() int {
	return r.ctx.MaxBlockSize()
}

// Blocks returns how many blocks have been rendered.
func (r *Renderer) Blocks() uint64 {
	return r.blocks.Load()
}

// RenderBlock processes one block and returns it interleaved. The slice is
// reused by the next call.
func (r *Renderer) RenderBlock() []float32 {
	r.proc.ProcessAudio(r.ctx)

	r.ctx.ProcessOutputs(r.interleave)
	r.pos = 0
	r.blocks.Add(1)
	return r.interleaved
}

func (r *Renderer) interleave(ch int, out []float32) {
	for i, v := range out {
		r.interleaved[i*r.channels+ch] = v
	}
}

// Read implements io.Reader, producing little-endian float32 samples.
// Only whole samples are written.
func (r *Renderer) Read(p []byte) (int, error) {
	n := 0
	for n+4 <= len(p) {
		if r.pos >= len(r.interleaved) {
			r.RenderBlock()
		}
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(r.interleaved[r.pos]))
		r.pos++
		n += 4
	}
	return n, nil
}
