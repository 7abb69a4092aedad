// Package process provides the audio processing context handed to processors
// once per block.
package process

// Context provides a clean API for audio processing with zero allocations
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	// Pre-allocated work buffer
	workBuffer []float32
}

// NewContext creates a new process context with a pre-allocated work
// buffer of maxBlockSize samples.
func NewContext(maxBlockSize int) *Context {
	return &Context{
		workBuffer: make([]float32, maxBlockSize),
	}
}

// MaxBlockSize returns the size the work buffer was allocated for.
func (c *Context) MaxBlockSize() int {
	return len(c.workBuffer)
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Input) > 0 && len(c.Input[0]) > 0 {
		return len(c.Input[0])
	}
	if len(c.Output) > 0 && len(c.Output[0]) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns a slice of the pre-allocated work buffer
// sized to the current block size - no allocation!
func (c *Context) WorkBuffer() []float32 {
	n := c.NumSamples()
	if n > len(c.workBuffer) {
		n = len(c.workBuffer)
	}
	return c.workBuffer[:n]
}

// PassThrough copies input to output (for bypass). Outputs without a
// matching input are cleared.
func (c *Context) PassThrough() {
	c.ProcessChannels(func(_ int, input, output []float32) {
		copy(output, input)
	})
	for ch := c.GetNumChannels(); ch < len(c.Output); ch++ {
		clear(c.Output[ch])
	}
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	c.ProcessOutputs(func(_ int, output []float32) {
		clear(output)
	})
}
