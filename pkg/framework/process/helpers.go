package process

// ProcessChannels processes all available channels with the given function
func (ctx *Context) ProcessChannels(fn func(ch int, input, output []float32)) {
	numChannels := ctx.GetNumChannels()
	for ch := 0; ch < numChannels; ch++ {
		fn(ch, ctx.Input[ch], ctx.Output[ch])
	}
}

// ProcessOutputs calls fn for every output channel. Generators use this
// since they have no input to pair with.
func (ctx *Context) ProcessOutputs(fn func(ch int, output []float32)) {
	for ch := range ctx.Output {
		fn(ch, ctx.Output[ch])
	}
}

// FillOutputs copies src into every output channel.
func (ctx *Context) FillOutputs(src []float32) {
	ctx.ProcessOutputs(func(_ int, output []float32) {
		copy(output, src)
	})
}

// GetNumChannels returns the minimum of input and output channels
func (ctx *Context) GetNumChannels() int {
	numChannels := ctx.NumInputChannels()
	if ctx.NumOutputChannels() < numChannels {
		numChannels = ctx.NumOutputChannels()
	}
	return numChannels
}
