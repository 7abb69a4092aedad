package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder
func New(id uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			ID:    id,
			Name:  name,
			Range: Range{Min: 0, Max: 1},
		},
	}
}

// Range sets the native span
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Range.Min = min
	b.param.Range.Max = max
	return b
}

// Step sets the step size; zero means continuous
func (b *Builder) Step(step float64) *Builder {
	b.param.Range.Step = step
	return b
}

// Default sets the default value in native units. Call after Range.
func (b *Builder) Default(value float64) *Builder {
	b.param.DefaultValue = clamp01(b.param.Range.Normalize(value))
	return b
}

// Unit sets the unit string and picks a matching formatter
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	if format, parse := FormatterFor(unit); format != nil {
		b.param.formatFunc = format
		b.param.parseFunc = parse
	}
	return b
}

// Build returns the parameter with its value set to the default
func (b *Builder) Build() *Parameter {
	b.param.Reset()
	return b.param
}
