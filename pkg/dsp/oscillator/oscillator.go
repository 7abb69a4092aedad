// Package oscillator provides the tone generator voiced by the plugin.
package oscillator

import (
	"fmt"
	"math"
)

// Shape selects the waveform.
type Shape int

const (
	Sine Shape = iota
	Saw
	Square
	Triangle
	numShapes
)

// String returns the shape name.
func (s Shape) String() string {
	switch s {
	case Sine:
		return "sine"
	case Saw:
		return "saw"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ShapeFromValue maps a script value to a shape, rounding to the nearest
// and clamping to the known shapes.
func ShapeFromValue(v float64) Shape {
	s := Shape(math.Round(v))
	if s < Sine {
		return Sine
	}
	if s >= numShapes {
		return numShapes - 1
	}
	return s
}

// Oscillator generates periodic waveforms. Phase is kept in cycles (0-1).
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	phaseInc   float64
}

// New creates an oscillator at 440 Hz.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{sampleRate: sampleRate}
	o.SetFrequency(440)
	return o
}

// SetSampleRate changes the sample rate, keeping the frequency.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = sampleRate
	o.SetFrequency(o.frequency)
}

// SetFrequency sets the oscillator frequency.
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	if o.sampleRate > 0 {
		o.phaseInc = freq / o.sampleRate
	} else {
		o.phaseInc = 0
	}
}

// Frequency returns the oscillator frequency.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Phase returns the current phase in cycles.
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// Reset resets the oscillator phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0
}

func (o *Oscillator) updatePhase() {
	o.phase += o.phaseInc
	if o.phase >= 1.0 || o.phase < 0 {
		o.phase -= math.Floor(o.phase)
	}
}

// Next returns one sample of the given shape and advances the phase.
func (o *Oscillator) Next(shape Shape) float32 {
	var sample float64
	switch shape {
	case Saw:
		sample = 2*o.phase - 1
	case Square:
		if o.phase < 0.5 {
			sample = 1
		} else {
			sample = -1
		}
	case Triangle:
		if o.phase < 0.5 {
			sample = 4*o.phase - 1
		} else {
			sample = 3 - 4*o.phase
		}
	default:
		sample = math.Sin(2 * math.Pi * o.phase)
	}
	o.updatePhase()
	return float32(sample)
}

// Process fills buffer with the given shape - no allocations
func (o *Oscillator) Process(buffer []float32, shape Shape) {
	for i := range buffer {
		buffer[i] = o.Next(shape)
	}
}
