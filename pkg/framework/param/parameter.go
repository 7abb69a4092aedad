package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter is a host-visible automatable parameter. The value is held
// normalized and is safe to read from the audio thread.
type Parameter struct {
	ID           uint32
	Name         string
	Unit         string
	Range        Range
	DefaultValue float64 // normalized

	// Atomic value for lock-free access in audio thread
	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to 0-1
func (p *Parameter) SetValue(value float64) {
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	p.value.Store(math.Float64bits(value))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// FormatValue returns the display string for a normalized value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Range.Denormalize(normalized)
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	if p.Range.IsDiscrete() {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a display string into a normalized value
func (p *Parameter) ParseValue(str string) (float64, error) {
	parse := p.parseFunc
	if parse == nil {
		parse = func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	}
	plain, err := parse(str)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", p.Name, str, err)
	}
	return clamp01(p.Range.Normalize(plain)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
