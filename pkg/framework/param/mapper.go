package param

// Range describes the native span of a parameter as reported by whoever owns it.
// Step is informational (discrete vs continuous); mapping ignores it.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// ToNormalized maps a native value into the host's [0,1] space.
// A degenerate range (max <= min) maps everything to 0.
func ToNormalized(native, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (native - min) / (max - min)
}

// ToNative maps a normalized value back into [min,max].
func ToNative(normalized, min, max float64) float64 {
	return min + normalized*(max-min)
}

// Normalize converts a native value using the range bounds.
func (r Range) Normalize(native float64) float64 {
	return ToNormalized(native, r.Min, r.Max)
}

// Denormalize converts a normalized value using the range bounds.
func (r Range) Denormalize(normalized float64) float64 {
	return ToNative(normalized, r.Min, r.Max)
}

// IsDiscrete reports whether the parameter moves in fixed steps.
func (r Range) IsDiscrete() bool {
	return r.Step > 0
}

// StepCount returns the number of discrete steps across the range, or 0
// for continuous parameters.
func (r Range) StepCount() int32 {
	if r.Step <= 0 || r.Max <= r.Min {
		return 0
	}
	return int32((r.Max-r.Min)/r.Step + 0.5)
}
