package param

import (
	"math"
	"testing"
)

func TestToNormalized(t *testing.T) {
	tests := []struct {
		name     string
		native   float64
		min, max float64
		want     float64
	}{
		{"midpoint", 5, 0, 10, 0.5},
		{"lower bound", -12, -12, 12, 0},
		{"upper bound", 12, -12, 12, 1},
		{"degenerate equal", 3, 3, 3, 0},
		{"degenerate inverted", 3, 10, 0, 0},
		{"outside range", 15, 0, 10, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNormalized(tt.native, tt.min, tt.max); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ToNormalized(%v, %v, %v) = %v, want %v", tt.native, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestToNative(t *testing.T) {
	if got := ToNative(0.5, 0, 10); got != 5 {
		t.Errorf("Expected 5, got %f", got)
	}
	if got := ToNative(0.25, 20, 20000); math.Abs(got-5015) > 1e-9 {
		t.Errorf("Expected 5015, got %f", got)
	}
	if got := ToNative(0.7, 4, 4); got != 4 {
		t.Errorf("Degenerate range should pin to min, got %f", got)
	}
}

func TestRoundTrip(t *testing.T) {
	ranges := []Range{
		{Min: 0, Max: 10, Step: 1},
		{Min: -60, Max: 12},
		{Min: 20, Max: 20000},
		{Min: -1, Max: 1},
		{Min: 0.001, Max: 0.002},
	}

	for _, r := range ranges {
		for i := 0; i <= 64; i++ {
			x := r.Min + float64(i)/64*(r.Max-r.Min)
			got := r.Denormalize(r.Normalize(x))
			tol := 1e-9 * math.Max(1, math.Abs(r.Max-r.Min))
			if math.Abs(got-x) > tol {
				t.Errorf("range %+v: round trip of %v gave %v", r, x, got)
			}
		}
	}
}

func TestRangeStepCount(t *testing.T) {
	if got := (Range{Min: 0, Max: 10, Step: 1}).StepCount(); got != 10 {
		t.Errorf("Expected 10 steps, got %d", got)
	}
	if got := (Range{Min: 0, Max: 1}).StepCount(); got != 0 {
		t.Errorf("Continuous range should report 0 steps, got %d", got)
	}
	if (Range{Min: 0, Max: 1}).IsDiscrete() {
		t.Error("Continuous range reported as discrete")
	}
}
