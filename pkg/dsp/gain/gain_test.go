package gain

import (
	"math"
	"testing"
)

func TestDbConversion(t *testing.T) {
	tests := []struct {
		name    string
		linear  float64
		db      float64
		epsilon float64
	}{
		{"Unity gain", 1.0, 0.0, 0.001},
		{"Half amplitude", 0.5, -6.02, 0.01},
		{"Double amplitude", 2.0, 6.02, 0.01},
		{"Zero amplitude", 0.0, MinDB, 0.001},
		{"Negative amplitude", -1.0, MinDB, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDb := LinearToDb(tt.linear)
			if math.Abs(gotDb-tt.db) > tt.epsilon {
				t.Errorf("LinearToDb(%f) = %f, want %f", tt.linear, gotDb, tt.db)
			}

			// MinDB does not round-trip
			if tt.db != MinDB {
				gotLinear := DbToLinear(tt.db)
				if math.Abs(gotLinear-math.Abs(tt.linear)) > tt.epsilon {
					t.Errorf("DbToLinear(%f) = %f, want %f", tt.db, gotLinear, math.Abs(tt.linear))
				}
			}
		})
	}

	if DbToLinear(MinDB) != 0 {
		t.Error("DbToLinear(MinDB) should be silent")
	}
}

func TestApplyBuffer(t *testing.T) {
	buffer := []float32{1.0, 0.5, -0.5, -1.0}
	expected := []float32{0.5, 0.25, -0.25, -0.5}

	ApplyBuffer(buffer, 0.5)

	for i, v := range buffer {
		if v != expected[i] {
			t.Errorf("ApplyBuffer: buffer[%d] = %f, want %f", i, v, expected[i])
		}
	}
}

func TestHardClip(t *testing.T) {
	tests := []struct {
		input     float32
		threshold float32
		expected  float32
	}{
		{0.5, 1.0, 0.5},
		{1.5, 1.0, 1.0},
		{-1.5, 1.0, -1.0},
		{0.0, 1.0, 0.0},
	}

	for _, tt := range tests {
		result := HardClip(tt.input, tt.threshold)
		if result != tt.expected {
			t.Errorf("HardClip(%f, %f) = %f, want %f", tt.input, tt.threshold, result, tt.expected)
		}
	}

	buf := []float32{2, -2, 0.25}
	HardClipBuffer(buf, 1)
	if buf[0] != 1 || buf[1] != -1 || buf[2] != 0.25 {
		t.Errorf("HardClipBuffer = %v", buf)
	}
}
