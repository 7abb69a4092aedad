package oscillator

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	o := New(48000)
	o.SetFrequency(12000) // quarter cycle per sample

	buf := make([]float32, 4)
	o.Process(buf, Sine)

	want := []float32{0, 1, 0, -1}
	for i := range want {
		if math.Abs(float64(buf[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, buf[i], want[i])
		}
	}
	if o.Phase() != 0 {
		t.Errorf("phase after one cycle = %f, want 0", o.Phase())
	}
}

func TestShapes(t *testing.T) {
	tests := []struct {
		shape Shape
		want  []float32
	}{
		{Saw, []float32{-1, -0.5, 0, 0.5}},
		{Square, []float32{1, 1, -1, -1}},
		{Triangle, []float32{-1, 0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			o := New(4)
			o.SetFrequency(1)
			buf := make([]float32, 4)
			o.Process(buf, tt.shape)
			for i := range tt.want {
				if buf[i] != tt.want[i] {
					t.Errorf("sample %d = %f, want %f", i, buf[i], tt.want[i])
				}
			}
		})
	}
}

func TestReset(t *testing.T) {
	o := New(48000)
	a := o.Next(Sine)
	b := o.Next(Sine)
	o.Reset()
	if o.Next(Sine) != a || o.Next(Sine) != b {
		t.Error("Reset should restart the waveform")
	}
}

func TestSetSampleRateKeepsFrequency(t *testing.T) {
	o := New(0)
	o.SetFrequency(100)
	if o.Next(Saw) != -1 || o.Phase() != 0 {
		t.Error("zero sample rate should hold the phase")
	}
	o.SetSampleRate(400)
	o.Next(Saw)
	if o.Phase() != 0.25 {
		t.Errorf("phase = %f, want 0.25", o.Phase())
	}
	if o.Frequency() != 100 {
		t.Errorf("frequency = %f, want 100", o.Frequency())
	}
}

func TestShapeFromValue(t *testing.T) {
	for v, want := range map[float64]Shape{
		-1:  Sine,
		0.4: Sine,
		0.6: Saw,
		2:   Square,
		3:   Triangle,
		9:   Triangle,
	} {
		if got := ShapeFromValue(v); got != want {
			t.Errorf("ShapeFromValue(%v) = %v, want %v", v, got, want)
		}
	}
	if Shape(7).String() != "shape(7)" {
		t.Errorf("unexpected name %q", Shape(7).String())
	}
}

func BenchmarkProcess(b *testing.B) {
	o := New(48000)
	buf := make([]float32, 512)
	for i := 0; i < b.N; i++ {
		o.Process(buf, Sine)
	}
}
