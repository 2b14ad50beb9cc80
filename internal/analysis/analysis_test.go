package analysis

import (
	"math"
	"testing"
)

func TestPowerSpectrumPure(t *testing.T) {
	const n = 64
	data := make([]float64, n)
	for i := range data {
		data[i] = 5 + math.Cos(2*math.Pi*4*float64(i)/n)
	}
	ps := PowerSpectrum(data)
	if len(ps) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(ps))
	}
	for k, v := range ps {
		want := 0.0
		if k == 4 {
			want = n / 2
		}
		if math.Abs(v-want) > 1e-9 {
			t.Errorf("bin %d = %f, want %f", k, v, want)
		}
	}
}

func TestDetrend(t *testing.T) {
	got := Detrend([]float64{1, 2, 3})
	want := []float64{-1, 0, 1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Detrend[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestDominantPeriod(t *testing.T) {
	const dt = 1.0 / 64
	tests := []struct {
		name   string
		period float64
		n      int
	}{
		{"slow sway", 2, 512},
		{"fast sway", 0.5, 512},
		{"one second", 1, 512},
		{"between bins", 0.75, 512},
		{"odd length", 1, 501},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := make([]float64, tt.n)
			for i := range samples {
				samples[i] = 10 + 3*math.Sin(2*math.Pi*float64(i)*dt/tt.period)
			}
			got := DominantPeriod(samples, dt)
			if math.Abs(got-tt.period)/tt.period > 0.05 {
				t.Errorf("DominantPeriod = %f, want %f", got, tt.period)
			}
		})
	}
}

func TestDominantPeriodDegenerate(t *testing.T) {
	if p := DominantPeriod([]float64{1, 1, 1, 1, 1, 1}, 0.1); p != 0 {
		t.Errorf("flat series: got %f, want 0", p)
	}
	if p := DominantPeriod([]float64{1, 2}, 0.1); p != 0 {
		t.Errorf("short series: got %f, want 0", p)
	}
	if p := DominantPeriod([]float64{1, 2, 3, 4, 5}, 0); p != 0 {
		t.Errorf("zero dt: got %f, want 0", p)
	}
}

func TestCentroid(t *testing.T) {
	if c := Centroid([]float64{1, 2, 3, 6}); c != 3 {
		t.Errorf("Centroid = %f, want 3", c)
	}
	if c := Centroid(nil); c != 0 {
		t.Errorf("empty Centroid = %f, want 0", c)
	}
}
