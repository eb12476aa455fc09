package deconv

import (
	"math"
	"testing"
)

func TestIsotopeCosinePerfectMatch(t *testing.T) {
	tab := table(t)
	tpl := tab.Get(5000)

	obs := make([]float64, tab.MaxIsotopeCount())
	copy(obs, tpl.Intensities)

	cos, offset := IsotopeCosine(obs, 5000, tab)
	if offset != 0 {
		t.Fatalf("offset: got %d, want 0", offset)
	}
	if math.Abs(cos-1) > 1e-9 {
		t.Fatalf("cosine: got %v, want 1", cos)
	}
}

func TestIsotopeCosineFindsOffset(t *testing.T) {
	tab := table(t)
	tpl := tab.Get(5000)

	// The observed vector sits two isotopologues high, as if the
	// assumed mono were two below the true one.
	obs := make([]float64, tab.MaxIsotopeCount())
	for i, v := range tpl.Intensities {
		if i+2 < len(obs) {
			obs[i+2] = v
		}
	}

	cos, offset := IsotopeCosine(obs, 5000, tab)
	if offset != 2 {
		t.Fatalf("offset: got %d, want 2", offset)
	}
	if cos < 0.99 {
		t.Fatalf("cosine: got %v, want ~1", cos)
	}
}

func TestIsotopeCosineEmpty(t *testing.T) {
	tab := table(t)
	cos, offset := IsotopeCosine(make([]float64, tab.MaxIsotopeCount()), 5000, tab)
	if cos != 0 || offset != 0 {
		t.Fatalf("empty vector: got (%v, %d), want (0, 0)", cos, offset)
	}
}

func TestChargeFitScore(t *testing.T) {
	gaussian := func(n int, center, sigma float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			x := (float64(i) - center) / sigma
			out[i] = 100 * math.Exp(-0.5*x*x)
		}
		return out
	}

	tests := []struct {
		name      string
		perCharge []float64
		min, max  float64
	}{
		{"empty", make([]float64, 10), 0, 0},
		{"single charge", []float64{0, 0, 5, 0, 0}, 0.5, 0.5},
		{"two charges", []float64{0, 5, 6, 0}, 0.5, 0.5},
		{"three charges", []float64{0, 4, 6, 4, 0}, 0.5, 0.5},
		{"gaussian envelope", gaussian(12, 6, 2), 0.9, 1},
		{"flat envelope", []float64{0, 7, 7, 7, 7, 7, 0}, 0.999, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChargeFitScore(tt.perCharge)
			if got < tt.min || got > tt.max {
				t.Fatalf("score: got %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestSignalToNoise(t *testing.T) {
	tests := []struct {
		name              string
		cos, signal, noise float64
		want              float64
	}{
		{"perfect", 1, 10, 0, 10},
		{"no signal", 1, 0, 5, 0},
		{"zero cosine", 0, 10, 0, 0},
		{"noisy", 1, 10, 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := signalToNoise(tt.cos, tt.signal, tt.noise)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("snr: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFitLogQuadraticRecoversCurvature(t *testing.T) {
	// y = exp(1 + 0.8x - 0.1x^2) sampled exactly.
	ys := make([]float64, 8)
	for i := range ys {
		x := float64(i)
		ys[i] = math.Exp(1 + 0.8*x - 0.1*x*x)
	}
	a, b, c, ok := fitLogQuadratic(ys)
	if !ok {
		t.Fatal("fit reported singular")
	}
	if math.Abs(a-1) > 1e-9 || math.Abs(b-0.8) > 1e-9 || math.Abs(c+0.1) > 1e-9 {
		t.Fatalf("coefficients: got (%v, %v, %v), want (1, 0.8, -0.1)", a, b, c)
	}
}
