package ms

import (
	"math"
	"testing"
)

func TestLogMzPositiveMode(t *testing.T) {
	// mz chosen so that mz - proton = 1000 exactly.
	mz := 1000.0 + ProtonMass

	got := LogMz(mz, true)
	want := math.Log(1000.0)

	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("LogMz(%v) = %v, want %v", mz, got, want)
	}
}

func TestLogMzNegativeMode(t *testing.T) {
	// In negative mode the carrier mass is subtracted with opposite
	// sign: mz + proton = 1000.
	mz := 1000.0 - ProtonMass

	got := LogMz(mz, false)
	want := math.Log(1000.0)

	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("LogMz(%v) = %v, want %v", mz, got, want)
	}
}

func TestChargeCarrierMass(t *testing.T) {
	if got := ChargeCarrierMass(true); got != ProtonMass {
		t.Fatalf("positive carrier = %v, want %v", got, ProtonMass)
	}

	if got := ChargeCarrierMass(false); got != -ProtonMass {
		t.Fatalf("negative carrier = %v, want %v", got, -ProtonMass)
	}
}

func TestNeutralMassRoundTrip(t *testing.T) {
	const mono = 12000.0

	for charge := 1; charge <= 25; charge++ {
		mz := mono/float64(charge) + ProtonMass

		got := (mz - ChargeCarrierMass(true)) * float64(charge)
		if math.Abs(got-mono) > 1e-6 {
			t.Fatalf("charge %d: neutral mass = %v, want %v", charge, got, mono)
		}
	}
}

func TestSpectrumSorted(t *testing.T) {
	tests := []struct {
		name string
		mzs  []float64
		want bool
	}{
		{"empty", nil, true},
		{"single", []float64{500}, true},
		{"ascending", []float64{500, 501, 502}, true},
		{"duplicate", []float64{500, 500, 501}, true},
		{"descending pair", []float64{501, 500}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Spectrum{}
			for _, mz := range tt.mzs {
				s.Peaks = append(s.Peaks, Peak{Mz: mz, Intensity: 1})
			}

			if got := s.Sorted(); got != tt.want {
				t.Fatalf("Sorted() = %v, want %v", got, tt.want)
			}
		})
	}
}
