package deconv

import (
	"errors"
	"testing"
)

func TestNewAppliesDefaults(t *testing.T) {
	d := newTestDeconvolver(t, Config{})
	cfg := d.Config()

	if cfg.MinCharge != 1 || cfg.MaxCharge != 100 {
		t.Fatalf("charge defaults: got [%d, %d], want [1, 100]", cfg.MinCharge, cfg.MaxCharge)
	}
	if cfg.MinMass != 50 {
		t.Fatalf("min mass default: got %v, want 50", cfg.MinMass)
	}
	if cfg.TolerancePPM != 10 {
		t.Fatalf("tolerance default: got %v, want 10", cfg.TolerancePPM)
	}
	if cfg.MinIsotopeCosine != 0.75 {
		t.Fatalf("isotope cosine default: got %v, want 0.75", cfg.MinIsotopeCosine)
	}
	if cfg.MinChargeCosine != 0.5 {
		t.Fatalf("charge cosine default: got %v, want 0.5", cfg.MinChargeCosine)
	}
	if cfg.MinChargePeaks != 3 {
		t.Fatalf("charge peaks default: got %v, want 3", cfg.MinChargePeaks)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tab := table(t)
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"inverted charges", Config{MinCharge: 10, MaxCharge: 2, MaxMass: 1000}, ErrChargeRange},
		{"negative charge", Config{MinCharge: -3, MaxCharge: 5, MaxMass: 1000}, ErrChargeRange},
		{"inverted masses", Config{MinMass: 500, MaxMass: 100}, ErrMassRange},
		{"negative tolerance", Config{TolerancePPM: -1, MaxMass: 1000}, ErrTolerance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tab); !errors.Is(err, tt.want) {
				t.Fatalf("error: got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewRequiresTable(t *testing.T) {
	if _, err := New(Config{MaxMass: 1000}, nil); !errors.Is(err, ErrNoTable) {
		t.Fatalf("error: got %v, want ErrNoTable", err)
	}
}
