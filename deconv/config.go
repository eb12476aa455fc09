package deconv

import (
	"errors"
	"fmt"
)

var (
	// ErrChargeRange reports a charge range with MaxCharge below
	// MinCharge or a non-positive MinCharge.
	ErrChargeRange = errors.New("deconv: invalid charge range")
	// ErrMassRange reports a mass range with MaxMass not above MinMass
	// or a non-positive MinMass.
	ErrMassRange = errors.New("deconv: invalid mass range")
	// ErrTolerance reports a non-positive ppm tolerance.
	ErrTolerance = errors.New("deconv: invalid tolerance")
)

// Config holds the per-MS-level deconvolution parameters. The zero
// value is not usable; New applies the documented defaults to zero
// fields before validating.
type Config struct {
	// MinCharge and MaxCharge bound the charge states tried during
	// candidate selection. Defaults: 1 and 100.
	MinCharge int
	MaxCharge int

	// MinMass and MaxMass bound reported neutral monoisotopic masses
	// in Da. Defaults: 50 and 100000.
	MinMass float64
	MaxMass float64

	// TolerancePPM is the mass tolerance in parts per million. It also
	// fixes the log-mz bin width (half a tolerance unit per bin).
	// Default: 10.
	TolerancePPM float64

	// MinIsotopeCosine rejects peak groups whose observed isotope
	// pattern matches the averagine template below this cosine.
	// Default: 0.75.
	MinIsotopeCosine float64

	// MinChargeCosine rejects peak groups whose per-charge intensity
	// profile fits its envelope below this cosine. Default: 0.5.
	MinChargeCosine float64

	// MinChargePeaks is the minimum number of peaks on contiguous
	// charge states a mass bin needs to become a candidate. Bins seen
	// in preceding spectra need only one. Default: 3.
	MinChargePeaks int

	// MaxMassCount caps the surviving peak groups per spectrum,
	// keeping the most intense. Zero or negative keeps everything.
	MaxMassCount int

	// MinIntensity drops raw peaks at or below this intensity before
	// binning. Zero keeps all positive peaks.
	MinIntensity float64

	// Negative selects negative ionization mode, where ions carry
	// extra electrons instead of protons.
	Negative bool

	// Decoy shifts every charge filter by half a charge, producing a
	// disjoint detection set for false-discovery estimation.
	Decoy bool
}

func (c Config) withDefaults() Config {
	if c.MinCharge == 0 {
		c.MinCharge = 1
	}
	if c.MaxCharge == 0 {
		c.MaxCharge = 100
	}
	if c.MinMass == 0 {
		c.MinMass = 50
	}
	if c.MaxMass == 0 {
		c.MaxMass = 100000
	}
	if c.TolerancePPM == 0 {
		c.TolerancePPM = 10
	}
	if c.MinIsotopeCosine == 0 {
		c.MinIsotopeCosine = 0.75
	}
	if c.MinChargeCosine == 0 {
		c.MinChargeCosine = 0.5
	}
	if c.MinChargePeaks == 0 {
		c.MinChargePeaks = 3
	}
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	if c.MinCharge < 1 || c.MaxCharge < c.MinCharge {
		return fmt.Errorf("%w: [%d, %d]", ErrChargeRange, c.MinCharge, c.MaxCharge)
	}
	if c.MinMass <= 0 || c.MaxMass <= c.MinMass {
		return fmt.Errorf("%w: [%v, %v]", ErrMassRange, c.MinMass, c.MaxMass)
	}
	if c.TolerancePPM <= 0 {
		return fmt.Errorf("%w: %v ppm", ErrTolerance, c.TolerancePPM)
	}
	if c.MinChargePeaks < 1 {
		return fmt.Errorf("deconv: min charge peaks must be at least 1, got %d", c.MinChargePeaks)
	}
	return nil
}
