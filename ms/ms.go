// Package ms defines the shared value types for top-down
// mass-spectrometry processing: raw peaks, centroided spectra and the
// physical constants used throughout the module.
package ms

import "math"

// Physical constants in unified atomic mass units.
const (
	// ProtonMass is the mass of the proton, the charge carrier in
	// positive ionization mode.
	ProtonMass = 1.00727646688

	// IsotopeMassDiff is the mass difference between 13C and 12C,
	// the dominant spacing between adjacent isotopologues.
	IsotopeMassDiff = 1.0033548378

	// IsotopeMassDiff55K is the average isotopologue spacing observed
	// for peptides up to roughly 55 kDa. Slightly below the 13C-12C
	// difference because other elements contribute smaller spacings.
	IsotopeMassDiff55K = 1.002371922157981
)

// ChargeCarrierMass returns the signed carrier mass: +proton for
// positive mode (protonation), -proton for negative mode
// (deprotonation), so that neutralMass = (mz - carrier) * charge holds
// in both polarities.
func ChargeCarrierMass(positive bool) float64 {
	if positive {
		return ProtonMass
	}

	return -ProtonMass
}

// LogMz returns ln(mz - carrier), the log coordinate in which the
// offset between a neutral mass and its per-charge observed m/z is
// charge-dependent but mass-independent.
func LogMz(mz float64, positive bool) float64 {
	return math.Log(mz - ChargeCarrierMass(positive))
}

// Peak is one centroided spectral peak.
type Peak struct {
	Mz        float64
	Intensity float32
}

// Precursor carries the isolation information of a fragmentation scan
// (MS level > 1): the targeted m/z, the reported charge (0 if the
// instrument did not assign one) and the isolation window bounds.
type Precursor struct {
	Mz            float64
	Charge        int
	IsolationLow  float64
	IsolationHigh float64
}

// Spectrum is one centroided scan. Peaks must be ascending in m/z;
// Precursor is nil for survey (MS1) scans.
type Spectrum struct {
	Peaks     []Peak
	RT        float64 // retention time in seconds
	MSLevel   int
	ScanID    int
	Precursor *Precursor
}

// Sorted reports whether the peak list is ascending in m/z.
func (s *Spectrum) Sorted() bool {
	for i := 1; i < len(s.Peaks); i++ {
		if s.Peaks[i].Mz < s.Peaks[i-1].Mz {
			return false
		}
	}

	return true
}
