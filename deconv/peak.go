package deconv

import "math"

// nominalMassFactor rescales a monoisotopic mass so that rounding
// yields the integer nominal mass, absorbing the average mass defect
// per nominal unit.
const nominalMassFactor = 0.999497

// LogMzPeak is a raw peak annotated with its log-transformed m/z and,
// once assigned, the charge and isotope index explaining it.
type LogMzPeak struct {
	Mz        float64
	Intensity float64
	LogMz     float64
	// Charge is 0 while unassigned.
	Charge int
	// IsotopeIndex counts isotopologues above the monoisotope.
	IsotopeIndex int
}

// UnchargedMass is the neutral mass implied by the peak's charge.
func (p LogMzPeak) UnchargedMass(carrier float64) float64 {
	return (p.Mz - carrier) * float64(p.Charge)
}

// PeakGroup is one deconvolved neutral mass within one spectrum: the
// set of peaks across charges and isotopes explained by a single
// monoisotopic mass, together with its consensus scores. Published
// groups are read-only.
type PeakGroup struct {
	// Peaks holds the assigned members, ordered by charge then m/z.
	Peaks []LogMzPeak

	MonoMass float64
	// AvgMass is MonoMass plus the averagine average-mass delta.
	AvgMass float64
	// Intensity is the summed intensity of all member peaks.
	Intensity float64

	// MinCharge and MaxCharge are the lowest and highest observed
	// member charges.
	MinCharge int
	MaxCharge int

	// PerChargeIntensity is indexed by absolute charge state.
	PerChargeIntensity []float64
	// PerIsotopeIntensity is indexed by isotope index and sized to the
	// averagine table's isotopologue cap.
	PerIsotopeIntensity []float64

	IsotopeCosine float64
	// ChargeCosine is the charge-envelope fit, scored on survey
	// spectra only.
	ChargeCosine float64
	// SNR relates matched peak power to unmatched power within the
	// scanned m/z windows.
	SNR float64
	// QScore folds the individual scores into one detection
	// confidence in (0, 1).
	QScore float64
	// AvgPPMError is the mean absolute mass error of member peaks in
	// ppm.
	AvgPPMError float64

	// RepCharge is the most intense charge state; its isolated cosine
	// and SNR feed the QScore.
	RepCharge       int
	RepChargeCosine float64
	RepChargeSNR    float64

	ScanID  int
	RT      float64
	MSLevel int
	Decoy   bool
}

// NominalMass is the integer nominal mass of the group. Groups sharing
// a nominal mass within one spectrum are duplicates of one species.
func (pg *PeakGroup) NominalMass() int {
	return int(math.Round(pg.MonoMass * nominalMassFactor))
}
