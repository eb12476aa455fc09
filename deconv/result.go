package deconv

import "github.com/cwbudde/algo-msdeconv/ms"

// Prior carries the cross-spectrum context for one deconvolution call:
// the mass-bin snapshots of up to K preceding same-level spectra, and,
// for fragment spectra, the registered precursor. The zero value means
// no context.
type Prior struct {
	MassBins  []MassBinSet
	Precursor *Precursor
}

// Precursor ties a fragmentation spectrum to the survey peak group it
// was isolated from. Charge is the isolated charge state; together
// with the group's mono mass it bounds the fragment search.
type Precursor struct {
	Group  PeakGroup
	Charge int
}

// Result is the deconvolution output for one spectrum.
type Result struct {
	ScanID  int
	RT      float64
	MSLevel int
	Decoy   bool

	// PeakGroups is sorted by monoisotopic mass.
	PeakGroups []PeakGroup

	// MassBins is the snapshot carried into following spectra of the
	// same MS level.
	MassBins MassBinSet

	// Precursor echoes the registered precursor on fragment spectra.
	Precursor *Precursor

	// ClampedPeaks counts input peaks whose intensity was clamped to
	// zero or whose m/z could not be transformed.
	ClampedPeaks int
}

// FindPrecursor selects from a survey result the peak group isolated
// by iso: the most intense group with a member peak inside the
// isolation window. A collapsed window falls back to mz ± 0.5. The
// returned charge is iso.Charge when given, otherwise the charge of
// the most intense member inside the window.
func FindPrecursor(survey *Result, iso ms.Precursor) (*Precursor, bool) {
	if survey == nil {
		return nil, false
	}
	lo, hi := iso.IsolationLow, iso.IsolationHigh
	if hi <= lo {
		lo, hi = iso.Mz-0.5, iso.Mz+0.5
	}

	var best *PeakGroup
	bestCharge := 0
	for i := range survey.PeakGroups {
		pg := &survey.PeakGroups[i]
		var memberMax float64
		charge := 0
		for _, p := range pg.Peaks {
			if p.Mz < lo || p.Mz > hi {
				continue
			}
			if p.Intensity > memberMax {
				memberMax = p.Intensity
				charge = p.Charge
			}
		}
		if charge == 0 {
			continue
		}
		if best == nil || pg.Intensity > best.Intensity {
			best = pg
			bestCharge = charge
		}
	}
	if best == nil {
		return nil, false
	}
	if iso.Charge > 0 {
		bestCharge = iso.Charge
	}
	return &Precursor{Group: *best, Charge: bestCharge}, true
}
