// Package averagine precomputes model isotope envelopes on a regular
// mass grid. Deconvolution scores observed isotope patterns against
// these templates by cosine similarity, so each template is trimmed to
// the isotopologues carrying 99.99% of its power and normalized to
// unit L2 norm.
package averagine

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-msdeconv/isotope"
	"github.com/cwbudde/algo-msdeconv/ms"
)

// Model selects the elemental composition model used for the grid.
type Model int

const (
	// Peptide scales the Senko averagine residue to the target mass.
	Peptide Model = iota
	// RNA scales an equimolar ribonucleotide monophosphate instead.
	RNA
)

// Config controls the template grid.
type Config struct {
	// MinMass is the lowest neutral mass covered by the grid. Masses
	// below it reuse the first template. Defaults to 50.
	MinMass float64
	// MaxMass is the highest neutral mass covered by the grid.
	MaxMass float64
	// MassStep is the grid spacing in Da. Defaults to 20.
	MassStep float64
	// Model selects peptide or RNA compositions.
	Model Model
}

// Template is one precomputed isotope envelope. Index 0 is the
// monoisotope; entries trimmed from the left are kept as zeros so
// isotope indices stay aligned across templates.
type Template struct {
	// Intensities has unit L2 norm over its retained entries.
	Intensities []float64
	// ApexIndex is the isotope index of the most abundant entry.
	ApexIndex int
	// LeftCount and RightCount are the retained isotopologues on each
	// side of the apex, clamped to at least 2.
	LeftCount  int
	RightCount int
	// AverageMassDelta is the gap from the monoisotopic mass to the
	// intensity-weighted average mass.
	AverageMassDelta float64
	// MostAbundantMassDelta is the gap from the monoisotopic mass to
	// the most abundant isotopologue's mass.
	MostAbundantMassDelta float64
}

// LastIndex is the highest isotope index retained by the template.
func (t Template) LastIndex() int {
	return t.ApexIndex + t.RightCount
}

// Table holds the precomputed templates. gridMin is the mass of the
// first template, the lowest MassStep multiple at or above MinMass.
type Table struct {
	templates       []Template
	gridMin         float64
	massStep        float64
	maxIsotopeCount int
}

// Build precomputes templates for every grid mass in
// [MinMass, MaxMass]. The isotopologue count is capped at the length
// of the MaxMass envelope trimmed at 1% of its apex intensity.
func Build(cfg Config) (*Table, error) {
	if cfg.MinMass <= 0 {
		cfg.MinMass = 50
	}
	if cfg.MassStep <= 0 {
		cfg.MassStep = 20
	}
	if cfg.MaxMass <= cfg.MinMass {
		return nil, errors.New("averagine: max mass must exceed min mass")
	}

	compose := isotope.PeptideComposition
	if cfg.Model == RNA {
		compose = isotope.RNAComposition
	}

	gen := isotope.NewGenerator(0)
	full, err := gen.Estimate(compose(cfg.MaxMass))
	if err != nil {
		return nil, fmt.Errorf("averagine: estimating max mass envelope: %w", err)
	}
	apexInt := full.Intensities[full.MostAbundant()]
	full = full.TrimRight(0.01 * apexInt)
	maxIsotopeCount := len(full.Intensities) - 1
	if maxIsotopeCount < 2 {
		maxIsotopeCount = 2
	}
	gen.SetMaxIsotope(maxIsotopeCount)

	var templates []Template
	gridMin := 0.0
	for i := 0; ; i++ {
		mass := float64(i) * cfg.MassStep
		if mass < cfg.MinMass {
			continue
		}
		if mass > cfg.MaxMass {
			break
		}
		if len(templates) == 0 {
			gridMin = mass
		}
		dist, err := gen.Estimate(compose(mass))
		if err != nil {
			return nil, fmt.Errorf("averagine: estimating %v Da envelope: %w", mass, err)
		}
		templates = append(templates, newTemplate(dist.Intensities))
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("averagine: no grid mass in [%v, %v] with step %v",
			cfg.MinMass, cfg.MaxMass, cfg.MassStep)
	}

	return &Table{
		templates:       templates,
		gridMin:         gridMin,
		massStep:        cfg.MassStep,
		maxIsotopeCount: maxIsotopeCount,
	}, nil
}

// newTemplate trims intens to the contiguous run around the apex that
// keeps 99.99% of the running power, then normalizes. intens is
// consumed.
func newTemplate(intens []float64) Template {
	totalPwr := 0.0
	apex := 0
	apexInt := 0.0
	for k, v := range intens {
		totalPwr += v * v
		if v > apexInt {
			apexInt = v
			apex = k
		}
	}

	const minPwr = 0.9999
	const minLen = 2
	left, right := 0, len(intens)-1
	trimmed := 0
	for len(intens)-trimmed > minLen && left < right {
		var pwr float64
		trimLeft := true
		if intens[left] < intens[right] {
			pwr = intens[left] * intens[left]
		} else {
			pwr = intens[right] * intens[right]
			trimLeft = false
		}
		if totalPwr-pwr < totalPwr*minPwr {
			break
		}
		totalPwr -= pwr
		trimmed++
		if trimLeft {
			intens[left] = 0
			left++
		} else {
			intens[right] = 0
			right--
		}
	}
	leftCount := apex - left
	rightCount := right - apex

	intens = isotope.Distribution{Intensities: intens}.TrimRight(1e-10).Intensities
	norm := math.Sqrt(totalPwr)
	for k := range intens {
		intens[k] /= norm
	}

	if leftCount < 2 {
		leftCount = 2
	}
	if rightCount < 2 {
		rightCount = 2
	}

	var wsum, isum float64
	for k, v := range intens {
		wsum += v * float64(k)
		isum += v
	}
	avgDelta := 0.0
	if isum > 0 {
		avgDelta = wsum / isum * ms.IsotopeMassDiff
	}

	return Template{
		Intensities:           intens,
		ApexIndex:             apex,
		LeftCount:             leftCount,
		RightCount:            rightCount,
		AverageMassDelta:      avgDelta,
		MostAbundantMassDelta: float64(apex) * ms.IsotopeMassDiff,
	}
}

// Get returns the template nearest to mass. Out-of-range masses clamp
// to the first or last grid entry.
func (t *Table) Get(mass float64) Template {
	return t.templates[t.index(mass)]
}

func (t *Table) index(mass float64) int {
	i := int(math.Round(math.Max(0, mass-t.gridMin) / t.massStep))
	if i >= len(t.templates) {
		i = len(t.templates) - 1
	}
	return i
}

// Len returns the number of grid templates.
func (t *Table) Len() int {
	return len(t.templates)
}

// MaxIsotopeCount returns the isotopologue cap shared by all
// templates. Isotope indices produced by deconvolution stay below it.
func (t *Table) MaxIsotopeCount() int {
	return t.maxIsotopeCount
}
