package testutil

import (
	"sort"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/ms"
)

// Species describes one synthetic compound for building test spectra.
type Species struct {
	// MonoMass is the neutral monoisotopic mass in Da.
	MonoMass float64
	// MinCharge and MaxCharge bound the rendered charge ladder.
	MinCharge int
	MaxCharge int
	// Scale multiplies the unit-norm template intensities. Zero means 1.
	Scale float64
	// ChargeWeights optionally shapes the ladder, indexed by
	// charge − MinCharge. Nil renders every charge equally.
	ChargeWeights []float64
}

// Spectrum renders the species as a centroided positive-mode MS1
// spectrum: one peak per charge and template isotopologue at
// (mono + i·Δ)/charge + proton. Peaks come out sorted by m/z.
func Spectrum(tab *averagine.Table, species ...Species) *ms.Spectrum {
	var peaks []ms.Peak
	for _, s := range species {
		scale := s.Scale
		if scale == 0 {
			scale = 1
		}
		tpl := tab.Get(s.MonoMass)
		for c := s.MinCharge; c <= s.MaxCharge; c++ {
			w := scale
			if s.ChargeWeights != nil {
				w *= s.ChargeWeights[c-s.MinCharge]
			}
			if w <= 0 {
				continue
			}
			for i, ti := range tpl.Intensities {
				if ti <= 0 {
					continue
				}
				mz := (s.MonoMass+float64(i)*ms.IsotopeMassDiff55K)/float64(c) + ms.ProtonMass
				peaks = append(peaks, ms.Peak{Mz: mz, Intensity: float32(w * ti)})
			}
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Mz < peaks[j].Mz })
	return &ms.Spectrum{Peaks: peaks, MSLevel: 1}
}
