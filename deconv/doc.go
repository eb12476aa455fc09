// Package deconv detects neutral monoisotopic masses in centroided
// mass spectra by charge-state deconvolution.
//
// An electrospray source spreads every species over a ladder of charge
// states, and each charge state over an isotope envelope, so a single
// 12 kDa protein can occupy hundreds of m/z peaks. The deconvolver
// folds that redundancy back into one mass per species.
//
// # Log-mz space
//
// The key transform is logarithmic: with logMz = ln(mz − carrier), a
// species of neutral mass M appears at logMz = ln(M) − ln(c) for every
// charge c it carries. The charge ladder therefore becomes a fixed
// additive pattern filter[j] = ln(1/(MinCharge+j)) that is independent
// of M. After quantizing both axes into bins of width 0.5/tolerance,
// testing "does mass bin m have support at charge c" is a single
// integer shift and a bitset probe, and scanning all masses against
// all charges is O(bins × charges) per spectrum.
//
// # Pipeline per spectrum
//
//   - transform peaks to log-mz space and bin them
//   - accumulate charge-ladder support per mass bin, breaking runs on
//     intensity discontinuities and harmonic satellites
//   - qualify mass bins: full support, or relaxed support when the bin
//     was selected by recent preceding spectra (the Prior)
//   - vote each mz bin to its strongest reachable mass bin
//   - re-scan the raw peak list per surviving bin, walking the isotope
//     envelope at the charge's isotopologue spacing
//   - score (isotope cosine, charge-envelope cosine, SNR, QScore),
//     filter, deduplicate, and sort by mass
//
// The two-stage API mirrors that split: [Deconvolver.SelectMassBins]
// runs selection and returns a [Candidates] whose MassBins snapshot
// can be handed to following spectra immediately, while
// [Deconvolver.ExtractPeakGroups] finishes the expensive extraction
// and scoring afterwards. [Deconvolver.Deconvolve] composes both for
// one-shot use.
//
// # Usage
//
//	tab, err := averagine.Build(averagine.Config{MaxMass: 50000})
//	if err != nil { ... }
//	d, err := deconv.New(deconv.Config{TolerancePPM: 10}, tab)
//	if err != nil { ... }
//	res, err := d.Deconvolve(spectrum, deconv.Prior{})
//	for _, pg := range res.PeakGroups {
//		fmt.Println(pg.MonoMass, pg.QScore)
//	}
//
// A Deconvolver is safe for concurrent use; per-spectrum state lives
// in the Candidates value. Decoy mode (Config.Decoy) runs the same
// algorithm on half-integer charges, giving a disjoint detection set
// for false-discovery estimation.
package deconv
