package deconv

import "math"

// binNumber maps a log-space value to its bin index. Values at a bin
// boundary round toward the upper bin.
func binNumber(v, minV, binWidth float64) int {
	return int((v-minV)*binWidth + 0.5)
}

// binValue returns the log-space center of a bin.
func binValue(bin int, minV, binWidth float64) float64 {
	return minV + float64(bin)/binWidth
}

// MassBinSet is the published snapshot of the mass bins a spectrum
// selected on its own evidence. Following spectra of the same MS level
// union these bins in, letting a weak but recurring mass qualify with
// relaxed charge support.
type MassBinSet struct {
	// MinLogMass anchors the bin indices, so snapshots taken with a
	// different mass floor can still be aligned by shifting.
	MinLogMass float64
	// Bins lists the selected bin indices in ascending order.
	Bins []int
}

// harmonicFactors are the integer sub-multiples checked during
// harmonic suppression. A candidate at mass m/h leaves telltale
// support at fractional charge offsets floor(h/2)/h.
var harmonicFactors = [...]int{2, 3, 5}

// binOffsets returns, per charge index, the constant shift from an mz
// bin to the mass bin its charge maps it to. The shift depends only on
// the two bin origins, never on the mass itself.
func (d *Deconvolver) binOffsets(mzBinMin float64) []int {
	offsets := make([]int, d.chargeRange)
	for j := range offsets {
		offsets[j] = int(math.Round((mzBinMin - d.filter[j] - d.massBinMin) * d.binWidth))
	}
	return offsets
}

// harmonicOffsets returns the analogous shifts for the fractional
// charges probed by harmonic suppression.
func (d *Deconvolver) harmonicOffsets(mzBinMin float64) [][]int {
	offsets := make([][]int, len(d.hFilter))
	for k, row := range d.hFilter {
		offsets[k] = make([]int, d.chargeRange)
		for j := range row {
			offsets[k][j] = int(math.Round((mzBinMin - row[j] - d.massBinMin) * d.binWidth))
		}
	}
	return offsets
}
