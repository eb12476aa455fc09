//go:build fastmath

package deconv

import (
	"github.com/meko-christian/algo-approx"
)

// ln2 is the natural logarithm of 2, used for log base conversions.
const ln2 = 0.693147180559945309417232121458

// mathLog2 computes log2(x) using fast approximation.
// Uses the identity: log2(x) = ln(x) / ln(2)
//
// Only scoring paths route through these helpers. The log-mz binning
// transform keeps math.Log since bin assignment must hold ppm
// precision.
func mathLog2(x float64) float64 {
	return approx.FastLog(x) / ln2
}

// mathLog computes ln(x) using fast approximation.
func mathLog(x float64) float64 {
	return approx.FastLog(x)
}

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}
