package deconv

import (
	"math"

	"github.com/cwbudde/algo-msdeconv/averagine"
	"github.com/cwbudde/algo-msdeconv/internal/vecmath"
)

// Empirically tuned scoring constants. Validated against reference
// deconvolution output; change only together with new reference runs.
const (
	// chargeFitFloor is the per-charge intensity floor, relative to the
	// strongest charge, below which a charge does not count as envelope
	// support.
	chargeFitFloor = 0.02

	// minEnvelopeCharges is the smallest support span on which a
	// Gaussian envelope fit is meaningful. Narrower profiles score the
	// neutral envelopeNeutralScore instead.
	minEnvelopeCharges   = 4
	envelopeNeutralScore = 0.5
)

// IsotopeCosine scores an observed per-isotope intensity vector
// against the averagine template nearest to mass. Because the vector
// may be anchored up to a few isotopologues off the true monoisotope,
// a small range of integer offsets is searched; the returned offset is
// the shift that maximized the cosine. Subtracting it from every
// observed isotope index (equivalently, adding offset isotope masses
// to the assumed monoisotopic mass) moves the vector into the
// template's frame.
//
// The tracer re-scores aggregated trace vectors through this same
// function, so per-spectrum and per-feature scores stay comparable.
func IsotopeCosine(perIsotope []float64, mass float64, tab *averagine.Table) (score float64, offset int) {
	tpl := tab.Get(mass)

	lo, hi := -1, -1
	for i, v := range perIsotope {
		if v <= 0 {
			continue
		}
		if lo < 0 {
			lo = i
		}
		hi = i
	}
	if lo < 0 {
		return 0, 0
	}

	best, bestOffset := -1.0, 0
	for f := -tpl.RightCount; f <= tpl.LeftCount; f++ {
		cos := shiftedCosine(perIsotope, lo, hi, tpl.Intensities, f)
		if cos > best {
			best = cos
			bestOffset = f
		}
	}
	return best, bestOffset
}

// shiftedCosine is the cosine between obs[lo..hi] and the unit-norm
// template, with observed index j matched to template index j-offset.
// Observed entries without a template counterpart still contribute to
// the observed norm, so partial overlap penalizes itself.
func shiftedCosine(obs []float64, lo, hi int, tpl []float64, offset int) float64 {
	num, opwr := 0.0, 0.0
	for j := lo; j <= hi; j++ {
		v := obs[j]
		opwr += v * v

		i := j - offset
		if i < 0 || i >= len(tpl) {
			continue
		}
		num += v * tpl[i]
	}
	if opwr <= 0 {
		return 0
	}
	return num / math.Sqrt(opwr)
}

// ChargeFitScore is the charge-cosine: the cosine between the observed
// per-charge intensity profile (indexed by absolute charge) and a
// Gaussian envelope fitted to it. The fit is a quadratic least squares
// on log intensities; profiles without downward curvature fall back to
// a uniform envelope, and profiles spanning fewer than four supported
// charges score a neutral 0.5 since no envelope shape is observable.
func ChargeFitScore(perCharge []float64) float64 {
	maxInt := vecmath.Max(perCharge)
	if maxInt <= 0 {
		return 0
	}

	floor := chargeFitFloor * maxInt
	first, last := -1, 0
	for i, v := range perCharge {
		if v <= floor {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return 0
	}
	if last-first+1 < minEnvelopeCharges {
		return envelopeNeutralScore
	}

	// The +1 shift keeps log arguments positive for charges inside the
	// span that carry no intensity.
	ys := make([]float64, last-first+1)
	for i := range ys {
		ys[i] = 1 + perCharge[first+i]
	}

	a, b, c, ok := fitLogQuadratic(ys)
	if !ok || c >= 0 {
		// No downward curvature: the profile is flat or still rising.
		// Score it against a uniform envelope instead of rejecting
		// outright, so flat ladders keep a meaningful cosine.
		return cosineAgainstUniform(ys)
	}

	fitted := make([]float64, len(ys))
	for i := range fitted {
		x := float64(i)
		fitted[i] = mathExp(a + b*x + c*x*x)
	}
	return cosine(ys, fitted)
}

// fitLogQuadratic least-squares fits log y = a + b x + c x^2 over
// x = 0..len(ys)-1, solving the 3x3 normal equations by Cramer's rule.
// ok is false when the system is singular.
func fitLogQuadratic(ys []float64) (a, b, c float64, ok bool) {
	var s0, s1, s2, s3, s4 float64
	var t0, t1, t2 float64
	for i, v := range ys {
		x := float64(i)
		y := mathLog(v)
		x2 := x * x
		s0++
		s1 += x
		s2 += x2
		s3 += x2 * x
		s4 += x2 * x2
		t0 += y
		t1 += y * x
		t2 += y * x2
	}

	det := det3(s0, s1, s2, s1, s2, s3, s2, s3, s4)
	if math.Abs(det) < 1e-12 {
		return 0, 0, 0, false
	}

	a = det3(t0, s1, s2, t1, s2, s3, t2, s3, s4) / det
	b = det3(s0, t0, s2, s1, t1, s3, s2, t2, s4) / det
	c = det3(s0, s1, t0, s1, s2, t1, s2, s3, t2) / det
	return a, b, c, true
}

func det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// cosine is the plain cosine similarity of two equal-length vectors.
func cosine(a, b []float64) float64 {
	num := vecmath.DotProduct(a, b)
	den := math.Sqrt(vecmath.SumSquares(a) * vecmath.SumSquares(b))
	if den <= 0 {
		return 0
	}
	return num / den
}

func cosineAgainstUniform(ys []float64) float64 {
	num := vecmath.Sum(ys)
	den := math.Sqrt(vecmath.SumSquares(ys) * float64(len(ys)))
	if den <= 0 {
		return 0
	}
	return num / den
}

// signalToNoise relates matched peak power to unmatched power within
// the scanned m/z windows. The +1 regularizer keeps a perfectly
// matched group finite, and a poor cosine converts signal power into
// effective noise.
func signalToNoise(cos, signalPwr, noisePwr float64) float64 {
	cos2 := cos * cos
	return cos2 * signalPwr / (1 + noisePwr + (1-cos2)*signalPwr)
}
