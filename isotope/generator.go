package isotope

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Distribution is an aggregated isotope pattern. Intensities[k] is the
// relative abundance of the isotopologue k nominal masses above the
// monoisotope. Intensities are relative, not normalized.
type Distribution struct {
	Intensities []float64
}

// MostAbundant returns the index of the most intense isotopologue, or
// -1 for an empty distribution. Ties keep the lowest index.
func (d Distribution) MostAbundant() int {
	if len(d.Intensities) == 0 {
		return -1
	}
	idx := 0
	for k := 1; k < len(d.Intensities); k++ {
		if d.Intensities[k] > d.Intensities[idx] {
			idx = k
		}
	}
	return idx
}

// TrimRight drops trailing isotopologues with intensity below floor.
// At least one entry is kept.
func (d Distribution) TrimRight(floor float64) Distribution {
	end := len(d.Intensities)
	for end > 1 && d.Intensities[end-1] < floor {
		end--
	}
	return Distribution{Intensities: d.Intensities[:end]}
}

// Generator computes aggregated isotope distributions of elemental
// compositions in the frequency domain: the distribution of n atoms of
// one element is its single-atom polynomial raised to the n-th power,
// and the molecule's distribution is the product across elements. Both
// collapse to pointwise complex exponentiation and multiplication on
// FFT spectra, so one inverse transform yields the full pattern even
// for thousands of atoms.
//
// A Generator caches FFT plans per transform size. It is not safe for
// concurrent use; returned distributions are plain values.
type Generator struct {
	maxIsotope int
	plans      map[int]*algofft.Plan[complex128]
}

// NewGenerator returns a generator truncating results to at most
// maxIsotope isotopologues; maxIsotope <= 0 keeps everything above the
// numerical noise floor.
func NewGenerator(maxIsotope int) *Generator {
	return &Generator{
		maxIsotope: maxIsotope,
		plans:      make(map[int]*algofft.Plan[complex128]),
	}
}

// MaxIsotope returns the configured truncation length (0 = unbounded).
func (g *Generator) MaxIsotope() int {
	return g.maxIsotope
}

// SetMaxIsotope changes the truncation length for subsequent calls.
func (g *Generator) SetMaxIsotope(n int) {
	g.maxIsotope = n
}

// elements pairs each single-atom distribution with its atom count.
func elements(comp Composition) [6]struct {
	dist []float64
	n    int
} {
	return [6]struct {
		dist []float64
		n    int
	}{
		{distC, comp.C},
		{distH, comp.H},
		{distN, comp.N},
		{distO, comp.O},
		{distS, comp.S},
		{distP, comp.P},
	}
}

// Estimate computes the aggregated isotope distribution of comp.
func (g *Generator) Estimate(comp Composition) (Distribution, error) {
	// The aggregate is a sum of independent per-atom contributions, so
	// its mean and variance are the sums of the per-element moments.
	// That bounds the support and sizes the transform.
	mean, variance := 0.0, 0.0
	for _, e := range elements(comp) {
		if e.n <= 0 {
			continue
		}
		m, v := moments(e.dist)
		mean += float64(e.n) * m
		variance += float64(e.n) * v
	}
	support := int(math.Ceil(mean+12*math.Sqrt(variance))) + 16

	size := nextPow2(support)
	plan, err := g.plan(size)
	if err != nil {
		return Distribution{}, err
	}

	prod := make([]complex128, size)
	for i := range prod {
		prod[i] = 1
	}

	buf := make([]complex128, size)
	for _, e := range elements(comp) {
		if e.n <= 0 {
			continue
		}

		for i := range buf {
			buf[i] = 0
		}
		for k, p := range e.dist {
			buf[k] = complex(p, 0)
		}

		if err := plan.Forward(buf, buf); err != nil {
			return Distribution{}, fmt.Errorf("isotope: forward transform: %w", err)
		}

		pow := complex(float64(e.n), 0)
		for i := range prod {
			prod[i] *= cmplx.Pow(buf[i], pow)
		}
	}

	if err := plan.Inverse(prod, prod); err != nil {
		return Distribution{}, fmt.Errorf("isotope: inverse transform: %w", err)
	}

	// Imaginary parts are numerical noise; magnitudes also guarantee
	// non-negative intensities.
	re := make([]float64, size)
	im := make([]float64, size)
	for i, c := range prod {
		re[i] = real(c)
		im[i] = imag(c)
	}
	intens := make([]float64, size)
	vecmath.Magnitude(intens, re, im)

	max := 0.0
	for _, v := range intens {
		if v > max {
			max = v
		}
	}

	end := len(intens)
	floor := max * noiseFloor
	for end > 1 && intens[end-1] <= floor {
		end--
	}
	if g.maxIsotope > 0 && end > g.maxIsotope {
		end = g.maxIsotope
	}

	out := make([]float64, end)
	copy(out, intens[:end])
	return Distribution{Intensities: out}, nil
}

// noiseFloor is the relative intensity below which trailing transform
// output is treated as numerical noise.
const noiseFloor = 1e-10

func (g *Generator) plan(size int) (*algofft.Plan[complex128], error) {
	if p, ok := g.plans[size]; ok {
		return p, nil
	}

	p, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("isotope: failed to create FFT plan: %w", err)
	}
	g.plans[size] = p
	return p, nil
}

// moments returns mean and variance of a single-atom distribution over
// its nominal-mass index.
func moments(p []float64) (mean, variance float64) {
	for k, v := range p {
		mean += float64(k) * v
	}
	for k, v := range p {
		d := float64(k) - mean
		variance += d * d * v
	}
	return mean, variance
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
