// Package isotope generates coarse (unit-nominal-mass aggregated)
// theoretical isotope distributions for averagine elemental
// compositions.
//
// Distributions are computed with the Mercury approach: the isotope
// pattern of a molecule is the convolution of its per-element
// patterns, each of which is a single-atom pattern self-convolved
// atom-count times. In the frequency domain all of that collapses to
// pointwise complex powers and products, so one forward transform per
// element and a single inverse transform produce the full pattern at
// any molecular size.
//
// The package provides the peptide (Senko averagine) and nucleic-acid
// composition models used to parameterize templates by mass alone.
package isotope
