package isotope

import "math"

// Single-atom isotope distributions aggregated per unit nominal mass,
// natural abundances. Index k is the abundance of the isotope k
// nominal masses above the lightest one.
var (
	distC = []float64{0.9893, 0.0107}
	distH = []float64{0.999885, 0.000115}
	distN = []float64{0.99636, 0.00364}
	distO = []float64{0.99757, 0.00038, 0.00205}
	distS = []float64{0.9499, 0.0075, 0.0425, 0, 0.0001}
	distP = []float64{1}
)

// Composition is an elemental composition over the elements that make
// up peptide and nucleic-acid averagine models.
type Composition struct {
	C, H, N, O, S, P int
}

// Senko's averagine: per-dalton element frequencies of the average
// peptide residue (C4.9384 H7.7583 N1.3577 O1.4773 S0.0417 per
// 111.1254 Da).
const (
	peptideC = 0.0444398894906044
	peptideH = 0.0698152170488445
	peptideN = 0.0122177302837372
	peptideO = 0.0132944813378373
	peptideS = 0.000375250407559958
)

// Equimolar average of the four ribonucleotide monophosphate residues.
const (
	rnaResidueMass = 321.18
	rnaC           = 9.5
	rnaH           = 11.75
	rnaN           = 3.75
	rnaO           = 7.0
	rnaP           = 1.0
)

// PeptideComposition returns the averagine composition of a peptide of
// the given monoisotopic weight, atom counts rounded to integers.
func PeptideComposition(weight float64) Composition {
	if weight < 0 {
		weight = 0
	}

	return Composition{
		C: iround(weight * peptideC),
		H: iround(weight * peptideH),
		N: iround(weight * peptideN),
		O: iround(weight * peptideO),
		S: iround(weight * peptideS),
	}
}

// RNAComposition returns the averagine-like composition of a nucleic
// acid of the given monoisotopic weight.
func RNAComposition(weight float64) Composition {
	if weight < 0 {
		weight = 0
	}
	scale := weight / rnaResidueMass

	return Composition{
		C: iround(scale * rnaC),
		H: iround(scale * rnaH),
		N: iround(scale * rnaN),
		O: iround(scale * rnaO),
		P: iround(scale * rnaP),
	}
}

func iround(x float64) int {
	return int(math.Round(x))
}
