package vecmath

// Sum returns the sum of all elements in x.
// Returns 0 for an empty slice.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for i := range x {
		sum += x[i]
	}
	return sum
}

// SumSquares returns the sum of squared elements in x, the power of
// the vector. Returns 0 for an empty slice.
func SumSquares(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	sum := 0.0
	for i := range x {
		sum += x[i] * x[i]
	}
	return sum
}
