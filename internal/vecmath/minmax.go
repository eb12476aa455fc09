package vecmath

// Max returns the largest element in x.
// Returns 0 for an empty slice.
func Max(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	max := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > max {
			max = x[i]
		}
	}
	return max
}

// ArgMax returns the index of the largest element in x. Ties keep the
// first occurrence. Returns -1 for an empty slice.
func ArgMax(x []float64) int {
	if len(x) == 0 {
		return -1
	}

	idx := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[idx] {
			idx = i
		}
	}
	return idx
}
