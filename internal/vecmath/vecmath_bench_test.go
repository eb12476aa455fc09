package vecmath

import (
	"strconv"
	"testing"
)

func BenchmarkDotProduct(b *testing.B) {
	sizes := []int{16, 64, 256, 1024}
	for _, size := range sizes {
		a := make([]float64, size)
		c := make([]float64, size)
		for i := range a {
			a[i] = float64(i)
			c[i] = float64(i) * 0.5
		}

		b.Run("n="+strconv.Itoa(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size * 8 * 2))
			for i := 0; i < b.N; i++ {
				_ = DotProduct(a, c)
			}
		})
	}
}

func BenchmarkSumSquares(b *testing.B) {
	sizes := []int{16, 64, 256, 1024}
	for _, size := range sizes {
		x := make([]float64, size)
		for i := range x {
			x[i] = float64(i) * 0.25
		}

		b.Run("n="+strconv.Itoa(size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(size * 8))
			for i := 0; i < b.N; i++ {
				_ = SumSquares(x)
			}
		})
	}
}
