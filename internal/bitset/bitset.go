// Package bitset implements the dense bin-presence sets used by the
// deconvolution engine: fixed size, indexed from 0, with fast
// iteration over set bits.
package bitset

import "math/bits"

// Set is a fixed-size dense bit set. The zero value is an empty set of
// length 0; allocate with New.
type Set struct {
	words []uint64
	n     int
}

// New returns a set holding n bits, all clear.
func New(n int) *Set {
	if n < 0 {
		panic("bitset: negative length")
	}

	return &Set{words: make([]uint64, (n+63)/64), n: n}
}

// Len returns the number of bits the set holds.
func (s *Set) Len() int {
	return s.n
}

// Set marks bit i.
func (s *Set) Set(i int) {
	s.check(i)
	s.words[i>>6] |= 1 << uint(i&63)
}

// Clear unmarks bit i.
func (s *Set) Clear(i int) {
	s.check(i)
	s.words[i>>6] &^= 1 << uint(i&63)
}

// Test reports whether bit i is set.
func (s *Set) Test(i int) bool {
	s.check(i)
	return s.words[i>>6]&(1<<uint(i&63)) != 0
}

// Count returns the number of set bits.
func (s *Set) Count() int {
	c := 0
	for _, w := range s.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Reset clears all bits.
func (s *Set) Reset() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// NextSet returns the index of the first set bit at or after from, or
// -1 when no set bit remains. Iterate with
//
//	for i := s.NextSet(0); i >= 0; i = s.NextSet(i + 1) { ... }
func (s *Set) NextSet(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= s.n {
		return -1
	}

	wi := from >> 6
	w := s.words[wi] >> uint(from&63)
	if w != 0 {
		return from + bits.TrailingZeros64(w)
	}

	for wi++; wi < len(s.words); wi++ {
		if s.words[wi] != 0 {
			return wi<<6 + bits.TrailingZeros64(s.words[wi])
		}
	}
	return -1
}

func (s *Set) check(i int) {
	if uint(i) >= uint(s.n) {
		panic("bitset: index out of range")
	}
}
