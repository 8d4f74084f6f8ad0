// Package set implements a word-packed bitset used by the analysis
// cache's dominance sets.
package set

import (
	"math/bits"

	"tlog.app/go/tlog/tlwire"
)

// Bitmap is a growable set of non-negative integers, packed one bit per
// member. Bitmaps made by MakeBitmap for up to 64 members use the
// one-word b0 array as backing storage instead of a separately made
// slice.
type Bitmap struct {
	b  []uint64
	b0 [1]uint64
}

// MakeBitmap returns a bitmap sized to hold members up to n-1 without
// growing.
func MakeBitmap(n int) Bitmap {
	s := Bitmap{}
	s.b = s.b0[:]

	words := (n + 63) / 64
	if words > len(s.b) {
		s.b = make([]uint64, words)
	}

	return s
}

func (s *Bitmap) Set(i int) {
	w, bit := s.ij(i)
	s.grow(w)
	s.b[w] |= 1 << bit
}

func (s *Bitmap) Clear(i int) {
	w, bit := s.ij(i)
	if w >= len(s.b) {
		return
	}

	s.b[w] &^= 1 << bit
}

func (s *Bitmap) IsSet(i int) bool {
	w, bit := s.ij(i)
	if w >= len(s.b) {
		return false
	}

	return s.b[w]&(1<<bit) != 0
}

// Or sets every bit that is set in x.
func (s *Bitmap) Or(x Bitmap) {
	s.grow(len(x.b) - 1)

	for i, w := range x.b {
		s.b[i] |= w
	}
}

// And clears every bit not set in x (intersection).
func (s *Bitmap) And(x Bitmap) {
	for i := range s.b {
		if i >= len(x.b) {
			s.b[i] = 0
			continue
		}

		s.b[i] &= x.b[i]
	}
}

// Intersect is And, named to match the dominator-set idiom of
// intersecting a block's dominators with each predecessor's.
func (s *Bitmap) Intersect(x Bitmap) { s.And(x) }

// AndNot clears every bit set in x.
func (s *Bitmap) AndNot(x Bitmap) {
	for i, w := range x.b {
		if i >= len(s.b) {
			break
		}

		s.b[i] &^= w
	}
}

func (s *Bitmap) Copy() Bitmap {
	r := MakeBitmap(s.Len())
	r.Or(*s)

	return r
}

// Size returns the number of set bits.
func (s *Bitmap) Size() int {
	if s == nil {
		return 0
	}

	r := 0
	for _, w := range s.b {
		r += bits.OnesCount64(w)
	}

	return r
}

// Range calls f for every set bit in ascending order, stopping early if
// f returns false.
func (s *Bitmap) Range(f func(i int) bool) {
	for i, w := range s.b {
		if w == 0 {
			continue
		}

		for j := 0; j < 64; j++ {
			if w&(1<<j) == 0 {
				continue
			}

			if !f(i*64 + j) {
				return
			}
		}
	}
}

// Len returns one past the highest set bit, or 0 if the bitmap is empty.
func (s *Bitmap) Len() int {
	for i := len(s.b) - 1; i >= 0; i-- {
		if s.b[i] == 0 {
			continue
		}

		return i*64 + 64 - bits.LeadingZeros64(s.b[i])
	}

	return 0
}

// Equal reports whether s and x have the same set bits.
func (s *Bitmap) Equal(x Bitmap) bool {
	n := len(s.b)
	if len(x.b) > n {
		n = len(x.b)
	}

	for i := 0; i < n; i++ {
		var a, b uint64

		if i < len(s.b) {
			a = s.b[i]
		}

		if i < len(x.b) {
			b = x.b[i]
		}

		if a != b {
			return false
		}
	}

	return true
}

func (s Bitmap) TlogAppend(b []byte) []byte {
	var e tlwire.LowEncoder

	if s.b == nil {
		return e.AppendNil(b)
	}

	b = e.AppendTag(b, tlwire.Array, -1)

	s.Range(func(i int) bool {
		b = e.AppendInt(b, i)
		return true
	})

	return e.AppendBreak(b)
}

func (s *Bitmap) ij(pos int) (word int, bit int) {
	return pos / 64, pos % 64
}

func (s *Bitmap) grow(word int) {
	for word >= len(s.b) {
		s.b = append(s.b, 0)
	}
}
