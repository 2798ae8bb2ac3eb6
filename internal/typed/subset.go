package typed

import "github.com/luxfi/gg20tss/internal/tofn"

// Subset is a fixed-capacity ordered set over domain K, backed by a []bool
// membership slice. Used to represent the set of signing participants, or the
// set of keygen/sign peers who made a complaint.
type Subset[K any] struct {
	member []bool
}

// NewSubset creates an empty Subset over a domain of the given max size.
func NewSubset[K any](maxSize int) Subset[K] {
	return Subset[K]{member: make([]bool, maxSize)}
}

// MaxSize returns the capacity of the domain.
func (s Subset[K]) MaxSize() int { return len(s.member) }

// Size returns the number of members currently in the subset.
func (s Subset[K]) Size() int {
	n := 0
	for _, b := range s.member {
		if b {
			n++
		}
	}
	return n
}

// Add inserts idx into the subset (idempotent).
func (s *Subset[K]) Add(idx Index[K]) error {
	if idx.i < 0 || idx.i >= len(s.member) {
		return tofn.Fatalf("Subset.Add", "index %d out of range", idx.i)
	}
	s.member[idx.i] = true
	return nil
}

// Contains reports whether idx is a member.
func (s Subset[K]) Contains(idx Index[K]) bool {
	if idx.i < 0 || idx.i >= len(s.member) {
		return false
	}
	return s.member[idx.i]
}

// Iter calls f for every member index in ascending order.
func (s Subset[K]) Iter(f func(Index[K]) error) error {
	for i, b := range s.member {
		if !b {
			continue
		}
		if err := f(MustFromUsize[K](i)); err != nil {
			return err
		}
	}
	return nil
}

// ToSlice returns member indices in ascending order.
func (s Subset[K]) ToSlice() []Index[K] {
	out := make([]Index[K], 0, s.Size())
	_ = s.Iter(func(idx Index[K]) error {
		out = append(out, idx)
		return nil
	})
	return out
}
