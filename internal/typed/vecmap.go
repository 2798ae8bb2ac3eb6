package typed

import "github.com/luxfi/gg20tss/internal/tofn"

// VecMap is a dense map keyed by Index[K], backed by a slice. Iteration
// yields indices in ascending order.
type VecMap[K any, V any] struct {
	vals []V
}

// NewVecMap builds a VecMap from a slice, taking ownership of it.
func NewVecMap[K any, V any](vals []V) VecMap[K, V] {
	return VecMap[K, V]{vals: vals}
}

// Len returns the number of elements.
func (m VecMap[K, V]) Len() int { return len(m.vals) }

// Get returns the value at idx, or a FatalError if idx is out of range.
func (m VecMap[K, V]) Get(idx Index[K]) (V, error) {
	var zero V
	if idx.i < 0 || idx.i >= len(m.vals) {
		return zero, tofn.Fatalf("VecMap.Get", "index %d out of range [0,%d)", idx.i, len(m.vals))
	}
	return m.vals[idx.i], nil
}

// Set overwrites the value at idx.
func (m VecMap[K, V]) Set(idx Index[K], v V) error {
	if idx.i < 0 || idx.i >= len(m.vals) {
		return tofn.Fatalf("VecMap.Set", "index %d out of range [0,%d)", idx.i, len(m.vals))
	}
	m.vals[idx.i] = v
	return nil
}

// Iter calls f for every (index, value) pair in ascending index order.
func (m VecMap[K, V]) Iter(f func(Index[K], V) error) error {
	for i, v := range m.vals {
		if err := f(MustFromUsize[K](i), v); err != nil {
			return err
		}
	}
	return nil
}

// ToSlice returns a copy of the underlying values, in index order.
func (m VecMap[K, V]) ToSlice() []V {
	out := make([]V, len(m.vals))
	copy(out, m.vals)
	return out
}

// Map applies f to every value, producing a new VecMap of the same length.
func Map[K any, V any, W any](m VecMap[K, V], f func(Index[K], V) W) VecMap[K, W] {
	out := make([]W, m.Len())
	for i, v := range m.vals {
		out[i] = f(MustFromUsize[K](i), v)
	}
	return NewVecMap[K](out)
}

// Map2Result applies f pairwise to two equal-length VecMaps, short-circuiting
// on the first error (e.g. a per-peer verification failure).
func Map2Result[K any, V any, W any, X any](a VecMap[K, V], b VecMap[K, W], f func(Index[K], V, W) (X, error)) (VecMap[K, X], error) {
	if a.Len() != b.Len() {
		return VecMap[K, X]{}, tofn.Fatalf("Map2Result", "length mismatch %d != %d", a.Len(), b.Len())
	}
	out := make([]X, a.Len())
	for i := range a.vals {
		x, err := f(MustFromUsize[K](i), a.vals[i], b.vals[i])
		if err != nil {
			return VecMap[K, X]{}, err
		}
		out[i] = x
	}
	return NewVecMap[K](out), nil
}

// Zip2 pairs up the values of two equal-length VecMaps.
func Zip2[K any, V any, W any](a VecMap[K, V], b VecMap[K, W]) (VecMap[K, struct {
	A V
	B W
}], error) {
	type pair = struct {
		A V
		B W
	}
	if a.Len() != b.Len() {
		return VecMap[K, pair]{}, tofn.Fatalf("Zip2", "length mismatch %d != %d", a.Len(), b.Len())
	}
	out := make([]pair, a.Len())
	for i := range a.vals {
		out[i] = pair{A: a.vals[i], B: b.vals[i]}
	}
	return NewVecMap[K](out), nil
}
