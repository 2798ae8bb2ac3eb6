package typed

import "github.com/luxfi/gg20tss/internal/tofn"

// FillVecMap is VecMap[K, Option[V]] with a cached count of present entries,
// used to accumulate per-peer messages as they arrive within a round.
type FillVecMap[K any, V any] struct {
	vals      []*V
	someCount int
}

// NewFillVecMap creates an empty FillVecMap over a domain of the given size.
func NewFillVecMap[K any, V any](size int) FillVecMap[K, V] {
	return FillVecMap[K, V]{vals: make([]*V, size)}
}

// Size returns the domain size.
func (m FillVecMap[K, V]) Size() int { return len(m.vals) }

// SomeCount returns the number of filled entries.
func (m FillVecMap[K, V]) SomeCount() int { return m.someCount }

// IsFull reports whether every slot has been filled.
func (m FillVecMap[K, V]) IsFull() bool { return m.someCount == len(m.vals) }

// IsNone reports whether idx has not yet been filled.
func (m FillVecMap[K, V]) IsNone(idx Index[K]) (bool, error) {
	if idx.i < 0 || idx.i >= len(m.vals) {
		return false, tofn.Fatalf("FillVecMap.IsNone", "index %d out of range", idx.i)
	}
	return m.vals[idx.i] == nil, nil
}

// Set fills idx with v. Overwriting an already-filled slot is allowed (the
// caller -- typically round.msg_in -- decides whether that is a fault).
func (m *FillVecMap[K, V]) Set(idx Index[K], v V) error {
	if idx.i < 0 || idx.i >= len(m.vals) {
		return tofn.Fatalf("FillVecMap.Set", "index %d out of range", idx.i)
	}
	if m.vals[idx.i] == nil {
		m.someCount++
	}
	vv := v
	m.vals[idx.i] = &vv
	return nil
}

// Get returns the value at idx if present.
func (m FillVecMap[K, V]) Get(idx Index[K]) (V, bool) {
	var zero V
	if idx.i < 0 || idx.i >= len(m.vals) {
		return zero, false
	}
	if m.vals[idx.i] == nil {
		return zero, false
	}
	return *m.vals[idx.i], true
}

// Iter calls f for every filled (index, value) pair.
func (m FillVecMap[K, V]) Iter(f func(Index[K], V) error) error {
	for i, v := range m.vals {
		if v == nil {
			continue
		}
		if err := f(MustFromUsize[K](i), *v); err != nil {
			return err
		}
	}
	return nil
}

// ToVecMap closes the FillVecMap into a dense VecMap, failing if any slot
// is still empty.
func (m FillVecMap[K, V]) ToVecMap() (VecMap[K, V], error) {
	if !m.IsFull() {
		return VecMap[K, V]{}, tofn.Fatalf("FillVecMap.ToVecMap", "not full: %d/%d", m.someCount, len(m.vals))
	}
	out := make([]V, len(m.vals))
	for i, v := range m.vals {
		out[i] = *v
	}
	return NewVecMap[K](out), nil
}

// AsSubset returns the Subset of indices that are currently filled.
func (m FillVecMap[K, V]) AsSubset() Subset[K] {
	s := NewSubset[K](len(m.vals))
	for i, v := range m.vals {
		if v != nil {
			_ = s.Add(MustFromUsize[K](i))
		}
	}
	return s
}
