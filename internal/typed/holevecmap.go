package typed

import "github.com/luxfi/gg20tss/internal/tofn"

// HoleVecMap is a dense map over K with exactly one forbidden index -- the
// "hole" -- which can neither be read nor written. It models "every share
// except mine" collections (e.g. the p2ps I send to my peers).
type HoleVecMap[K any, V any] struct {
	hole Index[K]
	vals []V // len == total-1; vals[i] holds the value for index i, skipping past the hole
}

// NewHoleVecMap builds a HoleVecMap from a dense VecMap of length total-1
// plus the hole index, which must satisfy hole.AsUsize() < total.
func NewHoleVecMap[K any, V any](hole Index[K], vals []V, total int) (HoleVecMap[K, V], error) {
	if hole.i < 0 || hole.i >= total {
		return HoleVecMap[K, V]{}, tofn.Fatalf("NewHoleVecMap", "hole %d out of range [0,%d)", hole.i, total)
	}
	if len(vals) != total-1 {
		return HoleVecMap[K, V]{}, tofn.Fatalf("NewHoleVecMap", "want %d values, got %d", total-1, len(vals))
	}
	return HoleVecMap[K, V]{hole: hole, vals: vals}, nil
}

// Hole returns the forbidden index.
func (m HoleVecMap[K, V]) Hole() Index[K] { return m.hole }

// Len returns total-1, the number of addressable entries.
func (m HoleVecMap[K, V]) Len() int { return len(m.vals) }

// Total returns the size of the full domain (Len()+1).
func (m HoleVecMap[K, V]) Total() int { return len(m.vals) + 1 }

func (m HoleVecMap[K, V]) slot(idx Index[K]) (int, error) {
	if idx.i == m.hole.i {
		return 0, tofn.Fatalf("HoleVecMap", "index %d is the hole", idx.i)
	}
	if idx.i < 0 || idx.i >= m.Total() {
		return 0, tofn.Fatalf("HoleVecMap", "index %d out of range [0,%d)", idx.i, m.Total())
	}
	if idx.i < m.hole.i {
		return idx.i, nil
	}
	return idx.i - 1, nil
}

// Get returns the value for idx, erroring if idx is the hole or out of range.
func (m HoleVecMap[K, V]) Get(idx Index[K]) (V, error) {
	var zero V
	slot, err := m.slot(idx)
	if err != nil {
		return zero, err
	}
	return m.vals[slot], nil
}

// Iter calls f for every addressable (index, value), in ascending order,
// skipping the hole.
func (m HoleVecMap[K, V]) Iter(f func(Index[K], V) error) error {
	pos := 0
	for i := 0; i < m.Total(); i++ {
		if i == m.hole.i {
			continue
		}
		if err := f(MustFromUsize[K](i), m.vals[pos]); err != nil {
			return err
		}
		pos++
	}
	return nil
}
