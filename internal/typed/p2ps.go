package typed

import "github.com/luxfi/gg20tss/internal/tofn"

// P2ps is a square table over K x K with the main diagonal absent: P2ps[i]
// is a HoleVecMap[K,V] holding i's message to every j != i. It is the
// closed (fully-populated) form produced by FillP2ps.ToFullP2ps.
type P2ps[K any, V any] struct {
	rows VecMap[K, HoleVecMap[K, V]]
}

// Get returns the value that `from` sent to `to`.
func (p P2ps[K, V]) Get(from, to Index[K]) (V, error) {
	row, err := p.rows.Get(from)
	if err != nil {
		var zero V
		return zero, err
	}
	return row.Get(to)
}

// Row returns the full HoleVecMap of messages sent by `from`.
func (p P2ps[K, V]) Row(from Index[K]) (HoleVecMap[K, V], error) {
	return p.rows.Get(from)
}

// Iter visits every (from, to, value) triple.
func (p P2ps[K, V]) Iter(f func(from, to Index[K], v V) error) error {
	return p.rows.Iter(func(from Index[K], row HoleVecMap[K, V]) error {
		return row.Iter(func(to Index[K], v V) error {
			return f(from, to, v)
		})
	})
}

// XP2ps is the "each row either fully present or entirely empty" closure
// used when a party may legitimately send zero p2ps in a round (e.g. the
// happy path of sign round 2, where a peer sends nothing if it has no
// complaint).
type XP2ps[K any, V any] struct {
	rows VecMap[K, *HoleVecMap[K, V]]
}

// RowOrNil returns the row sent by `from`, or nil if that party sent
// nothing this round.
func (p XP2ps[K, V]) RowOrNil(from Index[K]) (*HoleVecMap[K, V], error) {
	return p.rows.Get(from)
}

// FillP2ps is VecMap[K, FillHoleVecMap[K,V]] -- a square table under
// construction, used to collect per-pair messages (e.g. MtA ciphertexts) as
// they arrive.
type FillP2ps[K any, V any] struct {
	total int
	rows  []fillHoleVecMap[K, V]
}

// fillHoleVecMap is a FillVecMap restricted to never accept its own hole
// index.
type fillHoleVecMap[K any, V any] struct {
	hole Index[K]
	vals FillVecMap[K, V]
}

// NewFillP2ps creates an empty table over `total` parties.
func NewFillP2ps[K any, V any](total int) FillP2ps[K, V] {
	rows := make([]fillHoleVecMap[K, V], total)
	for i := range rows {
		rows[i] = fillHoleVecMap[K, V]{hole: MustFromUsize[K](i), vals: NewFillVecMap[K, V](total)}
	}
	return FillP2ps[K, V]{total: total, rows: rows}
}

// Set records that `from` sent `to` the value v.
func (p *FillP2ps[K, V]) Set(from, to Index[K], v V) error {
	if from.i < 0 || from.i >= p.total {
		return tofn.Fatalf("FillP2ps.Set", "from index %d out of range", from.i)
	}
	if to.i == from.i {
		return tofn.Fatalf("FillP2ps.Set", "party %d cannot send to itself", from.i)
	}
	return p.rows[from.i].vals.Set(to, v)
}

// Get returns the value `from` sent to `to`, if it has arrived yet.
func (p FillP2ps[K, V]) Get(from, to Index[K]) (V, bool) {
	var zero V
	if from.i < 0 || from.i >= p.total || from.i == to.i {
		return zero, false
	}
	return p.rows[from.i].vals.Get(to)
}

// IsFullFrom reports whether `from`'s row has every non-diagonal slot filled.
func (p FillP2ps[K, V]) IsFullFrom(from Index[K]) bool {
	row := p.rows[from.i]
	return row.vals.SomeCount() == p.total-1
}

// IsEmptyFrom reports whether `from`'s row has no slots filled.
func (p FillP2ps[K, V]) IsEmptyFrom(from Index[K]) bool {
	return p.rows[from.i].vals.SomeCount() == 0
}

// ToFullP2ps closes the table, requiring every non-diagonal entry to be
// present.
func (p FillP2ps[K, V]) ToFullP2ps() (P2ps[K, V], error) {
	rows := make([]HoleVecMap[K, V], p.total)
	for i := 0; i < p.total; i++ {
		if !p.IsFullFrom(MustFromUsize[K](i)) {
			return P2ps[K, V]{}, tofn.Fatalf("FillP2ps.ToFullP2ps", "party %d row incomplete", i)
		}
		vals := make([]V, 0, p.total-1)
		hole := p.rows[i].hole
		for j := 0; j < p.total; j++ {
			if j == i {
				continue
			}
			v, _ := p.rows[i].vals.Get(MustFromUsize[K](j))
			vals = append(vals, v)
		}
		hv, err := NewHoleVecMap[K, V](hole, vals, p.total)
		if err != nil {
			return P2ps[K, V]{}, err
		}
		rows[i] = hv
	}
	return P2ps[K, V]{rows: NewVecMap[K](rows)}, nil
}

// ToXP2ps closes the table permissively: every row must be either fully
// present or entirely empty.
func (p FillP2ps[K, V]) ToXP2ps() (XP2ps[K, V], error) {
	rows := make([]*HoleVecMap[K, V], p.total)
	for i := 0; i < p.total; i++ {
		idx := MustFromUsize[K](i)
		switch {
		case p.IsFullFrom(idx):
			vals := make([]V, 0, p.total-1)
			for j := 0; j < p.total; j++ {
				if j == i {
					continue
				}
				v, _ := p.rows[i].vals.Get(MustFromUsize[K](j))
				vals = append(vals, v)
			}
			hv, err := NewHoleVecMap[K, V](p.rows[i].hole, vals, p.total)
			if err != nil {
				return XP2ps[K, V]{}, err
			}
			rows[i] = &hv
		case p.IsEmptyFrom(idx):
			rows[i] = nil
		default:
			return XP2ps[K, V]{}, tofn.Fatalf("FillP2ps.ToXP2ps", "party %d row partially filled", i)
		}
	}
	return XP2ps[K, V]{rows: NewVecMap[K](rows)}, nil
}
