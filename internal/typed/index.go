// Package typed provides phantom-typed index collections used throughout
// the core so that "index of a keygen party" and "index of a signing
// share" are distinct types at compile time, even though both are plain
// non-negative integers at runtime. See spec.md §4.1.
package typed

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/gg20tss/internal/tofn"
)

// Index is a non-negative integer identifying an element of domain K. K is
// a phantom type parameter: it never appears in the runtime representation,
// only in the static type, so Index[PartyDomain] and Index[ShareDomain]
// cannot be mixed up by the compiler.
type Index[K any] struct {
	i int
}

// FromUsize constructs an Index, the only way to build one other than
// arithmetic performed internally by this package. Negative values are
// rejected with a FatalError: an out-of-range index is a bug, not a fault.
func FromUsize[K any](i int) (Index[K], error) {
	if i < 0 {
		return Index[K]{}, tofn.Fatalf("typed.FromUsize", "negative index %d", i)
	}
	return Index[K]{i: i}, nil
}

// MustFromUsize panics on a negative index; used at call sites where the
// value is already known non-negative (e.g. a loop counter).
func MustFromUsize[K any](i int) Index[K] {
	idx, err := FromUsize[K](i)
	if err != nil {
		panic(err)
	}
	return idx
}

// AsUsize returns the underlying integer.
func (idx Index[K]) AsUsize() int { return idx.i }

func (idx Index[K]) String() string { return fmt.Sprintf("%d", idx.i) }

// MarshalBinary encodes the index as 8 big-endian bytes, the canonical form
// used inside zero-knowledge challenge transcripts (spec.md §4.1).
func (idx Index[K]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(idx.i))
	return buf, nil
}

// UnmarshalBinary decodes 8 big-endian bytes into an index.
func (idx *Index[K]) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return tofn.Fatalf("typed.Index.UnmarshalBinary", "want 8 bytes, got %d", len(data))
	}
	idx.i = int(binary.BigEndian.Uint64(data))
	return nil
}
