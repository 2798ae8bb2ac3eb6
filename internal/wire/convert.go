// Package wire holds the small byte-level conversion helpers every
// protocol round message uses to put curve/bignum values on the wire,
// mirroring the teacher's SetCommitments/GetCommitments conversion-helper
// idiom (protocols/lss/keygen/round1.go) rather than a generic marshaler.
package wire

import (
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/curve"
)

// Point encodes a curve point as its 33-byte SEC1 compressed form.
func Point(p *curve.Point) ([]byte, error) { return p.SerializeCompressed() }

// MustPoint panics on encode failure; used only where the point is known
// non-identity (every protocol point here is).
func MustPoint(p *curve.Point) []byte {
	b, err := Point(p)
	if err != nil {
		panic(err)
	}
	return b
}

// ParsePoint decodes a wire point.
func ParsePoint(b []byte) (*curve.Point, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("wire.ParsePoint: empty")
	}
	return curve.ParsePointCompressed(b)
}

// Scalar encodes a scalar as 32 big-endian bytes.
func Scalar(s *curve.Scalar) []byte { return s.Bytes() }

// ParseScalarCanonical decodes a wire scalar, rejecting encodings >= q.
func ParseScalarCanonical(b []byte) (*curve.Scalar, error) { return curve.ScalarFromBytesCanonical(b) }

// Big encodes a non-negative big.Int as unsigned big-endian bytes.
func Big(b *big.Int) []byte {
	if b == nil {
		return nil
	}
	return b.Bytes()
}

// ParseBig decodes unsigned big-endian bytes into a big.Int.
func ParseBig(b []byte) *big.Int { return new(big.Int).SetBytes(b) }

// BigSlice encodes a slice of non-negative big.Int.
func BigSlice(bs []*big.Int) [][]byte {
	out := make([][]byte, len(bs))
	for i, b := range bs {
		out[i] = Big(b)
	}
	return out
}

// ParseBigSlice decodes a slice of big-endian byte strings.
func ParseBigSlice(bs [][]byte) []*big.Int {
	out := make([]*big.Int, len(bs))
	for i, b := range bs {
		out[i] = ParseBig(b)
	}
	return out
}
