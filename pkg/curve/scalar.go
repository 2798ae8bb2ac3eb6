// Package curve wraps secp256k1 scalar/point arithmetic with the canonical
// encodings spec.md §4.2 requires: a 32-byte big-endian reduced scalar (this
// package uses the *rejecting* variant everywhere -- see SPEC_FULL.md Open
// Question 1) and a 33-byte SEC1 compressed point.
package curve

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Scalar is an element of Z_q, q the secp256k1 group order.
type Scalar struct {
	v secp256k1.ModNScalar
}

// NewScalar returns the zero scalar.
func NewScalar() *Scalar { return &Scalar{} }

// RandomScalar samples a uniform nonzero scalar using the supplied CSPRNG,
// which spec.md §6/§9 models as an abstract io.Reader the host supplies.
func RandomScalar(rnd ioReader) (*Scalar, error) {
	var buf [32]byte
	for {
		if _, err := rnd.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("curve.RandomScalar: %w", err)
		}
		s := &Scalar{}
		overflow := s.v.SetByteSlice(buf[:])
		if overflow || s.v.IsZero() {
			continue
		}
		return s, nil
	}
}

// ioReader avoids importing "io" just for the Reader method set name
// collision with crypto/rand.Reader default usage at call sites.
type ioReader interface {
	Read(p []byte) (n int, err error)
}

// DefaultRandomScalar samples using crypto/rand; convenience for call sites
// that do not thread a host-supplied RNG through (e.g. tests).
func DefaultRandomScalar() *Scalar {
	s, err := RandomScalar(rand.Reader)
	if err != nil {
		panic(err)
	}
	return s
}

// ScalarFromUint64 builds a small scalar, used for VSS evaluation points
// (index+1) and Lagrange arithmetic.
func ScalarFromUint64(v uint64) *Scalar {
	s := &Scalar{}
	s.v.SetInt(uint32(v))
	if v > 0xffffffff {
		// SetInt only takes uint32; build up via repeated doubling/adding for
		// the (never hit in this codebase, indices stay small) larger case.
		hi := &Scalar{}
		hi.v.SetInt(uint32(v >> 32))
		for i := 0; i < 32; i++ {
			hi.v.Add(&hi.v)
		}
		s.v.Add(&hi.v)
	}
	return s
}

// ScalarFromBytesReduced reduces an arbitrary-length big-endian byte string
// modulo q. Used only where the spec explicitly calls for reduction (e.g.
// Paillier-plaintext <-> scalar bridging); proof witnesses use the
// rejecting SetBytesCanonical path instead.
func ScalarFromBytesReduced(b []byte) *Scalar {
	if len(b) > 32 {
		// SetByteSlice only reads the first 32 bytes, so longer inputs are
		// reduced mod q here first.
		q := new(big.Int).SetBytes(Order())
		b = new(big.Int).Mod(new(big.Int).SetBytes(b), q).FillBytes(make([]byte, 32))
	}
	s := &Scalar{}
	s.v.SetByteSlice(b) // SetByteSlice reduces a 32-byte value mod q on overflow
	return s
}

// ScalarFromBytesCanonical decodes exactly 32 big-endian bytes, rejecting
// any encoding >= the group order. This is the variant SPEC_FULL.md Open
// Question 1 mandates for every serialized scalar in proofs and shares.
func ScalarFromBytesCanonical(b []byte) (*Scalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("curve.ScalarFromBytesCanonical: want 32 bytes, got %d", len(b))
	}
	s := &Scalar{}
	overflow := s.v.SetByteSlice(b)
	if overflow {
		return nil, fmt.Errorf("curve.ScalarFromBytesCanonical: encoding >= group order")
	}
	return s, nil
}

// Bytes encodes the scalar as 32 big-endian bytes.
func (s *Scalar) Bytes() []byte {
	b := s.v.Bytes()
	return b[:]
}

// Set copies other's value into s and returns s.
func (s *Scalar) Set(other *Scalar) *Scalar {
	s.v = other.v
	return s
}

// Clone returns an independent copy.
func (s *Scalar) Clone() *Scalar {
	c := &Scalar{}
	c.v = s.v
	return c
}

// Add returns s + other mod q, as a new scalar.
func (s *Scalar) Add(other *Scalar) *Scalar {
	out := &Scalar{}
	out.v = s.v
	out.v.Add(&other.v)
	return out
}

// Sub returns s - other mod q.
func (s *Scalar) Sub(other *Scalar) *Scalar {
	neg := other.Clone()
	neg.v.Negate()
	return s.Add(neg)
}

// Mul returns s * other mod q.
func (s *Scalar) Mul(other *Scalar) *Scalar {
	out := &Scalar{}
	out.v = s.v
	out.v.Mul(&other.v)
	return out
}

// Negate returns -s mod q.
func (s *Scalar) Negate() *Scalar {
	out := s.Clone()
	out.v.Negate()
	return out
}

// Inverse returns s^-1 mod q; panics on the zero scalar, which callers must
// never invert (a protocol invariant, not a runtime contingency).
func (s *Scalar) Inverse() *Scalar {
	if s.v.IsZero() {
		panic("curve: inverse of zero scalar")
	}
	out := &Scalar{}
	out.v = s.v
	out.v.InverseValNonConst()
	return out
}

// IsZero reports whether s is the additive identity.
func (s *Scalar) IsZero() bool { return s.v.IsZero() }

// Equal reports whether s == other.
func (s *Scalar) Equal(other *Scalar) bool { return s.v.Equals(&other.v) }

// ActOnBase returns s*G, the scalar acting on the group's base point.
func (s *Scalar) ActOnBase() *Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.v, &j)
	j.ToAffine()
	return &Point{j: j}
}

// Act returns s*P.
func (s *Scalar) Act(p *Point) *Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.v, &p.j, &j)
	j.ToAffine()
	return &Point{j: j}
}

func (s *Scalar) modNScalar() *secp256k1.ModNScalar { return &s.v }
