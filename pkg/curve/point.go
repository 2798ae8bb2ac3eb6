package curve

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Point is an element of the secp256k1 group, stored internally in affine
// Jacobian (Z==1) form after every operation so that equality and
// serialization are cheap.
type Point struct {
	j secp256k1.JacobianPoint
}

// NewIdentity returns the point at infinity.
func NewIdentity() *Point {
	p := &Point{}
	p.j.X.SetInt(0)
	p.j.Y.SetInt(0)
	p.j.Z.SetInt(0)
	return p
}

// Generator returns the secp256k1 base point G.
func Generator() *Point {
	one := ScalarFromUint64(1)
	return one.ActOnBase()
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool { return (&p.j).Z.IsZero() }

// Add returns p + other.
func (p *Point) Add(other *Point) *Point {
	var out secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.j, &other.j, &out)
	out.ToAffine()
	return &Point{j: out}
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	out := &Point{j: p.j}
	out.j.Y.Negate(1)
	out.j.Y.Normalize()
	return out
}

// Sub returns p - other.
func (p *Point) Sub(other *Point) *Point {
	return p.Add(other.Negate())
}

// Equal reports whether p and other represent the same group element.
func (p *Point) Equal(other *Point) bool {
	if p.IsIdentity() || other.IsIdentity() {
		return p.IsIdentity() == other.IsIdentity()
	}
	a, b := p.j, other.j
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

// XScalar returns the affine X coordinate of p reduced mod the group order
// q. SPEC_FULL.md Open Question 1: sign rounds 7/8 must compute `r` this
// way, directly from the coordinate, never via a serialized-scalar
// round-trip.
func (p *Point) XScalar() *Scalar {
	a := p.j
	a.ToAffine()
	xBytes := a.X.Bytes()
	return ScalarFromBytesReduced(xBytes[:])
}

// SerializeCompressed encodes p as a 33-byte SEC1 compressed point.
func (p *Point) SerializeCompressed() ([]byte, error) {
	if p.IsIdentity() {
		return nil, fmt.Errorf("curve.Point.SerializeCompressed: cannot encode identity")
	}
	a := p.j
	a.ToAffine()
	pub := secp256k1.NewPublicKey(&a.X, &a.Y)
	return pub.SerializeCompressed(), nil
}

// ParsePointCompressed decodes a 33-byte SEC1 compressed point, rejecting
// any encoding that is not a valid on-curve point.
func ParsePointCompressed(b []byte) (*Point, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("curve.ParsePointCompressed: %w", err)
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return &Point{j: j}, nil
}

// Order returns the secp256k1 group order q, as a big-endian byte slice.
func Order() []byte {
	// N from SEC2: FFFFFFFF FFFFFFFF FFFFFFFF FFFFFFFE
	//              BAAEDCE6 AF48A03B BFD25E8C D0364141
	return []byte{
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe,
		0xba, 0xae, 0xdc, 0xe6, 0xaf, 0x48, 0xa0, 0x3b,
		0xbf, 0xd2, 0x5e, 0x8c, 0xd0, 0x36, 0x41, 0x41,
	}
}
