package curve

import (
	"encoding/asn1"
	"math/big"
)

// Signature is a low-S-normalised ECDSA (r,s) pair over secp256k1.
type Signature struct {
	R *Scalar
	S *Scalar
}

var halfOrder = func() *big.Int {
	n := new(big.Int).SetBytes(Order())
	return new(big.Int).Rsh(n, 1)
}()

// NewSignature builds a Signature, normalising s to the low half of the
// order as spec.md §6 requires ("DER-encoded ECDSA ... with low-S
// normalisation").
func NewSignature(r, s *Scalar) *Signature {
	sBig := new(big.Int).SetBytes(s.Bytes())
	if sBig.Cmp(halfOrder) > 0 {
		nBig := new(big.Int).SetBytes(Order())
		sBig = new(big.Int).Sub(nBig, sBig)
		s = ScalarFromBytesReduced(sBig.Bytes())
	}
	return &Signature{R: r, S: s}
}

type derSignature struct {
	R, S *big.Int
}

// SerializeDER encodes the signature as ASN.1 DER, per spec.md §6.
func (sig *Signature) SerializeDER() ([]byte, error) {
	return asn1.Marshal(derSignature{
		R: new(big.Int).SetBytes(sig.R.Bytes()),
		S: new(big.Int).SetBytes(sig.S.Bytes()),
	})
}

// ParseSignatureDER decodes an ASN.1 DER-encoded ECDSA signature.
func ParseSignatureDER(b []byte) (*Signature, error) {
	var parsed derSignature
	if _, err := asn1.Unmarshal(b, &parsed); err != nil {
		return nil, err
	}
	return &Signature{
		R: ScalarFromBytesReduced(parsed.R.Bytes()),
		S: ScalarFromBytesReduced(parsed.S.Bytes()),
	}, nil
}

// Verify checks sig against message digest m (32 bytes) and public key y,
// by the standard secp256k1 ECDSA verification equation.
func Verify(sig *Signature, digest []byte, y *Point) bool {
	if sig.R.IsZero() || sig.S.IsZero() {
		return false
	}
	m := ScalarFromBytesReduced(digest)
	sInv := sig.S.Inverse()
	u1 := m.Mul(sInv)
	u2 := sig.R.Mul(sInv)
	p := u1.ActOnBase().Add(u2.Act(y))
	if p.IsIdentity() {
		return false
	}
	return p.XScalar().Equal(sig.R)
}
