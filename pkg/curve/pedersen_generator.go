package curve

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// secp256k1AlternateGeneratorX/Y are the hard-coded affine coordinates of H,
// the Pedersen alternate generator whose discrete log w.r.t. G is unknown.
// SPEC_FULL.md Open Question 3: two subtrees of the original source carry
// different values for this constant; init parses this pair into H.
const (
	secp256k1AlternateGeneratorX = "50929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0"
	secp256k1AlternateGeneratorY = "31d3c6863973926e049e637cb1b5f40a36dac28af1766968c30c2313f3a38904"
)

var alternateGenerator *Point

func init() {
	alternateGenerator = mustParseHexPoint(secp256k1AlternateGeneratorX, secp256k1AlternateGeneratorY)
}

// AlternateGenerator returns H, the fixed Pedersen commitment base.
func AlternateGenerator() *Point {
	return alternateGenerator
}

func mustParseHexPoint(xHex, yHex string) *Point {
	// The coordinates form a 65-byte uncompressed SEC1 encoding 0x04||X||Y;
	// an off-curve pair panics at init.
	b, err := hex.DecodeString("04" + xHex + yHex)
	if err != nil {
		panic(err)
	}
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		panic(err)
	}
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	return &Point{j: j}
}

// deriveAlternateGenerator computes a point via a domain-separated
// hash-to-curve of G's own encoding: repeatedly hash a counter-suffixed tag
// until the digest is a valid compressed point. Its result differs from the
// hard-coded H above, and AlternateGenerator does not use it.
func deriveAlternateGenerator() *Point {
	gBytes, err := Generator().SerializeCompressed()
	if err != nil {
		panic(err)
	}
	for ctr := byte(0); ; ctr++ {
		h := sha256.New()
		h.Write([]byte("gg20-tss/pedersen-alternate-generator/v1"))
		h.Write(gBytes)
		h.Write([]byte{ctr})
		digest := h.Sum(nil)
		candidate := append([]byte{0x02}, digest...)
		if p, err := ParsePointCompressed(candidate); err == nil {
			return p
		}
	}
}
