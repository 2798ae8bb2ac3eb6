// Package paillierrange implements the Paillier range proof of spec.md
// §4.3: a ciphertext c encrypts a plaintext m with |m| < q³, optionally
// bound ("wc") to a curve point msg_g = m*G. Every sign share sends it to
// each peer for its round-1 Paillier-encrypted nonce k_i, and in wc form
// for R_i = k_i*R in the round-5 p2p; MtA ciphertexts carry
// pkg/zkp/mta's proof instead.
//
// The construction is the usual Girault-style range proof over the
// auxiliary (Ñ, h1, h2) setup: a Pedersen-style commitment to m modulo Ñ
// hides the plaintext while a parallel Paillier encryption of the same
// masked value ties the proof back to the ciphertext c. Like compositedlog,
// this package works in math/big because the masked response s1 is an
// unbounded integer, not a value naturally reduced modulo N or Ñ.
package paillierrange

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/zkp"
	"github.com/luxfi/gg20tss/pkg/zksetup"
)

// SlackBits is the statistical hiding/soundness slack added on top of the
// q³ bound, matching the role of compositedlog's R_SIZE.
const SlackBits = 256

// Statement is "c encrypts m under ek with |m| < q³", optionally bound to
// WCTarget = m*WCBase when WCTarget is non-nil. WCBase defaults to the
// standard generator G when left nil; sign's round-5 range-proof-wc binds
// it to R instead (spec.md §4.7), so unlike pkg/zkp/mta's wc (always
// G-bound) this one needs a configurable base.
type Statement struct {
	EK    *paillier.PublicKey
	Setup *zksetup.ZkSetup
	C     paillier.Ciphertext

	WCTarget *curve.Point // nil unless this is the "wc" variant
	WCBase   *curve.Point // nil means G
}

func (s Statement) wcBase() *curve.Point {
	if s.WCBase != nil {
		return s.WCBase
	}
	return curve.Generator()
}

// Proof is the Fiat-Shamir transcript.
type Proof struct {
	Z  *big.Int // Pedersen-style commitment to m mod Ntilde
	U  *big.Int // Pedersen-style commitment to the mask mod Ntilde
	W  paillier.Ciphertext // Paillier encryption of the mask
	U1 *curve.Point        // only set for the wc variant

	S1 *big.Int // response for m
	S2 *big.Int // response for the Ntilde-side randomness
	S  paillier.Randomness
}

// order returns the secp256k1 group order as a big.Int.
func order() *big.Int {
	return new(big.Int).SetBytes(curve.Order())
}

func q3() *big.Int {
	q := order()
	return new(big.Int).Exp(q, big.NewInt(3), nil)
}

// Prove proves that stmt.C encrypts m with randomness r under stmt.EK, and
// |m| < q³. When stmt.WCTarget != nil, wcScalar must be the curve.Scalar
// equal to m mod q and the proof additionally binds WCTarget = wcScalar*G.
func Prove(proverID []byte, stmt Statement, m *big.Int, r paillier.Randomness, wcScalar *curve.Scalar) (*Proof, error) {
	q3Bound := q3()
	nTilde := stmt.Setup.NTilde
	nBig := paillier.BigFromNat(stmt.EK.N())

	alphaBound := new(big.Int).Lsh(q3Bound, SlackBits)
	alpha, err := rand.Int(rand.Reader, new(big.Int).Lsh(alphaBound, 1))
	if err != nil {
		return nil, fmt.Errorf("paillierrange.Prove: %w", err)
	}
	alpha.Sub(alpha, alphaBound)

	rhoBound := new(big.Int).Mul(order(), nTilde)
	rhoBound.Lsh(rhoBound, SlackBits)
	rho, err := rand.Int(rand.Reader, rhoBound)
	if err != nil {
		return nil, fmt.Errorf("paillierrange.Prove: %w", err)
	}
	gammaBound := new(big.Int).Mul(alphaBound, nTilde)
	gamma, err := rand.Int(rand.Reader, gammaBound)
	if err != nil {
		return nil, fmt.Errorf("paillierrange.Prove: %w", err)
	}

	z := pedersenModNTilde(stmt.Setup, m, rho)
	u := pedersenModNTilde(stmt.Setup, alpha, gamma)

	beta, err := samplePaillierUnit(nBig)
	if err != nil {
		return nil, fmt.Errorf("paillierrange.Prove: %w", err)
	}
	w := stmt.EK.EncryptWithRandomness(
		paillier.PlaintextFromNat(paillier.NatFromBig(reduceSigned(alpha, nBig))),
		paillier.RandomnessFromNat(paillier.NatFromBig(beta)),
	)

	var u1 *curve.Point
	if stmt.WCTarget != nil {
		alphaScalar := curve.ScalarFromBytesReduced(reduceSigned(alpha, order()).Bytes())
		u1 = alphaScalar.Act(stmt.wcBase())
	}

	e := challenge(proverID, stmt, z, u, w, u1)

	s1 := new(big.Int).Add(alpha, new(big.Int).Mul(e, m))
	s2 := new(big.Int).Add(gamma, new(big.Int).Mul(e, rho))

	rE := new(big.Int).Exp(paillier.BigFromNat(r.Nat()), e, nBig)
	s := new(big.Int).Mod(new(big.Int).Mul(rE, beta), nBig)

	return &Proof{
		Z: z, U: u, W: w, U1: u1,
		S1: s1, S2: s2,
		S: paillier.RandomnessFromNat(paillier.NatFromBig(s)),
	}, nil
}

// Verify checks the proof against the statement.
func Verify(proverID []byte, stmt Statement, proof *Proof) error {
	if proof == nil || proof.Z == nil || proof.U == nil || proof.S1 == nil || proof.S2 == nil {
		return fmt.Errorf("paillierrange.Verify: missing proof component")
	}
	if stmt.WCTarget != nil && proof.U1 == nil {
		return fmt.Errorf("paillierrange.Verify: missing wc component")
	}

	q3Bound := q3()
	maxS1 := new(big.Int).Lsh(q3Bound, SlackBits+1)
	absS1 := new(big.Int).Abs(proof.S1)
	if absS1.Cmp(maxS1) > 0 {
		return fmt.Errorf("paillierrange.Verify: s1 out of range")
	}

	e := challenge(proverID, stmt, proof.Z, proof.U, proof.W, proof.U1)
	nBig := paillier.BigFromNat(stmt.EK.N())
	n2Big := paillier.BigFromNat(stmt.EK.NSquared())

	s1Reduced := paillier.NatFromBig(reduceSigned(proof.S1, nBig))
	lhsEnc := stmt.EK.EncryptWithRandomness(paillier.PlaintextFromNat(s1Reduced), proof.S)
	cE := new(big.Int).Exp(paillier.BigFromNat(stmt.C.Nat()), e, n2Big)
	rhsEnc := new(big.Int).Mod(new(big.Int).Mul(paillier.BigFromNat(proof.W.Nat()), cE), n2Big)
	if paillier.BigFromNat(lhsEnc.Nat()).Cmp(rhsEnc) != 0 {
		return fmt.Errorf("paillierrange.Verify: paillier equation failed")
	}

	nTilde := stmt.Setup.NTilde
	lhsPed := pedersenModNTilde(stmt.Setup, proof.S1, proof.S2)
	zE := modExp(proof.Z, e, nTilde)
	rhsPed := new(big.Int).Mod(new(big.Int).Mul(proof.U, zE), nTilde)
	if lhsPed.Cmp(rhsPed) != 0 {
		return fmt.Errorf("paillierrange.Verify: ntilde equation failed")
	}

	if stmt.WCTarget != nil {
		eScalar := curve.ScalarFromBytesReduced(e.Bytes())
		s1Scalar := curve.ScalarFromBytesReduced(reduceSigned(proof.S1, order()).Bytes())
		lhs := s1Scalar.Act(stmt.wcBase())
		rhs := proof.U1.Add(eScalar.Act(stmt.WCTarget))
		if !lhs.Equal(rhs) {
			return fmt.Errorf("paillierrange.Verify: wc equation failed")
		}
	}
	return nil
}

// pedersenModNTilde computes h1^v * h2^r mod Ntilde, where v may be
// negative (handled via modular inversion).
func pedersenModNTilde(setup *zksetup.ZkSetup, v, r *big.Int) *big.Int {
	h1v := modExp(setup.H1, v, setup.NTilde)
	h2r := modExp(setup.H2, r, setup.NTilde)
	return new(big.Int).Mod(new(big.Int).Mul(h1v, h2r), setup.NTilde)
}

func modExp(base, exp, n *big.Int) *big.Int {
	if exp.Sign() < 0 {
		base = new(big.Int).ModInverse(base, n)
		exp = new(big.Int).Neg(exp)
	}
	return new(big.Int).Exp(base, exp, n)
}

// reduceSigned reduces a (possibly negative) integer into [0, n).
func reduceSigned(v, n *big.Int) *big.Int {
	return new(big.Int).Mod(v, n)
}

func samplePaillierUnit(n *big.Int) (*big.Int, error) {
	for {
		cand, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if cand.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, cand, n).Cmp(big.NewInt(1)) == 0 {
			return cand, nil
		}
	}
}

func challenge(proverID []byte, stmt Statement, z, u *big.Int, w paillier.Ciphertext, u1 *curve.Point) *big.Int {
	tag := domain.RangeProofTag
	if stmt.WCTarget != nil {
		tag = domain.RangeProofWCTag
	}
	parts := [][]byte{
		paillier.BigFromNat(stmt.EK.N()).Bytes(),
		stmt.Setup.NTilde.Bytes(),
		paillier.BigFromNat(stmt.C.Nat()).Bytes(),
		z.Bytes(),
		u.Bytes(),
		paillier.BigFromNat(w.Nat()).Bytes(),
	}
	if stmt.WCTarget != nil {
		baseBytes, _ := stmt.wcBase().SerializeCompressed()
		wcBytes, _ := stmt.WCTarget.SerializeCompressed()
		u1Bytes, _ := u1.SerializeCompressed()
		parts = append(parts, baseBytes, wcBytes, u1Bytes)
	}
	bound := new(big.Int).Lsh(big.NewInt(1), 256)
	return zkp.ChallengeBigInt(tag, proverID, bound, parts...)
}
