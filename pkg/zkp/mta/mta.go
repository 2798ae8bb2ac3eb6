// Package mta implements the MtA and MtA-wc proofs of spec.md §4.3: Bob's
// proof that c2 = x ⊗ c1 ⊕ Enc(ek, y, r) for a bounded |x| < q³, optionally
// bound ("wc") to x_g = x·G. This is the proof Bob attaches to the
// ciphertext he returns in the pkg/mta sub-protocol (both the plain MtA
// used for α/β and the MtA-wc used for μ/ν against w_i·G).
//
// Like paillierrange, the two committed secrets (x and the Paillier offset
// y) are masked and checked against a shared auxiliary (Ñ, h1, h2) setup,
// so this package works in math/big rather than saferith.
package mta

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

// SlackBits mirrors paillierrange's statistical slack parameter.
const SlackBits = 256

// Statement is "c2 = x ⊗ c1 ⊕ Enc(ek, y, r), |x| < q³", optionally bound to
// WCTarget = x*G when WCTarget is non-nil.
type Statement struct {
	EK    *paillier.PublicKey // Alice's encryption key (both c1, c2 live here)
	Setup *zksetup.ZkSetup
	C1    paillier.Ciphertext
	C2    paillier.Ciphertext

	WCTarget *curve.Point
}

// Proof is the Fiat-Shamir transcript.
type Proof struct {
	Z1, Z2 *big.Int // Ntilde commitments to x, y
	U      paillier.Ciphertext
	W1, W2 *big.Int
	U1     *curve.Point // only set for the wc variant

	Sx, Tx *big.Int
	Sy, Ty *big.Int
	Sr     paillier.Randomness
}

func order() *big.Int { return new(big.Int).SetBytes(curve.Order()) }

func q3() *big.Int {
	q := order()
	return new(big.Int).Exp(q, big.NewInt(3), nil)
}

// Prove proves knowledge of (x, y, r) witnessing stmt.C2 = x⊗stmt.C1 ⊕
// Enc(ek, y, r), with |x| < q³. wcScalar must equal x mod q when
// stmt.WCTarget != nil.
func Prove(proverID []byte, stmt Statement, x, y *big.Int, r paillier.Randomness, wcScalar *curve.Scalar) (*Proof, error) {
	nTilde := stmt.Setup.NTilde
	nBig := paillier.BigFromNat(stmt.EK.N())

	xBound := new(big.Int).Lsh(q3(), SlackBits)
	alpha, err := rand.Int(rand.Reader, new(big.Int).Lsh(xBound, 1))
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}
	alpha.Sub(alpha, xBound)

	yBound := new(big.Int).Lsh(nBig, SlackBits)
	betaY, err := rand.Int(rand.Reader, new(big.Int).Lsh(yBound, 1))
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}
	betaY.Sub(betaY, yBound)

	betaR, err := samplePaillierUnit(nBig)
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}

	rho1Bound := new(big.Int).Mul(order(), nTilde)
	rho1Bound.Lsh(rho1Bound, SlackBits)
	rho1, err := rand.Int(rand.Reader, rho1Bound)
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}
	rho2, err := rand.Int(rand.Reader, rho1Bound)
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}
	gamma1Bound := new(big.Int).Mul(xBound, nTilde)
	gamma1, err := rand.Int(rand.Reader, gamma1Bound)
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}
	gamma2Bound := new(big.Int).Mul(yBound, nTilde)
	gamma2, err := rand.Int(rand.Reader, gamma2Bound)
	if err != nil {
		return nil, fmt.Errorf("mta.Prove: %w", err)
	}

	z1 := pedersenModNTilde(stmt.Setup, x, rho1)
	z2 := pedersenModNTilde(stmt.Setup, y, rho2)
	w1 := pedersenModNTilde(stmt.Setup, alpha, gamma1)
	w2 := pedersenModNTilde(stmt.Setup, betaY, gamma2)

	c1ToAlpha := ciphertextPow(stmt.EK, stmt.C1, alpha)
	encBeta := stmt.EK.EncryptWithRandomness(
		paillier.PlaintextFromNat(paillier.NatFromBig(reduceSigned(betaY, nBig))),
		paillier.RandomnessFromNat(paillier.NatFromBig(betaR)),
	)
	u := stmt.EK.Add(c1ToAlpha, encBeta)

	var u1 *curve.Point
	if stmt.WCTarget != nil {
		alphaScalar := curve.ScalarFromBytesReduced(reduceSigned(alpha, order()).Bytes())
		u1 = alphaScalar.ActOnBase()
	}

	e := challenge(proverID, stmt, z1, z2, u, w1, w2, u1)

	sx := new(big.Int).Add(alpha, new(big.Int).Mul(e, x))
	tx := new(big.Int).Add(gamma1, new(big.Int).Mul(e, rho1))
	sy := new(big.Int).Add(betaY, new(big.Int).Mul(e, y))
	ty := new(big.Int).Add(gamma2, new(big.Int).Mul(e, rho2))

	rE := modExp(paillier.BigFromNat(r.Nat()), e, nBig)
	sr := new(big.Int).Mod(new(big.Int).Mul(betaR, rE), nBig)

	return &Proof{
		Z1: z1, Z2: z2, U: u, W1: w1, W2: w2, U1: u1,
		Sx: sx, Tx: tx, Sy: sy, Ty: ty,
		Sr: paillier.RandomnessFromNat(paillier.NatFromBig(sr)),
	}, nil
}

// Verify checks the proof against the statement.
func Verify(proverID []byte, stmt Statement, proof *Proof) error {
	if proof == nil || proof.Z1 == nil || proof.Z2 == nil || proof.W1 == nil || proof.W2 == nil ||
		proof.Sx == nil || proof.Tx == nil || proof.Sy == nil || proof.Ty == nil {
		return fmt.Errorf("mta.Verify: missing proof component")
	}
	if stmt.WCTarget != nil && proof.U1 == nil {
		return fmt.Errorf("mta.Verify: missing wc component")
	}

	maxSx := new(big.Int).Lsh(q3(), SlackBits+1)
	if new(big.Int).Abs(proof.Sx).Cmp(maxSx) > 0 {
		return fmt.Errorf("mta.Verify: sx out of range")
	}

	e := challenge(proverID, stmt, proof.Z1, proof.Z2, proof.U, proof.W1, proof.W2, proof.U1)
	nBig := paillier.BigFromNat(stmt.EK.N())
	n2Big := paillier.BigFromNat(stmt.EK.NSquared())

	lhsEnc := stmt.EK.EncryptWithRandomness(
		paillier.PlaintextFromNat(paillier.NatFromBig(reduceSigned(proof.Sy, nBig))),
		proof.Sr,
	)
	c1ToSx := ciphertextPow(stmt.EK, stmt.C1, proof.Sx)
	lhs := stmt.EK.Add(lhsEnc, c1ToSx)

	c2ToE := new(big.Int).Exp(paillier.BigFromNat(stmt.C2.Nat()), e, n2Big)
	rhs := new(big.Int).Mod(new(big.Int).Mul(paillier.BigFromNat(proof.U.Nat()), c2ToE), n2Big)
	if paillier.BigFromNat(lhs.Nat()).Cmp(rhs) != 0 {
		return fmt.Errorf("mta.Verify: paillier equation failed")
	}

	nTilde := stmt.Setup.NTilde
	lhsZ1 := pedersenModNTilde(stmt.Setup, proof.Sx, proof.Tx)
	rhsZ1 := new(big.Int).Mod(new(big.Int).Mul(proof.W1, modExp(proof.Z1, e, nTilde)), nTilde)
	if lhsZ1.Cmp(rhsZ1) != 0 {
		return fmt.Errorf("mta.Verify: z1 equation failed")
	}
	lhsZ2 := pedersenModNTilde(stmt.Setup, proof.Sy, proof.Ty)
	rhsZ2 := new(big.Int).Mod(new(big.Int).Mul(proof.W2, modExp(proof.Z2, e, nTilde)), nTilde)
	if lhsZ2.Cmp(rhsZ2) != 0 {
		return fmt.Errorf("mta.Verify: z2 equation failed")
	}

	if stmt.WCTarget != nil {
		eScalar := curve.ScalarFromBytesReduced(e.Bytes())
		sxScalar := curve.ScalarFromBytesReduced(reduceSigned(proof.Sx, order()).Bytes())
		lhsG := sxScalar.ActOnBase()
		rhsG := proof.U1.Add(eScalar.Act(stmt.WCTarget))
		if !lhsG.Equal(rhsG) {
			return fmt.Errorf("mta.Verify: wc equation failed")
		}
	}
	return nil
}

func ciphertextPow(ek *paillier.PublicKey, c paillier.Ciphertext, exp *big.Int) paillier.Ciphertext {
	n2 := paillier.BigFromNat(ek.NSquared())
	cBig := paillier.BigFromNat(c.Nat())
	return paillier.CiphertextFromNat(paillier.NatFromBig(modExp(cBig, exp, n2)))
}

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

func challenge(proverID []byte, stmt Statement, z1, z2 *big.Int, u paillier.Ciphertext, w1, w2 *big.Int, u1 *curve.Point) *big.Int {
	tag := domain.MtAProofTag
	if stmt.WCTarget != nil {
		tag = domain.MtAProofWCTag
	}
	parts := [][]byte{
		paillier.BigFromNat(stmt.EK.N()).Bytes(),
		stmt.Setup.NTilde.Bytes(),
		paillier.BigFromNat(stmt.C1.Nat()).Bytes(),
		paillier.BigFromNat(stmt.C2.Nat()).Bytes(),
		z1.Bytes(), z2.Bytes(),
		paillier.BigFromNat(u.Nat()).Bytes(),
		w1.Bytes(), w2.Bytes(),
	}
	if stmt.WCTarget != nil {
		wcBytes, _ := stmt.WCTarget.SerializeCompressed()
		u1Bytes, _ := u1.SerializeCompressed()
		parts = append(parts, wcBytes, u1Bytes)
	}
	bound := new(big.Int).Lsh(big.NewInt(1), 256)
	return zkp.ChallengeBigInt(tag, proverID, bound, parts...)
}
