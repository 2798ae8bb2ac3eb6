// Package schnorr implements the Schnorr knowledge-of-discrete-log proof,
// the simplest entry of spec.md §4.3's proof table: target = scalar*base.
package schnorr

import (
	"fmt"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/zkp"
)

// Statement is the public statement: target = secret*base.
type Statement struct {
	Base   *curve.Point
	Target *curve.Point
}

// Proof is the non-interactive Fiat-Shamir transcript (alpha, s1).
type Proof struct {
	Alpha *curve.Point
	S1    *curve.Scalar
}

// Prove produces a proof of knowledge of secret such that target =
// secret*base. proverID binds the prover's identity into the transcript
// (spec.md §4.3: "All proofs include the prover's ... ShareId ... for
// identity binding").
func Prove(proverID []byte, stmt Statement, secret *curve.Scalar) *Proof {
	alphaScalar := curve.DefaultRandomScalar()
	alphaPoint := alphaScalar.Act(stmt.Base)

	e := challenge(proverID, stmt, alphaPoint)
	s1 := alphaScalar.Add(e.Mul(secret))
	return &Proof{Alpha: alphaPoint, S1: s1}
}

// Verify checks the proof against the statement.
func Verify(proverID []byte, stmt Statement, proof *Proof) error {
	if proof == nil || proof.Alpha == nil || proof.S1 == nil {
		return fmt.Errorf("schnorr.Verify: missing proof component")
	}
	e := challenge(proverID, stmt, proof.Alpha)
	lhs := proof.S1.Act(stmt.Base)
	rhs := proof.Alpha.Add(e.Act(stmt.Target))
	if !lhs.Equal(rhs) {
		return fmt.Errorf("schnorr.Verify: verification equation failed")
	}
	return nil
}

func challenge(proverID []byte, stmt Statement, alpha *curve.Point) *curve.Scalar {
	baseBytes, _ := stmt.Base.SerializeCompressed()
	targetBytes, _ := stmt.Target.SerializeCompressed()
	alphaBytes, _ := alpha.SerializeCompressed()
	return zkp.ChallengeScalar(domain.SchnorrProofTag, proverID, baseBytes, targetBytes, alphaBytes)
}
