// Package chaumpedersen implements the Chaum-Pedersen equal-discrete-log
// proof: t1 = s*b1, t2 = s*b2 (spec.md §4.3). Used in GG20 sign's type-7
// blame sub-protocol to prove S_i and sigma_i*G share a discrete log w.r.t.
// (G, R).
package chaumpedersen

import (
	"fmt"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/zkp"
)

// Statement is (B1, T1, B2, T2) with T1 = s*B1, T2 = s*B2 for the witness s.
type Statement struct {
	B1, T1 *curve.Point
	B2, T2 *curve.Point
}

// Proof is the Fiat-Shamir transcript.
type Proof struct {
	Alpha1, Alpha2 *curve.Point
	S1             *curve.Scalar
}

// Prove proves knowledge of s such that T1=s*B1, T2=s*B2.
func Prove(proverID []byte, stmt Statement, s *curve.Scalar) *Proof {
	a := curve.DefaultRandomScalar()
	alpha1 := a.Act(stmt.B1)
	alpha2 := a.Act(stmt.B2)
	e := challenge(proverID, stmt, alpha1, alpha2)
	s1 := a.Add(e.Mul(s))
	return &Proof{Alpha1: alpha1, Alpha2: alpha2, S1: s1}
}

// Verify checks the proof.
func Verify(proverID []byte, stmt Statement, proof *Proof) error {
	if proof == nil || proof.Alpha1 == nil || proof.Alpha2 == nil || proof.S1 == nil {
		return fmt.Errorf("chaumpedersen.Verify: missing proof component")
	}
	e := challenge(proverID, stmt, proof.Alpha1, proof.Alpha2)

	lhs1 := proof.S1.Act(stmt.B1)
	rhs1 := proof.Alpha1.Add(e.Act(stmt.T1))
	if !lhs1.Equal(rhs1) {
		return fmt.Errorf("chaumpedersen.Verify: first equation failed")
	}
	lhs2 := proof.S1.Act(stmt.B2)
	rhs2 := proof.Alpha2.Add(e.Act(stmt.T2))
	if !lhs2.Equal(rhs2) {
		return fmt.Errorf("chaumpedersen.Verify: second equation failed")
	}
	return nil
}

func challenge(proverID []byte, stmt Statement, alpha1, alpha2 *curve.Point) *curve.Scalar {
	b1, _ := stmt.B1.SerializeCompressed()
	t1, _ := stmt.T1.SerializeCompressed()
	b2, _ := stmt.B2.SerializeCompressed()
	t2, _ := stmt.T2.SerializeCompressed()
	a1, _ := alpha1.SerializeCompressed()
	a2, _ := alpha2.SerializeCompressed()
	return zkp.ChallengeScalar(domain.ChaumPedersenProofTag, proverID, b1, t1, b2, t2, a1, a2)
}
