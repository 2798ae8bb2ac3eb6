// Package pedersen implements the Pedersen knowledge-of-opening proof:
// commit = G*msg + H*r, with an optional "wc" check binding msg_g = msg*g
// (spec.md §4.3). Used in GG20 sign round 3 to prove knowledge of (sigma_i,
// l_i) behind T_i, and round 6 to additionally bind S_i = R*sigma_i.
package pedersen

import (
	"fmt"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/zkp"
)

// Statement is commit = G*msg + H*r, optionally with a "wc" binding target
// msgG = msg*WCBase (sign round 6: WCBase = R, msgG = S_i).
type Statement struct {
	G, H   *curve.Point
	Commit *curve.Point
	// WC fields are nil unless this is a "with check" instance.
	WCBase   *curve.Point
	WCTarget *curve.Point
}

// Proof is the Fiat-Shamir transcript for the statement above.
type Proof struct {
	Alpha  *curve.Point
	AlphaG *curve.Point // only set when the statement carries a WC check
	S1     *curve.Scalar // response for msg
	S2     *curve.Scalar // response for r
}

// Prove proves knowledge of (msg, r) behind Commit, and additionally (when
// stmt.WCBase != nil) that WCTarget = msg*WCBase.
func Prove(proverID []byte, stmt Statement, msg, r *curve.Scalar) *Proof {
	a := curve.DefaultRandomScalar()
	b := curve.DefaultRandomScalar()
	alpha := a.Act(stmt.G).Add(b.Act(stmt.H))

	var alphaG *curve.Point
	if stmt.WCBase != nil {
		alphaG = a.Act(stmt.WCBase)
	}

	e := challenge(proverID, stmt, alpha, alphaG)
	s1 := a.Add(e.Mul(msg))
	s2 := b.Add(e.Mul(r))
	return &Proof{Alpha: alpha, AlphaG: alphaG, S1: s1, S2: s2}
}

// Verify checks the proof against the statement.
func Verify(proverID []byte, stmt Statement, proof *Proof) error {
	if proof == nil || proof.Alpha == nil || proof.S1 == nil || proof.S2 == nil {
		return fmt.Errorf("pedersen.Verify: missing proof component")
	}
	if stmt.WCBase != nil && proof.AlphaG == nil {
		return fmt.Errorf("pedersen.Verify: missing wc component")
	}
	e := challenge(proverID, stmt, proof.Alpha, proof.AlphaG)

	lhs := proof.S1.Act(stmt.G).Add(proof.S2.Act(stmt.H))
	rhs := proof.Alpha.Add(e.Act(stmt.Commit))
	if !lhs.Equal(rhs) {
		return fmt.Errorf("pedersen.Verify: opening equation failed")
	}

	if stmt.WCBase != nil {
		lhsG := proof.S1.Act(stmt.WCBase)
		rhsG := proof.AlphaG.Add(e.Act(stmt.WCTarget))
		if !lhsG.Equal(rhsG) {
			return fmt.Errorf("pedersen.Verify: wc equation failed")
		}
	}
	return nil
}

func challenge(proverID []byte, stmt Statement, alpha, alphaG *curve.Point) *curve.Scalar {
	parts := pointsBytes(stmt.G, stmt.H, stmt.Commit, alpha)
	if stmt.WCBase != nil {
		parts = append(parts, pointsBytes(stmt.WCBase, stmt.WCTarget, alphaG)...)
	}
	return zkp.ChallengeScalar(domain.PedersenProofTag, proverID, parts...)
}

func pointsBytes(pts ...*curve.Point) [][]byte {
	out := make([][]byte, 0, len(pts))
	for _, p := range pts {
		if p == nil {
			continue
		}
		b, _ := p.SerializeCompressed()
		out = append(out, b)
	}
	return out
}
