// Package vss implements Shamir secret sharing over secp256k1 with Feldman
// coefficient commitments (spec.md §4.2 "VSS").
package vss

import (
	"fmt"

	"github.com/luxfi/gg20tss/pkg/curve"
)

// Vss is a secret polynomial of degree t; Coeffs[0] is the secret itself
// (u_i in spec.md's notation).
type Vss struct {
	Coeffs []*curve.Scalar
}

// New samples a degree-t polynomial with a uniform random secret and
// uniform random higher coefficients.
func New(t int) *Vss {
	coeffs := make([]*curve.Scalar, t+1)
	for i := range coeffs {
		coeffs[i] = curve.DefaultRandomScalar()
	}
	return &Vss{Coeffs: coeffs}
}

// NewWithSecret builds a degree-t polynomial whose constant term is the
// supplied secret; used by ceygen (SPEC_FULL.md §4 Open Question 2), which
// derives u_i from a caller-supplied value rather than fresh randomness.
func NewWithSecret(t int, secret *curve.Scalar) *Vss {
	coeffs := make([]*curve.Scalar, t+1)
	coeffs[0] = secret.Clone()
	for i := 1; i < len(coeffs); i++ {
		coeffs[i] = curve.DefaultRandomScalar()
	}
	return &Vss{Coeffs: coeffs}
}

// Threshold returns t (the polynomial's degree).
func (v *Vss) Threshold() int { return len(v.Coeffs) - 1 }

// Secret returns the constant term u_i.
func (v *Vss) Secret() *curve.Scalar { return v.Coeffs[0] }

// Evaluate evaluates the polynomial at x via Horner's rule.
func (v *Vss) Evaluate(x *curve.Scalar) *curve.Scalar {
	acc := v.Coeffs[len(v.Coeffs)-1].Clone()
	for i := len(v.Coeffs) - 2; i >= 0; i-- {
		acc = acc.Mul(x).Add(v.Coeffs[i])
	}
	return acc
}

// Share is p(index+1), spec.md §4.2: "VSS indices start at 1".
type Share struct {
	Index  int
	Scalar *curve.Scalar
}

// Shares evaluates the polynomial at 1..=n, one share per index 0..n-1.
func (v *Vss) Shares(n int) []Share {
	out := make([]Share, n)
	for i := 0; i < n; i++ {
		x := curve.ScalarFromUint64(uint64(i + 1))
		out[i] = Share{Index: i, Scalar: v.Evaluate(x)}
	}
	return out
}

// Commit is the Feldman commitment to Coeffs: g^{a_0}, g^{a_1}, ...
type Commit struct {
	CoeffCommits []*curve.Point
}

// CommitTo computes the Feldman commitment to v.
func (v *Vss) CommitTo() *Commit {
	out := make([]*curve.Point, len(v.Coeffs))
	for i, c := range v.Coeffs {
		out[i] = c.ActOnBase()
	}
	return &Commit{CoeffCommits: out}
}

// Threshold returns t from the commitment's length.
func (c *Commit) Threshold() int { return len(c.CoeffCommits) - 1 }

// ShareCommit evaluates Sum_j coeff_commits[j] * (index+1)^j on the curve,
// the public commitment to share `index` (spec.md invariant "(VSS)").
func (c *Commit) ShareCommit(index int) *curve.Point {
	x := curve.ScalarFromUint64(uint64(index + 1))
	acc := curve.NewIdentity()
	xPow := curve.ScalarFromUint64(1)
	for _, commit := range c.CoeffCommits {
		acc = acc.Add(xPow.Act(commit))
		xPow = xPow.Mul(x)
	}
	return acc
}

// ValidateShare checks G*s.Scalar == ShareCommit(s.Index).
func (c *Commit) ValidateShare(s Share) bool {
	return s.Scalar.ActOnBase().Equal(c.ShareCommit(s.Index))
}

// Secret returns Coeffs[0]'s public commitment, i.e. the share-0 generator
// power, used when combining per-party constant terms into y = Sum u_i*G.
func (c *Commit) Secret() *curve.Point {
	return c.CoeffCommits[0]
}

// Recover reconstructs the secret from t+1 shares via Lagrange
// interpolation at x=0 (spec.md §8: "recovered secret ... equals Sum u_i").
func Recover(shares []Share) (*curve.Scalar, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("vss.Recover: no shares")
	}
	xs := make([]*curve.Scalar, len(shares))
	for i, s := range shares {
		xs[i] = curve.ScalarFromUint64(uint64(s.Index + 1))
	}
	acc := curve.NewScalar()
	for i, s := range shares {
		lambda := lagrangeAtZero(xs, i)
		acc = acc.Add(lambda.Mul(s.Scalar))
	}
	return acc, nil
}

// lagrangeAtZero computes the i-th Lagrange basis coefficient evaluated at
// x=0 for the node set xs.
func lagrangeAtZero(xs []*curve.Scalar, i int) *curve.Scalar {
	num := curve.ScalarFromUint64(1)
	den := curve.ScalarFromUint64(1)
	for j, xj := range xs {
		if j == i {
			continue
		}
		num = num.Mul(xj.Negate())
		den = den.Mul(xs[i].Sub(xj))
	}
	return num.Mul(den.Inverse())
}
