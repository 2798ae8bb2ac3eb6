package vss

import "github.com/luxfi/gg20tss/pkg/curve"

// Lagrange computes, for each of the given share indices (VSS-style,
// 0-based, evaluated at index+1), its Lagrange coefficient for
// interpolating the value at x=0 from exactly this node set. Grounded on
// the teacher's pkg/math/polynomial.Lagrange(group, partyIDs) helper.
func Lagrange(indices []int) map[int]*curve.Scalar {
	xs := make([]*curve.Scalar, len(indices))
	for i, idx := range indices {
		xs[i] = curve.ScalarFromUint64(uint64(idx + 1))
	}
	out := make(map[int]*curve.Scalar, len(indices))
	for i, idx := range indices {
		out[idx] = lagrangeAtZero(xs, i)
	}
	return out
}
