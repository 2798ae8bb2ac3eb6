package zkp

import "github.com/luxfi/gg20tss/pkg/curve"

// ChallengeScalar folds a challenge and reduces it into a secp256k1 scalar,
// the challenge space used by Schnorr, Pedersen, Chaum-Pedersen, range and
// MtA proofs (spec.md §4.3).
func ChallengeScalar(domainTag byte, proverID []byte, parts ...[]byte) *curve.Scalar {
	digest := FoldChallenge(domainTag, proverID, parts...)
	return curve.ScalarFromBytesReduced(digest)
}
