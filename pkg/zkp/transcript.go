// Package zkp collects the Fiat-Shamir non-interactive zero-knowledge
// proof systems of spec.md §4.3, one sub-package per proof, sharing the
// transcript-folding helper below.
package zkp

import (
	"math/big"

	"github.com/zeebo/blake3"
)

// FoldChallenge hashes domainTag || proverID || statement-and-commitment
// byte strings with BLAKE3 (the teacher's go.mod carries
// github.com/zeebo/blake3 for exactly this kind of transcript folding) and
// returns the raw digest. Each proof package reduces the digest into its
// own challenge space (mod q for curve-based proofs, mod a large bound for
// composite-DLog).
func FoldChallenge(domainTag byte, proverID []byte, parts ...[]byte) []byte {
	h := blake3.New()
	h.Write([]byte{domainTag})
	h.Write(proverID)
	for _, p := range parts {
		var lenBuf [8]byte
		putUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	return h.Sum(nil)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v)
		v >>= 8
	}
}

// ChallengeBigInt folds a challenge and reduces it modulo m, for use by
// composite-DLog (modulus the RSA challenge bound) and any proof needing a
// non-curve-order challenge space.
func ChallengeBigInt(domainTag byte, proverID []byte, m *big.Int, parts ...[]byte) *big.Int {
	digest := FoldChallenge(domainTag, proverID, parts...)
	// Widen beyond 32 bytes by re-hashing with a counter, matching the
	// composite-DLog security parameter (spec.md §4.3: 256-bit challenge
	// plus R_SIZE padding) when m is larger than a single BLAKE3 digest.
	acc := new(big.Int).SetBytes(digest)
	for acc.BitLen() < m.BitLen()+64 {
		h := blake3.New()
		h.Write(digest)
		h.Write(acc.Bytes())
		digest = h.Sum(nil)
		acc.Lsh(acc, 256)
		acc.Or(acc, new(big.Int).SetBytes(digest))
	}
	return new(big.Int).Mod(acc, m)
}
