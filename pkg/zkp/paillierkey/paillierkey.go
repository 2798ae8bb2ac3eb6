// Package paillierkey implements the Paillier key correctness proof of
// spec.md §4.3: proof that an encryption key ek is well-formed, i.e. that N
// genuinely is a product of two primes and its owner knows phi(N). Every
// keygen round 1 broadcast carries one of these alongside the ek itself.
//
// The construction follows the classic "correct key" proof: the verifier's
// challenges e_1..e_K are random units mod N (derived here via Fiat-Shamir
// instead of interactively), and the prover answers with N-th roots of each
// e_i, which only someone who knows phi(N) can compute efficiently.
package paillierkey

import (
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/zkp"
)

// Iterations is the number of challenge/response pairs; soundness error is
// 2^-Iterations.
const Iterations = 128

// Proof is the list of N-th roots sigma_i of the derived challenges e_i.
type Proof struct {
	Sigma []*big.Int
}

// Prove proves that sk's public modulus N is a valid two-prime Paillier
// modulus, using knowledge of phi(N) to extract N-th roots.
func Prove(proverID []byte, sk *paillier.SecretKey) (*Proof, error) {
	n := paillier.BigFromNat(sk.N())
	phi := sk.Phi()
	nInvModPhi := new(big.Int).ModInverse(n, phi)
	if nInvModPhi == nil {
		return nil, fmt.Errorf("paillierkey.Prove: N not invertible mod phi(N)")
	}

	sigmas := make([]*big.Int, Iterations)
	for i := 0; i < Iterations; i++ {
		e := challengeUnit(proverID, n, i)
		sigmas[i] = new(big.Int).Exp(e, nInvModPhi, n)
	}
	return &Proof{Sigma: sigmas}, nil
}

// Verify checks that each response is an N-th root of its derived
// challenge, i.e. sigma_i^N == e_i (mod N).
func Verify(proverID []byte, pk *paillier.PublicKey, proof *Proof) error {
	if proof == nil || len(proof.Sigma) != Iterations {
		return fmt.Errorf("paillierkey.Verify: wrong number of responses")
	}
	n := paillier.BigFromNat(pk.N())
	for i, sigma := range proof.Sigma {
		if sigma == nil || sigma.Sign() <= 0 || sigma.Cmp(n) >= 0 {
			return fmt.Errorf("paillierkey.Verify: response %d out of range", i)
		}
		e := challengeUnit(proverID, n, i)
		got := new(big.Int).Exp(sigma, n, n)
		if got.Cmp(e) != 0 {
			return fmt.Errorf("paillierkey.Verify: response %d is not an N-th root", i)
		}
	}
	return nil
}

// challengeUnit derives the i-th Fiat-Shamir challenge as a unit mod n,
// resampling on the (astronomically rare) non-coprime case.
func challengeUnit(proverID []byte, n *big.Int, i int) *big.Int {
	bound := n
	for attempt := 0; ; attempt++ {
		e := zkp.ChallengeBigInt(domain.PaillierKeyProofTag, proverID, bound,
			n.Bytes(), itoBytes(i), itoBytes(attempt))
		if e.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, e, n).Cmp(big.NewInt(1)) == 0 {
			return e
		}
	}
}

func itoBytes(i int) []byte {
	b := make([]byte, 8)
	v := uint64(i)
	for j := 7; j >= 0; j-- {
		b[j] = byte(v)
		v >>= 8
	}
	return b
}
