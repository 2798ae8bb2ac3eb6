// Package zksetup implements the auxiliary RSA modulus (Ñ, h1, h2) of
// spec.md §3/§4.2 used as the Fujisaki-Okamoto-style commitment bases
// behind range and MtA proofs, plus its ZkSetupProof (two composite-DLog
// proofs, one each direction).
package zksetup

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/zkp/compositedlog"
)

// NBitLen is the auxiliary modulus size spec.md §3 names: "bit length in
// [2047, 2049]".
const NBitLen = 2048

// ZkSetup is the public auxiliary material (Ñ, h1, h2).
type ZkSetup struct {
	NTilde *big.Int
	H1, H2 *big.Int
}

// secretZkSetup additionally carries the factorization and the discrete
// log `s` linking h1 and h2, needed only at generation time to produce the
// ZkSetupProof.
type secretZkSetup struct {
	*ZkSetup
	p, q *big.Int
	s    *big.Int
}

// ZkSetupProof is the pair of composite-DLog proofs binding h1 <-> h2.
type ZkSetupProof struct {
	Proof1 *compositedlog.Proof // proves knowledge of s s.t. h2 = h1^-s mod NTilde
	Proof2 *compositedlog.Proof // proves knowledge of s^-1 s.t. h1 = h2^-(s^-1) mod NTilde
}

// Generate samples a fresh (Ñ, h1, h2) with h2 = h1^-s mod Ñ and
// Jacobi(h1, Ñ) == -1, using two safe primes for Ñ = p*q.
func Generate(rnd ioReader) (*ZkSetup, *ZkSetupProof, error) {
	p, q, err := generateSafePrimePair(rnd)
	if err != nil {
		return nil, nil, fmt.Errorf("zksetup.Generate: %w", err)
	}
	nTilde := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(
		new(big.Int).Rsh(p, 1),
		new(big.Int).Rsh(q, 1),
	)

	var h1 *big.Int
	for {
		cand, err := rand.Int(rnd, nTilde)
		if err != nil {
			return nil, nil, fmt.Errorf("zksetup.Generate: %w", err)
		}
		if cand.Sign() == 0 {
			continue
		}
		if new(big.Int).GCD(nil, nil, cand, nTilde).Cmp(big.NewInt(1)) != 0 {
			continue
		}
		if jacobi(cand, nTilde) != -1 {
			continue
		}
		h1 = cand
		break
	}

	s, err := rand.Int(rnd, phi)
	if err != nil {
		return nil, nil, fmt.Errorf("zksetup.Generate: %w", err)
	}
	sInvModPhi := new(big.Int).ModInverse(s, phi)
	if sInvModPhi == nil {
		return nil, nil, fmt.Errorf("zksetup.Generate: s not invertible mod phi")
	}

	h1Inv := new(big.Int).ModInverse(h1, nTilde)
	h2 := new(big.Int).Exp(h1Inv, s, nTilde)

	setup := &ZkSetup{NTilde: nTilde, H1: h1, H2: h2}

	proof1, err := compositedlog.Prove(domain.CompositeDLogProof1Tag, nil, compositedlog.Statement{N: nTilde, G: h1, V: h2}, s)
	if err != nil {
		return nil, nil, fmt.Errorf("zksetup.Generate: %w", err)
	}
	proof2, err := compositedlog.Prove(domain.CompositeDLogProof2Tag, nil, compositedlog.Statement{N: nTilde, G: h2, V: h1}, sInvModPhi)
	if err != nil {
		return nil, nil, fmt.Errorf("zksetup.Generate: %w", err)
	}

	return setup, &ZkSetupProof{Proof1: proof1, Proof2: proof2}, nil
}

// Verify checks the size/compositeness/unit constraints plus both
// composite-DLog proofs (spec.md invariants: "h1, h2 in (Z/N)*", N bit
// length in [2047,2049] and composite).
func Verify(proverID []byte, setup *ZkSetup, proof *ZkSetupProof) error {
	bl := setup.NTilde.BitLen()
	if bl < 2047 || bl > 2049 {
		return fmt.Errorf("zksetup.Verify: Ntilde bit length %d out of range", bl)
	}
	if setup.NTilde.ProbablyPrime(20) {
		return fmt.Errorf("zksetup.Verify: Ntilde must be composite")
	}
	if new(big.Int).GCD(nil, nil, setup.H1, setup.NTilde).Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("zksetup.Verify: h1 not a unit mod Ntilde")
	}
	if new(big.Int).GCD(nil, nil, setup.H2, setup.NTilde).Cmp(big.NewInt(1)) != 0 {
		return fmt.Errorf("zksetup.Verify: h2 not a unit mod Ntilde")
	}
	if err := compositedlog.Verify(domain.CompositeDLogProof1Tag, proverID, compositedlog.Statement{N: setup.NTilde, G: setup.H1, V: setup.H2}, proof.Proof1); err != nil {
		return fmt.Errorf("zksetup.Verify: %w", err)
	}
	if err := compositedlog.Verify(domain.CompositeDLogProof2Tag, proverID, compositedlog.Statement{N: setup.NTilde, G: setup.H2, V: setup.H1}, proof.Proof2); err != nil {
		return fmt.Errorf("zksetup.Verify: %w", err)
	}
	return nil
}

type ioReader interface {
	Read(p []byte) (n int, err error)
}

func generateSafePrimePair(rnd ioReader) (p, q *big.Int, err error) {
	bits := NBitLen / 2
	p, err = generateSafePrime(rnd, bits)
	if err != nil {
		return nil, nil, err
	}
	q, err = generateSafePrime(rnd, bits)
	if err != nil {
		return nil, nil, err
	}
	return p, q, nil
}

func generateSafePrime(rnd ioReader, bits int) (*big.Int, error) {
	for {
		p, err := primeOfBitLen(rnd, bits)
		if err != nil {
			return nil, err
		}
		sophieGermain := new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(1)), 1)
		if sophieGermain.ProbablyPrime(20) {
			return p, nil
		}
	}
}

func primeOfBitLen(rnd ioReader, bits int) (*big.Int, error) {
	return rand.Prime(rnd, bits)
}

// jacobi computes the Jacobi symbol (a/n) for odd n > 0.
func jacobi(a, n *big.Int) int {
	return big.Jacobi(a, n)
}
