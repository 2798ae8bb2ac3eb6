// Package paillier implements the additively homomorphic Paillier
// cryptosystem over Z/N^2, N=pq, used as the auxiliary encryption scheme
// for GG20's MtA sub-protocol (spec.md §4.2).
//
// Plaintext, Ciphertext and Randomness are newtypes around *saferith.Nat so
// that the bignum backend stays isolated behind this package, per the
// design notes in spec.md §9 ("do not let BigInt leak into general code").
package paillier

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/cronokirby/saferith"
)

// BitLen is the modulus size spec.md §3 names ("2048-bit modulus").
const BitLen = 2048

// Plaintext is an element of Z/N.
type Plaintext struct{ nat *saferith.Nat }

// Ciphertext is an element of (Z/N^2)*.
type Ciphertext struct{ nat *saferith.Nat }

// Randomness is an element of (Z/N)*.
type Randomness struct{ nat *saferith.Nat }

func (p Plaintext) Nat() *saferith.Nat   { return p.nat }
func (c Ciphertext) Nat() *saferith.Nat  { return c.nat }
func (r Randomness) Nat() *saferith.Nat  { return r.nat }

func PlaintextFromNat(n *saferith.Nat) Plaintext   { return Plaintext{nat: n} }
func CiphertextFromNat(n *saferith.Nat) Ciphertext { return Ciphertext{nat: n} }
func RandomnessFromNat(n *saferith.Nat) Randomness { return Randomness{nat: n} }

// PublicKey (EncryptionKey) is N and the derived N^2 modulus.
type PublicKey struct {
	n  *saferith.Modulus
	n2 *saferith.Modulus
	// nNat/n2Nat mirror n/n2 as Nat for use as exponent/operand bases.
	nNat, n2Nat *saferith.Nat
}

// SecretKey (DecryptionKey) additionally knows the factorization (p,q), so
// decryption and "decrypt with randomness recovery" (needed by the sad
// path, spec.md §4.4) can use CRT.
type SecretKey struct {
	*PublicKey
	p, q       *saferith.Nat
	phi        *saferith.Nat // (p-1)(q-1)
	phiInv     *saferith.Nat // phi^-1 mod N
	nModPhi    *saferith.Modulus
}

// NewPublicKeyFromN builds a PublicKey from a known modulus N, as received
// on the wire from a peer.
func NewPublicKeyFromN(n *saferith.Nat) *PublicKey {
	nMod := saferith.ModulusFromNat(n)
	n2 := new(saferith.Nat).Mul(n, n, 2*BitLen)
	n2Mod := saferith.ModulusFromNat(n2)
	return &PublicKey{n: nMod, n2: n2Mod, nNat: n, n2Nat: n2}
}

// N returns the modulus as a Nat (read-only use: validating ciphertext
// ranges, deriving challenge transcripts).
func (pk *PublicKey) N() *saferith.Nat { return pk.nNat }

// Phi returns (p-1)(q-1) as a big.Int, needed by the Paillier key
// correctness proof to extract N-th roots.
func (sk *SecretKey) Phi() *big.Int { return natToBig(sk.phi) }

// NSquared returns N^2 as a Nat.
func (pk *PublicKey) NSquared() *saferith.Nat { return pk.n2Nat }

// Clone returns an independent copy of pk (same modulus value, fresh
// pointers), matching the teacher's Paillier.Clone usage when scaling
// public data per-session to avoid aliasing across concurrent signs.
func (pk *PublicKey) Clone() *PublicKey {
	return NewPublicKeyFromN(new(saferith.Nat).SetNat(pk.nNat))
}

// ValidatePlaintext checks m in Z/N.
func (pk *PublicKey) ValidatePlaintext(m Plaintext) bool {
	return natToBig(m.nat).Cmp(natToBig(pk.nNat)) < 0
}

// ValidateRandomness checks r in (Z/N)*, i.e. gcd(r,N)==1.
func (pk *PublicKey) ValidateRandomness(r Randomness) bool {
	return isUnit(r.nat, pk.nNat)
}

// ValidateCiphertext checks c in (Z/N^2)*.
func (pk *PublicKey) ValidateCiphertext(c Ciphertext) bool {
	if natToBig(c.nat).Cmp(natToBig(pk.n2Nat)) >= 0 {
		return false
	}
	return isUnit(c.nat, pk.n2Nat)
}

func isUnit(x, n *saferith.Nat) bool {
	xBig := natToBig(x)
	nBig := natToBig(n)
	g := new(big.Int).GCD(nil, nil, xBig, nBig)
	return g.Cmp(big.NewInt(1)) == 0
}

func natToBig(n *saferith.Nat) *big.Int {
	return new(big.Int).SetBytes(n.Bytes())
}

func bigToNat(b *big.Int) *saferith.Nat {
	return new(saferith.Nat).SetBytes(b.Bytes())
}

// BigFromNat exposes the Nat->big.Int conversion for sibling packages (range
// and MtA proofs) that must mix Paillier values with Ñ-modulus arithmetic
// outside this package's saferith-only boundary.
func BigFromNat(n *saferith.Nat) *big.Int { return natToBig(n) }

// NatFromBig exposes the big.Int->Nat conversion for the same callers.
func NatFromBig(b *big.Int) *saferith.Nat { return bigToNat(b) }

// sampleUnit samples a uniform element of (Z/mod)* using the supplied
// reader, rejection-sampling on non-coprimality (vanishingly rare for the
// RSA-like moduli used here).
func sampleUnit(rnd ioReaderPaillier, modBig *big.Int) (*saferith.Nat, error) {
	for {
		buf := make([]byte, (modBig.BitLen()+7)/8+8) // oversample to reduce bias
		if _, err := rnd.Read(buf); err != nil {
			return nil, err
		}
		cand := new(big.Int).Mod(new(big.Int).SetBytes(buf), modBig)
		if cand.Sign() == 0 {
			continue
		}
		g := new(big.Int).GCD(nil, nil, cand, modBig)
		if g.Cmp(big.NewInt(1)) != 0 {
			continue
		}
		return bigToNat(cand), nil
	}
}

type ioReaderPaillier interface {
	Read(p []byte) (n int, err error)
}

// Encrypt samples fresh randomness and encrypts p.
func (pk *PublicKey) Encrypt(p Plaintext) (Ciphertext, Randomness, error) {
	r, err := sampleUnit(rand.Reader, natToBig(pk.nNat))
	if err != nil {
		return Ciphertext{}, Randomness{}, fmt.Errorf("paillier.Encrypt: %w", err)
	}
	c := pk.EncryptWithRandomness(p, RandomnessFromNat(r))
	return c, RandomnessFromNat(r), nil
}

// EncryptWithRandomness computes c = (1+N)^m * r^N mod N^2 deterministically.
func (pk *PublicKey) EncryptWithRandomness(p Plaintext, r Randomness) Ciphertext {
	// (1+N)^m mod N^2 == 1 + m*N mod N^2 (binomial expansion, higher terms
	// vanish mod N^2).
	mN := new(saferith.Nat).ModMul(p.nat, pk.nNat, pk.n2)
	gm := new(saferith.Nat).ModAdd(mN, new(saferith.Nat).SetUint64(1), pk.n2)
	rn := new(saferith.Nat).Exp(r.nat, pk.nNat, pk.n2)
	c := new(saferith.Nat).ModMul(gm, rn, pk.n2)
	return CiphertextFromNat(c)
}

// Add returns the ciphertext encrypting the sum of c1 and c2's plaintexts.
func (pk *PublicKey) Add(c1, c2 Ciphertext) Ciphertext {
	return CiphertextFromNat(new(saferith.Nat).ModMul(c1.nat, c2.nat, pk.n2))
}

// Mul returns the ciphertext encrypting p*m, m the plaintext encrypted by c.
func (pk *PublicKey) Mul(c Ciphertext, p Plaintext) Ciphertext {
	return CiphertextFromNat(new(saferith.Nat).Exp(c.nat, p.nat, pk.n2))
}

// Keygen samples a fresh Paillier keypair using safe primes (p=2p'+1,
// q=2q'+1, both p,q and p',q' prime), as production use requires
// (spec.md §4.2: "safe-prime and unsafe variants").
func Keygen(rnd ioReaderPaillier) (*PublicKey, *SecretKey, error) {
	return keygen(rnd, true)
}

// KeygenUnsafe drops the safe-prime requirement for faster test fixtures
// (spec.md §3 PaillierKeyPair: "unsafe primes (faster) in tests").
func KeygenUnsafe(rnd ioReaderPaillier) (*PublicKey, *SecretKey, error) {
	return keygen(rnd, false)
}

func keygen(rnd ioReaderPaillier, safe bool) (*PublicKey, *SecretKey, error) {
	primeBits := BitLen / 2
	p, err := generatePrime(rnd, primeBits, safe)
	if err != nil {
		return nil, nil, fmt.Errorf("paillier.Keygen: %w", err)
	}
	q, err := generatePrime(rnd, primeBits, safe)
	if err != nil {
		return nil, nil, fmt.Errorf("paillier.Keygen: %w", err)
	}
	n := new(big.Int).Mul(p, q)
	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, big.NewInt(1)),
		new(big.Int).Sub(q, big.NewInt(1)),
	)
	nNat := bigToNat(n)
	pk := NewPublicKeyFromN(nNat)
	phiNat := bigToNat(phi)
	phiInv := new(big.Int).ModInverse(phi, n)
	if phiInv == nil {
		return nil, nil, fmt.Errorf("paillier.Keygen: phi not invertible mod N")
	}
	sk := &SecretKey{
		PublicKey: pk,
		p:         bigToNat(p),
		q:         bigToNat(q),
		phi:       phiNat,
		phiInv:    bigToNat(phiInv),
		nModPhi:   saferith.ModulusFromNat(phiNat),
	}
	return pk, sk, nil
}

// generatePrime returns a big.Int prime of the given bit length. When safe
// is true it additionally requires (p-1)/2 to be prime (a safe prime).
func generatePrime(rnd ioReaderPaillier, bits int, safe bool) (*big.Int, error) {
	for {
		p, err := rand.Prime(rndAdapter{rnd}, bits)
		if err != nil {
			return nil, err
		}
		if !safe {
			return p, nil
		}
		sophieGermain := new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(1)), 1)
		if sophieGermain.ProbablyPrime(20) {
			return p, nil
		}
	}
}

type rndAdapter struct{ r ioReaderPaillier }

func (a rndAdapter) Read(p []byte) (int, error) { return a.r.Read(p) }

// Decrypt recovers the plaintext m = L(c^phi mod N^2) * phi^-1 mod N.
func (sk *SecretKey) Decrypt(c Ciphertext) (Plaintext, error) {
	m, _, err := sk.decrypt(c)
	return m, err
}

// DecryptWithRandomness additionally recovers the encryption randomness r,
// needed for the sad-path replay dispute resolution (spec.md §4.4).
func (sk *SecretKey) DecryptWithRandomness(c Ciphertext) (Plaintext, Randomness, error) {
	return sk.decrypt(c)
}

func (sk *SecretKey) decrypt(c Ciphertext) (Plaintext, Randomness, error) {
	if !sk.ValidateCiphertext(c) {
		return Plaintext{}, Randomness{}, fmt.Errorf("paillier.Decrypt: ciphertext not in (Z/N^2)*")
	}
	cPhi := new(saferith.Nat).Exp(c.nat, sk.phi, sk.n2)
	lOfC := lFunction(cPhi, sk.nNat)
	m := new(saferith.Nat).ModMul(lOfC, sk.phiInv, sk.n)

	// Recover r = (c * (1+N)^-m)^(N^-1 mod phi) mod N.
	mN := new(saferith.Nat).ModMul(m, sk.nNat, sk.n2)
	gmInv := new(saferith.Nat).ModAdd(mN, new(saferith.Nat).SetUint64(1), sk.n2)
	gmInvInverse := new(saferith.Nat).ModInverse(gmInv, sk.n2)
	base := new(saferith.Nat).ModMul(c.nat, gmInvInverse, sk.n2)
	nInvModPhi := new(saferith.Nat).ModInverse(sk.nNat, sk.nModPhi)
	r := new(saferith.Nat).Exp(base, nInvModPhi, sk.n)

	return PlaintextFromNat(m), RandomnessFromNat(r), nil
}

// lFunction computes L(x) = (x-1)/N for x in 1+N*Z/N^2.
func lFunction(x, n *saferith.Nat) *saferith.Nat {
	xBig := natToBig(x)
	one := big.NewInt(1)
	xm1 := new(big.Int).Sub(xBig, one)
	nBig := natToBig(n)
	q := new(big.Int).Div(xm1, nBig)
	return bigToNat(q)
}
