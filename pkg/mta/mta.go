// Package mta implements the GG20 MtA (multiplicative-to-additive)
// sub-protocol of spec.md §4.4: given Alice's Paillier encryption of a and
// Bob's scalar b, the two parties derive additive shares alpha + beta =
// a*b mod q without either learning the other's factor.
//
// Bob is the only party that runs code in this package (Alice's half is
// just a Paillier decryption, done directly against pkg/paillier); Bob
// additionally retains the secret trail needed for sad-path dispute
// resolution when his proof is later challenged.
package mta

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/paillier"
	mtazkp "github.com/luxfi/gg20tss/pkg/zkp/mta"
	"github.com/luxfi/gg20tss/pkg/zksetup"
)

// Secret is the trail Bob retains so either side can replay the ciphertext
// deterministically during sad-path dispute resolution (spec.md §4.4).
type Secret struct {
	Beta       *curve.Scalar // -beta' mod q
	BetaPrime  *big.Int      // the raw Paillier plaintext offset
	Randomness paillier.Randomness
}

// BobOutput is everything Bob sends Alice, plus the secret trail he keeps.
type BobOutput struct {
	C2     paillier.Ciphertext
	Proof  *mtazkp.Proof
	Secret Secret
}

// Bob runs Bob's side of a plain MtA: Alice's (ek, c1=Enc(ek,a)) is public,
// b is Bob's secret scalar, aliceSetup is Alice's auxiliary (Ñ,h1,h2) used
// to hide Bob's commitments in the accompanying range proof.
func Bob(proverID []byte, aliceEK *paillier.PublicKey, aliceSetup *zksetup.ZkSetup, c1 paillier.Ciphertext, b *curve.Scalar) (*BobOutput, error) {
	return bob(proverID, aliceEK, aliceSetup, c1, b, nil)
}

// BobWC runs Bob's side of an MtA-wc: additionally binds bG = b*G into the
// proof (used for the mu/nu computation against w_i*G in sign round 2).
func BobWC(proverID []byte, aliceEK *paillier.PublicKey, aliceSetup *zksetup.ZkSetup, c1 paillier.Ciphertext, b *curve.Scalar, bG *curve.Point) (*BobOutput, error) {
	return bob(proverID, aliceEK, aliceSetup, c1, b, bG)
}

func bob(proverID []byte, aliceEK *paillier.PublicKey, aliceSetup *zksetup.ZkSetup, c1 paillier.Ciphertext, b *curve.Scalar, bG *curve.Point) (*BobOutput, error) {
	nBig := paillier.BigFromNat(aliceEK.N())
	bBig := new(big.Int).SetBytes(b.Bytes())

	betaPrime, err := rand.Int(rand.Reader, nBig)
	if err != nil {
		return nil, fmt.Errorf("mta.Bob: %w", err)
	}

	c1ToB := aliceEK.Mul(c1, paillier.PlaintextFromNat(paillier.NatFromBig(bBig)))
	encBetaPrime, r, err := aliceEK.Encrypt(paillier.PlaintextFromNat(paillier.NatFromBig(betaPrime)))
	if err != nil {
		return nil, fmt.Errorf("mta.Bob: %w", err)
	}
	c2 := aliceEK.Add(c1ToB, encBetaPrime)

	beta := curve.ScalarFromBytesReduced(betaPrime.Bytes()).Negate()

	stmt := mtazkp.Statement{EK: aliceEK, Setup: aliceSetup, C1: c1, C2: c2}
	if bG != nil {
		stmt.WCTarget = bG
	}
	proof, err := mtazkp.Prove(proverID, stmt, bBig, betaPrime, r, b)
	if err != nil {
		return nil, fmt.Errorf("mta.Bob: %w", err)
	}

	return &BobOutput{
		C2:    c2,
		Proof: proof,
		Secret: Secret{
			Beta:       beta,
			BetaPrime:  betaPrime,
			Randomness: r,
		},
	}, nil
}

// VerifyBob verifies Bob's proof against Alice's (c1, c2) and auxiliary
// setup. wcTarget must be supplied (non-nil) iff the proof is an MtA-wc.
func VerifyBob(proverID []byte, aliceEK *paillier.PublicKey, aliceSetup *zksetup.ZkSetup, c1, c2 paillier.Ciphertext, wcTarget *curve.Point, proof *mtazkp.Proof) error {
	stmt := mtazkp.Statement{EK: aliceEK, Setup: aliceSetup, C1: c1, C2: c2, WCTarget: wcTarget}
	return mtazkp.Verify(proverID, stmt, proof)
}

// Alice recovers her additive share alpha = Dec(sk, c2) mod q. The caller
// is responsible for validating Bob's proof against c2 before calling this.
func Alice(sk *paillier.SecretKey, c2 paillier.Ciphertext) (*curve.Scalar, error) {
	p, err := sk.Decrypt(c2)
	if err != nil {
		return nil, fmt.Errorf("mta.Alice: %w", err)
	}
	return curve.ScalarFromBytesReduced(paillier.BigFromNat(p.Nat()).Bytes()), nil
}

// AliceWithRandomness additionally recovers the encryption randomness
// behind c2, needed by the sad-path replay (spec.md §4.4: Alice's half of
// dispute resolution mirrors Bob's retained Secret).
func AliceWithRandomness(sk *paillier.SecretKey, c2 paillier.Ciphertext) (*curve.Scalar, paillier.Randomness, error) {
	p, r, err := sk.DecryptWithRandomness(c2)
	if err != nil {
		return nil, paillier.Randomness{}, fmt.Errorf("mta.AliceWithRandomness: %w", err)
	}
	return curve.ScalarFromBytesReduced(paillier.BigFromNat(p.Nat()).Bytes()), r, nil
}
