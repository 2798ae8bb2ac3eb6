package paillier_test

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/gg20tss/pkg/paillier"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ek, dk, err := paillier.KeygenUnsafe(rand.Reader)
	require.NoError(t, err)

	m := paillier.PlaintextFromNat(paillier.NatFromBig(big.NewInt(424242)))
	ct, _, err := ek.Encrypt(m)
	require.NoError(t, err)

	got, err := dk.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, 0, paillier.BigFromNat(m.Nat()).Cmp(paillier.BigFromNat(got.Nat())))
}

func TestHomomorphicAdd(t *testing.T) {
	ek, dk, err := paillier.KeygenUnsafe(rand.Reader)
	require.NoError(t, err)

	m1 := paillier.PlaintextFromNat(paillier.NatFromBig(big.NewInt(111)))
	m2 := paillier.PlaintextFromNat(paillier.NatFromBig(big.NewInt(222)))
	c1, _, err := ek.Encrypt(m1)
	require.NoError(t, err)
	c2, _, err := ek.Encrypt(m2)
	require.NoError(t, err)

	sum := ek.Add(c1, c2)
	got, err := dk.Decrypt(sum)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(333), paillier.BigFromNat(got.Nat()))
}

func TestHomomorphicScalarMul(t *testing.T) {
	ek, dk, err := paillier.KeygenUnsafe(rand.Reader)
	require.NoError(t, err)

	m := paillier.PlaintextFromNat(paillier.NatFromBig(big.NewInt(7)))
	factor := paillier.PlaintextFromNat(paillier.NatFromBig(big.NewInt(6)))
	ct, _, err := ek.Encrypt(m)
	require.NoError(t, err)

	product := ek.Mul(ct, factor)
	got, err := dk.Decrypt(product)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), paillier.BigFromNat(got.Nat()))
}

func TestPublicKeyFromNRoundTrip(t *testing.T) {
	ek, _, err := paillier.KeygenUnsafe(rand.Reader)
	require.NoError(t, err)

	rebuilt := paillier.NewPublicKeyFromN(ek.N())
	assert.Equal(t, 0, paillier.BigFromNat(ek.N()).Cmp(paillier.BigFromNat(rebuilt.N())))
}
