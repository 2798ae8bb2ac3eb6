package vss_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/vss"
)

func TestSharesValidateAgainstCommitment(t *testing.T) {
	poly := vss.New(2)
	commit := poly.CommitTo()
	shares := poly.Shares(5)

	for _, s := range shares {
		assert.True(t, commit.ValidateShare(s))
	}
}

func TestRecoverFromThresholdPlusOneShares(t *testing.T) {
	poly := vss.New(2)
	shares := poly.Shares(5)

	recovered, err := vss.Recover(shares[:3])
	require.NoError(t, err)
	assert.True(t, recovered.Equal(poly.Secret()))

	recoveredOther, err := vss.Recover([]vss.Share{shares[0], shares[2], shares[4]})
	require.NoError(t, err)
	assert.True(t, recoveredOther.Equal(poly.Secret()))
}

func TestNewWithSecretFixesConstantTerm(t *testing.T) {
	secret := curve.DefaultRandomScalar()
	poly := vss.NewWithSecret(3, secret)
	assert.True(t, poly.Secret().Equal(secret))

	shares := poly.Shares(6)
	recovered, err := vss.Recover(shares[:4])
	require.NoError(t, err)
	assert.True(t, recovered.Equal(secret))
}

func TestCommitSecretMatchesGeneratorOfSecret(t *testing.T) {
	poly := vss.New(1)
	commit := poly.CommitTo()
	assert.True(t, commit.Secret().Equal(poly.Secret().ActOnBase()))
}

func TestLagrangeSumsToOne(t *testing.T) {
	coeffs := vss.Lagrange([]int{0, 1, 2, 3})
	sum := curve.NewScalar()
	for _, c := range coeffs {
		sum = sum.Add(c)
	}
	one := curve.ScalarFromUint64(1)
	assert.True(t, sum.Equal(one))
}

func TestValidateShareRejectsTamperedScalar(t *testing.T) {
	poly := vss.New(2)
	commit := poly.CommitTo()
	shares := poly.Shares(3)

	tampered := shares[0]
	tampered.Scalar = tampered.Scalar.Clone().Add(curve.ScalarFromUint64(1))
	assert.False(t, commit.ValidateShare(tampered))
}
