package ceygen_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/vss"
	"github.com/luxfi/gg20tss/protocols/ceygen"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func TestGenerateProducesReconstructableSecret(t *testing.T) {
	counts, err := party.NewPartyShareCounts([]int{1, 1, 1, 1, 1})
	require.NoError(t, err)

	aliceKey := curve.DefaultRandomScalar()
	shares, err := ceygen.Generate(ceygen.Config{
		Counts:            counts,
		Threshold:         2,
		AliceKey:          aliceKey,
		SessionNonce:       randomBytes(t, 32),
		SecretRecoveryKey: randomBytes(t, 32),
		UnsafePrimes:      true,
	})
	require.NoError(t, err)
	require.Len(t, shares, 5)

	for _, s := range shares {
		assert.True(t, s.Public.Y.Equal(aliceKey.ActOnBase()))
	}

	vssShares := make([]vss.Share, 3)
	for i := 0; i < 3; i++ {
		vssShares[i] = vss.Share{Index: shares[i].Secret.Index.AsUsize(), Scalar: shares[i].Secret.X}
	}
	recovered, err := vss.Recover(vssShares)
	require.NoError(t, err)
	assert.True(t, recovered.Equal(aliceKey))
}

func TestGenerateRejectsZeroKey(t *testing.T) {
	counts, err := party.NewPartyShareCounts([]int{1, 1, 1})
	require.NoError(t, err)

	_, err = ceygen.Generate(ceygen.Config{
		Counts:            counts,
		Threshold:         1,
		AliceKey:          curve.NewScalar(),
		SessionNonce:       randomBytes(t, 32),
		SecretRecoveryKey: randomBytes(t, 32),
		UnsafePrimes:      true,
	})
	assert.Error(t, err)
}

func TestBuildAndRecoverRoundTrip(t *testing.T) {
	counts, err := party.NewPartyShareCounts([]int{1, 1, 1, 1})
	require.NoError(t, err)

	secretRecoveryKey := randomBytes(t, 32)
	sessionNonce := randomBytes(t, 32)

	shares, err := ceygen.Generate(ceygen.Config{
		Counts:            counts,
		Threshold:         1,
		SessionNonce:       sessionNonce,
		SecretRecoveryKey: secretRecoveryKey,
		UnsafePrimes:      true,
	})
	require.NoError(t, err)

	target := shares[2]
	info, err := ceygen.BuildRecoveryInfo(target)
	require.NoError(t, err)
	assert.Equal(t, target.Secret.Index, info.Index)

	recovered, err := ceygen.Recover(target.Public, secretRecoveryKey, sessionNonce, info, true)
	require.NoError(t, err)
	assert.True(t, recovered.Secret.X.Equal(target.Secret.X))
	assert.Equal(t, target.Secret.Index, recovered.Secret.Index)
}

func TestRecoverRejectsWrongRecoveryKey(t *testing.T) {
	counts, err := party.NewPartyShareCounts([]int{1, 1, 1})
	require.NoError(t, err)

	secretRecoveryKey := randomBytes(t, 32)
	sessionNonce := randomBytes(t, 32)

	shares, err := ceygen.Generate(ceygen.Config{
		Counts:            counts,
		Threshold:         1,
		SessionNonce:       sessionNonce,
		SecretRecoveryKey: secretRecoveryKey,
		UnsafePrimes:      true,
	})
	require.NoError(t, err)

	info, err := ceygen.BuildRecoveryInfo(shares[0])
	require.NoError(t, err)

	_, err = ceygen.Recover(shares[0].Public, randomBytes(t, 32), sessionNonce, info, true)
	assert.Error(t, err)
}
