package sign_test

import (
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/protocols/keygen"
	"github.com/luxfi/gg20tss/protocols/sign"
)

// tHelper is the subset of *testing.T (and ginkgo's GinkgoTInterface) that
// lets these helpers mark themselves as test-infra frames; both sign_test.go
// (table-driven testify tests) and the ginkgo identifiable-abort specs
// drive protocols through the same helpers below, so the helpers are typed
// against require.TestingT rather than *testing.T.
type tHelper interface {
	Helper()
}

func helper(t require.TestingT) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
}

// runToCompletion drives a set of in-process Rounds to completion, one per
// participating share, delivering every round's outgoing bcast/p2p bytes
// to every other live round before any of them executes its next round.
func runToCompletion[K any, Out any](t require.TestingT, rounds map[int]*round.Round[K, Out]) map[int]*round.Result[K, Out] {
	helper(t)
	live := rounds
	results := make(map[int]*round.Result[K, Out], len(rounds))

	for len(live) > 0 {
		bcasts := make(map[int][]byte, len(live))
		p2ps := make(map[int]map[int][]byte, len(live))
		for idx, r := range live {
			if b, ok := r.BcastOut(); ok {
				bcasts[idx] = b
			}
			if p, ok := r.P2psOut(); ok {
				p2ps[idx] = p
			}
		}
		for idx, r := range live {
			for from, b := range bcasts {
				if from == idx {
					continue
				}
				require.NoError(t, r.MsgIn(typed.MustFromUsize[K](from), b))
			}
			for from, pmap := range p2ps {
				if from == idx {
					continue
				}
				if payload, ok := pmap[idx]; ok {
					require.NoError(t, r.MsgIn(typed.MustFromUsize[K](from), payload))
				}
			}
		}
		next := make(map[int]*round.Round[K, Out], len(live))
		for idx, r := range live {
			proto, err := r.ExecuteNextRound()
			require.NoError(t, err)
			if proto.Next != nil {
				next[idx] = proto.Next
				continue
			}
			results[idx] = proto.Done
		}
		live = next
	}
	return results
}

func runKeygen(t require.TestingT, n, threshold int) []keygen.SecretKeyShare {
	helper(t)
	counts, err := party.NewPartyShareCounts(onesOf(n))
	require.NoError(t, err)

	sessionNonce := make([]byte, 32)
	_, err = rand.Read(sessionNonce)
	require.NoError(t, err)
	secretRecoveryKey := make([]byte, 32)
	_, err = rand.Read(secretRecoveryKey)
	require.NoError(t, err)

	rounds := make(map[int]*round.Round[party.KeygenShareDomain, keygen.SecretKeyShare], n)
	for i := 0; i < n; i++ {
		r, err := keygen.Start(keygen.Config{
			Counts:            counts,
			Threshold:         threshold,
			MyShareID:         typed.MustFromUsize[party.KeygenShareDomain](i),
			SessionNonce:      sessionNonce,
			SecretRecoveryKey: secretRecoveryKey,
			UnsafePrimes:      true,
		})
		require.NoError(t, err)
		rounds[i] = r
	}

	results := runToCompletion(t, rounds)
	shares := make([]keygen.SecretKeyShare, n)
	for i := 0; i < n; i++ {
		res := results[i]
		require.Nil(t, res.Faulters, "share %d faulted", i)
		require.NotNil(t, res.Output)
		shares[i] = *res.Output
	}
	return shares
}

func onesOf(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// runSign drives sign.Start/ExecuteNextRound for every share in signerIDs
// to completion, applying behaviours[id] (Honest if absent) to each
// signer's Config. Shared by the table-driven testify test below and the
// ginkgo identifiable-abort specs in identifiable_abort_test.go.
func runSign(t require.TestingT, shares []keygen.SecretKeyShare, signerIDs []int, sessionNonce []byte, digest [32]byte, behaviours map[int]sign.Behaviour) map[int]*round.Result[party.SignShareDomain, []byte] {
	helper(t)
	partyCount := shares[0].Public.Counts.PartyCount()
	signers := typed.NewSubset[party.KeygenPartyDomain](partyCount)
	for _, id := range signerIDs {
		require.NoError(t, signers.Add(typed.MustFromUsize[party.KeygenPartyDomain](id)))
	}

	rounds := make(map[int]*round.Round[party.SignShareDomain, []byte], len(signerIDs))
	for _, id := range signerIDs {
		r, err := sign.Start(sign.Config{
			Share:        shares[id],
			Signers:      signers,
			MsgDigest:    digest,
			SessionNonce: sessionNonce,
			Behaviour:    behaviours[id],
		})
		require.NoError(t, err)
		rounds[r.Info().MyShareID.AsUsize()] = r
	}
	return runToCompletion(t, rounds)
}

func TestKeygenThenSignProducesValidSignature(t *testing.T) {
	const n = 5
	const threshold = 2
	shares := runKeygen(t, n, threshold)
	signerIDs := []int{0, 2, 3} // threshold+1 parties

	sessionNonce := make([]byte, 32)
	_, err := rand.Read(sessionNonce)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("the message being signed"))

	results := runSign(t, shares, signerIDs, sessionNonce, digest, nil)
	var sigDER []byte
	for _, res := range results {
		require.Nil(t, res.Faulters)
		require.NotNil(t, res.Output)
		sigDER = *res.Output
	}
	require.NotEmpty(t, sigDER)

	sig, err := curve.ParseSignatureDER(sigDER)
	require.NoError(t, err)
	require.True(t, curve.Verify(sig, digest[:], shares[0].Public.Y))
}
