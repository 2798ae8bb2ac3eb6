// Package ceygen implements spec.md §9's "ceygen" derivation: a
// centralized, bring-your-own-key keygen that produces the same
// GroupPublicInfo/ShareSecretInfo shapes protocols/keygen does but skips
// the round 1-4 commit/reveal/complaint network dance entirely. It is a
// single local computation run by one dealer, not a multi-party protocol:
// the dealer Shamir-splits a caller-supplied (or freshly sampled) secret
// and derives every share's Paillier/ZkSetup material deterministically
// through recoverrand, keyed by share id (keygen round 1 keys the same
// derivation by the owning party's id).
package ceygen

import (
	"fmt"

	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/recoverrand"
	"github.com/luxfi/gg20tss/pkg/vss"
	"github.com/luxfi/gg20tss/pkg/zksetup"
	"github.com/luxfi/gg20tss/protocols/keygen"
)

// Config is the input to Generate.
type Config struct {
	Counts    party.PartyShareCounts
	Threshold int
	// AliceKey is the caller-supplied group private key (spec.md §9's
	// "alice_key"). Nil samples a fresh random secret instead; either way
	// a zero secret is rejected, per the Open Question's resolution.
	AliceKey          *curve.Scalar
	SessionNonce      []byte
	SecretRecoveryKey []byte
	UnsafePrimes      bool
}

// Generate builds n complete SecretKeyShares from a single Shamir split of
// AliceKey (or a fresh secret if AliceKey is nil), one share per global
// share id in cfg.Counts. Unlike keygen.Start this never touches the
// network: every share's Paillier keypair and ZkSetup are derived locally
// by the dealer from (SecretRecoveryKey, SessionNonce, shareID) via
// recoverrand; keygen round 1 feeds the same derivation its party id.
func Generate(cfg Config) ([]keygen.SecretKeyShare, error) {
	n := cfg.Counts.TotalShareCount()
	if cfg.Threshold < 1 || cfg.Threshold >= n || n > party.MaxTotalShares {
		return nil, fmt.Errorf("ceygen.Generate: invalid threshold %d for n=%d", cfg.Threshold, n)
	}
	if len(cfg.SessionNonce) == 0 {
		return nil, fmt.Errorf("ceygen.Generate: empty session nonce")
	}

	secret := cfg.AliceKey
	if secret == nil {
		secret = curve.DefaultRandomScalar()
	}
	if secret.IsZero() {
		return nil, fmt.Errorf("ceygen.Generate: alice_key must be nonzero")
	}

	poly := vss.NewWithSecret(cfg.Threshold, secret)
	commitTo := poly.CommitTo()
	y := commitTo.Secret() // = secret.ActOnBase(), the group public key
	shares := poly.Shares(n)

	publics := make([]keygen.SharePublicInfo, n)
	dks := make([]*paillier.SecretKey, n)

	for i := 0; i < n; i++ {
		shareID := typed.MustFromUsize[party.KeygenShareDomain](i)
		idBytes, err := shareID.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("ceygen.Generate: %w", err)
		}

		paillierRnd, err := recoverrand.Reader(cfg.SecretRecoveryKey, cfg.SessionNonce, domain.KeypairTag, idBytes)
		if err != nil {
			return nil, fmt.Errorf("ceygen.Generate: %w", err)
		}
		var ek *paillier.PublicKey
		var dk *paillier.SecretKey
		if cfg.UnsafePrimes {
			ek, dk, err = paillier.KeygenUnsafe(paillierRnd)
		} else {
			ek, dk, err = paillier.Keygen(paillierRnd)
		}
		if err != nil {
			return nil, fmt.Errorf("ceygen.Generate: %w", err)
		}

		zkRnd, err := recoverrand.Reader(cfg.SecretRecoveryKey, cfg.SessionNonce, domain.ZkSetupTag, idBytes)
		if err != nil {
			return nil, fmt.Errorf("ceygen.Generate: %w", err)
		}
		zkSetup, _, err := zksetup.Generate(zkRnd)
		if err != nil {
			return nil, fmt.Errorf("ceygen.Generate: %w", err)
		}

		publics[i] = keygen.SharePublicInfo{
			X:       commitTo.ShareCommit(i),
			EK:      ek,
			ZkSetup: zkSetup,
		}
		dks[i] = dk
	}

	groupPublic := keygen.GroupPublicInfo{
		Counts:    cfg.Counts,
		Threshold: cfg.Threshold,
		Y:         y,
		AllShares: typed.NewVecMap[party.KeygenShareDomain](publics),
	}

	out := make([]keygen.SecretKeyShare, n)
	for i := 0; i < n; i++ {
		if !commitTo.ValidateShare(shares[i]) {
			return nil, fmt.Errorf("ceygen.Generate: internal VSS inconsistency at share %d", i)
		}
		out[i] = keygen.SecretKeyShare{
			Public: groupPublic,
			Secret: keygen.ShareSecretInfo{
				Index: typed.MustFromUsize[party.KeygenShareDomain](i),
				DK:    dks[i],
				X:     shares[i].Scalar,
			},
		}
	}
	return out, nil
}
