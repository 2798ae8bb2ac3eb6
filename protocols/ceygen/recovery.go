package ceygen

import (
	"fmt"
	"math/big"

	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/recoverrand"
	"github.com/luxfi/gg20tss/pkg/zksetup"
	"github.com/luxfi/gg20tss/protocols/keygen"
)

// RecoveryInfo is spec.md §3's KeyShareRecoveryInfo: the per-share
// on-chain recovery record. XCiphertext is x_i encrypted under the
// share's own ek, so posting RecoveryInfo publicly is safe -- only the
// share's own deterministically-derived dk can open it.
type RecoveryInfo struct {
	Index       party.KeygenShareID
	XCiphertext paillier.Ciphertext
}

// BuildRecoveryInfo produces the on-chain recovery record for a completed
// share, from either keygen or ceygen (both produce the same
// SecretKeyShare shape).
func BuildRecoveryInfo(share keygen.SecretKeyShare) (RecoveryInfo, error) {
	pub, err := share.Public.AllShares.Get(share.Secret.Index)
	if err != nil {
		return RecoveryInfo{}, fmt.Errorf("ceygen.BuildRecoveryInfo: %w", err)
	}
	ct, _, err := pub.EK.Encrypt(scalarToPlaintext(share.Secret.X))
	if err != nil {
		return RecoveryInfo{}, fmt.Errorf("ceygen.BuildRecoveryInfo: %w", err)
	}
	return RecoveryInfo{Index: share.Secret.Index, XCiphertext: ct}, nil
}

// Recover reconstructs a share's full SecretKeyShare from the group's
// already-known public material plus one RecoveryInfo record, without
// needing the original DKG transcript: it re-derives this share's Paillier
// secret key deterministically from (secretRecoveryKey, sessionNonce,
// index) -- the derivation ceygen.Generate uses --, decrypts x_i, and
// checks it against the publicly recorded X_i before returning. Keygen
// round 1 derives from the owning party's id instead, so a keygen share is
// re-derived correctly only where its share index equals its party index.
func Recover(group keygen.GroupPublicInfo, secretRecoveryKey, sessionNonce []byte, info RecoveryInfo, unsafePrimes bool) (keygen.SecretKeyShare, error) {
	pub, err := group.AllShares.Get(info.Index)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	idBytes, err := info.Index.MarshalBinary()
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}

	paillierRnd, err := recoverrand.Reader(secretRecoveryKey, sessionNonce, domain.KeypairTag, idBytes)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	var ek *paillier.PublicKey
	var dk *paillier.SecretKey
	if unsafePrimes {
		ek, dk, err = paillier.KeygenUnsafe(paillierRnd)
	} else {
		ek, dk, err = paillier.Keygen(paillierRnd)
	}
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	if paillier.BigFromNat(ek.N()).Cmp(paillier.BigFromNat(pub.EK.N())) != 0 {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: re-derived ek does not match recorded public key for share %s", info.Index)
	}

	zkRnd, err := recoverrand.Reader(secretRecoveryKey, sessionNonce, domain.ZkSetupTag, idBytes)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	zkSetup, _, err := zksetup.Generate(zkRnd)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	if zkSetup.NTilde.Cmp(pub.ZkSetup.NTilde) != 0 {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: re-derived zk setup does not match recorded public setup for share %s", info.Index)
	}

	plain, err := dk.Decrypt(info.XCiphertext)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: %w", err)
	}
	x := plaintextToScalar(plain)
	if !x.ActOnBase().Equal(pub.X) {
		return keygen.SecretKeyShare{}, fmt.Errorf("ceygen.Recover: recovered x_i does not match recorded X_i for share %s", info.Index)
	}

	return keygen.SecretKeyShare{
		Public: group,
		Secret: keygen.ShareSecretInfo{Index: info.Index, DK: dk, X: x},
	}, nil
}

// scalarToPlaintext/plaintextToScalar mirror protocols/keygen's
// unexported bridge of the same name (round2.go), duplicated here rather
// than exported across the package boundary for one helper pair.
func scalarToPlaintext(s *curve.Scalar) paillier.Plaintext {
	return paillier.PlaintextFromNat(paillier.NatFromBig(new(big.Int).SetBytes(s.Bytes())))
}

func plaintextToScalar(p paillier.Plaintext) *curve.Scalar {
	return curve.ScalarFromBytesReduced(paillier.BigFromNat(p.Nat()).Bytes())
}
