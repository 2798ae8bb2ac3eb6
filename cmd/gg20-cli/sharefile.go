package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/recoverrand"
	"github.com/luxfi/gg20tss/pkg/zksetup"
	"github.com/luxfi/gg20tss/protocols/keygen"
)

// shareFile is the on-disk JSON shape of one share, written by "ceygen"
// and read back by "sign". The CLI never persists a Paillier secret key
// directly -- SecretKey's factorization has no exported constructor from
// raw (p, q) -- so DK is re-derived on load from SecretRecoveryKey,
// SessionNonce and Index via the same recoverrand path ceygen.Generate
// used to produce it in the first place, and cross-checked against the
// recorded public EK before use.
type shareFile struct {
	Counts            []int             `json:"counts"`
	Threshold         int               `json:"threshold"`
	Y                 string            `json:"y"`
	Shares            []sharePublicJSON `json:"shares"`
	Index             int               `json:"index"`
	X                 string            `json:"x"`
	SecretRecoveryKey string            `json:"secret_recovery_key"`
	SessionNonce      string            `json:"session_nonce"`
	UnsafePrimes      bool              `json:"unsafe_primes"`
}

type sharePublicJSON struct {
	X       string `json:"x"`
	EKN     string `json:"ek_n"`
	NTilde  string `json:"ntilde"`
	H1      string `json:"h1"`
	H2      string `json:"h2"`
}

func writeShareFile(dir string, share keygen.SecretKeyShare, secretRecoveryKey, sessionNonce []byte, unsafePrimes bool) error {
	n := share.Public.Counts.TotalShareCount()
	shares := make([]sharePublicJSON, n)
	for i := 0; i < n; i++ {
		pub, err := share.Public.AllShares.Get(typed.MustFromUsize[party.KeygenShareDomain](i))
		if err != nil {
			return fmt.Errorf("writeShareFile: %w", err)
		}
		xb, err := wire.Point(pub.X)
		if err != nil {
			return fmt.Errorf("writeShareFile: %w", err)
		}
		shares[i] = sharePublicJSON{
			X:      hex.EncodeToString(xb),
			EKN:    hex.EncodeToString(paillier.BigFromNat(pub.EK.N()).Bytes()),
			NTilde: hex.EncodeToString(pub.ZkSetup.NTilde.Bytes()),
			H1:     hex.EncodeToString(pub.ZkSetup.H1.Bytes()),
			H2:     hex.EncodeToString(pub.ZkSetup.H2.Bytes()),
		}
	}
	yb, err := wire.Point(share.Public.Y)
	if err != nil {
		return fmt.Errorf("writeShareFile: %w", err)
	}

	sf := shareFile{
		Counts:            partyCounts(share.Public.Counts),
		Threshold:         share.Public.Threshold,
		Y:                 hex.EncodeToString(yb),
		Shares:            shares,
		Index:             share.Secret.Index.AsUsize(),
		X:                 hex.EncodeToString(wire.Scalar(share.Secret.X)),
		SecretRecoveryKey: hex.EncodeToString(secretRecoveryKey),
		SessionNonce:      hex.EncodeToString(sessionNonce),
		UnsafePrimes:      unsafePrimes,
	}
	raw, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("writeShareFile: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d", sf.Index))
	return os.WriteFile(path, raw, 0o600)
}

func writePartyShareCounts(dir string, counts party.PartyShareCounts) error {
	raw, err := json.MarshalIndent(partyCounts(counts), "", "  ")
	if err != nil {
		return fmt.Errorf("writePartyShareCounts: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "party_share_counts"), raw, 0o644)
}

func readPartyShareCounts(dir string) (party.PartyShareCounts, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "party_share_counts"))
	if err != nil {
		return party.PartyShareCounts{}, fmt.Errorf("readPartyShareCounts: %w", err)
	}
	var counts []int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return party.PartyShareCounts{}, fmt.Errorf("readPartyShareCounts: %w", err)
	}
	return party.NewPartyShareCounts(counts)
}

func readShareFile(dir string, shareID int) (keygen.SecretKeyShare, error) {
	raw, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%d", shareID)))
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	var sf shareFile
	if err := json.Unmarshal(raw, &sf); err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}

	counts, err := party.NewPartyShareCounts(sf.Counts)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	yb, err := hexDecode(sf.Y)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	y, err := wire.ParsePoint(yb)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}

	publics := make([]keygen.SharePublicInfo, len(sf.Shares))
	for i, sp := range sf.Shares {
		xb, err := hexDecode(sp.X)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		x, err := wire.ParsePoint(xb)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		ekNBytes, err := hexDecode(sp.EKN)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		ek := paillier.NewPublicKeyFromN(paillier.NatFromBig(new(big.Int).SetBytes(ekNBytes)))
		nTildeB, err := hexDecode(sp.NTilde)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		h1B, err := hexDecode(sp.H1)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		h2B, err := hexDecode(sp.H2)
		if err != nil {
			return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
		}
		publics[i] = keygen.SharePublicInfo{
			X:  x,
			EK: ek,
			ZkSetup: &zksetup.ZkSetup{
				NTilde: new(big.Int).SetBytes(nTildeB),
				H1:     new(big.Int).SetBytes(h1B),
				H2:     new(big.Int).SetBytes(h2B),
			},
		}
	}

	groupPublic := keygen.GroupPublicInfo{
		Counts:    counts,
		Threshold: sf.Threshold,
		Y:         y,
		AllShares: typed.NewVecMap[party.KeygenShareDomain](publics),
	}

	xSecretBytes, err := hexDecode(sf.X)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	x, err := wire.ParseScalarCanonical(xSecretBytes)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}

	secretRecoveryKey, err := hexDecode(sf.SecretRecoveryKey)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	sessionNonce, err := hexDecode(sf.SessionNonce)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	shareIdx := typed.MustFromUsize[party.KeygenShareDomain](sf.Index)
	idBytes, err := shareIdx.MarshalBinary()
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	paillierRnd, err := recoverrand.Reader(secretRecoveryKey, sessionNonce, domain.KeypairTag, idBytes)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	var ek *paillier.PublicKey
	var dk *paillier.SecretKey
	if sf.UnsafePrimes {
		ek, dk, err = paillier.KeygenUnsafe(paillierRnd)
	} else {
		ek, dk, err = paillier.Keygen(paillierRnd)
	}
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	recordedEK, err := groupPublic.AllShares.Get(shareIdx)
	if err != nil {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: %w", err)
	}
	if paillier.BigFromNat(ek.N()).Cmp(paillier.BigFromNat(recordedEK.EK.N())) != 0 {
		return keygen.SecretKeyShare{}, fmt.Errorf("readShareFile: re-derived ek does not match recorded public key for share %d", sf.Index)
	}

	return keygen.SecretKeyShare{
		Public: groupPublic,
		Secret: keygen.ShareSecretInfo{Index: shareIdx, DK: dk, X: x},
	}, nil
}

func partyCounts(counts party.PartyShareCounts) []int {
	out := make([]int, counts.PartyCount())
	for p := 0; p < counts.PartyCount(); p++ {
		n, err := counts.SharesOf(typed.MustFromUsize[party.KeygenPartyDomain](p))
		if err != nil {
			panic(err) // p is always in range here
		}
		out[p] = n
	}
	return out
}

func hexDecode(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("hexDecode: %w", err)
	}
	return b, nil
}
