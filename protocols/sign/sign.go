// Package sign implements the GG20 threshold-signing protocol of spec.md
// §4.7: seven network rounds producing a DER-encoded, low-S-normalised
// ECDSA signature over a 32-byte digest. Each wire round's Executer
// doubles as the next spec-named round's local computation, the same
// collapsing pattern protocols/keygen uses -- see DESIGN.md.
package sign

import (
	"math/big"
	"sort"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/vss"
	"github.com/luxfi/gg20tss/pkg/zksetup"
	"github.com/luxfi/gg20tss/protocols/keygen"
)

// maxMsgLen bounds every sign wire envelope, generously sized for the same
// reason keygen's is -- see protocols/keygen/keygen.go.
const maxMsgLen = 256 * 1024

// Config is the input to Start: a completed keygen share plus the chosen
// signer set and message digest.
type Config struct {
	Share        keygen.SecretKeyShare
	Signers      typed.Subset[party.KeygenPartyDomain]
	MsgDigest    [32]byte
	SessionNonce []byte

	// Behaviour deliberately deviates this share from the honest protocol,
	// for identifiable-abort fault-injection testing. The zero value,
	// Honest, must be used in production.
	Behaviour Behaviour
}

// peerInfo is what every signer publicly knows about every other signer
// before round 1 starts, derived entirely from the keygen output plus the
// Lagrange coefficients of the chosen signer set.
type peerInfo struct {
	ek      *paillier.PublicKey
	zkSetup *zksetup.ZkSetup
	x       *curve.Point // public keygen share commitment X_j
	lambda  *curve.Scalar
	w       *curve.Point // lambda_j * X_j, public
}

// mtaTrail is the pairwise MtA bookkeeping this share keeps about one peer:
// the raw Paillier plaintext offset and kept additive scalar from acting as
// Bob against that peer's round-1 ciphertext, and the additive scalar this
// share decrypted (as Alice) from that peer's round-2 p2p. Both halves are
// needed to recompute delta_i/sigma_i and, in the rare delta=0 branch, to
// support the type-5 disclosure's arithmetic identity check -- see
// DESIGN.md "Sign type-5 verifiability".
type mtaTrail struct {
	betaPrime *big.Int
	beta      *curve.Scalar
	nuPrime   *big.Int
	nu        *curve.Scalar
	alpha     *curve.Scalar
	mu        *curve.Scalar
}

// shared is the state every sign round carries forward.
type shared struct {
	msgDigest [32]byte
	y         *curve.Point

	myShareID party.SignShareID
	myIDBytes []byte
	lambda    *curve.Scalar
	w         *curve.Scalar // lambda_i * x_i
	ek        *paillier.PublicKey
	dk        *paillier.SecretKey
	zkSetup   *zksetup.ZkSetup

	peers typed.VecMap[party.SignShareDomain, peerInfo]

	behaviour Behaviour

	// Round 1 secrets, carried forward through the whole protocol.
	k           *curve.Scalar
	gamma       *curve.Scalar
	gammaCommit [32]byte
	gammaReveal [32]byte
	kCiphertext paillier.Ciphertext
	kRandomness paillier.Randomness

	// Per-peer public material learned from round 1's broadcast.
	allC1           typed.VecMap[party.SignShareDomain, paillier.Ciphertext]
	allGammaCommits typed.VecMap[party.SignShareDomain, [32]byte]

	// Per-peer MtA bookkeeping, filled across rounds 1-2.
	trail typed.VecMap[party.SignShareDomain, mtaTrail]

	// Round 2-3 derived values.
	delta *curve.Scalar
	sigma *curve.Scalar
	l     *curve.Scalar // Pedersen commitment randomness behind T
	t     *curve.Point  // T_i = G*sigma_i + H*l_i

	allT     typed.VecMap[party.SignShareDomain, *curve.Point]
	allDelta typed.VecMap[party.SignShareDomain, *curve.Scalar]
	allS     typed.VecMap[party.SignShareDomain, *curve.Point] // S_i = sigma_i*R, cached by round 6 for round 7's type-7 check

	// Round 4-7 derived values.
	deltaSum     *curve.Scalar // public: sum of every share's delta_i
	sawDeltaZero bool
	gammaTotal   *curve.Point
	r            *curve.Point
	rI           *curve.Point
	sawBadRSum   bool
	sI           *curve.Point
}

// Start flattens the chosen signer parties into a dense SignShareId space
// (ascending by global keygen share id) and builds sign round 1.
func Start(cfg Config) (*round.Round[party.SignShareDomain, []byte], error) {
	if len(cfg.SessionNonce) == 0 {
		return nil, tofn.Fatalf("sign.Start", "empty session nonce")
	}
	counts := cfg.Share.Public.Counts
	var shareIDs []int
	for p := 0; p < counts.PartyCount(); p++ {
		pid := typed.MustFromUsize[party.KeygenPartyDomain](p)
		if !cfg.Signers.Contains(pid) {
			continue
		}
		start, end, err := counts.PartyToShareRange(pid)
		if err != nil {
			return nil, tofn.Fatalf("sign.Start", "%v", err)
		}
		for s := start; s < end; s++ {
			shareIDs = append(shareIDs, s)
		}
	}
	sort.Ints(shareIDs)
	if len(shareIDs) <= cfg.Share.Public.Threshold {
		return nil, tofn.Fatalf("sign.Start", "signer set too small: %d shares for threshold %d", len(shareIDs), cfg.Share.Public.Threshold)
	}

	myKeygenIdx := cfg.Share.Secret.Index.AsUsize()
	mySignIdx := -1
	for i, s := range shareIDs {
		if s == myKeygenIdx {
			mySignIdx = i
		}
	}
	if mySignIdx < 0 {
		return nil, tofn.Fatalf("sign.Start", "my own share %d is not among the chosen signers", myKeygenIdx)
	}

	lambdas := vss.Lagrange(shareIDs)
	m := len(shareIDs)
	peers := make([]peerInfo, m)
	for i, ksID := range shareIDs {
		pub, err := cfg.Share.Public.AllShares.Get(typed.MustFromUsize[party.KeygenShareDomain](ksID))
		if err != nil {
			return nil, tofn.Fatalf("sign.Start", "%v", err)
		}
		lambda := lambdas[ksID]
		peers[i] = peerInfo{
			ek:      pub.EK,
			zkSetup: pub.ZkSetup,
			x:       pub.X,
			lambda:  lambda,
			w:       lambda.Act(pub.X),
		}
	}

	myShareID := typed.MustFromUsize[party.SignShareDomain](mySignIdx)
	myIDBytes, err := myShareID.MarshalBinary()
	if err != nil {
		return nil, tofn.Fatalf("sign.Start", "%v", err)
	}

	s := shared{
		msgDigest: cfg.MsgDigest,
		y:         cfg.Share.Public.Y,
		myShareID: myShareID,
		myIDBytes: myIDBytes,
		lambda:    peers[mySignIdx].lambda,
		w:         peers[mySignIdx].lambda.Mul(cfg.Share.Secret.X),
		ek:        peers[mySignIdx].ek,
		dk:        cfg.Share.Secret.DK,
		zkSetup:   peers[mySignIdx].zkSetup,
		peers:     typed.NewVecMap[party.SignShareDomain](peers),
		behaviour: cfg.Behaviour,
	}

	info := round.Info[party.SignShareDomain]{
		MyShareID:   s.myShareID,
		TotalShares: m,
		SessionID:   cfg.SessionNonce,
	}
	return startRound1(s, info)
}

func fmtSignIdx(i int) string {
	return typed.MustFromUsize[party.SignShareDomain](i).String()
}

func signFaulterSet(n int, f map[int]round.Fault) typed.FillVecMap[party.SignShareDomain, round.Fault] {
	m := typed.NewFillVecMap[party.SignShareDomain, round.Fault](n)
	for idx, fault := range f {
		_ = m.Set(typed.MustFromUsize[party.SignShareDomain](idx), fault)
	}
	return m
}

func mustSignIdxBytes(idx typed.Index[party.SignShareDomain]) []byte {
	b, err := idx.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func signBytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
