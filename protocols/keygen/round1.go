package keygen

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/commit"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/recoverrand"
	"github.com/luxfi/gg20tss/pkg/vss"
	"github.com/luxfi/gg20tss/pkg/zkp/compositedlog"
	"github.com/luxfi/gg20tss/pkg/zkp/paillierkey"
	"github.com/luxfi/gg20tss/pkg/zksetup"
)

type round1Executer struct {
	s shared
}

func startRound1(cfg Config, info round.Info[party.KeygenShareDomain], myIDBytes []byte) (*round.Round[party.KeygenShareDomain, SecretKeyShare], error) {
	vssPoly := vss.New(cfg.Threshold)
	yi := vssPoly.Secret().ActOnBase()
	yiPayload := wire.MustPoint(yi)
	yiCommit, yiReveal, err := commit.Commit(domain.YICommitTag, myIDBytes, yiPayload)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}

	s := shared{
		counts:          cfg.Counts,
		threshold:       cfg.Threshold,
		myShareID:       cfg.MyShareID,
		myIDBytes:       myIDBytes,
		vssPoly:         vssPoly,
		yiCommitPayload: yiPayload,
		yiCommit:        yiCommit,
		yiReveal:        yiReveal,
	}

	partyIDBytes, err := s.partyIDBytes()
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}

	paillierRnd, err := recoverrand.Reader(cfg.SecretRecoveryKey, cfg.SessionNonce, domain.KeypairTag, partyIDBytes)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}
	var ek *paillier.PublicKey
	var dk *paillier.SecretKey
	if cfg.UnsafePrimes {
		ek, dk, err = paillier.KeygenUnsafe(paillierRnd)
	} else {
		ek, dk, err = paillier.Keygen(paillierRnd)
	}
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}
	s.ek, s.dk = ek, dk

	zkRnd, err := recoverrand.Reader(cfg.SecretRecoveryKey, cfg.SessionNonce, domain.ZkSetupTag, partyIDBytes)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}
	zkSetup, zkSetupProof, err := zksetup.Generate(zkRnd)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}
	s.zkSetup = zkSetup

	ekProof, err := paillierkey.Prove(myIDBytes, dk)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}

	msg := bcast1{
		YICommit:     yiCommit[:],
		EKN:          wire.Big(paillier.BigFromNat(ek.N())),
		EkProofSigma: wire.BigSlice(ekProof.Sigma),
		ZkNTilde:     wire.Big(zkSetup.NTilde),
		ZkH1:         wire.Big(zkSetup.H1),
		ZkH2:         wire.Big(zkSetup.H2),
		ZkProof1A:    wire.Big(zkSetupProof.Proof1.A),
		ZkProof1Y:    wire.Big(zkSetupProof.Proof1.Y),
		ZkProof2A:    wire.Big(zkSetupProof.Proof2.A),
		ZkProof2Y:    wire.Big(zkSetupProof.Proof2.Y),
	}
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("keygen.startRound1: %w", err)
	}

	ex := &round1Executer{s: s}
	return round.New(info, round.BcastOnly, maxMsgLen, payload, nil, ex), nil
}

func (ex *round1Executer) Execute(h *round.Helper[party.KeygenShareDomain]) (round.Protocol[party.KeygenShareDomain, SecretKeyShare], error) {
	n := h.TotalShares()
	faulters := map[int]round.Fault{}
	peers := typed.NewVecMap[party.KeygenShareDomain](make([]peerInfo, n))

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.KeygenShareDomain](i)
		if idx == h.MyShareID() {
			continue
		}
		idxBytes, _ := idx.MarshalBinary()

		raw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("round1Executer.Execute", "missing bcast from %d after round completion", i)
		}
		var m bcast1
		if err := cbor.Unmarshal(raw, &m); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if len(m.YICommit) != 32 || len(m.EKN) == 0 {
			faulters[i] = round.NewCorruptedMessage("malformed round1 broadcast")
			continue
		}

		ek := paillier.NewPublicKeyFromN(paillier.NatFromBig(wire.ParseBig(m.EKN)))
		ekProof := &paillierkey.Proof{Sigma: wire.ParseBigSlice(m.EkProofSigma)}
		if err := paillierkey.Verify(idxBytes, ek, ekProof); err != nil {
			faulters[i] = round.NewProtocolFault("bad ek_proof: " + err.Error())
			continue
		}

		zkSetup := &zksetup.ZkSetup{NTilde: wire.ParseBig(m.ZkNTilde), H1: wire.ParseBig(m.ZkH1), H2: wire.ParseBig(m.ZkH2)}
		zkProof := &zksetup.ZkSetupProof{
			Proof1: &compositedlog.Proof{A: wire.ParseBig(m.ZkProof1A), Y: wire.ParseBig(m.ZkProof1Y)},
			Proof2: &compositedlog.Proof{A: wire.ParseBig(m.ZkProof2A), Y: wire.ParseBig(m.ZkProof2Y)},
		}
		if err := zksetup.Verify(idxBytes, zkSetup, zkProof); err != nil {
			faulters[i] = round.NewProtocolFault("bad zkp_proof: " + err.Error())
			continue
		}

		var yc [32]byte
		copy(yc[:], m.YICommit)
		_ = peers.Set(idx, peerInfo{yCommit: yc[:], ek: ek, zkSetup: zkSetup})
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.KeygenShareDomain, SecretKeyShare](faulterSet(n, faulters)), nil
	}

	info := round.Info[party.KeygenShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}
	return startRound2(ex.s, info, peers)
}
