package sign

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/commit"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/zkp/paillierrange"
)

type round1Executer struct {
	s shared
}

// startRound1 samples this share's ephemeral nonce k_i and blinding gamma_i,
// commits to Gamma_i = gamma_i*G, and Paillier-encrypts k_i -- spec.md
// §4.7 round 1.
func startRound1(s shared, info round.Info[party.SignShareDomain]) (*round.Round[party.SignShareDomain, []byte], error) {
	n := info.TotalShares

	s.k = curve.DefaultRandomScalar()
	s.gamma = curve.DefaultRandomScalar()
	gammaPoint := s.gamma.ActOnBase()
	gammaCommit, gammaReveal, err := commit.Commit(domain.GammaICommitTag, s.myIDBytes, wire.MustPoint(gammaPoint))
	if err != nil {
		return nil, tofn.Fatalf("sign.startRound1", "%v", err)
	}
	if s.behaviour == R1BadCommit {
		var corrupt [32]byte
		copy(corrupt[:], corruptBytes(gammaCommit[:]))
		gammaCommit = corrupt
	}
	s.gammaCommit = gammaCommit
	s.gammaReveal = gammaReveal

	kPlaintext := paillier.PlaintextFromNat(paillier.NatFromBig(scalarToBig(s.k)))
	kCiphertext, kRandomness, err := s.ek.Encrypt(kPlaintext)
	if err != nil {
		return nil, tofn.Fatalf("sign.startRound1", "%v", err)
	}
	s.kCiphertext = kCiphertext
	s.kRandomness = kRandomness

	s.allC1 = typed.NewVecMap[party.SignShareDomain](make([]paillier.Ciphertext, n))
	s.allGammaCommits = typed.NewVecMap[party.SignShareDomain](make([][32]byte, n))
	_ = s.allC1.Set(s.myShareID, kCiphertext)
	_ = s.allGammaCommits.Set(s.myShareID, gammaCommit)
	s.trail = typed.NewVecMap[party.SignShareDomain](make([]mtaTrail, n))

	bcast := bcast1{
		GammaCommit: gammaCommit[:],
		KCiphertext: wire.Big(paillier.BigFromNat(kCiphertext.Nat())),
	}
	bcastPayload, err := cbor.Marshal(bcast)
	if err != nil {
		return nil, tofn.Fatalf("sign.startRound1", "%v", err)
	}

	p2pVals := make([][]byte, 0, n-1)
	peerSlice := s.peers.ToSlice()
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		peer := peerSlice[i]
		stmt := paillierrange.Statement{EK: s.ek, Setup: peer.zkSetup, C: kCiphertext}
		proof, err := paillierrange.Prove(s.myIDBytes, stmt, scalarToBig(s.k), kRandomness, nil)
		if err != nil {
			return nil, tofn.Fatalf("sign.startRound1", "%v", err)
		}
		rangeWire := encodeRangeProof(proof)
		if s.behaviour == R1BadProof {
			rangeWire.Z = corruptBytes(rangeWire.Z)
		}
		msg := p2p1{Range: rangeWire}
		enc, err := cbor.Marshal(msg)
		if err != nil {
			return nil, tofn.Fatalf("sign.startRound1", "%v", err)
		}
		p2pVals = append(p2pVals, enc)
	}
	p2pOut, err := typed.NewHoleVecMap[party.SignShareDomain](s.myShareID, p2pVals, n)
	if err != nil {
		return nil, tofn.Fatalf("sign.startRound1", "%v", err)
	}

	ex := &round1Executer{s: s}
	return round.New(info, round.BcastAndP2p, maxMsgLen, bcastPayload, &p2pOut, ex), nil
}

func (ex *round1Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}
	var complaints []rangeComplaint

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		idxBytes := mustSignIdxBytes(idx)
		peer, _ := s.peers.Get(idx)

		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round1Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast1
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if len(bm.GammaCommit) != 32 || len(bm.KCiphertext) == 0 {
			faulters[i] = round.NewCorruptedMessage("malformed round1 broadcast")
			continue
		}
		var gc [32]byte
		copy(gc[:], bm.GammaCommit)
		c1 := paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(bm.KCiphertext)))
		if !peer.ek.ValidateCiphertext(c1) {
			faulters[i] = round.NewProtocolFault("k_i ciphertext not in (Z/N^2)*")
			continue
		}

		praw, ok := h.P2p(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round1Executer.Execute", "missing p2p from %d", i)
		}
		var pm p2p1
		if err := cbor.Unmarshal(praw, &pm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		proof, err := decodeRangeProof(pm.Range, false)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad range proof encoding: " + err.Error())
			continue
		}
		stmt := paillierrange.Statement{EK: peer.ek, Setup: s.zkSetup, C: c1}
		if err := paillierrange.Verify(idxBytes, stmt, proof); err != nil {
			complaints = append(complaints, rangeComplaint{Accused: uint64(i), Proof: pm.Range})
			continue
		}

		_ = s.allC1.Set(idx, c1)
		_ = s.allGammaCommits.Set(idx, gc)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	nextInfo := round.Info[party.SignShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}
	return startRound2(s, nextInfo, complaints)
}
