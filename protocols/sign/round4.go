package sign

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/commit"
	"github.com/luxfi/gg20tss/pkg/domain"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/zkp/paillierrange"
)

type round4Executer struct {
	s shared
}

// Execute opens round 1's Gamma_i commitments (or, on the type-5 branch,
// adjudicates the disclosed trails) and, on the happy path, computes the
// group nonce point R = delta^-1 * Gamma and this share's R_i = k_i*R --
// spec.md §4.7 round 4.
func (ex *round4Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	bcasts := make(map[int]bcast4, n)
	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round4Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast4
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if bm.Type5 != s.sawDeltaZero {
			faulters[i] = round.NewProtocolFault("round-4 branch disagrees with locally computed delta sum")
			continue
		}
		bcasts[i] = bm
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	if s.sawDeltaZero {
		discs := map[int]type5Disclosure{s.myShareID.AsUsize(): buildType5Disclosure(s, n)}
		for i, bm := range bcasts {
			discs[i] = bm.Disclosure
		}
		blameFaults, err := adjudicateType5(s, n, discs)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, err
		}
		if len(blameFaults) == 0 {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round4Executer.Execute", "type-5 branch raised with no resolvable fault")
		}
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, blameFaults)), nil
	}

	gammaTotal := s.gamma.ActOnBase()
	peerSlice := s.peers.ToSlice()
	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		bm := bcasts[i]
		idxBytes := mustSignIdxBytes(idx)
		gammaPoint, err := wire.ParsePoint(bm.GammaPoint)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad gamma point encoding: " + err.Error())
			continue
		}
		if len(bm.GammaReveal) != 32 {
			faulters[i] = round.NewCorruptedMessage("bad gamma reveal length")
			continue
		}
		var reveal commit.Randomness
		copy(reveal[:], bm.GammaReveal)
		gc, err := s.allGammaCommits.Get(idx)
		if err != nil {
			faulters[i] = round.NewProtocolFault("no round-1 gamma commitment on record")
			continue
		}
		if !commit.Verify(commit.Commitment(gc), domain.GammaICommitTag, idxBytes, wire.MustPoint(gammaPoint), reveal) {
			faulters[i] = round.NewProtocolFault("gamma commitment opening failed")
			continue
		}
		gammaTotal = gammaTotal.Add(gammaPoint)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	s.gammaTotal = gammaTotal
	deltaInv := s.deltaSum.Inverse()
	r := deltaInv.Act(gammaTotal)
	rI := s.k.Act(r)
	s.r = r
	s.rI = rI

	p2pVals := make([][]byte, 0, n-1)
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		peerJ := peerSlice[i]
		proof, err := paillierrange.Prove(s.myIDBytes, paillierrange.Statement{
			EK: s.ek, Setup: peerJ.zkSetup, C: s.kCiphertext,
			WCTarget: rI, WCBase: r,
		}, scalarToBig(s.k), s.kRandomness, s.k)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round4Executer.Execute", "%v", err)
		}
		enc, err := cbor.Marshal(p2p5{RI: wire.MustPoint(rI), Range: encodeRangeProof(proof)})
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round4Executer.Execute", "%v", err)
		}
		p2pVals = append(p2pVals, enc)
	}
	p2pOut, err := typed.NewHoleVecMap[party.SignShareDomain](s.myShareID, p2pVals, n)
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round4Executer.Execute", "%v", err)
	}

	nextInfo := round.Info[party.SignShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}
	ex5 := &round5Executer{s: s}
	return round.NotDone(round.New(nextInfo, round.P2pOnly, maxMsgLen, nil, &p2pOut, ex5)), nil
}
