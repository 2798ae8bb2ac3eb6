package sign

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/zkp/chaumpedersen"
	"github.com/luxfi/gg20tss/pkg/zkp/pedersen"
)

type round6Executer struct {
	s shared
}

// Execute verifies every peer's S_i = sigma_i*R Pedersen-wc proof (or, on
// the type-5 branch, adjudicates the disclosed trails round 4's logic does)
// and sums Sum(S_i) against the group public key Y -- spec.md §4.7 round 6.
// A mismatch here cannot trace back to the delta/R trail (those already
// checked out), so it instead hands off to round 7's type-7 blame.
func (ex *round6Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	bcasts := make(map[int]bcast6, n)
	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round6Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast6
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if bm.Type5 != s.sawBadRSum {
			faulters[i] = round.NewProtocolFault("round-6 branch disagrees with locally computed R sum")
			continue
		}
		bcasts[i] = bm
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	if s.sawBadRSum {
		discs := map[int]type5Disclosure{s.myShareID.AsUsize(): buildType5Disclosure(s, n)}
		for i, bm := range bcasts {
			discs[i] = bm.Disclosure
		}
		blameFaults, err := adjudicateType5(s, n, discs)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, err
		}
		if len(blameFaults) == 0 {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round6Executer.Execute", "type-5 branch raised with no resolvable fault")
		}
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, blameFaults)), nil
	}

	sSum := s.sI
	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		bm := bcasts[i]
		sJ, err := wire.ParsePoint(bm.S)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad S_i encoding: " + err.Error())
			continue
		}
		proof, err := decodePedersenProof(bm.SProof, true)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad S proof encoding: " + err.Error())
			continue
		}
		tJ, err := s.allT.Get(idx)
		if err != nil {
			faulters[i] = round.NewProtocolFault("no round-3 T_i on record")
			continue
		}
		idxBytes := mustSignIdxBytes(idx)
		stmt := pedersen.Statement{
			G: curve.Generator(), H: curve.AlternateGenerator(), Commit: tJ,
			WCBase: s.r, WCTarget: sJ,
		}
		if err := pedersen.Verify(idxBytes, stmt, proof); err != nil {
			faulters[i] = round.NewProtocolFault("S proof failed: " + err.Error())
			continue
		}
		_ = s.allS.Set(idx, sJ)
		sSum = sSum.Add(sJ)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	nextInfo := round.Info[party.SignShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}

	if !sSum.Equal(s.y) {
		sigmaPoint := s.sigma.ActOnBase()
		cpStmt := chaumpedersen.Statement{B1: s.r, T1: s.sI, B2: curve.Generator(), T2: sigmaPoint}
		cpProof := chaumpedersen.Prove(s.myIDBytes, cpStmt, s.sigma)
		bcast := bcast7{
			Type7: true,
			Disclosure: type7Disclosure{
				SigmaPoint: wire.MustPoint(sigmaPoint),
				Proof:      encodeChaumPedersenProof(cpProof),
			},
		}
		payload, err := cbor.Marshal(bcast)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round6Executer.Execute", "%v", err)
		}
		ex7 := &round7Executer{s: s, type7: true}
		return round.NotDone(round.New(nextInfo, round.BcastOnly, maxMsgLen, payload, nil, ex7)), nil
	}

	m := curve.ScalarFromBytesReduced(s.msgDigest[:])
	r := s.r.XScalar()
	sI := m.Mul(s.k).Add(r.Mul(s.sigma))

	bcast := bcast7{Type7: false, S: wire.Scalar(sI)}
	payload, err := cbor.Marshal(bcast)
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round6Executer.Execute", "%v", err)
	}
	ex7 := &round7Executer{s: s, type7: false}
	return round.NotDone(round.New(nextInfo, round.BcastOnly, maxMsgLen, payload, nil, ex7)), nil
}
