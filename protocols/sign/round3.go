package sign

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/zkp/pedersen"
)

type round3Executer struct {
	s shared
}

// Execute collects every share's delta_i and Pedersen commitment T_i
// (spec.md §4.7 round 3), sums delta, and branches: delta == 0 can only
// happen if some share's round-1/round-2 arithmetic was corrupted, so every
// share instead discloses its full trail for blame adjudication (the type-5
// branch). Otherwise round 4 opens the round-1 Gamma_i commitments.
func (ex *round3Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	delta := s.delta.Clone()

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round3Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast3
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		deltaI, err := wire.ParseScalarCanonical(bm.Delta)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad delta encoding: " + err.Error())
			continue
		}
		t, err := wire.ParsePoint(bm.T)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad T encoding: " + err.Error())
			continue
		}
		proof, err := decodePedersenProof(bm.TProof, false)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad T proof encoding: " + err.Error())
			continue
		}
		idxBytes := mustSignIdxBytes(idx)
		stmt := pedersen.Statement{G: curve.Generator(), H: curve.AlternateGenerator(), Commit: t}
		if err := pedersen.Verify(idxBytes, stmt, proof); err != nil {
			faulters[i] = round.NewProtocolFault("T proof failed: " + err.Error())
			continue
		}

		_ = s.allT.Set(idx, t)
		_ = s.allDelta.Set(idx, deltaI)
		delta = delta.Add(deltaI)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	s.deltaSum = delta
	nextInfo := round.Info[party.SignShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}

	if delta.IsZero() {
		s.sawDeltaZero = true
		disclosure := buildType5Disclosure(s, n)
		bcast := bcast4{Type5: true, Disclosure: disclosure}
		payload, err := cbor.Marshal(bcast)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round3Executer.Execute", "%v", err)
		}
		ex4 := &round4Executer{s: s}
		return round.NotDone(round.New(nextInfo, round.BcastOnly, maxMsgLen, payload, nil, ex4)), nil
	}

	s.sawDeltaZero = false
	bcast := bcast4{
		Type5:       false,
		GammaPoint:  wire.MustPoint(s.gamma.ActOnBase()),
		GammaReveal: s.gammaReveal[:],
	}
	payload, err := cbor.Marshal(bcast)
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round3Executer.Execute", "%v", err)
	}
	ex4 := &round4Executer{s: s}
	return round.NotDone(round.New(nextInfo, round.BcastOnly, maxMsgLen, payload, nil, ex4)), nil
}
