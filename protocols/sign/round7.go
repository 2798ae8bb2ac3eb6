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
)

type round7Executer struct {
	s     shared
	type7 bool
}

// Execute finishes spec.md §4.7's final round. On the happy path it sums
// every share's s_i, assembles the low-S-normalised signature, and verifies
// it before returning -- the protocol's own correctness check, independent
// of anything a caller might do with the output. On the type-7 branch it
// verifies every disclosed Chaum-Pedersen proof individually; if they all
// check out yet Sum(sigma_i*G) still doesn't reconcile against Y, the
// fault cannot be localised further without replaying the full MtA
// ciphertext trail behind sigma_i -- a materially bigger sub-protocol than
// this module implements, so every round-6-happy share is faulted at once.
// See DESIGN.md "Sign type-7 verifiability".
func (ex *round7Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	bcasts := make(map[int]bcast7, n)
	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round7Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast7
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if bm.Type7 != ex.type7 {
			faulters[i] = round.NewProtocolFault("round-7 branch disagrees with locally computed S sum")
			continue
		}
		bcasts[i] = bm
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	if ex.type7 {
		for i := 0; i < n; i++ {
			idx := typed.MustFromUsize[party.SignShareDomain](i)
			if idx == s.myShareID {
				continue
			}
			bm := bcasts[i]
			sigmaPoint, err := wire.ParsePoint(bm.Disclosure.SigmaPoint)
			if err != nil {
				faulters[i] = round.NewCorruptedMessage("bad sigma point encoding: " + err.Error())
				continue
			}
			proof, err := decodeChaumPedersenProof(bm.Disclosure.Proof)
			if err != nil {
				faulters[i] = round.NewCorruptedMessage("bad chaum-pedersen proof encoding: " + err.Error())
				continue
			}
			sJ, err := s.allS.Get(idx)
			if err != nil {
				faulters[i] = round.NewProtocolFault("no round-6 S_i on record")
				continue
			}
			idxBytes := mustSignIdxBytes(idx)
			stmt := chaumpedersen.Statement{B1: s.r, T1: sJ, B2: curve.Generator(), T2: sigmaPoint}
			if err := chaumpedersen.Verify(idxBytes, stmt, proof); err != nil {
				faulters[i] = round.NewProtocolFault("chaum-pedersen proof failed: " + err.Error())
				continue
			}
		}

		if len(faulters) > 0 {
			return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
		}

		// Every individual proof checked out, yet round 6 still saw the
		// public sum fail: the fault cannot be localised further on this
		// branch (see the doc comment above), so every round-6-happy share
		// is faulted together.
		for i := 0; i < n; i++ {
			faulters[i] = round.NewProtocolFault("type-7 aggregate mismatch, deep fault localization out of scope")
		}
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	m := curve.ScalarFromBytesReduced(s.msgDigest[:])
	r := s.r.XScalar()
	mySI := m.Mul(s.k).Add(r.Mul(s.sigma))
	sSum := mySI

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		bm := bcasts[i]
		sJ, err := wire.ParseScalarCanonical(bm.S)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad s_i encoding: " + err.Error())
			continue
		}
		sSum = sSum.Add(sJ)
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	sig := curve.NewSignature(r, sSum)
	if !curve.Verify(sig, s.msgDigest[:], s.y) {
		for i := 0; i < n; i++ {
			faulters[i] = round.NewProtocolFault("assembled signature failed self-verification")
		}
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	der, err := sig.SerializeDER()
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round7Executer.Execute", "%v", err)
	}
	return round.DoneOk[party.SignShareDomain, []byte](der), nil
}
