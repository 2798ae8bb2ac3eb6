package sign

import (
	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/mta"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/zkp/paillierrange"
	"github.com/luxfi/gg20tss/pkg/zkp/pedersen"
)

type round2Executer struct {
	s            shared
	sad          bool
	myComplaints []rangeComplaint
}

// startRound2 runs the MtA exchange of spec.md §4.7 round 2. When round 1
// left this share with complaints against a peer's range proof, it instead
// broadcasts those complaints (the sad branch) and every honest share moves
// straight to fault adjudication; nothing about the MtA exchange below
// happens on that branch.
func startRound2(s shared, info round.Info[party.SignShareDomain], complaints []rangeComplaint) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := info.TotalShares

	if len(complaints) > 0 {
		bcast := bcast2{Sad: true, Complaints: complaints}
		payload, err := cbor.Marshal(bcast)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
		}
		p2pVals := make([][]byte, 0, n-1)
		for i := 0; i < n; i++ {
			if i == s.myShareID.AsUsize() {
				continue
			}
			enc, err := cbor.Marshal(p2p2{Sad: true})
			if err != nil {
				return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
			}
			p2pVals = append(p2pVals, enc)
		}
		p2pOut, err := typed.NewHoleVecMap[party.SignShareDomain](s.myShareID, p2pVals, n)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
		}
		ex := &round2Executer{s: s, sad: true, myComplaints: complaints}
		return round.NotDone(round.New(info, round.BcastAndP2p, maxMsgLen, payload, &p2pOut, ex)), nil
	}

	peer, _ := s.peers.Get(s.myShareID)
	myW := peer.w

	// The n-1 peer MtA/MtA-wc computations below are independent modular
	// exponentiations against each peer's own Paillier key, so they run
	// concurrently rather than one at a time -- see DESIGN.md's round2
	// bullet under "Sign -- protocols/sign".
	peerSlice := s.peers.ToSlice()
	encoded := make([][]byte, n)
	trails := make([]mtaTrail, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		i := i
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		peerJ := peerSlice[i]
		c1j, err := s.allC1.Get(idx)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
		}
		g.Go(func() error {
			alphaOut, err := mta.Bob(s.myIDBytes, peerJ.ek, peerJ.zkSetup, c1j, s.gamma)
			if err != nil {
				return tofn.Fatalf("sign.startRound2", "%v", err)
			}
			muOut, err := mta.BobWC(s.myIDBytes, peerJ.ek, peerJ.zkSetup, c1j, s.w, myW)
			if err != nil {
				return tofn.Fatalf("sign.startRound2", "%v", err)
			}

			trail := mtaTrail{
				betaPrime: alphaOut.Secret.BetaPrime,
				beta:      alphaOut.Secret.Beta,
				nuPrime:   muOut.Secret.BetaPrime,
				nu:        muOut.Secret.Beta,
			}
			trails[i] = trail

			alphaC2 := wire.Big(paillier.BigFromNat(alphaOut.C2.Nat()))
			muC2 := wire.Big(paillier.BigFromNat(muOut.C2.Nat()))
			if s.behaviour == R2BadShare {
				alphaC2 = corruptBytes(alphaC2)
			}
			msg := p2p2{
				Sad:        false,
				AlphaC2:    alphaC2,
				AlphaProof: encodeMtaProof(alphaOut.Proof),
				MuC2:       muC2,
				MuProof:    encodeMtaProof(muOut.Proof),
			}
			enc, err := cbor.Marshal(msg)
			if err != nil {
				return tofn.Fatalf("sign.startRound2", "%v", err)
			}
			encoded[i] = enc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, err
	}
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		_ = s.trail.Set(idx, trails[i])
	}
	p2pVals := make([][]byte, 0, n-1)
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		p2pVals = append(p2pVals, encoded[i])
	}
	p2pOut, err := typed.NewHoleVecMap[party.SignShareDomain](s.myShareID, p2pVals, n)
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
	}

	bcastPayload, err := cbor.Marshal(bcast2{Sad: false})
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("sign.startRound2", "%v", err)
	}

	kind := round.BcastAndP2p
	if s.behaviour == R2DropBcast {
		kind = round.P2pOnly
	}
	ex := &round2Executer{s: s, sad: false}
	return round.NotDone(round.New(info, kind, maxMsgLen, bcastPayload, &p2pOut, ex)), nil
}

func (ex *round2Executer) Execute(h *round.Helper[party.SignShareDomain]) (round.Protocol[party.SignShareDomain, []byte], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	type accuserComplaint struct {
		accuser int
		c       rangeComplaint
	}
	var allComplaints []accuserComplaint
	anySad := ex.sad
	if ex.sad {
		myIdx := s.myShareID.AsUsize()
		for _, c := range ex.myComplaints {
			allComplaints = append(allComplaints, accuserComplaint{accuser: myIdx, c: c})
		}
	}

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round2Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast2
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if bm.Sad {
			anySad = true
			for _, c := range bm.Complaints {
				allComplaints = append(allComplaints, accuserComplaint{accuser: i, c: c})
			}
		}
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	if anySad {
		for _, ac := range allComplaints {
			accused := int(ac.c.Accused)
			if accused < 0 || accused >= n || accused == ac.accuser {
				faulters[ac.accuser] = round.NewProtocolFault("malformed range complaint")
				continue
			}
			accuserIdx := typed.MustFromUsize[party.SignShareDomain](ac.accuser)
			accusedIdx := typed.MustFromUsize[party.SignShareDomain](accused)
			accusedPeer, _ := s.peers.Get(accusedIdx)
			accuserPeer, _ := s.peers.Get(accuserIdx)

			ct, err := s.allC1.Get(accusedIdx)
			if err != nil {
				// accuser never reached round 2 with a validated C1 for the
				// accused; treat the complaint as unverifiable and fault the
				// accuser instead.
				faulters[ac.accuser] = round.NewProtocolFault("range complaint against unknown ciphertext")
				continue
			}
			proof, err := decodeRangeProof(ac.c.Proof, false)
			if err != nil {
				faulters[ac.accuser] = round.NewCorruptedMessage("bad disclosed range proof: " + err.Error())
				continue
			}
			accuserIDBytes := mustSignIdxBytes(accuserIdx)
			stmt := paillierrange.Statement{EK: accusedPeer.ek, Setup: accuserPeer.zkSetup, C: ct}
			if err := paillierrange.Verify(accuserIDBytes, stmt, proof); err != nil {
				faulters[accused] = round.NewProtocolFault("range proof failed re-verification")
			} else {
				faulters[ac.accuser] = round.NewProtocolFault("false range-proof accusation")
			}
		}
		if len(faulters) == 0 {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round2Executer.Execute", "sad branch raised with no resolvable complaint")
		}
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	delta := s.k.Mul(s.gamma)
	sigma := s.k.Mul(s.w)

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.SignShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		praw, ok := h.P2p(idx)
		if !ok {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round2Executer.Execute", "missing p2p from %d", i)
		}
		var pm p2p2
		if err := cbor.Unmarshal(praw, &pm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if pm.Sad {
			faulters[i] = round.NewProtocolFault("p2p branch disagrees with broadcast branch")
			continue
		}

		alphaProof, err := decodeMtaProof(pm.AlphaProof, false)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad alpha proof encoding: " + err.Error())
			continue
		}
		muProof, err := decodeMtaProof(pm.MuProof, true)
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad mu proof encoding: " + err.Error())
			continue
		}
		alphaC2 := paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(pm.AlphaC2)))
		muC2 := paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(pm.MuC2)))

		peerJ, _ := s.peers.Get(idx)
		if err := mta.VerifyBob(mustSignIdxBytes(idx), s.ek, s.zkSetup, s.kCiphertext, alphaC2, nil, alphaProof); err != nil {
			faulters[i] = round.NewProtocolFault("alpha mta proof failed: " + err.Error())
			continue
		}
		if err := mta.VerifyBob(mustSignIdxBytes(idx), s.ek, s.zkSetup, s.kCiphertext, muC2, peerJ.w, muProof); err != nil {
			faulters[i] = round.NewProtocolFault("mu mta proof failed: " + err.Error())
			continue
		}

		alpha, err := mta.Alice(s.dk, alphaC2)
		if err != nil {
			faulters[i] = round.NewProtocolFault("alpha decryption failed: " + err.Error())
			continue
		}
		mu, err := mta.Alice(s.dk, muC2)
		if err != nil {
			faulters[i] = round.NewProtocolFault("mu decryption failed: " + err.Error())
			continue
		}

		trail, err := s.trail.Get(idx)
		if err != nil {
			return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round2Executer.Execute", "%v", err)
		}
		trail.alpha = alpha
		trail.mu = mu
		_ = s.trail.Set(idx, trail)

		delta = delta.Add(alpha).Add(trail.beta)
		sigma = sigma.Add(mu).Add(trail.nu)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.SignShareDomain, []byte](signFaulterSet(n, faulters)), nil
	}

	s.delta = delta
	s.sigma = sigma
	s.l = curve.DefaultRandomScalar()
	s.t = sigma.ActOnBase().Add(s.l.Act(curve.AlternateGenerator()))

	s.allT = typed.NewVecMap[party.SignShareDomain](make([]*curve.Point, n))
	s.allDelta = typed.NewVecMap[party.SignShareDomain](make([]*curve.Scalar, n))
	_ = s.allT.Set(s.myShareID, s.t)
	_ = s.allDelta.Set(s.myShareID, s.delta)

	proof := pedersen.Prove(s.myIDBytes, pedersen.Statement{
		G: curve.Generator(), H: curve.AlternateGenerator(), Commit: s.t,
	}, s.sigma, s.l)

	bcast := bcast3{
		Delta:  wire.Scalar(s.delta),
		T:      wire.MustPoint(s.t),
		TProof: encodePedersenProof(proof),
	}
	payload, err := cbor.Marshal(bcast)
	if err != nil {
		return round.Protocol[party.SignShareDomain, []byte]{}, tofn.Fatalf("round2Executer.Execute", "%v", err)
	}

	nextInfo := round.Info[party.SignShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}
	ex3 := &round3Executer{s: s}
	return round.NotDone(round.New(nextInfo, round.BcastOnly, maxMsgLen, payload, nil, ex3)), nil
}
