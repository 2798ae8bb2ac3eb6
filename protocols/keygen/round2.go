package keygen

import (
	"crypto/sha256"
	"math/big"

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
	"github.com/luxfi/gg20tss/pkg/vss"
)

// scalarToPlaintext/plaintextToScalar bridge a VSS share (a curve scalar)
// to the Paillier plaintext domain, per spec.md §4.2/§4.4's "encrypt the
// share under the recipient's ek" step. The scalar's canonical 32-byte
// encoding is always < N (N is 2048 bits), so no reduction happens going
// in; coming back out, ScalarFromBytesReduced matches the one explicit
// reduction point spec.md calls for at this Paillier/curve bridge.
func scalarToPlaintext(s *curve.Scalar) paillier.Plaintext {
	return paillier.PlaintextFromNat(paillier.NatFromBig(new(big.Int).SetBytes(s.Bytes())))
}

func plaintextToScalar(p paillier.Plaintext) *curve.Scalar {
	return curve.ScalarFromBytesReduced(paillier.BigFromNat(p.Nat()).Bytes())
}

// round2shared carries round1's validated peer info forward through round2
// and into round3.
type round2shared struct {
	shared
	peers typed.VecMap[party.KeygenShareDomain, peerInfo]
}

type round2Executer struct {
	s round2shared
}

func startRound2(s shared, info round.Info[party.KeygenShareDomain], peers typed.VecMap[party.KeygenShareDomain, peerInfo]) (round.Protocol[party.KeygenShareDomain, SecretKeyShare], error) {
	n := info.TotalShares
	vssCommit := s.vssPoly.CommitTo()
	shares := s.vssPoly.Shares(n)
	peerSlice := peers.ToSlice()

	vssCommitWire := make([][]byte, len(vssCommit.CoeffCommits))
	for i, c := range vssCommit.CoeffCommits {
		vssCommitWire[i] = wire.MustPoint(c)
	}

	ciphertexts := make([]paillier.Ciphertext, n)
	hashes := make([][]byte, n)
	for i := 0; i < n; i++ {
		ek := s.ek
		if i != s.myShareID.AsUsize() {
			ek = peerSlice[i].ek
		}
		c, _, err := ek.Encrypt(scalarToPlaintext(shares[i].Scalar))
		if err != nil {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound2", "%v", err)
		}
		ciphertexts[i] = c
		ctBytes := wire.Big(paillier.BigFromNat(c.Nat()))
		h := sha256.Sum256(ctBytes)
		hashes[i] = h[:]
	}

	p2pVals := make([][]byte, 0, n-1)
	for i := 0; i < n; i++ {
		if i == s.myShareID.AsUsize() {
			continue
		}
		msg := p2p2{Ciphertext: wire.Big(paillier.BigFromNat(ciphertexts[i].Nat()))}
		enc, err := cbor.Marshal(msg)
		if err != nil {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound2", "%v", err)
		}
		p2pVals = append(p2pVals, enc)
	}
	p2pOut, err := typed.NewHoleVecMap[party.KeygenShareDomain](s.myShareID, p2pVals, n)
	if err != nil {
		return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound2", "%v", err)
	}

	bcast := bcast2{
		YIReveal:        s.yiReveal[:],
		VssCommit:       vssCommitWire,
		CiphertexHashes: hashes,
	}
	payload, err := cbor.Marshal(bcast)
	if err != nil {
		return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound2", "%v", err)
	}

	s.myShare = shares[s.myShareID.AsUsize()].Scalar
	s.myVssCommit = vssCommit
	s.myCiphertexHashes = hashes

	ex := &round2Executer{s: round2shared{shared: s, peers: peers}}
	return round.NotDone(round.New(info, round.BcastAndP2p, maxMsgLen, payload, &p2pOut, ex)), nil
}

func (ex *round2Executer) Execute(h *round.Helper[party.KeygenShareDomain]) (round.Protocol[party.KeygenShareDomain, SecretKeyShare], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}

	xi := s.myShare.Clone()
	allVssCommit := typed.NewVecMap[party.KeygenShareDomain](make([]*vss.Commit, n))
	allHashes := typed.NewVecMap[party.KeygenShareDomain](make([][][]byte, n))
	_ = allVssCommit.Set(s.myShareID, s.myVssCommit)
	_ = allHashes.Set(s.myShareID, s.myCiphertexHashes)

	var complaints []complaint

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.KeygenShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		peer, _ := s.peers.Get(idx)

		braw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("round2Executer.Execute", "missing bcast from %d", i)
		}
		var bm bcast2
		if err := cbor.Unmarshal(braw, &bm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		if len(bm.VssCommit) != s.threshold+1 || len(bm.CiphertexHashes) != n {
			faulters[i] = round.NewCorruptedMessage("malformed round2 broadcast")
			continue
		}

		var reveal commit.Randomness
		copy(reveal[:], bm.YIReveal)
		yi0, err := wire.ParsePoint(bm.VssCommit[0])
		if err != nil {
			faulters[i] = round.NewCorruptedMessage("bad vss_commit[0]: " + err.Error())
			continue
		}
		var yCommit commit.Commitment
		copy(yCommit[:], peer.yCommit)
		if !commit.Verify(yCommit, domain.YICommitTag, mustIdxBytes(idx), wire.MustPoint(yi0), reveal) {
			faulters[i] = round.NewProtocolFault("y_i commitment opening failed")
			continue
		}

		coeffCommits := make([]*curve.Point, len(bm.VssCommit))
		coeffCommits[0] = yi0
		badPoint := false
		for j := 1; j < len(bm.VssCommit); j++ {
			p, err := wire.ParsePoint(bm.VssCommit[j])
			if err != nil {
				badPoint = true
				break
			}
			coeffCommits[j] = p
		}
		if badPoint {
			faulters[i] = round.NewCorruptedMessage("bad vss_commit coefficient point")
			continue
		}
		peerVssCommit := &vss.Commit{CoeffCommits: coeffCommits}
		_ = allVssCommit.Set(idx, peerVssCommit)
		_ = allHashes.Set(idx, bm.CiphertexHashes)

		praw, ok := h.P2p(idx)
		if !ok {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("round2Executer.Execute", "missing p2p from %d", i)
		}
		var pm p2p2
		if err := cbor.Unmarshal(praw, &pm); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}
		ctHash := sha256.Sum256(pm.Ciphertext)
		if !bytesEqual(ctHash[:], bm.CiphertexHashes[s.myShareID.AsUsize()]) {
			faulters[i] = round.NewProtocolFault("p2p ciphertext does not match broadcast commitment")
			continue
		}

		ct := paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(pm.Ciphertext)))
		if !s.ek.ValidateCiphertext(ct) {
			faulters[i] = round.NewProtocolFault("ciphertext not in (Z/N^2)*")
			continue
		}
		share, rnd, err := s.dk.DecryptWithRandomness(ct)
		if err != nil {
			faulters[i] = round.NewProtocolFault("decryption failed: " + err.Error())
			continue
		}
		shareScalar := plaintextToScalar(share)
		if !peerVssCommit.ValidateShare(vss.Share{Index: s.myShareID.AsUsize(), Scalar: shareScalar}) {
			// Sad path: disclose everything a third party needs to check
			// this accusation against the accused's committed ciphertext
			// hash (see messages.go's bcast2.CiphertexHashes doc).
			complaints = append(complaints, complaint{
				Victim:     uint64(i),
				Share:      wire.Scalar(shareScalar),
				Randomness: wire.Big(paillier.BigFromNat(rnd.Nat())),
				Ciphertext: pm.Ciphertext,
			})
			continue
		}

		xi = xi.Add(shareScalar)
	}

	if len(faulters) > 0 {
		return round.DoneErr[party.KeygenShareDomain, SecretKeyShare](faulterSet(n, faulters)), nil
	}

	vssCommits := allVssCommit.ToSlice()
	hashRows := allHashes.ToSlice()

	nextInfo := round.Info[party.KeygenShareDomain]{MyShareID: h.MyShareID(), TotalShares: h.TotalShares(), SessionID: h.SessionID()}
	return startRound3(s, nextInfo, xi, vssCommits, hashRows, complaints)
}

func mustIdxBytes(idx typed.Index[party.KeygenShareDomain]) []byte {
	b, err := idx.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return b
}

func bytesEqual(a, b []byte) bool {
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
