package keygen

import (
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/party"
	"github.com/luxfi/gg20tss/pkg/vss"
	"github.com/luxfi/gg20tss/pkg/zkp/schnorr"
)

// computeAllX sums every share's Feldman commitment at each of the n share
// indices, producing the public X_k = G*x_k values that back both the
// round3 Schnorr proofs and the terminal GroupPublicInfo.
func computeAllX(vssCommits []*vss.Commit, n int) []*curve.Point {
	out := make([]*curve.Point, n)
	for k := 0; k < n; k++ {
		acc := curve.NewIdentity()
		for _, c := range vssCommits {
			acc = acc.Add(c.ShareCommit(k))
		}
		out[k] = acc
	}
	return out
}

type round3Executer struct {
	s          round2shared
	xi         *curve.Scalar
	vssCommits []*vss.Commit
	hashRows   [][][]byte
	allX       []*curve.Point
}

func startRound3(s round2shared, info round.Info[party.KeygenShareDomain], xi *curve.Scalar, vssCommits []*vss.Commit, hashRows [][][]byte, complaints []complaint) (round.Protocol[party.KeygenShareDomain, SecretKeyShare], error) {
	n := info.TotalShares
	allX := computeAllX(vssCommits, n)
	myID, err := s.myShareID.MarshalBinary()
	if err != nil {
		return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound3", "%v", err)
	}

	var msg bcast3
	if len(complaints) > 0 {
		msg = bcast3{Sad: true, Complaints: complaints}
	} else {
		proof := schnorr.Prove(myID, schnorr.Statement{Base: curve.Generator(), Target: allX[s.myShareID.AsUsize()]}, xi)
		msg = bcast3{
			Sad:       false,
			XIProofA:  wire.MustPoint(proof.Alpha),
			XIProofS1: wire.Scalar(proof.S1),
		}
	}
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("keygen.startRound3", "%v", err)
	}

	ex := &round3Executer{s: s, xi: xi, vssCommits: vssCommits, hashRows: hashRows, allX: allX}
	return round.NotDone(round.New(info, round.BcastOnly, maxMsgLen, payload, nil, ex)), nil
}

func (ex *round3Executer) Execute(h *round.Helper[party.KeygenShareDomain]) (round.Protocol[party.KeygenShareDomain, SecretKeyShare], error) {
	n := h.TotalShares()
	s := ex.s
	faulters := map[int]round.Fault{}
	anySad := false

	for i := 0; i < n; i++ {
		idx := typed.MustFromUsize[party.KeygenShareDomain](i)
		if idx == s.myShareID {
			continue
		}
		idxBytes := mustIdxBytes(idx)

		raw, ok := h.Bcast(idx)
		if !ok {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("round3Executer.Execute", "missing bcast from %d", i)
		}
		var m bcast3
		if err := cbor.Unmarshal(raw, &m); err != nil {
			faulters[i] = round.NewCorruptedMessage(err.Error())
			continue
		}

		if !m.Sad {
			alpha, err := wire.ParsePoint(m.XIProofA)
			if err != nil {
				faulters[i] = round.NewCorruptedMessage("bad x_i proof alpha: " + err.Error())
				continue
			}
			s1, err := wire.ParseScalarCanonical(m.XIProofS1)
			if err != nil {
				faulters[i] = round.NewCorruptedMessage("bad x_i proof s1: " + err.Error())
				continue
			}
			proof := &schnorr.Proof{Alpha: alpha, S1: s1}
			stmt := schnorr.Statement{Base: curve.Generator(), Target: ex.allX[i]}
			if err := schnorr.Verify(idxBytes, stmt, proof); err != nil {
				faulters[i] = round.NewProtocolFault("x_i proof failed: " + err.Error())
			}
			continue
		}

		anySad = true
		for _, c := range m.Complaints {
			ex.adjudicate(i, c, faulters)
		}
	}

	if anySad {
		if len(faulters) == 0 {
			return round.Protocol[party.KeygenShareDomain, SecretKeyShare]{}, tofn.Fatalf("round3Executer.Execute", "sad round resolved with zero faulters")
		}
		return round.DoneErr[party.KeygenShareDomain, SecretKeyShare](faulterSet(n, faulters)), nil
	}
	if len(faulters) > 0 {
		return round.DoneErr[party.KeygenShareDomain, SecretKeyShare](faulterSet(n, faulters)), nil
	}

	y := curve.NewIdentity()
	for _, c := range ex.vssCommits {
		y = y.Add(c.Secret())
	}

	allShares := make([]SharePublicInfo, n)
	for k := 0; k < n; k++ {
		idx := typed.MustFromUsize[party.KeygenShareDomain](k)
		var ek *paillier.PublicKey
		var zk = s.zkSetup
		if idx == s.myShareID {
			ek = s.ek
		} else {
			peer, _ := s.peers.Get(idx)
			ek, zk = peer.ek, peer.zkSetup
		}
		allShares[k] = SharePublicInfo{X: ex.allX[k], EK: ek, ZkSetup: zk}
	}

	out := SecretKeyShare{
		Public: GroupPublicInfo{
			Counts:    s.counts,
			Threshold: s.threshold,
			Y:         y,
			AllShares: typed.NewVecMap[party.KeygenShareDomain](allShares),
		},
		Secret: ShareSecretInfo{Index: s.myShareID, DK: s.dk, X: ex.xi},
	}
	return round.DoneOk[party.KeygenShareDomain, SecretKeyShare](out), nil
}

// adjudicate resolves one disclosed complaint: accuser `i` claims accused
// c.Victim sent it a bad VSS share. A third party (any honest share
// running this code, accuser and accused included) can check this without
// having been party to the original private p2p exchange, because the
// accused's round2 broadcast already committed to a hash of every
// per-recipient ciphertext (messages.go's bcast2.CiphertexHashes).
func (ex *round3Executer) adjudicate(accuser int, c complaint, faulters map[int]round.Fault) {
	accused := int(c.Victim)
	if accused < 0 || accused >= len(ex.vssCommits) || accused == accuser {
		faulters[accuser] = round.NewCorruptedMessage("complaint names an invalid victim")
		return
	}

	ctHash := sha256.Sum256(c.Ciphertext)
	if accused >= len(ex.hashRows) || accuser >= len(ex.hashRows[accused]) || !bytesEqual(ctHash[:], ex.hashRows[accused][accuser]) {
		faulters[accuser] = round.NewProtocolFault("complaint ciphertext does not match accused's committed hash")
		return
	}

	var ek *paillier.PublicKey
	if typed.MustFromUsize[party.KeygenShareDomain](accused) == ex.s.myShareID {
		ek = ex.s.ek
	} else {
		peer, _ := ex.s.peers.Get(typed.MustFromUsize[party.KeygenShareDomain](accused))
		ek = peer.ek
	}

	shareScalar, err := wire.ParseScalarCanonical(c.Share)
	if err != nil {
		faulters[accuser] = round.NewCorruptedMessage("complaint discloses malformed share")
		return
	}
	randNat := paillier.NatFromBig(wire.ParseBig(c.Randomness))
	recomputed := ek.EncryptWithRandomness(scalarToPlaintext(shareScalar), paillier.RandomnessFromNat(randNat))
	recomputedBytes := wire.Big(paillier.BigFromNat(recomputed.Nat()))
	if sha256.Sum256(recomputedBytes) != sha256.Sum256(c.Ciphertext) {
		// The accuser's disclosed (share, randomness) pair does not
		// reproduce the ciphertext it claims to have decrypted: a
		// fabricated accusation.
		faulters[accuser] = round.NewProtocolFault("complaint share/randomness do not reproduce the disputed ciphertext")
		return
	}

	if !ex.vssCommits[accused].ValidateShare(vss.Share{Index: accuser, Scalar: shareScalar}) {
		faulters[accused] = round.NewProtocolFault("VSS share invalid: " + fmtIdx(accused))
		return
	}

	// The disclosed share is consistent with both the ciphertext and the
	// accused's own Feldman commitment: the complaint itself was false.
	faulters[accuser] = round.NewProtocolFault("false accusation against " + fmtIdx(accused))
}

func fmtIdx(i int) string {
	return typed.MustFromUsize[party.KeygenShareDomain](i).String()
}
