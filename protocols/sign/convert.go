package sign

import (
	"math/big"

	"github.com/luxfi/gg20tss/internal/wire"
	"github.com/luxfi/gg20tss/pkg/curve"
	"github.com/luxfi/gg20tss/pkg/paillier"
	"github.com/luxfi/gg20tss/pkg/zkp/chaumpedersen"
	mtazkp "github.com/luxfi/gg20tss/pkg/zkp/mta"
	"github.com/luxfi/gg20tss/pkg/zkp/paillierrange"
	"github.com/luxfi/gg20tss/pkg/zkp/pedersen"
)

// scalarToBig/bigToScalar bridge a curve scalar to the Paillier/math-big
// domain, the same bridge keygen's scalarToPlaintext/plaintextToScalar use.
func scalarToBig(s *curve.Scalar) *big.Int {
	return new(big.Int).SetBytes(s.Bytes())
}

func bigToScalarReduced(b *big.Int) *curve.Scalar {
	return curve.ScalarFromBytesReduced(b.Bytes())
}

// Conversion helpers bridging every sign round's ZK proof types to their
// wire shapes, in the teacher's SetCommitments/GetCommitments idiom.

func encodeRangeProof(p *paillierrange.Proof) rangeProofWire {
	w := rangeProofWire{
		Z:  wire.Big(p.Z),
		U:  wire.Big(p.U),
		W:  wire.Big(paillier.BigFromNat(p.W.Nat())),
		S1: wire.Big(p.S1),
		S2: wire.Big(p.S2),
		S:  wire.Big(paillier.BigFromNat(p.S.Nat())),
	}
	if p.U1 != nil {
		w.U1 = wire.MustPoint(p.U1)
	}
	return w
}

func decodeRangeProof(w rangeProofWire, wc bool) (*paillierrange.Proof, error) {
	p := &paillierrange.Proof{
		Z:  wire.ParseBig(w.Z),
		U:  wire.ParseBig(w.U),
		W:  paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(w.W))),
		S1: wire.ParseBig(w.S1),
		S2: wire.ParseBig(w.S2),
		S:  paillier.RandomnessFromNat(paillier.NatFromBig(wire.ParseBig(w.S))),
	}
	if wc {
		u1, err := wire.ParsePoint(w.U1)
		if err != nil {
			return nil, err
		}
		p.U1 = u1
	}
	return p, nil
}

func encodeMtaProof(p *mtazkp.Proof) mtaProofWire {
	w := mtaProofWire{
		Z1: wire.Big(p.Z1),
		Z2: wire.Big(p.Z2),
		U:  wire.Big(paillier.BigFromNat(p.U.Nat())),
		W1: wire.Big(p.W1),
		W2: wire.Big(p.W2),
		Sx: wire.Big(p.Sx),
		Tx: wire.Big(p.Tx),
		Sy: wire.Big(p.Sy),
		Ty: wire.Big(p.Ty),
		Sr: wire.Big(paillier.BigFromNat(p.Sr.Nat())),
	}
	if p.U1 != nil {
		w.U1 = wire.MustPoint(p.U1)
	}
	return w
}

func decodeMtaProof(w mtaProofWire, wc bool) (*mtazkp.Proof, error) {
	p := &mtazkp.Proof{
		Z1: wire.ParseBig(w.Z1),
		Z2: wire.ParseBig(w.Z2),
		U:  paillier.CiphertextFromNat(paillier.NatFromBig(wire.ParseBig(w.U))),
		W1: wire.ParseBig(w.W1),
		W2: wire.ParseBig(w.W2),
		Sx: wire.ParseBig(w.Sx),
		Tx: wire.ParseBig(w.Tx),
		Sy: wire.ParseBig(w.Sy),
		Ty: wire.ParseBig(w.Ty),
		Sr: paillier.RandomnessFromNat(paillier.NatFromBig(wire.ParseBig(w.Sr))),
	}
	if wc {
		u1, err := wire.ParsePoint(w.U1)
		if err != nil {
			return nil, err
		}
		p.U1 = u1
	}
	return p, nil
}

func encodePedersenProof(p *pedersen.Proof) pedersenProofWire {
	w := pedersenProofWire{
		Alpha: wire.MustPoint(p.Alpha),
		S1:    wire.Scalar(p.S1),
		S2:    wire.Scalar(p.S2),
	}
	if p.AlphaG != nil {
		w.AlphaG = wire.MustPoint(p.AlphaG)
	}
	return w
}

func decodePedersenProof(w pedersenProofWire, wc bool) (*pedersen.Proof, error) {
	alpha, err := wire.ParsePoint(w.Alpha)
	if err != nil {
		return nil, err
	}
	s1, err := wire.ParseScalarCanonical(w.S1)
	if err != nil {
		return nil, err
	}
	s2, err := wire.ParseScalarCanonical(w.S2)
	if err != nil {
		return nil, err
	}
	p := &pedersen.Proof{Alpha: alpha, S1: s1, S2: s2}
	if wc {
		alphaG, err := wire.ParsePoint(w.AlphaG)
		if err != nil {
			return nil, err
		}
		p.AlphaG = alphaG
	}
	return p, nil
}

func encodeChaumPedersenProof(p *chaumpedersen.Proof) chaumPedersenProofWire {
	return chaumPedersenProofWire{
		Alpha1: wire.MustPoint(p.Alpha1),
		Alpha2: wire.MustPoint(p.Alpha2),
		S1:     wire.Scalar(p.S1),
	}
}

func decodeChaumPedersenProof(w chaumPedersenProofWire) (*chaumpedersen.Proof, error) {
	alpha1, err := wire.ParsePoint(w.Alpha1)
	if err != nil {
		return nil, err
	}
	alpha2, err := wire.ParsePoint(w.Alpha2)
	if err != nil {
		return nil, err
	}
	s1, err := wire.ParseScalarCanonical(w.S1)
	if err != nil {
		return nil, err
	}
	return &chaumpedersen.Proof{Alpha1: alpha1, Alpha2: alpha2, S1: s1}, nil
}
