package round

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MsgType describes which channel(s) a round moves on spec.md §4.5's
// Round variant list.
type MsgType byte

const (
	NoMessages MsgType = iota
	BcastOnly
	P2pOnly
	BcastAndP2p
)

func (t MsgType) wantsBcast() bool { return t == BcastOnly || t == BcastAndP2p }
func (t MsgType) wantsP2p() bool   { return t == P2pOnly || t == BcastAndP2p }

// wireKind distinguishes a bcast envelope from a p2p envelope on the wire;
// distinct from MsgType, which is what the ROUND as a whole expects.
type wireKind byte

const (
	wireBcast wireKind = iota
	wireP2p
)

// WireVersion is the only version this engine understands; a mismatch is a
// fatal decode error attributed to the sender (spec.md §6).
const WireVersion uint16 = 0

// envelope is the wire-exact structure of spec.md §6: "Each message is
// bincode(BytesVecVersioned{version, payload: bincode(WireBytes{msg_type,
// from, payload, expected_msg_types})})". This module substitutes CBOR for
// bincode (SPEC_FULL.md §2 ambient-stack note) but keeps the same fields.
type envelope struct {
	Version          uint16   `cbor:"1,keyasint"`
	From             uint64   `cbor:"2,keyasint"`
	Kind             wireKind `cbor:"3,keyasint"`
	Payload          []byte   `cbor:"4,keyasint"`
	ExpectedMsgTypes MsgType  `cbor:"5,keyasint"`
}

func encodeEnvelope(from uint64, kind wireKind, payload []byte, expected MsgType) ([]byte, error) {
	env := envelope{
		Version:          WireVersion,
		From:             from,
		Kind:             kind,
		Payload:          payload,
		ExpectedMsgTypes: expected,
	}
	b, err := cbor.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("round.encodeEnvelope: %w", err)
	}
	return b, nil
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("round.decodeEnvelope: %w", err)
	}
	return env, nil
}
