package round

import "fmt"

// FaultKind is one of the three fault taxonomy entries of spec.md §7.
type FaultKind int

const (
	// MissingMessage: a message the peer committed to send never arrived.
	MissingMessage FaultKind = iota
	// CorruptedMessage: a decode failure, envelope-version mismatch,
	// oversize, or inconsistent expected_msg_types.
	CorruptedMessage
	// ProtocolFault: any semantic check failure (bad proof, bad commit,
	// failed consistency re-encryption, false accusation, etc).
	ProtocolFault
)

func (k FaultKind) String() string {
	switch k {
	case MissingMessage:
		return "MissingMessage"
	case CorruptedMessage:
		return "CorruptedMessage"
	case ProtocolFault:
		return "ProtocolFault"
	default:
		return "UnknownFault"
	}
}

// Fault attributes a single misbehaviour to a share. Faults are collected
// into a FillVecMap<Party,Fault> and, at the first round boundary where the
// set is non-empty, returned as Done(Err(faulters)); the session cannot be
// resumed (spec.md §7).
type Fault struct {
	Kind   FaultKind
	Detail string
}

func (f Fault) Error() string { return fmt.Sprintf("%s: %s", f.Kind, f.Detail) }

func NewMissingMessage(detail string) Fault   { return Fault{Kind: MissingMessage, Detail: detail} }
func NewCorruptedMessage(detail string) Fault { return Fault{Kind: CorruptedMessage, Detail: detail} }
func NewProtocolFault(detail string) Fault    { return Fault{Kind: ProtocolFault, Detail: detail} }
