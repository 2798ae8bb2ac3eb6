package sign

// Behaviour selects a deliberate protocol deviation for identifiable-abort
// fault-injection testing, the same role tofn's gg20::sign::malicious
// module plays in the original implementation (see
// tests/integration/single_thread/malicious/sign.rs). The zero value,
// Honest, is the only behaviour a production Start call should ever use;
// every other value is wired for package-internal tests only.
type Behaviour int

const (
	// Honest runs the protocol exactly as spec.md §4.7 describes it.
	Honest Behaviour = iota
	// R1BadProof corrupts the round-1 Paillier range proof this share
	// sends to its peers, triggering a round-1 complaint and, once round 2
	// resolves it, a ProtocolFault against this share (spec §8 scenario
	// "R1BadProof").
	R1BadProof
	// R1BadCommit broadcasts a corrupted round-1 commitment to Gamma_i, so
	// round 4's opening check fails once the honest Gamma_i is revealed
	// (spec §8 scenario "R1BadCommit").
	R1BadCommit
	// R2BadShare corrupts the MtA ciphertext this share discloses to its
	// peers in round 2, failing every peer's mta.VerifyBob check (spec §8
	// scenario "R2BadShare").
	R2BadShare
	// R2DropBcast withholds round 2's broadcast message entirely, showing
	// up as a MissingMessage fault at the next round boundary (spec §8's
	// "dropped-R2-bcast" scenario).
	R2DropBcast
)

func (b Behaviour) String() string {
	switch b {
	case Honest:
		return "Honest"
	case R1BadProof:
		return "R1BadProof"
	case R1BadCommit:
		return "R1BadCommit"
	case R2BadShare:
		return "R2BadShare"
	case R2DropBcast:
		return "R2DropBcast"
	default:
		return "UnknownBehaviour"
	}
}

// corruptBytes flips the low bit of the last byte of b, returning a fresh
// slice so the caller's original bytes are left untouched. Used by the
// Behaviour injection points above to turn a valid wire value into an
// invalid one without changing its length or encoding shape.
func corruptBytes(b []byte) []byte {
	if len(b) == 0 {
		return b
	}
	out := make([]byte, len(b))
	copy(out, b)
	out[len(out)-1] ^= 0x01
	return out
}
