package keygen

// Wire message shapes for each keygen round. Field numbering follows the
// teacher's cbor keyasint convention (internal/round/wire.go's envelope).

// bcast1 is keygen round 1's broadcast: the commitment to y_i = G*u_i,
// the Paillier encryption key plus its correctness proof, and the
// auxiliary ZkSetup plus its pair of composite-DLog proofs (spec.md
// §4.6 round 1 step 5).
type bcast1 struct {
	YICommit     []byte   `cbor:"1,keyasint"`
	EKN          []byte   `cbor:"2,keyasint"`
	EkProofSigma [][]byte `cbor:"3,keyasint"`
	ZkNTilde     []byte   `cbor:"4,keyasint"`
	ZkH1         []byte   `cbor:"5,keyasint"`
	ZkH2         []byte   `cbor:"6,keyasint"`
	ZkProof1A    []byte   `cbor:"7,keyasint"`
	ZkProof1Y    []byte   `cbor:"8,keyasint"`
	ZkProof2A    []byte   `cbor:"9,keyasint"`
	ZkProof2Y    []byte   `cbor:"10,keyasint"`
}

// bcast2 is keygen round 2's broadcast: the opening of the round-1
// commitment, the Feldman VSS commitment to the sender's polynomial, and
// a SHA-256 hash of each per-recipient share ciphertext. The hashes let a
// third party authenticate a later R3 complaint's disclosed ciphertext
// against what the sender actually committed to sending, without having
// to broadcast the (much larger) ciphertexts themselves -- see DESIGN.md's
// "Keygen" section for why spec.md's round-4-sad
// description needed this to be independently verifiable.
type bcast2 struct {
	YIReveal        []byte   `cbor:"1,keyasint"`
	VssCommit       [][]byte `cbor:"2,keyasint"`
	CiphertexHashes [][]byte `cbor:"3,keyasint"`
}

// p2p2 is keygen round 2's p2p: the VSS share for the recipient,
// Paillier-encrypted under the recipient's own key.
type p2p2 struct {
	Ciphertext []byte `cbor:"1,keyasint"`
}

// bcast3 is keygen round 3's broadcast, a tagged union: the happy branch
// carries a Schnorr proof of knowledge of x_i; the sad branch carries the
// sender's complaints against peers whose VSS share failed validation.
type bcast3 struct {
	Sad        bool        `cbor:"1,keyasint"`
	XIProofA   []byte      `cbor:"2,keyasint"`
	XIProofS1  []byte      `cbor:"3,keyasint"`
	Complaints []complaint `cbor:"4,keyasint"`
}

// complaint discloses everything a third party needs to adjudicate a
// round-2 VSS-share dispute: which peer is accused, the share and
// randomness the accuser claims to have decrypted, and the ciphertext it
// decrypted them from (checked against the accused's round-2 ciphertext
// hash).
type complaint struct {
	Victim     uint64 `cbor:"1,keyasint"`
	Share      []byte `cbor:"2,keyasint"`
	Randomness []byte `cbor:"3,keyasint"`
	Ciphertext []byte `cbor:"4,keyasint"`
}
