// Package domain holds the one-byte domain-separation tag table that
// spec.md §6 calls out as part of the protocol contract: changing any
// value here breaks cross-implementation compatibility, so it is a fixed
// set of constants, not configuration.
package domain

const (
	YICommitTag            byte = 0x01
	GammaICommitTag        byte = 0x02
	RangeProofTag          byte = 0x03
	RangeProofWCTag        byte = 0x04
	MtAProofTag            byte = 0x05
	MtAProofWCTag          byte = 0x06
	PedersenProofTag       byte = 0x07
	ChaumPedersenProofTag  byte = 0x08
	CompositeDLogProof1Tag byte = 0x09
	CompositeDLogProof2Tag byte = 0x0a
	KeypairTag             byte = 0x0b
	ZkSetupTag             byte = 0x0c
	ECDSATag               byte = 0x0d
	SchnorrProofTag        byte = 0x0e
	PaillierKeyProofTag    byte = 0x0f
)
