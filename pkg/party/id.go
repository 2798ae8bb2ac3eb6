// Package party defines the typed party/share identity domains used across
// the core, and PartyShareCounts, the single place where parties and
// shares are coupled (spec.md §3 "Party and share identity").
package party

import "github.com/luxfi/gg20tss/internal/typed"

// KeygenPartyDomain and KeygenShareDomain are the phantom domains for
// keygen-time identities.
type KeygenPartyDomain struct{}
type KeygenShareDomain struct{}

// SignPartyDomain and SignShareDomain are the phantom domains for sign-time
// identities. Sign reindexes the chosen signer subset into a dense
// SignShareId space, distinct from KeygenShareId.
type SignPartyDomain struct{}
type SignShareDomain struct{}

type (
	// KeygenPartyID identifies one of the n_parties participants in DKG.
	KeygenPartyID = typed.Index[KeygenPartyDomain]
	// KeygenShareID identifies one of the total_share_count VSS shares.
	KeygenShareID = typed.Index[KeygenShareDomain]
	// SignPartyID identifies a party within a chosen signing subset.
	SignPartyID = typed.Index[SignPartyDomain]
	// SignShareID identifies a share within a chosen signing subset's dense
	// reindexing.
	SignShareID = typed.Index[SignShareDomain]
)
