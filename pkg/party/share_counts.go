package party

import (
	"fmt"

	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
)

// MaxSharesPerParty and MaxTotalShares bound the sizes spec.md §3 names:
// every party's share count is <= 1000, and the total is <= 1000.
const (
	MaxSharesPerParty = 1000
	MaxTotalShares    = 1000
)

// PartyShareCounts maps each keygen party to the number of shares it holds,
// and exposes the bijection between a global KeygenShareID and the
// (KeygenPartyID, local sub-share index) pair. This is the only place
// parties and shares are coupled.
type PartyShareCounts struct {
	counts     typed.VecMap[KeygenPartyDomain, int]
	shareStart []int // shareStart[p] = first global share id owned by party p
	total      int
}

// NewPartyShareCounts validates and builds a PartyShareCounts from a
// per-party share count slice.
func NewPartyShareCounts(counts []int) (PartyShareCounts, error) {
	if len(counts) == 0 {
		return PartyShareCounts{}, tofn.Fatalf("NewPartyShareCounts", "no parties")
	}
	total := 0
	starts := make([]int, len(counts))
	for i, c := range counts {
		if c <= 0 || c > MaxSharesPerParty {
			return PartyShareCounts{}, tofn.Fatalf("NewPartyShareCounts", "party %d has invalid share count %d", i, c)
		}
		starts[i] = total
		total += c
	}
	if total > MaxTotalShares {
		return PartyShareCounts{}, tofn.Fatalf("NewPartyShareCounts", "total share count %d exceeds %d", total, MaxTotalShares)
	}
	return PartyShareCounts{
		counts:     typed.NewVecMap[KeygenPartyDomain](append([]int(nil), counts...)),
		shareStart: starts,
		total:      total,
	}, nil
}

// PartyCount returns n_parties.
func (c PartyShareCounts) PartyCount() int { return c.counts.Len() }

// TotalShareCount returns the total number of shares across all parties.
func (c PartyShareCounts) TotalShareCount() int { return c.total }

// SharesOf returns how many shares the given party holds.
func (c PartyShareCounts) SharesOf(p KeygenPartyID) (int, error) {
	return c.counts.Get(p)
}

// ShareToParty maps a global share id to its owning party and local
// sub-share index (0-based, within that party's own shares).
func (c PartyShareCounts) ShareToParty(share KeygenShareID) (party KeygenPartyID, localIdx int, err error) {
	s := share.AsUsize()
	if s < 0 || s >= c.total {
		return KeygenPartyID{}, 0, tofn.Fatalf("ShareToParty", "share %d out of range [0,%d)", s, c.total)
	}
	for p := 0; p < c.counts.Len(); p++ {
		cnt, _ := c.counts.Get(typed.MustFromUsize[KeygenPartyDomain](p))
		if s < c.shareStart[p]+cnt {
			return typed.MustFromUsize[KeygenPartyDomain](p), s - c.shareStart[p], nil
		}
	}
	return KeygenPartyID{}, 0, tofn.Fatalf("ShareToParty", "unreachable for share %d", s)
}

// PartyToShareRange returns the [start,end) global share id range owned by
// a party.
func (c PartyShareCounts) PartyToShareRange(p KeygenPartyID) (start, end int, err error) {
	cnt, err := c.counts.Get(p)
	if err != nil {
		return 0, 0, err
	}
	s := c.shareStart[p.AsUsize()]
	return s, s + cnt, nil
}

// AllShareIDs returns every global share id in ascending order.
func (c PartyShareCounts) AllShareIDs() []KeygenShareID {
	out := make([]KeygenShareID, c.total)
	for i := range out {
		out[i] = typed.MustFromUsize[KeygenShareDomain](i)
	}
	return out
}

func (c PartyShareCounts) String() string {
	return fmt.Sprintf("PartyShareCounts{parties=%d,total=%d}", c.PartyCount(), c.total)
}
