package main

import (
	"fmt"

	"github.com/luxfi/gg20tss/internal/round"
	"github.com/luxfi/gg20tss/internal/typed"
)

// runProtocol drives a set of in-process Rounds to completion, one per
// participating share. The CLI is an explicitly out-of-core "driver"
// (spec.md §6): it holds every signer's share file on local disk already,
// so there is nothing to gain from an actual transport here -- every
// round's outgoing bcast/p2p bytes are just handed directly to every other
// live round's MsgIn before anyone's ExecuteNextRound is called, mirroring
// what a real network would deliver in one synchronous hop per round.
func runProtocol[K any, Out any](rounds map[int]*round.Round[K, Out]) (map[int]*round.Result[K, Out], error) {
	live := rounds
	results := make(map[int]*round.Result[K, Out], len(rounds))

	for len(live) > 0 {
		bcasts := make(map[int][]byte, len(live))
		p2ps := make(map[int]map[int][]byte, len(live))
		for idx, r := range live {
			if b, ok := r.BcastOut(); ok {
				bcasts[idx] = b
			}
			if p, ok := r.P2psOut(); ok {
				p2ps[idx] = p
			}
		}

		for idx, r := range live {
			for from, b := range bcasts {
				if from == idx {
					continue
				}
				if err := r.MsgIn(typed.MustFromUsize[K](from), b); err != nil {
					return nil, fmt.Errorf("runProtocol: delivering bcast %d->%d: %w", from, idx, err)
				}
			}
			for from, pmap := range p2ps {
				if from == idx {
					continue
				}
				payload, ok := pmap[idx]
				if !ok {
					continue
				}
				if err := r.MsgIn(typed.MustFromUsize[K](from), payload); err != nil {
					return nil, fmt.Errorf("runProtocol: delivering p2p %d->%d: %w", from, idx, err)
				}
			}
		}

		next := make(map[int]*round.Round[K, Out], len(live))
		for idx, r := range live {
			proto, err := r.ExecuteNextRound()
			if err != nil {
				return nil, fmt.Errorf("runProtocol: share %d: %w", idx, err)
			}
			if proto.Next != nil {
				next[idx] = proto.Next
				continue
			}
			results[idx] = proto.Done
		}
		live = next
	}
	return results, nil
}
