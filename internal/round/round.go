// Package round implements the SDK / protocol engine of spec.md §4.5: the
// multi-round state machine framework shared by keygen and sign. A Round
// owns its outgoing bcast/p2p bytes, a fill-table for incoming messages,
// the set of message types each peer has committed to this round, and an
// Executer that fires once every expected message has arrived.
//
// Per the design notes (spec.md §9), the type parameterisation on K (the
// share-index domain) and Out (the terminal output) is preserved rather
// than collapsed to plain integers: it is the primary bug-prevention
// property of the whole engine.
package round

import (
	"fmt"

	"github.com/luxfi/gg20tss/internal/logging"
	"github.com/luxfi/gg20tss/internal/tofn"
	"github.com/luxfi/gg20tss/internal/typed"
)

// Info is the session identity every round carries forward: which share I
// am, how many total shares participate, and the session nonce binding
// this run (spec.md §4.6 pre-round rule "session_nonce non-empty").
type Info[K any] struct {
	MyShareID   typed.Index[K]
	TotalShares int
	SessionID   []byte
}

// MAX_MSG_IN_LEN bounds per spec.md §4.5; component protocols may override.
const DefaultMaxMsgInLen = 5500

// Executer is implemented by each protocol round's logic. Execute is
// called only once every expected message for the round has arrived and
// been stored; it returns either the next round (NotDone) or a terminal
// Protocol (Done).
type Executer[K any, Out any] interface {
	Execute(h *Helper[K]) (Protocol[K, Out], error)
}

// Helper is the read-only view an Executer's Execute receives: incoming
// message payloads plus session identity.
type Helper[K any] struct {
	info    Info[K]
	bcastIn *typed.FillVecMap[K, []byte]
	p2pIn   *typed.FillP2ps[K, []byte]
}

func (h *Helper[K]) MyShareID() typed.Index[K] { return h.info.MyShareID }
func (h *Helper[K]) TotalShares() int           { return h.info.TotalShares }
func (h *Helper[K]) SessionID() []byte          { return h.info.SessionID }

// Bcast returns the raw broadcast payload peer idx sent this round.
func (h *Helper[K]) Bcast(idx typed.Index[K]) ([]byte, bool) {
	if idx == h.info.MyShareID {
		return nil, false
	}
	return h.bcastIn.Get(idx)
}

// P2p returns the raw p2p payload `from` sent to me this round.
func (h *Helper[K]) P2p(from typed.Index[K]) ([]byte, bool) {
	return h.p2pIn.Get(from, h.info.MyShareID)
}

// Round is one step of a protocol's state machine.
type Round[K any, Out any] struct {
	info        Info[K]
	kind        MsgType
	maxMsgInLen int

	bcastOut []byte
	p2pOut   *typed.HoleVecMap[K, []byte]

	bcastIn  typed.FillVecMap[K, []byte]
	p2pIn    typed.FillP2ps[K, []byte]
	expected typed.FillVecMap[K, MsgType]
	faulters typed.FillVecMap[K, Fault]

	executer Executer[K, Out]
}

// New constructs a Round. bcastOut/p2pOut are this share's own outgoing
// messages for the round (nil when kind doesn't call for them).
func New[K any, Out any](info Info[K], kind MsgType, maxMsgInLen int, bcastOut []byte, p2pOut *typed.HoleVecMap[K, []byte], executer Executer[K, Out]) *Round[K, Out] {
	if maxMsgInLen <= 0 {
		maxMsgInLen = DefaultMaxMsgInLen
	}
	return &Round[K, Out]{
		info:        info,
		kind:        kind,
		maxMsgInLen: maxMsgInLen,
		bcastOut:    bcastOut,
		p2pOut:      p2pOut,
		bcastIn:     typed.NewFillVecMap[K, []byte](info.TotalShares),
		p2pIn:       typed.NewFillP2ps[K, []byte](info.TotalShares),
		expected:    typed.NewFillVecMap[K, MsgType](info.TotalShares),
		faulters:    typed.NewFillVecMap[K, Fault](info.TotalShares),
		executer:    executer,
	}
}

// BcastOut returns this share's outgoing broadcast envelope, if the round
// broadcasts.
func (r *Round[K, Out]) BcastOut() ([]byte, bool) {
	if !r.kind.wantsBcast() {
		return nil, false
	}
	env, err := encodeEnvelope(uint64(r.info.MyShareID.AsUsize()), wireBcast, r.bcastOut, r.kind)
	if err != nil {
		panic(err) // encoding our own payload cannot fail; a failure is tofn.FatalError territory
	}
	return env, true
}

// P2psOut returns this share's outgoing p2p envelopes, if the round sends
// p2ps, keyed by recipient.
func (r *Round[K, Out]) P2psOut() (map[int][]byte, bool) {
	if !r.kind.wantsP2p() || r.p2pOut == nil {
		return nil, false
	}
	out := make(map[int][]byte, r.p2pOut.Len())
	_ = r.p2pOut.Iter(func(to typed.Index[K], payload []byte) error {
		env, err := encodeEnvelope(uint64(r.info.MyShareID.AsUsize()), wireP2p, payload, r.kind)
		if err != nil {
			panic(err)
		}
		out[to.AsUsize()] = env
		return nil
	})
	return out, true
}

// MsgIn ingests a raw wire envelope from `from`, per spec.md §4.5's
// msg_in(from_party_id, bytes) steps 1-4. It never returns an error to the
// caller for peer misbehaviour: such misbehaviour is recorded as a Fault
// and surfaced at the next ExecuteNextRound boundary. A non-nil error
// return indicates a local bug (tofn.FatalError).
func (r *Round[K, Out]) MsgIn(from typed.Index[K], raw []byte) error {
	if from.AsUsize() < 0 || from.AsUsize() >= r.info.TotalShares {
		return tofn.Fatalf("Round.MsgIn", "share index %d out of range", from.AsUsize())
	}
	if from == r.info.MyShareID {
		return nil // a share does not deliver messages to itself over the wire
	}
	if len(raw) > r.maxMsgInLen {
		r.recordFault(from, NewCorruptedMessage(fmt.Sprintf("envelope %d bytes exceeds max %d", len(raw), r.maxMsgInLen)))
		return nil
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		r.recordFault(from, NewCorruptedMessage(err.Error()))
		return nil
	}
	if env.Version != WireVersion {
		r.recordFault(from, NewCorruptedMessage("envelope version mismatch"))
		return nil
	}
	if env.From != uint64(from.AsUsize()) {
		r.recordFault(from, NewCorruptedMessage("envelope from-field mismatch"))
		return nil
	}
	if existing, ok := r.expected.Get(from); ok && existing != env.ExpectedMsgTypes {
		r.recordFault(from, NewCorruptedMessage("inconsistent expected_msg_types"))
		return nil
	}
	_ = r.expected.Set(from, env.ExpectedMsgTypes)

	switch env.Kind {
	case wireBcast:
		_ = r.bcastIn.Set(from, env.Payload)
	case wireP2p:
		if err := r.p2pIn.Set(from, r.info.MyShareID, env.Payload); err != nil {
			r.recordFault(from, NewCorruptedMessage("p2p addressed incorrectly"))
		}
	default:
		r.recordFault(from, NewCorruptedMessage("unknown envelope kind"))
	}
	return nil
}

func (r *Round[K, Out]) recordFault(idx typed.Index[K], f Fault) {
	if _, already := r.faulters.Get(idx); already {
		return
	}
	_ = r.faulters.Set(idx, f)
	logging.Warn("fault attributed", "share", idx.AsUsize(), "kind", f.Kind.String(), "detail", f.Detail)
}

// ExpectingMoreMsgsThisRound reports whether any peer this round expects a
// message from has not yet delivered one.
func (r *Round[K, Out]) ExpectingMoreMsgsThisRound() bool {
	if r.kind == NoMessages {
		return false
	}
	for i := 0; i < r.info.TotalShares; i++ {
		idx := typed.MustFromUsize[K](i)
		if idx == r.info.MyShareID {
			continue
		}
		if _, faulted := r.faulters.Get(idx); faulted {
			continue
		}
		if r.kind.wantsBcast() {
			if _, ok := r.bcastIn.Get(idx); !ok {
				return true
			}
		}
		if r.kind.wantsP2p() {
			if _, ok := r.p2pIn.Get(idx, r.info.MyShareID); !ok {
				return true
			}
		}
	}
	return false
}

// ExecuteNextRound performs spec.md §4.5's round-firing sequence: scan for
// missing messages, and if none, hand control to the Executer.
func (r *Round[K, Out]) ExecuteNextRound() (Protocol[K, Out], error) {
	for i := 0; i < r.info.TotalShares; i++ {
		idx := typed.MustFromUsize[K](i)
		if idx == r.info.MyShareID {
			continue
		}
		if _, already := r.faulters.Get(idx); already {
			continue
		}
		if r.kind.wantsBcast() {
			if _, ok := r.bcastIn.Get(idx); !ok {
				r.recordFault(idx, NewMissingMessage("bcast not received"))
			}
		}
		if r.kind.wantsP2p() {
			if _, ok := r.p2pIn.Get(idx, r.info.MyShareID); !ok {
				r.recordFault(idx, NewMissingMessage("p2p not received"))
			}
		}
	}
	if r.faulters.SomeCount() > 0 {
		return DoneErr[K, Out](r.faulters), nil
	}
	h := &Helper[K]{info: r.info, bcastIn: &r.bcastIn, p2pIn: &r.p2pIn}
	logging.Debug("executing round", "share", r.info.MyShareID.AsUsize(), "total_shares", r.info.TotalShares)
	proto, err := r.executer.Execute(h)
	if err != nil {
		return proto, err
	}
	switch {
	case proto.Done != nil && proto.Done.Faulters != nil:
		_ = proto.Done.Faulters.Iter(func(idx typed.Index[K], f Fault) error {
			logging.Warn("fault attributed", "share", idx.AsUsize(), "kind", f.Kind.String(), "detail", f.Detail)
			return nil
		})
	case proto.Done != nil:
		logging.Info("protocol complete", "share", r.info.MyShareID.AsUsize())
	case proto.Next != nil:
		logging.Info("round advanced", "share", r.info.MyShareID.AsUsize())
	}
	return proto, nil
}

func (r *Round[K, Out]) Info() Info[K] { return r.info }

// Result is the terminal payload of a finished protocol: either Output or
// Faulters is set, never both (spec.md §6: Protocol = NotDone(Round) |
// Done(Result<FinalOutput, ProtocolFaulters>)).
type Result[K any, Out any] struct {
	Output   *Out
	Faulters *typed.FillVecMap[K, Fault]
}

// Protocol is the tagged union every round-boundary produces.
type Protocol[K any, Out any] struct {
	Next *Round[K, Out]
	Done *Result[K, Out]
}

// NotDone wraps a live round as an in-progress Protocol.
func NotDone[K any, Out any](r *Round[K, Out]) Protocol[K, Out] {
	return Protocol[K, Out]{Next: r}
}

// DoneOk wraps a terminal success output.
func DoneOk[K any, Out any](out Out) Protocol[K, Out] {
	o := out
	return Protocol[K, Out]{Done: &Result[K, Out]{Output: &o}}
}

// DoneErr wraps a terminal fault set.
func DoneErr[K any, Out any](faulters typed.FillVecMap[K, Fault]) Protocol[K, Out] {
	f := faulters
	return Protocol[K, Out]{Done: &Result[K, Out]{Faulters: &f}}
}
