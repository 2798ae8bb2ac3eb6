// Package tofn holds the error taxonomy shared by every core package.
//
// There are two orthogonal axes: a FatalError indicates a bug in this
// process (an index out of range, a sad round that found no faulters) and
// is never attributable to a peer; a protocol Fault (see internal/round)
// indicates that a peer misbehaved. Only the protocol rounds attribute
// faults to peers; the pkg/* primitives return plain errors.
package tofn

import (
	"fmt"

	"github.com/luxfi/gg20tss/internal/logging"
)

// FatalError is returned when an internal invariant is violated. It is a
// bug, not a protocol fault, and callers should not attempt to attribute it
// to any party.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("tofn fatal: %s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatalf constructs a FatalError from a format string, mirroring fmt.Errorf,
// and logs it at error level: a FatalError is, by definition, never a peer
// attribution, so it is logged the moment it is raised rather than left for
// a caller to notice.
func Fatalf(op, format string, args ...interface{}) error {
	err := &FatalError{Op: op, Err: fmt.Errorf(format, args...)}
	logging.Error("internal fatal error", "op", op, "err", err.Err)
	return err
}

// AssertFatal returns a FatalError if cond is false, otherwise nil.
func AssertFatal(cond bool, op, msg string) error {
	if cond {
		return nil
	}
	return Fatalf(op, "%s", msg).(*FatalError)
}
