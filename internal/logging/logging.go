// Package logging is a minimal shim over log/slog, giving the round engine
// and the CLI one place to agree on levels: attributions at warn, fatals
// at error, round progress at info/debug (spec.md §7). No third-party
// logging library appears anywhere in the retrieval pack, so slog -- the
// standard library's structured logger -- is the right tool here rather
// than a stand-in for one; see DESIGN.md.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
}

// SetLogger replaces the package-level logger, e.g. to raise the level or
// redirect output in a test or a CLI --verbose flag.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Discard silences all logging, for tests that want a quiet run.
func Discard() {
	SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get() *slog.Logger { return logger.Load() }

// Debug logs fine-grained round bookkeeping (message receipt, round
// advance) that is only useful while actively debugging a transcript.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs round progress: a round finished, a protocol completed.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs a fault attribution: some share was found to have deviated
// from the protocol and was recorded against in a FillVecMap<Fault>.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs a tofn.FatalError: an internal invariant violation, never
// attributable to a peer.
func Error(msg string, args ...any) { get().Error(msg, args...) }
