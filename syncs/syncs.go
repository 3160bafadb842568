// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package syncs contains checked synchronization primitives built on the
// nsync-style runtime in nsync.dev/internal/rt.
//
// Data protected by a Mutex or RWMutex is reachable only through a guard.
// A guard released while a panic unwinds poisons its lock: the data stays
// available, but every later acquisition reports a *PoisonError so the
// caller can decide whether the invariants still hold.
//
//	g, err := m.Lock()
//	if errors.Is(err, syncs.ErrPoisoned) {
//		repair(g.Value())
//	}
//	defer g.Unlock()
//
// Misuse that the type system cannot rule out (double unlock, use after
// release, use after Close) panics with a "syncs:" prefixed message.
package syncs

import (
	"io"
	"log"
	"sync/atomic"
	"time"

	"nsync.dev/envknob/logknob"
	"nsync.dev/metrics"
	"nsync.dev/types/logger"
)

// noCopy may be embedded into structs which must not be copied after the
// first use. go vet's copylocks checker reports copies of such structs.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// debugLocks gates the package's diagnostic logging. It is enabled by
// NSYNC_DEBUG_LOCKS or SetDebugLogging.
var debugLocks = logknob.NewLogKnob("NSYNC_DEBUG_LOCKS")

var logfp atomic.Pointer[logger.Logf]

func init() {
	lf := logger.RateLimitedFn(log.Printf, time.Minute, 10, 100)
	logfp.Store(&lf)
}

// SetLogf sets the function used for diagnostic logging. A nil logf
// discards the output. Logging only happens while debug logging is enabled.
func SetLogf(logf logger.Logf) {
	if logf == nil {
		logf = logger.Discard
	}
	logfp.Store(&logf)
}

// SetDebugLogging enables or disables diagnostic logging at runtime, in
// addition to the NSYNC_DEBUG_LOCKS environment knob.
func SetDebugLogging(on bool) {
	debugLocks.Set(on)
}

func logf() logger.Logf {
	return logger.WithPrefix(*logfp.Load(), "syncs: ")
}

// debugf logs a diagnostic about a primitive of the given kind. Each kind
// is rate limited separately.
func debugf(kind, format string, args ...any) {
	if debugLocks.Enabled() {
		logger.RateLimitContext(logf(), kind)(format, args...)
	}
}

// poisonf logs a poisoning. A lock poisons at most once, so these lines
// are never rate limited.
func poisonf(format string, args ...any) {
	if debugLocks.Enabled() {
		logger.NoRateLimit(logf())(format, args...)
	}
}

// EventKey labels a syncs_events counter.
type EventKey struct {
	Kind  string // "mutex", "rwmutex", "cond", "once", "note", "counter"
	Event string
}

var events = metrics.NewMultiLabelMap[EventKey](
	"syncs_events",
	"counter",
	"Notable events on syncs primitives, by kind.")

func event(kind, ev string) {
	events.Add(EventKey{Kind: kind, Event: ev}, 1)
}

// EventCount returns the number of times ev has been recorded for kind.
func EventCount(kind, ev string) int64 {
	return events.Value(EventKey{Kind: kind, Event: ev})
}

// WriteMetrics writes the package's event counters to w in Prometheus text
// exposition format.
func WriteMetrics(w io.Writer) {
	events.WritePrometheus(w, "syncs_events")
}
