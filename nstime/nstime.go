// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package nstime defines the monotonic Time and Duration values used for
// every bounded wait in package syncs.
package nstime

import (
	"fmt"
	"time"

	"nsync.dev/internal/rt"
)

// Time is a point on the process's monotonic clock.
// The zero value is Zero().
type Time struct{ t rt.Time }

// Duration is a span of monotonic time.
type Duration struct{ d rt.Time }

// ZeroDuration is the empty duration.
var ZeroDuration = Duration{rt.Zero}

// Now returns the current time.
func Now() Time { return Time{rt.Now()} }

// NoDeadline returns the sentinel time that bounded waits treat as "wait
// forever". Adding any duration to it returns it unchanged.
func NoDeadline() Time { return Time{rt.NoDeadline} }

// Zero returns the origin of the monotonic clock.
// As a deadline it is always in the past.
func Zero() Time { return Time{rt.Zero} }

// FromRaw wraps a runtime time value.
func FromRaw(t rt.Time) Time { return Time{t} }

// Raw returns the runtime representation of t.
func (t Time) Raw() rt.Time { return t.t }

// IsNoDeadline reports whether t is the NoDeadline sentinel.
func (t Time) IsNoDeadline() bool { return t.t == rt.NoDeadline }

// Add returns t+d.
func (t Time) Add(d Duration) Time { return Time{rt.Add(t.t, d.d)} }

// Sub returns the duration t-u.
func (t Time) Sub(u Time) Duration { return Duration{rt.Sub(t.t, u.t)} }

// Compare returns -1, 0 or +1 as t is before, equal to, or after u.
func (t Time) Compare(u Time) int { return rt.Cmp(t.t, u.t) }

// Before reports whether t is before u.
func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }

// After reports whether t is after u.
func (t Time) After(u Time) bool { return t.Compare(u) > 0 }

// Equal reports whether t and u are the same instant.
func (t Time) Equal(u Time) bool { return t.Compare(u) == 0 }

// SleepUntil blocks until t and returns the time at which it woke.
func (t Time) SleepUntil() Time { return Time{rt.SleepUntil(t.t)} }

// Std returns the wall-clock time corresponding to t. NoDeadline maps to the
// zero time.Time.
func (t Time) Std() time.Time { return rt.Wall(t.t) }

func (t Time) String() string {
	if t.IsNoDeadline() {
		return "no-deadline"
	}
	return fmt.Sprintf("mono+%v", rt.ToStd(t.t))
}

// FromStd converts a time.Duration. time.Duration(math.MaxInt64) maps to the
// unbounded duration.
func FromStd(d time.Duration) Duration { return Duration{rt.FromStd(d)} }

// FromSecsNanos returns secs seconds plus nanos nanoseconds.
func FromSecsNanos(secs int64, nanos uint32) Duration {
	return Duration{rt.FromSecsNanos(secs, nanos)}
}

// FromMillis returns ms milliseconds.
func FromMillis(ms uint32) Duration {
	return FromStd(time.Duration(ms) * time.Millisecond)
}

// FromMicros returns us microseconds.
func FromMicros(us uint32) Duration {
	return FromStd(time.Duration(us) * time.Microsecond)
}

// Std converts d to a time.Duration.
func (d Duration) Std() time.Duration { return rt.ToStd(d.d) }

// Compare returns -1, 0 or +1 as d is shorter than, equal to, or longer
// than e.
func (d Duration) Compare(e Duration) int { return rt.Cmp(d.d, e.d) }

// Sleep blocks for at least d.
func (d Duration) Sleep() { rt.Sleep(d.d) }

func (d Duration) String() string { return d.Std().String() }

// Sleep blocks for at least d.
func Sleep(d Duration) { d.Sleep() }

// Deadline returns Now().Add(FromStd(d)).
func Deadline(d time.Duration) Time { return Now().Add(FromStd(d)) }
