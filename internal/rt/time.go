// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"math"
	"time"
)

// Time is the runtime's native time representation: nanoseconds on a
// process-local monotonic clock. The same representation is used for both
// points in time and durations, as in nsync_time.
type Time int64

const (
	// Zero is the zero time and the zero duration.
	Zero Time = 0

	// NoDeadline is the sentinel for an unbounded wait. Arithmetic saturates
	// at NoDeadline rather than wrapping.
	NoDeadline Time = math.MaxInt64
)

// epoch anchors the monotonic clock. time.Since(epoch) uses the monotonic
// reading carried by epoch, so wall clock steps do not affect Now.
var epoch = time.Now()

// Now returns the current monotonic time.
func Now() Time {
	return Time(time.Since(epoch))
}

// Add returns a+b, saturating at NoDeadline and at math.MinInt64.
func Add(a, b Time) Time {
	if a == NoDeadline || b == NoDeadline {
		return NoDeadline
	}
	s := a + b
	switch {
	case a > 0 && b > 0 && s < 0:
		return NoDeadline
	case a < 0 && b < 0 && s >= 0:
		return math.MinInt64
	}
	return s
}

// Sub returns a-b. Subtracting anything from NoDeadline yields NoDeadline.
func Sub(a, b Time) Time {
	if a == NoDeadline {
		return NoDeadline
	}
	if b == math.MinInt64 {
		// -b is not representable.
		return NoDeadline
	}
	return Add(a, -b)
}

// Cmp returns -1, 0 or +1 as a is less than, equal to, or greater than b.
func Cmp(a, b Time) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// FromSecsNanos returns the duration of secs seconds plus nanos nanoseconds.
func FromSecsNanos(secs int64, nanos uint32) Time {
	switch {
	case secs > math.MaxInt64/int64(time.Second):
		return NoDeadline
	case secs < math.MinInt64/int64(time.Second):
		return math.MinInt64
	}
	return Add(Time(secs*int64(time.Second)), Time(nanos))
}

// FromStd converts a time.Duration.
func FromStd(d time.Duration) Time {
	if d == math.MaxInt64 {
		return NoDeadline
	}
	return Time(d)
}

// ToStd converts t, interpreted as a duration, to a time.Duration.
func ToStd(t Time) time.Duration {
	return time.Duration(t)
}

// Wall returns the wall-clock time corresponding to monotonic time t.
// NoDeadline maps to the zero time.Time.
func Wall(t Time) time.Time {
	if t == NoDeadline {
		return time.Time{}
	}
	return epoch.Add(time.Duration(t))
}

// Until returns the duration from now until t, which may be negative.
func Until(t Time) time.Duration {
	return time.Duration(Sub(t, Now()))
}

// Sleep blocks for at least d.
func Sleep(d Time) {
	if d <= 0 {
		return
	}
	if d == NoDeadline {
		select {}
	}
	time.Sleep(time.Duration(d))
}

// SleepUntil blocks until the deadline and returns the time it woke up.
func SleepUntil(deadline Time) Time {
	Sleep(Sub(deadline, Now()))
	return Now()
}

// deadlineTimer returns a channel that fires at deadline and a func that
// releases the timer. NoDeadline returns a nil channel, which never fires.
func deadlineTimer(deadline Time) (<-chan time.Time, func()) {
	if deadline == NoDeadline {
		return nil, func() {}
	}
	t := time.NewTimer(Until(deadline))
	return t.C, func() { t.Stop() }
}
