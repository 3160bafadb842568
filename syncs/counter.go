// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"sync/atomic"

	"nsync.dev/internal/rt"
	"nsync.dev/nstime"
)

// Counter is an unsigned count that goroutines can wait on to reach zero.
type Counter struct {
	r      *rt.Counter
	closed atomic.Bool
}

// NewCounter returns a Counter holding initial.
func NewCounter(initial uint32) *Counter {
	return &Counter{r: rt.NewCounter(initial)}
}

func (c *Counter) rec() *rt.Counter {
	if c.closed.Load() {
		panic("syncs: use of closed Counter")
	}
	return c.r
}

// Add adds delta to the count and returns the new value. Waiters are
// released when the value reaches zero. Add panics if the result would be
// negative or overflow a uint32.
func (c *Counter) Add(delta int32) uint32 {
	v := c.rec().Add(delta)
	if v == 0 && delta != 0 {
		event("counter", "zero")
	}
	return v
}

// Value returns the current count.
func (c *Counter) Value() uint32 { return c.rec().Value() }

// Wait blocks until the count is zero or deadline passes. It returns 0 in
// the first case and the (nonzero) count seen at the deadline otherwise.
func (c *Counter) Wait(deadline nstime.Time) uint32 {
	return c.rec().Wait(deadline.Raw())
}

// Done returns a channel that is closed while the count is zero. A later
// increment does not reopen a channel already returned.
func (c *Counter) Done() <-chan struct{} { return c.rec().Done() }

// Close releases c. Any later use panics; a second Close is a no-op.
func (c *Counter) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.r.Free()
	}
}
