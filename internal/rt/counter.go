// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"fmt"
	"math"
	"sync"
)

// Counter is a countdown record holding an unsigned value. Waiters block
// until the value is zero.
type Counter struct {
	mu    sync.Mutex
	value uint32
	zero  chan struct{} // closed while value == 0
}

// NewCounter allocates a counter with the given initial value.
func NewCounter(initial uint32) *Counter {
	c := &Counter{value: initial, zero: make(chan struct{})}
	if initial == 0 {
		close(c.zero)
	}
	return c
}

// Add adds delta to the counter and returns the new value. It panics if the
// result would be negative or would overflow a uint32.
func (c *Counter) Add(delta int32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	nv := int64(c.value) + int64(delta)
	if nv < 0 || nv > math.MaxUint32 {
		panic(fmt.Sprintf("rt: counter value %d%+d out of range", c.value, delta))
	}
	was := c.value
	c.value = uint32(nv)
	switch {
	case was != 0 && nv == 0:
		close(c.zero)
	case was == 0 && nv != 0:
		c.zero = make(chan struct{})
	}
	return c.value
}

// Value returns the current value.
func (c *Counter) Value() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Done returns a channel that is closed while the value is zero. A channel
// obtained before the counter went back above zero stays closed.
func (c *Counter) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zero
}

// Wait blocks until the value reaches zero or deadline passes. It returns 0
// if the count reached zero, or the value observed at the deadline.
func (c *Counter) Wait(deadline Time) uint32 {
	c.mu.Lock()
	zero, v := c.zero, c.value
	c.mu.Unlock()
	if v == 0 {
		return 0
	}
	if Cmp(deadline, Now()) <= 0 {
		return v
	}
	timer, stop := deadlineTimer(deadline)
	defer stop()
	select {
	case <-zero:
		return 0
	case <-timer:
		return c.Value()
	}
}

// Free releases c. It exists for symmetry with NewCounter; the record holds
// no resources beyond memory.
func (c *Counter) Free() {}
