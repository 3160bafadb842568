// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"time"

	"nsync.dev/internal/rt"
	"nsync.dev/nstime"
)

// Cond is a condition variable used with a Mutex.
//
// Go methods cannot have type parameters, so waiting is done with the
// package-level Wait, WaitTimeout and WaitUntil functions.
type Cond struct {
	_  noCopy
	cv rt.CV
}

// NewCond returns a Cond with no waiters.
func NewCond() *Cond {
	c := new(Cond)
	c.cv.Init()
	return c
}

// WaitResult says why a WaitUntil returned.
type WaitResult int

const (
	Woken     WaitResult = iota // Signal or Broadcast
	TimedOut                    // the deadline passed
	Cancelled                   // the cancel Note was notified or expired
)

func (r WaitResult) String() string {
	switch r {
	case Woken:
		return "woken"
	case TimedOut:
		return "timed-out"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// Signal wakes at most one waiter. It is a no-op when nobody waits.
func (c *Cond) Signal() { c.cv.Signal() }

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() { c.cv.Broadcast() }

// Wait atomically releases the mutex held by g and blocks until c is
// signalled, then reacquires the same mutex and returns a new guard for
// it. g is dead after the call. The error follows the rules of Lock.
//
// As with any condition variable, callers should re-check their predicate
// in a loop.
func Wait[T any](c *Cond, g *MutexGuard[T]) (*MutexGuard[T], error) {
	ng, _, err := wait(c, g, rt.NoDeadline, nil)
	return ng, err
}

// WaitTimeout is like Wait but gives up after d. timedOut reports whether
// it returned because d elapsed without a wakeup. Either way the returned
// guard holds the mutex.
func WaitTimeout[T any](c *Cond, g *MutexGuard[T], d time.Duration) (_ *MutexGuard[T], timedOut bool, _ error) {
	ng, res, err := wait(c, g, nstime.Deadline(d).Raw(), nil)
	return ng, res == TimedOut, err
}

// WaitUntil is like Wait but returns at deadline, or once cancel is
// notified or expires. cancel may be nil.
func WaitUntil[T any](c *Cond, g *MutexGuard[T], deadline nstime.Time, cancel *Note) (*MutexGuard[T], WaitResult, error) {
	var rec *rt.Note
	if cancel != nil {
		rec = cancel.rec()
	}
	return wait(c, g, deadline.Raw(), rec)
}

func wait[T any](c *Cond, g *MutexGuard[T], deadline rt.Time, cancel *rt.Note) (*MutexGuard[T], WaitResult, error) {
	m := g.m
	g.detach()
	var res WaitResult
	switch c.cv.Wait(&m.core.mu, deadline, cancel) {
	case rt.TimedOut:
		res = TimedOut
		event("cond", "timeout")
	case rt.Cancelled:
		res = Cancelled
		event("cond", "cancelled")
	}
	ng, err := m.newGuard()
	return ng, res, err
}
