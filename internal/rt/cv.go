// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"container/list"
	"sync"
)

// WaitStatus is the outcome of a blocking wait.
type WaitStatus int

const (
	// OK means the waiter was woken by a signal or broadcast.
	OK WaitStatus = iota
	// TimedOut means the deadline passed first.
	TimedOut
	// Cancelled means the cancellation note was notified or expired first.
	Cancelled
)

func (s WaitStatus) String() string {
	switch s {
	case OK:
		return "ok"
	case TimedOut:
		return "timed-out"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// CV is a condition variable record. Waiters queue in FIFO order; Signal
// wakes the oldest one.
type CV struct {
	mu      sync.Mutex
	waiters list.List // of chan struct{}
}

// Init initializes cv in place.
func (cv *CV) Init() {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.waiters.Init()
}

// Wait atomically releases mu (which must be held exclusively), blocks until
// woken, until deadline, or until cancel is done, then reacquires mu before
// returning. cancel may be nil.
//
// The waiter is queued before mu is released, so a Signal issued by a
// goroutine that acquires mu after this call started is never lost.
func (cv *CV) Wait(mu *Mu, deadline Time, cancel *Note) WaitStatus {
	ch := make(chan struct{})
	cv.mu.Lock()
	e := cv.waiters.PushBack(ch)
	cv.mu.Unlock()

	mu.Unlock()
	defer mu.Lock()

	timer, stop := deadlineTimer(deadline)
	defer stop()
	var done <-chan struct{}
	if cancel != nil {
		done = cancel.Done()
	}

	select {
	case <-ch:
		return OK
	case <-timer:
		return cv.abandon(e, TimedOut)
	case <-done:
		return cv.abandon(e, Cancelled)
	}
}

// abandon removes a waiter that gave up. If a signal raced with the give-up
// and already dequeued e, the wakeup is consumed and reported as OK.
func (cv *CV) abandon(e *list.Element, why WaitStatus) WaitStatus {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	if e.Value == nil {
		return OK
	}
	cv.waiters.Remove(e)
	e.Value = nil
	return why
}

// Signal wakes at most one waiter.
func (cv *CV) Signal() {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	if e := cv.waiters.Front(); e != nil {
		cv.wakeLocked(e)
	}
}

// Broadcast wakes every waiter.
func (cv *CV) Broadcast() {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	for e := cv.waiters.Front(); e != nil; e = cv.waiters.Front() {
		cv.wakeLocked(e)
	}
}

func (cv *CV) wakeLocked(e *list.Element) {
	close(e.Value.(chan struct{}))
	cv.waiters.Remove(e)
	e.Value = nil
}
