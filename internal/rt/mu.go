// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// writerWeight is the weight a writer acquires. Readers acquire 1, so up to
// writerWeight readers may hold the lock at once, or a single writer.
const writerWeight = 1 << 30

// Mu is a shared/exclusive lock record.
//
// It must be initialized with Init before use and must not be copied after
// that. Mu does no ownership tracking: any goroutine may unlock it, and
// unlocking an unheld Mu panics inside the semaphore.
type Mu struct {
	sem   *semaphore.Weighted
	holds atomic.Int32 // current holders, either one writer or any number of readers
}

// Init initializes mu in place.
func (mu *Mu) Init() {
	mu.sem = semaphore.NewWeighted(writerWeight)
}

// Lock acquires mu exclusively, blocking until it is available.
func (mu *Mu) Lock() {
	// Acquire with a background context only fails on a misconfigured weight.
	if err := mu.sem.Acquire(context.Background(), writerWeight); err != nil {
		panic(err)
	}
	mu.holds.Add(1)
}

// TryLock acquires mu exclusively if that is possible without blocking.
func (mu *Mu) TryLock() bool {
	if !mu.sem.TryAcquire(writerWeight) {
		return false
	}
	mu.holds.Add(1)
	return true
}

// LockContext acquires mu exclusively, giving up when ctx is done.
func (mu *Mu) LockContext(ctx context.Context) error {
	if err := mu.sem.Acquire(ctx, writerWeight); err != nil {
		return err
	}
	mu.holds.Add(1)
	return nil
}

// Unlock releases an exclusive hold.
func (mu *Mu) Unlock() {
	mu.holds.Add(-1)
	mu.sem.Release(writerWeight)
}

// RLock acquires mu in shared mode.
func (mu *Mu) RLock() {
	if err := mu.sem.Acquire(context.Background(), 1); err != nil {
		panic(err)
	}
	mu.holds.Add(1)
}

// TryRLock acquires mu in shared mode if that is possible without blocking.
func (mu *Mu) TryRLock() bool {
	if !mu.sem.TryAcquire(1) {
		return false
	}
	mu.holds.Add(1)
	return true
}

// RUnlock releases a shared hold.
func (mu *Mu) RUnlock() {
	mu.holds.Add(-1)
	mu.sem.Release(1)
}

// Held reports whether mu is held in either mode. It never touches the
// lock itself, so queued waiters do not affect the answer. The answer may be
// stale by the time it is returned; it is meant for assertions.
func (mu *Mu) Held() bool {
	return mu.holds.Load() > 0
}
