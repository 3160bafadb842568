// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

// Mutex is a mutual exclusion lock protecting a value of type T.
//
// A Mutex must be created with NewMutex and must not be copied.
type Mutex[T any] struct {
	_    noCopy
	core lockCore
	data T
}

// NewMutex returns a new unlocked, unpoisoned Mutex holding v.
func NewMutex[T any](v T) *Mutex[T] {
	m := &Mutex[T]{data: v}
	m.core.init("mutex")
	return m
}

// MutexGuard is proof that its Mutex is held. It is valid until Unlock.
type MutexGuard[T any] struct {
	guard
	m *Mutex[T]
}

func (m *Mutex[T]) newGuard() (*MutexGuard[T], error) {
	g := &MutexGuard[T]{guard: guard{c: &m.core, mode: exclusive}, m: m}
	if m.core.acquired() {
		return g, &PoisonError[*MutexGuard[T]]{g}
	}
	return g, nil
}

// Lock blocks until m is acquired and returns its guard. If m is
// poisoned, the guard is also returned inside a *PoisonError.
func (m *Mutex[T]) Lock() (*MutexGuard[T], error) {
	m.core.check()
	m.core.mu.Lock()
	return m.newGuard()
}

// TryLock acquires m only if it is free. Otherwise it returns
// (nil, ErrWouldBlock).
func (m *Mutex[T]) TryLock() (*MutexGuard[T], error) {
	m.core.check()
	if !m.core.mu.TryLock() {
		m.core.wouldBlock()
		return nil, ErrWouldBlock
	}
	return m.newGuard()
}

// WithLock calls fn with the protected value while holding m. If fn panics
// or calls runtime.Goexit, m is poisoned before it is released.
//
// fn is called even if m is already poisoned; in that case WithLock
// returns an error matching ErrPoisoned.
func (m *Mutex[T]) WithLock(fn func(*T)) error {
	g, err := m.Lock()
	g.run(func() { fn(&m.data) })
	if err != nil {
		return ErrPoisoned
	}
	return nil
}

// IsPoisoned reports whether m has been poisoned.
func (m *Mutex[T]) IsPoisoned() bool {
	m.core.check()
	return m.core.poisoned.Load()
}

// AssertLocked panics if m is not held by anybody.
func (m *Mutex[T]) AssertLocked() {
	m.core.assertHeld()
}

// GetMut returns a pointer to the protected value without locking. The
// caller must know that nothing else can reach m; GetMut panics if m is
// currently held.
func (m *Mutex[T]) GetMut() (*T, error) {
	m.core.checkUnheld("GetMut")
	if m.core.poisoned.Load() {
		return &m.data, &PoisonError[*T]{&m.data}
	}
	return &m.data, nil
}

// IntoInner consumes m and returns the protected value. Any later use of m
// panics. Like GetMut, it panics if m is currently held.
func (m *Mutex[T]) IntoInner() (T, error) {
	m.core.checkUnheld("IntoInner")
	m.core.consumed.Store(true)
	v := m.data
	var zero T
	m.data = zero
	if m.core.poisoned.Load() {
		return v, &PoisonError[T]{v}
	}
	return v, nil
}

// Value returns the protected value. It panics after Unlock.
func (g *MutexGuard[T]) Value() *T {
	g.live()
	return &g.m.data
}

// Poison marks the mutex poisoned without releasing it. Use it on error
// paths that leave the value inconsistent.
func (g *MutexGuard[T]) Poison() {
	g.live()
	g.c.poison("explicit Poison")
}

// Mutex returns the mutex that g guards.
func (g *MutexGuard[T]) Mutex() *Mutex[T] { return g.m }
