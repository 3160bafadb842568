// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

// RWMutex is a reader/writer lock protecting a value of type T. It may be
// held by any number of readers or by a single writer.
//
// An RWMutex must be created with NewRWMutex and must not be copied.
type RWMutex[T any] struct {
	_    noCopy
	core lockCore
	data T
}

// NewRWMutex returns a new unlocked, unpoisoned RWMutex holding v.
func NewRWMutex[T any](v T) *RWMutex[T] {
	m := &RWMutex[T]{data: v}
	m.core.init("rwmutex")
	return m
}

// RWMutexReadGuard is proof of shared ownership of its RWMutex.
// Releasing it never poisons the lock.
type RWMutexReadGuard[T any] struct {
	guard
	m *RWMutex[T]
}

// RWMutexWriteGuard is proof of exclusive ownership of its RWMutex.
type RWMutexWriteGuard[T any] struct {
	guard
	m *RWMutex[T]
}

func (m *RWMutex[T]) newReadGuard() (*RWMutexReadGuard[T], error) {
	g := &RWMutexReadGuard[T]{guard: guard{c: &m.core, mode: shared}, m: m}
	if m.core.acquired() {
		return g, &PoisonError[*RWMutexReadGuard[T]]{g}
	}
	return g, nil
}

func (m *RWMutex[T]) newWriteGuard() (*RWMutexWriteGuard[T], error) {
	g := &RWMutexWriteGuard[T]{guard: guard{c: &m.core, mode: exclusive}, m: m}
	if m.core.acquired() {
		return g, &PoisonError[*RWMutexWriteGuard[T]]{g}
	}
	return g, nil
}

// RLock blocks until m is held for reading.
func (m *RWMutex[T]) RLock() (*RWMutexReadGuard[T], error) {
	m.core.check()
	m.core.mu.RLock()
	return m.newReadGuard()
}

// TryRLock acquires m for reading only if no writer holds it.
func (m *RWMutex[T]) TryRLock() (*RWMutexReadGuard[T], error) {
	m.core.check()
	if !m.core.mu.TryRLock() {
		m.core.wouldBlock()
		return nil, ErrWouldBlock
	}
	return m.newReadGuard()
}

// Lock blocks until m is held for writing.
func (m *RWMutex[T]) Lock() (*RWMutexWriteGuard[T], error) {
	m.core.check()
	m.core.mu.Lock()
	return m.newWriteGuard()
}

// TryLock acquires m for writing only if it is free.
func (m *RWMutex[T]) TryLock() (*RWMutexWriteGuard[T], error) {
	m.core.check()
	if !m.core.mu.TryLock() {
		m.core.wouldBlock()
		return nil, ErrWouldBlock
	}
	return m.newWriteGuard()
}

// WithRLock calls fn with the protected value while holding m for reading.
// fn must not modify the value. WithRLock never poisons m.
func (m *RWMutex[T]) WithRLock(fn func(*T)) error {
	g, err := m.RLock()
	g.run(func() { fn(&m.data) })
	if err != nil {
		return ErrPoisoned
	}
	return nil
}

// WithLock calls fn with the protected value while holding m for writing.
// If fn panics or calls runtime.Goexit, m is poisoned before it is
// released.
func (m *RWMutex[T]) WithLock(fn func(*T)) error {
	g, err := m.Lock()
	g.run(func() { fn(&m.data) })
	if err != nil {
		return ErrPoisoned
	}
	return nil
}

// IsPoisoned reports whether m has been poisoned.
func (m *RWMutex[T]) IsPoisoned() bool {
	m.core.check()
	return m.core.poisoned.Load()
}

// AssertLocked panics if m is held neither for reading nor for writing.
func (m *RWMutex[T]) AssertLocked() {
	m.core.assertHeld()
}

// GetMut returns a pointer to the protected value without locking. It
// panics if m is currently held.
func (m *RWMutex[T]) GetMut() (*T, error) {
	m.core.checkUnheld("GetMut")
	if m.core.poisoned.Load() {
		return &m.data, &PoisonError[*T]{&m.data}
	}
	return &m.data, nil
}

// IntoInner consumes m and returns the protected value. It panics if m is
// currently held.
func (m *RWMutex[T]) IntoInner() (T, error) {
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

// Value returns the protected value for reading. It panics after Unlock.
func (g *RWMutexReadGuard[T]) Value() *T {
	g.live()
	return &g.m.data
}

// Value returns the protected value. It panics after Unlock.
func (g *RWMutexWriteGuard[T]) Value() *T {
	g.live()
	return &g.m.data
}

// Poison marks the lock poisoned without releasing it.
func (g *RWMutexWriteGuard[T]) Poison() {
	g.live()
	g.c.poison("explicit Poison")
}
