// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
	"nsync.dev/syncs"
)

// locked is a value of type T behind some lock implementation.
type locked[T any] interface {
	// with calls fn with the value while holding the lock.
	with(fn func(*T)) error
}

// impl is a named lock implementation under test.
type impl[T any] struct {
	name string
	new  func(T) locked[T]
}

// impls returns the lock implementations compared by every benchmark, in
// report order.
func impls[T any]() []impl[T] {
	return []impl[T]{
		{"sync.Mutex", func(v T) locked[T] { return &stdLocked[T]{v: v} }},
		{"syncs.Mutex", func(v T) locked[T] { return syncsLocked[T]{syncs.NewMutex(v)} }},
		{"spinlock", func(v T) locked[T] { return &spinLocked[T]{v: v} }},
	}
}

type syncsLocked[T any] struct {
	m *syncs.Mutex[T]
}

func (l syncsLocked[T]) with(fn func(*T)) error {
	g, err := l.m.Lock()
	defer g.Unlock()
	fn(g.Value())
	return err
}

type stdLocked[T any] struct {
	mu sync.Mutex
	v  T
}

func (l *stdLocked[T]) with(fn func(*T)) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.v)
	return nil
}

type spinLocked[T any] struct {
	l spinLock
	v T
}

func (l *spinLocked[T]) with(fn func(*T)) error {
	l.l.Lock()
	defer l.l.Unlock()
	fn(&l.v)
	return nil
}

// spinLock is a test-and-test-and-set lock. The flag sits on its own cache
// line so that spinning readers do not share it with the protected value.
type spinLock struct {
	_      cpu.CacheLinePad
	locked atomic.Bool
	_      cpu.CacheLinePad
}

func (l *spinLock) Lock() {
	for !l.locked.CompareAndSwap(false, true) {
		for l.locked.Load() {
			runtime.Gosched()
		}
	}
}

func (l *spinLock) Unlock() {
	l.locked.Store(false)
}
