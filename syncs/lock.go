// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"fmt"
	"sync/atomic"

	"nsync.dev/internal/rt"
)

// lockCore is the state shared by Mutex and RWMutex: the runtime lock
// record and the poison flag.
type lockCore struct {
	mu       rt.Mu
	kind     string // "mutex" or "rwmutex"
	inited   bool   // immutable after init
	poisoned atomic.Bool
	consumed atomic.Bool // set by IntoInner
}

func (c *lockCore) init(kind string) {
	c.mu.Init()
	c.kind = kind
	c.inited = true
}

// check panics if the lock was not built by its constructor or has been
// consumed by IntoInner.
func (c *lockCore) check() {
	if !c.inited {
		panic("syncs: lock used without NewMutex or NewRWMutex")
	}
	if c.consumed.Load() {
		panic(fmt.Sprintf("syncs: use of %s after IntoInner", c.kind))
	}
}

// checkUnheld panics unless c is usable and not held by anybody.
func (c *lockCore) checkUnheld(op string) {
	c.check()
	if c.mu.Held() {
		panic(fmt.Sprintf("syncs: %s.%s called while the lock is held", c.kind, op))
	}
}

// poison sets the poison flag. Poisoning an already poisoned lock has no
// further effect.
func (c *lockCore) poison(why any) {
	if c.poisoned.CompareAndSwap(false, true) {
		event(c.kind, "poisoned")
		poisonf("%s %p poisoned: %v", c.kind, c, why)
	}
}

// acquired is called after every successful acquisition and reports
// whether the lock is poisoned.
func (c *lockCore) acquired() bool {
	if c.poisoned.Load() {
		event(c.kind, "acquire_poisoned")
		return true
	}
	return false
}

func (c *lockCore) wouldBlock() {
	event(c.kind, "would_block")
}

func (c *lockCore) assertHeld() {
	c.check()
	if !c.mu.Held() {
		panic(fmt.Sprintf("syncs: %s is not locked", c.kind))
	}
}

type guardMode uint8

const (
	exclusive guardMode = iota
	shared
)

// guard is the non-generic part of every guard type. Keeping Unlock on a
// non-generic type lets recover see the panic when a caller writes
// "defer g.Unlock()".
type guard struct {
	c        *lockCore
	mode     guardMode
	released bool
}

// Unlock releases the lock. Every guard must be unlocked exactly once.
//
// When called directly by a deferred call while a panic is unwinding
// ("defer g.Unlock()"), Unlock of an exclusive guard poisons the lock,
// releases it and continues the panic with the same value. Shared guards
// never poison.
func (g *guard) Unlock() {
	if g.mode == shared {
		g.release()
		return
	}
	if r := recover(); r != nil {
		g.live()
		g.c.poison(r)
		g.release()
		panic(r)
	}
	g.release()
}

func (g *guard) live() {
	if g.released {
		panic(fmt.Sprintf("syncs: use of released %s guard", g.c.kind))
	}
}

func (g *guard) release() {
	if g.released {
		panic(fmt.Sprintf("syncs: unlock of released %s guard", g.c.kind))
	}
	g.released = true
	if g.mode == shared {
		g.c.mu.RUnlock()
	} else {
		g.c.mu.Unlock()
	}
}

// detach marks g released without unlocking, handing the held lock to a
// condition wait.
func (g *guard) detach() {
	g.live()
	g.released = true
}

// run calls fn and then releases g. If fn panics or exits the goroutine,
// an exclusive g poisons the lock first.
func (g *guard) run(fn func()) {
	normal := false
	defer func() {
		if !normal && g.mode == exclusive {
			g.c.poison("abnormal exit from locked callback")
		}
		g.release()
	}()
	fn()
	normal = true
}
