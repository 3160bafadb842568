// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"
	"nsync.dev/tstest"
)

// panicWhileLocked locks m, sets the value to v and panics with the
// guard's Unlock deferred.
func panicWhileLocked(m *Mutex[int], v int) (recovered any) {
	defer func() { recovered = recover() }()
	g, _ := m.Lock()
	defer g.Unlock()
	*g.Value() = v
	panic("boom")
}

func TestMutexExclusion(t *testing.T) {
	tstest.ResourceCheck(t)
	m := NewMutex(0)
	var inside atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 500 {
				g, err := m.Lock()
				if err != nil {
					t.Errorf("Lock: %v", err)
					return
				}
				if inside.Add(1) != 1 {
					t.Error("two live guards")
				}
				*g.Value()++
				inside.Add(-1)
				g.Unlock()
			}
		})
	}
	wg.Wait()
	v, err := m.IntoInner()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, v, qt.Equals, 4000)
}

func TestMutexTryLock(t *testing.T) {
	c := qt.New(t)
	m := NewMutex("x")

	g, err := m.TryLock()
	c.Assert(err, qt.IsNil)
	g2, err := m.TryLock()
	c.Check(g2, qt.IsNil)
	c.Check(err, qt.ErrorIs, ErrWouldBlock)
	c.Check(errors.Is(err, ErrPoisoned), qt.IsFalse)
	c.Check(EventCount("mutex", "would_block") > 0, qt.IsTrue)
	m.AssertLocked()
	g.Unlock()

	g, err = m.TryLock()
	c.Assert(err, qt.IsNil)
	c.Check(*g.Value(), qt.Equals, "x")
	c.Check(g.Mutex(), qt.Equals, m)
	g.Unlock()
}

func TestMutexPoisonOnPanic(t *testing.T) {
	c := qt.New(t)
	m := NewMutex(0)

	c.Check(panicWhileLocked(m, 7), qt.Equals, "boom")
	c.Check(m.IsPoisoned(), qt.IsTrue)

	g, err := m.Lock()
	c.Assert(g, qt.IsNotNil)
	c.Check(err, qt.ErrorIs, ErrPoisoned)
	var pe *PoisonError[*MutexGuard[int]]
	c.Assert(errors.As(err, &pe), qt.IsTrue)
	c.Check(pe.Into(), qt.Equals, g)
	c.Check(pe.Get(), qt.Equals, g)
	c.Check(*g.Value(), qt.Equals, 7) // the data is not hidden
	g.Unlock()

	// Poisoning is sticky and a second poisoning changes nothing.
	before := EventCount("mutex", "poisoned")
	c.Check(panicWhileLocked(m, 8), qt.Equals, "boom")
	c.Check(EventCount("mutex", "poisoned"), qt.Equals, before)
	c.Check(m.IsPoisoned(), qt.IsTrue)
	g, err = m.Lock()
	c.Check(err, qt.ErrorIs, ErrPoisoned)
	c.Check(*g.Value(), qt.Equals, 8)
	g.Unlock()

	p, err := m.GetMut()
	c.Check(err, qt.ErrorIs, ErrPoisoned)
	c.Check(*p, qt.Equals, 8)
}

func TestMutexNoPoisonWithoutPanic(t *testing.T) {
	m := NewMutex(0)
	func() {
		g, _ := m.Lock()
		defer g.Unlock()
		*g.Value() = 1
	}()
	qt.Assert(t, m.IsPoisoned(), qt.IsFalse)
}

func TestMutexExplicitPoison(t *testing.T) {
	c := qt.New(t)
	m := NewMutex([]int{1, 2})
	g, _ := m.Lock()
	g.Poison()
	g.Poison()
	c.Check(m.IsPoisoned(), qt.IsTrue) // visible while still held
	g.Unlock()

	v, err := m.IntoInner()
	c.Check(err, qt.ErrorIs, ErrPoisoned)
	c.Check(v, qt.DeepEquals, []int{1, 2})
	var pe *PoisonError[[]int]
	c.Assert(errors.As(err, &pe), qt.IsTrue)
	c.Check(pe.Into(), qt.DeepEquals, []int{1, 2})
}

func TestMutexWithLock(t *testing.T) {
	c := qt.New(t)
	m := NewMutex(0)

	err := m.WithLock(func(v *int) { *v = 3 })
	c.Check(err, qt.IsNil)
	c.Check(m.IsPoisoned(), qt.IsFalse)

	c.Check(func() {
		m.WithLock(func(v *int) { panic("in callback") })
	}, qt.PanicMatches, "in callback")
	c.Check(m.IsPoisoned(), qt.IsTrue)

	ran := false
	err = m.WithLock(func(v *int) { ran = *v == 3 })
	c.Check(err, qt.ErrorIs, ErrPoisoned)
	c.Check(ran, qt.IsTrue)
}

func TestMutexWithLockGoexit(t *testing.T) {
	m := NewMutex(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.WithLock(func(*int) { runtime.Goexit() })
	}()
	<-done
	qt.Assert(t, m.IsPoisoned(), qt.IsTrue)
	g, err := m.TryLock()
	qt.Assert(t, errors.Is(err, ErrPoisoned), qt.IsTrue)
	g.Unlock()
}

func TestMutexGuardMisuse(t *testing.T) {
	c := qt.New(t)
	m := NewMutex(0)
	g, _ := m.Lock()
	g.Unlock()
	c.Check(g.Unlock, qt.PanicMatches, "syncs: unlock of released mutex guard")
	c.Check(func() { g.Value() }, qt.PanicMatches, "syncs: use of released mutex guard")
	c.Check(g.Poison, qt.PanicMatches, "syncs: use of released mutex guard")
	c.Check(m.IsPoisoned(), qt.IsFalse)
	c.Check(m.AssertLocked, qt.PanicMatches, "syncs: mutex is not locked")
}

func TestMutexUncontendedAccess(t *testing.T) {
	c := qt.New(t)
	m := NewMutex(1)

	p, err := m.GetMut()
	c.Assert(err, qt.IsNil)
	*p = 2

	g, _ := m.Lock()
	c.Check(func() { m.GetMut() }, qt.PanicMatches, `syncs: mutex.GetMut called while the lock is held`)
	c.Check(func() { m.IntoInner() }, qt.PanicMatches, `syncs: mutex.IntoInner called while the lock is held`)
	g.Unlock()

	v, err := m.IntoInner()
	c.Check(err, qt.IsNil)
	c.Check(v, qt.Equals, 2)
	c.Check(func() { m.Lock() }, qt.PanicMatches, "syncs: use of mutex after IntoInner")
}

func TestMutexZeroValue(t *testing.T) {
	var m Mutex[int]
	qt.Assert(t, func() { m.Lock() }, qt.PanicMatches, "syncs: lock used without NewMutex or NewRWMutex")
}

func TestMutexLockAllocs(t *testing.T) {
	m := NewMutex(0)
	err := tstest.MinAllocsPerRun(t, 1, func() {
		g, _ := m.Lock()
		*g.Value()++
		g.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
}

func BenchmarkMutexLock(b *testing.B) {
	m := NewMutex(0)
	for b.Loop() {
		g, _ := m.Lock()
		*g.Value()++
		g.Unlock()
	}
}

func BenchmarkMutexLockParallel(b *testing.B) {
	m := NewMutex(0)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.WithLock(func(v *int) { *v++ })
		}
	})
}
