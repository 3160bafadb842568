// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"nsync.dev/nstime"
)

func TestNoteNotify(t *testing.T) {
	c := qt.New(t)
	n := NewNote(nil, nstime.NoDeadline())
	defer n.Close()

	// A deadline in the past returns at once.
	start := time.Now()
	c.Check(n.Wait(nstime.Now()), qt.IsFalse)
	c.Check(time.Since(start) < time.Second, qt.IsTrue)

	go func() {
		time.Sleep(10 * time.Millisecond)
		n.Notify()
		n.Notify()
	}()
	c.Check(n.Wait(nstime.NoDeadline()), qt.IsTrue)
	c.Check(n.IsNotified(), qt.IsTrue)
	c.Check(n.Err(), qt.Equals, context.Canceled)
}

func TestNoteHierarchy(t *testing.T) {
	c := qt.New(t)
	root := NewNote(nil, nstime.NoDeadline())
	defer root.Close()
	child := NewNote(root, nstime.NoDeadline())
	defer child.Close()
	grandchild := NewNote(child, nstime.NoDeadline())
	defer grandchild.Close()

	c.Check(grandchild.Parent(), qt.Equals, child)
	child.Notify()
	c.Check(grandchild.IsNotified(), qt.IsTrue)
	c.Check(root.IsNotified(), qt.IsFalse)

	late := NewNote(child, nstime.NoDeadline())
	defer late.Close()
	c.Check(late.IsNotified(), qt.IsTrue)
}

func TestNoteCloseAdoptsChildren(t *testing.T) {
	c := qt.New(t)
	root := NewNote(nil, nstime.NoDeadline())
	defer root.Close()
	mid := NewNote(root, nstime.NoDeadline())
	leaf := NewNote(mid, nstime.NoDeadline())
	defer leaf.Close()

	mid.Close()
	mid.Close()
	c.Check(mid.Notify, qt.PanicMatches, "syncs: use of closed Note")
	root.Notify()
	c.Check(leaf.IsNotified(), qt.IsTrue)
}

func TestNoteExpiry(t *testing.T) {
	c := qt.New(t)
	parent := NewNote(nil, nstime.Deadline(20*time.Millisecond))
	defer parent.Close()
	child := NewNote(parent, nstime.Deadline(time.Hour))
	defer child.Close()

	c.Check(child.Expiry().Equal(parent.Expiry()), qt.IsTrue)
	dl, ok := child.Deadline()
	c.Check(ok, qt.IsTrue)
	c.Check(time.Until(dl) <= 20*time.Millisecond, qt.IsTrue)

	c.Check(child.Wait(nstime.NoDeadline()), qt.IsFalse)
	c.Check(child.Expired(), qt.IsTrue)
	c.Check(child.IsNotified(), qt.IsFalse)
	c.Check(child.Err(), qt.Equals, context.DeadlineExceeded)
}

func TestNoteAsContext(t *testing.T) {
	c := qt.New(t)
	n := NewNote(nil, nstime.NoDeadline())
	defer n.Close()
	_, ok := n.Deadline()
	c.Check(ok, qt.IsFalse)
	c.Check(n.Err(), qt.IsNil)
	c.Check(n.Value("k"), qt.IsNil)

	ctx, cancel := context.WithCancel(n)
	defer cancel()
	n.Notify()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		c.Fatal("derived context not cancelled")
	}
	c.Check(ctx.Err(), qt.Equals, context.Canceled)
}

// collectGarbage runs the garbage collector in a loop until the test ends.
func collectGarbage(t *testing.T) {
	var stop atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		for !stop.Load() {
			runtime.GC()
			time.Sleep(time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		stop.Store(true)
		<-done
	})
}

func TestNoteWaitSurvivesGC(t *testing.T) {
	collectGarbage(t)

	t.Run("expiry", func(t *testing.T) {
		start := time.Now()
		notified := NewNote(nil, nstime.Deadline(50*time.Millisecond)).Wait(nstime.Deadline(2 * time.Second))
		if notified {
			t.Error("Wait = true for an expired note")
		}
		if d := time.Since(start); d > time.Second {
			t.Errorf("Wait took %v; want about 50ms", d)
		}
	})

	t.Run("parent-notify", func(t *testing.T) {
		parent := NewNote(nil, nstime.NoDeadline())
		defer parent.Close()
		go func() {
			time.Sleep(100 * time.Millisecond)
			parent.Notify()
		}()
		if !NewNote(parent, nstime.NoDeadline()).Wait(nstime.Deadline(2 * time.Second)) {
			t.Error("child missed its parent's notification")
		}
	})

	t.Run("cond-cancel", func(t *testing.T) {
		m := NewMutex(0)
		cv := NewCond()
		g, _ := m.Lock()
		start := time.Now()
		g, res, err := WaitUntil(cv, g, nstime.Deadline(2*time.Second), NewNote(nil, nstime.Deadline(50*time.Millisecond)))
		g.Unlock()
		if err != nil {
			t.Fatal(err)
		}
		if res != Cancelled {
			t.Errorf("WaitUntil = %v; want %v", res, Cancelled)
		}
		if d := time.Since(start); d > time.Second {
			t.Errorf("WaitUntil took %v; want about 50ms", d)
		}
	})
}
