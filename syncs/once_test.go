// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"sync"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestOnceConcurrent(t *testing.T) {
	var o Once
	var calls atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			<-start
			o.Do(func() { calls.Add(1) })
			if !o.IsCompleted() {
				t.Error("Do returned before completion")
			}
		})
	}
	qt.Assert(t, o.IsCompleted(), qt.IsFalse)
	close(start)
	wg.Wait()
	qt.Assert(t, calls.Load(), qt.Equals, int32(1))
}

func TestOncePanic(t *testing.T) {
	c := qt.New(t)
	var o Once
	before := EventCount("once", "panicked")

	c.Check(func() { o.Do(func() { panic("init failed") }) }, qt.PanicMatches, "init failed")
	c.Check(o.IsCompleted(), qt.IsTrue)
	c.Check(EventCount("once", "panicked"), qt.Equals, before+1)

	ran := false
	o.Do(func() { ran = true })
	c.Check(ran, qt.IsFalse)
}
