// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"errors"
	"log"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestReplace(t *testing.T) {
	before := "before"
	done := false
	t.Run("replace", func(t *testing.T) {
		Replace(t, &before, "after")
		if before != "after" {
			t.Errorf("before = %q; want %q", before, "after")
		}
		done = true
	})
	if !done {
		t.Fatal("subtest didn't run")
	}
	if before != "before" {
		t.Errorf("before = %q; want %q", before, "before")
	}
}

func TestGetSeed(t *testing.T) {
	t.Setenv("NSYNC_TEST_SEED", "1234")
	if got, want := GetSeed(t), int64(1234); got != want {
		t.Errorf("GetSeed = %v; want %v", got, want)
	}
}

func TestWaitFor(t *testing.T) {
	c := qt.New(t)

	n := 0
	err := WaitFor(time.Second, func() error {
		n++
		if n < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	c.Check(err, qt.IsNil)
	c.Check(n, qt.Equals, 3)

	err = WaitFor(30*time.Millisecond, func() error { return errors.New("never") })
	c.Check(err, qt.ErrorMatches, "never")
}

func TestLogLineCollector(t *testing.T) {
	lc := NewLogLineCollector(t)
	logf := lc.Logger()
	logf("hello %d", 1)
	logf("bye\n")
	qt.Assert(t, lc.Lines(), qt.DeepEquals, []string{"hello 1", "bye"})
}

func TestFixLogs(t *testing.T) {
	before := log.Flags()
	t.Run("fixed", func(t *testing.T) {
		FixLogs(t)
		log.Printf("routed through t.Logf")
	})
	if got := log.Flags(); got != before {
		t.Errorf("log flags = %v after test; want %v", got, before)
	}
}

var sink []byte

func TestMinAllocsPerRun(t *testing.T) {
	if err := MinAllocsPerRun(t, 0, func() {}); err != nil {
		t.Error(err)
	}
	err := MinAllocsPerRun(t, 0, func() { sink = make([]byte, 1<<10) })
	if err == nil {
		t.Error("allocating func passed a zero-alloc budget")
	}
}
