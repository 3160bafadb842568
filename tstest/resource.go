// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"bytes"
	"runtime"
	"runtime/pprof"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"nsync.dev/nstime"
)

// settleTime bounds how long ResourceCheck waits for goroutines started by
// the test (timer callbacks, woken waiters) to exit.
const settleTime = 3 * time.Second

// ResourceCheck snapshots the running goroutines and registers a cleanup on
// tb that fails the test if more goroutines are running once the test and
// its other cleanups are done.
//
// It panics if called from a parallel test.
func ResourceCheck(tb testing.TB) {
	tb.Helper()

	// tb.Setenv panics in parallel tests, where goroutine counts are
	// meaningless.
	tb.Setenv("NSYNC_CHECKING_RESOURCES", "1")

	startN, startStacks := goroutines()
	tb.Cleanup(func() {
		if tb.Failed() {
			// Panics are not reported through Failed
			// (https://github.com/golang/go/issues/49929), so a failing
			// test here has already said what is wrong.
			return
		}
		if settled(startN, nstime.Deadline(settleTime)) {
			return
		}
		endN, endStacks := goroutines()
		if endN <= startN {
			return
		}
		tb.Logf("goroutine diff (-start +end):\n%v\n", cmp.Diff(string(startStacks), string(endStacks)))

		// Errorf rather than Fatalf so a concurrent panic still gets
		// reported.
		tb.Errorf("goroutine count: expected %d, got %d\n", startN, endN)
	})
}

// settled polls until at most n goroutines are running or deadline passes.
func settled(n int, deadline nstime.Time) bool {
	for {
		if runtime.NumGoroutine() <= n {
			return true
		}
		if nstime.Now().After(deadline) {
			return false
		}
		nstime.Sleep(nstime.FromMillis(10))
	}
}

func goroutines() (int, []byte) {
	p := pprof.Lookup("goroutine")
	b := new(bytes.Buffer)
	p.WriteTo(b, 1)
	return p.Count(), b.Bytes()
}
