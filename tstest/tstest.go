// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package tstest provides utilities for use in unit tests.
package tstest

import (
	"strconv"
	"testing"
	"time"

	"nsync.dev/envknob"
)

// Replace replaces the value of target with val.
// The old value is restored when the test ends.
func Replace[T any](t testing.TB, target *T, val T) {
	t.Helper()
	if target == nil {
		t.Fatalf("Replace: nil pointer")
		panic("unreachable") // pacify staticcheck
	}
	old := *target
	t.Cleanup(func() {
		*target = old
	})

	*target = val
}

// WaitFor retries try for up to maxWait.
// It returns nil once try returns nil the first time.
// If maxWait passes without success, it returns try's last error.
func WaitFor(maxWait time.Duration, try func() error) error {
	bo := 10 * time.Millisecond
	deadline := time.Now().Add(maxWait)
	var err error
	for time.Now().Before(deadline) {
		err = try()
		if err == nil {
			break
		}
		time.Sleep(bo)
		bo = min(bo*2, time.Second)
	}
	return err
}

// GetSeed gets the current global random test seed. By default this is
// based on the current time; NSYNC_TEST_SEED overrides it.
func GetSeed(t testing.TB) int64 {
	t.Helper()
	if v := envknob.String("NSYNC_TEST_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			t.Fatalf("invalid NSYNC_TEST_SEED %q: %v", v, err)
		}
		return seed
	}
	seed := time.Now().UnixNano()
	t.Logf("using random seed %d (set NSYNC_TEST_SEED=%d to reproduce)", seed, seed)
	return seed
}
