// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFuncWriter(t *testing.T) {
	w := FuncWriter(t.Logf)
	lg := log.New(w, "prefix: ", 0)
	lg.Printf("plumbed through")
}

func collect(got *[]string) Logf {
	return func(format string, args ...any) {
		*got = append(*got, fmt.Sprintf(format, args...))
	}
}

func TestRateLimiter(t *testing.T) {
	t.Setenv("NSYNC_DEBUG_LOG_RATE", "")

	var got []string
	lg := RateLimitedFn(collect(&got), time.Hour, 2, 50)
	for i := range 5 {
		lg("tick %d", i)
		lg("constant")
	}
	NoRateLimit(lg)("tick %d", 99)
	RateLimitContext(lg, "other")("tick %d", 100)

	want := []string{
		"tick 0",
		"constant",
		"tick 1",
		"constant",
		`[RATE LIMITED] format string "tick %d" (example: "tick 2")`,
		`[RATE LIMITED] format string "constant" (example: "constant")`,
		"tick 99",
		"tick 100",
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("log lines mismatch (-want +got):\n%s", d)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	t.Setenv("NSYNC_DEBUG_LOG_RATE", "all")

	var got []string
	lg := RateLimitedFn(collect(&got), time.Hour, 1, 50)
	for range 3 {
		lg("same")
	}
	if len(got) != 3 {
		t.Errorf("got %d lines; want 3", len(got))
	}
}

func TestWithPrefix(t *testing.T) {
	var got []string
	lg := WithPrefix(collect(&got), "syncs: ")
	lg("hello %s", "world")
	RateLimitContext(lg, "mutex")("ctx %d", 1)
	if d := cmp.Diff([]string{"syncs: hello world", "syncs: ctx 1"}, got); d != "" {
		t.Errorf("mismatch (-want +got):\n%s", d)
	}
	Discard("ignored %d", 1)
}

func TestRateLimiterCacheEviction(t *testing.T) {
	t.Setenv("NSYNC_DEBUG_LOG_RATE", "")

	var got []string
	lg := RateLimitedFn(collect(&got), time.Hour, 1, 1)
	lg("a")
	lg("b") // evicts the limiter for "a"
	lg("a")
	if d := cmp.Diff([]string{"a", "b", "a"}, got); d != "" {
		t.Errorf("log lines mismatch (-want +got):\n%s", d)
	}
}
