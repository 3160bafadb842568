// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"errors"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"nsync.dev/tstest"
	"nsync.dev/types/logger"
)

var errNotYet = errors.New("not yet")

func TestDebugLogging(t *testing.T) {
	lc := tstest.NewLogLineCollector(t)
	SetLogf(lc.Logger())
	t.Cleanup(func() { SetLogf(nil) })

	m := NewMutex(0)
	g, _ := m.Lock()
	g.Poison()
	g.Unlock()
	qt.Assert(t, lc.Lines(), qt.HasLen, 0) // disabled by default

	SetDebugLogging(true)
	t.Cleanup(func() { SetDebugLogging(false) })
	m = NewMutex(0)
	panicWhileLocked(m, 1)

	lines := lc.Lines()
	qt.Assert(t, lines, qt.HasLen, 1)
	qt.Assert(t, lines[0], qt.Matches, `syncs: mutex 0x[0-9a-f]+ poisoned: boom`)
}

func TestDebugLoggingRateLimits(t *testing.T) {
	t.Setenv("NSYNC_DEBUG_LOG_RATE", "")
	lc := tstest.NewLogLineCollector(t)
	SetLogf(logger.RateLimitedFn(lc.Logf, time.Hour, 1, 10))
	t.Cleanup(func() { SetLogf(nil) })
	SetDebugLogging(true)
	t.Cleanup(func() { SetDebugLogging(false) })

	for i := range 3 {
		panicWhileLocked(NewMutex(0), i)
	}
	panicOnce := func() {
		defer func() { recover() }()
		var o Once
		o.Do(func() { panic("once") })
	}
	for range 3 {
		panicOnce()
	}

	lines := lc.Lines()
	qt.Assert(t, lines, qt.HasLen, 5)
	for _, l := range lines[:3] {
		qt.Check(t, l, qt.Matches, `syncs: mutex 0x[0-9a-f]+ poisoned: boom`)
	}
	qt.Check(t, lines[3], qt.Matches, `syncs: Once 0x[0-9a-f]+: function did not return normally`)
	qt.Check(t, lines[4], qt.Matches, `\[RATE LIMITED\] format string "syncs: Once %p: function did not return normally.*`)
}

func TestWriteMetrics(t *testing.T) {
	m := NewMutex(0)
	g, _ := m.Lock()
	m.TryLock()
	g.Unlock()

	var sb strings.Builder
	WriteMetrics(&sb)
	var got []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if strings.HasPrefix(line, "#") {
			got = append(got, line)
		}
	}
	want := []string{
		"# TYPE syncs_events counter",
		"# HELP syncs_events Notable events on syncs primitives, by kind.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metric headers (-want +got):\n%s", diff)
	}
	qt.Assert(t, sb.String(), qt.Contains, `syncs_events{kind="mutex",event="would_block"} `)
}
