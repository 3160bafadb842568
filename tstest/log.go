// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package tstest

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"nsync.dev/types/logger"
)

// FixLogs redirects the standard logger to tb.Logf until the test ends.
func FixLogs(tb testing.TB) {
	flags := log.Flags()
	log.SetFlags(log.Ltime | log.Lshortfile)
	log.SetOutput(logger.FuncWriter(tb.Logf))
	tb.Cleanup(func() {
		log.SetFlags(flags)
		log.SetOutput(os.Stderr)
	})
}

// LogLineCollector is a logger.Logf sink that records each line, for tests
// that assert on log output.
type LogLineCollector struct {
	tb testing.TB

	mu    sync.Mutex
	lines []string
}

// NewLogLineCollector returns a collector that also echoes to tb.Logf.
func NewLogLineCollector(tb testing.TB) *LogLineCollector {
	return &LogLineCollector{tb: tb}
}

// Logf implements logger.Logf.
func (c *LogLineCollector) Logf(format string, args ...any) {
	line := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.tb.Logf("%s", line)
}

// Lines returns a copy of the lines logged so far.
func (c *LogLineCollector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

// Logger returns c.Logf as a logger.Logf.
func (c *LogLineCollector) Logger() logger.Logf { return c.Logf }
