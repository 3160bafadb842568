// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/creachadair/taskgroup"
	"nsync.dev/nstime"
)

type counterCmd struct {
	out     io.Writer
	threads int
	iters   int
}

// counterResult is the outcome of one counter run.
type counterResult struct {
	name    string
	elapsed time.Duration
}

func (c *counterCmd) exec(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if c.threads < 1 || c.iters < 0 {
		return fmt.Errorf("invalid -threads %d or -iters %d", c.threads, c.iters)
	}
	fmt.Fprintf(c.out, "=== Counter benchmark ===\n")
	fmt.Fprintf(c.out, "Threads: %d, Iterations per thread: %d, Total ops: %d\n",
		c.threads, c.iters, c.threads*c.iters)
	fmt.Fprintf(c.out, "Critical section: single integer increment\n\n")

	var results []counterResult
	for _, im := range impls[int]() {
		if err := ctx.Err(); err != nil {
			return err
		}
		d, err := runCounter(im, c.threads, c.iters)
		if err != nil {
			return fmt.Errorf("%s: %w", im.name, err)
		}
		results = append(results, counterResult{im.name, d})
	}

	fmt.Fprintf(c.out, "%-20s %15s\n", "Implementation", "Time (µs)")
	fmt.Fprintln(c.out, strings.Repeat("=", 36))
	for _, r := range results {
		fmt.Fprintf(c.out, "%-20s %15d\n", r.name, r.elapsed.Microseconds())
	}
	fmt.Fprintln(c.out)
	base := results[0]
	for _, r := range results[1:] {
		fmt.Fprintf(c.out, "%-12s vs %-12s %s\n", r.name, base.name, compare(base.elapsed, r.elapsed))
	}
	return nil
}

// runCounter has threads goroutines each increment a shared counter iters
// times under im, and verifies the total.
func runCounter(im impl[int], threads, iters int) (time.Duration, error) {
	l := im.new(0)
	start := nstime.Now()
	var g taskgroup.Group
	for range threads {
		g.Go(func() error {
			for range iters {
				if err := l.with(func(n *int) { *n++ }); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	elapsed := nstime.Now().Sub(start).Std()

	var total int
	l.with(func(n *int) { total = *n })
	if want := threads * iters; total != want {
		return elapsed, fmt.Errorf("count = %d; want %d", total, want)
	}
	return elapsed, nil
}

// compare describes how r performed relative to base, e.g. "1.52x faster".
func compare(base, r time.Duration) string {
	if r <= 0 || base <= 0 {
		return "n/a"
	}
	ratio := float64(base) / float64(r)
	if ratio >= 1 {
		return fmt.Sprintf("%.2fx faster", ratio)
	}
	return fmt.Sprintf("%.2fx slower", 1/ratio)
}
