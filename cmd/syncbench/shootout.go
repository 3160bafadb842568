// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/google/uuid"
	"nsync.dev/nstime"
	"nsync.dev/types/logger"
	"nsync.dev/util/lru"
	"nsync.dev/util/must"
)

// payloadSize is the size of each cached object.
const payloadSize = 2 << 10

type payload [payloadSize]byte

type cache = lru.Cache[uuid.UUID, *payload]

var defaultThreadCounts = []int{2, 4, 8, 16}

type shootoutCmd struct {
	out     io.Writer
	logf    logger.Logf
	threads int
	ops     int
	objects int
	lruSize int
}

func (s *shootoutCmd) exec(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %q", args)
	}
	if s.objects < 1 || s.lruSize < s.objects || s.ops < 0 {
		return fmt.Errorf("need 0 < -objects <= -lru and -ops >= 0; got objects=%d lru=%d ops=%d", s.objects, s.lruSize, s.ops)
	}
	threadCounts := defaultThreadCounts
	if s.threads > 0 {
		threadCounts = []int{s.threads}
	}

	fmt.Fprintf(s.out, "=== LRU cache shootout ===\n")
	fmt.Fprintf(s.out, "Objects: %d\nLRU size: %d\nTotal operations: %d\nPayload: %d bytes\n\n",
		s.objects, s.lruSize, s.ops, payloadSize)

	s.logf("generating %d UUID keys", s.objects)
	keys := newKeys(s.objects)

	for _, n := range threadCounts {
		fmt.Fprintf(s.out, "=== %d goroutines ===\n", n)
		var base time.Duration
		for i, im := range impls[cache]() {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := runShootout(im, keys, n, s.ops, s.lruSize)
			if err != nil {
				return fmt.Errorf("%s with %d goroutines: %w", im.name, n, err)
			}
			fmt.Fprintf(s.out, "%-12s %.6f seconds", im.name, d.Seconds())
			if i == 0 {
				base = d
			} else {
				fmt.Fprintf(s.out, "  (%s than %s)", compare(base, d), impls[cache]()[0].name)
			}
			fmt.Fprintln(s.out)
		}
		fmt.Fprintln(s.out)
	}
	return nil
}

func newKeys(n int) []uuid.UUID {
	keys := make([]uuid.UUID, n)
	for i := range keys {
		keys[i] = must.Get(uuid.NewRandom())
	}
	return keys
}

// runShootout fills a cache behind im with keys and then has threads
// goroutines share ops lookups of them. Every lookup must hit.
func runShootout(im impl[cache], keys []uuid.UUID, threads, ops, lruSize int) (time.Duration, error) {
	l := im.new(cache{MaxEntries: lruSize})
	for _, k := range keys {
		p := new(payload)
		for i := range p {
			p[i] = 'x'
		}
		l.with(func(c *cache) { c.Set(k, p) })
	}

	perThread := ops / threads
	start := nstime.Now()
	var g taskgroup.Group
	for range threads {
		g.Go(func() error {
			for i := range perThread {
				k := keys[i%len(keys)]
				var hit bool
				if err := l.with(func(c *cache) { _, hit = c.GetOk(k) }); err != nil {
					return err
				}
				if !hit {
					return fmt.Errorf("key %v missing from cache", k)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return nstime.Now().Sub(start).Std(), err
}
