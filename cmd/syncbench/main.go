// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// The syncbench command compares syncs.Mutex against sync.Mutex and a
// spinlock, first with a tiny critical section (a shared counter) and then
// with a larger one (an LRU cache of 2 KiB payloads).
//
// Flags may also be set with SYNCBENCH_* environment variables, for
// example SYNCBENCH_THREADS=16.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"nsync.dev/envknob"
	"nsync.dev/syncs"
	"nsync.dev/types/logger"
)

const envPrefix = "SYNCBENCH"

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, log.Printf)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// run parses args and runs the selected benchmark, writing results to out
// and progress to logf.
func run(ctx context.Context, args []string, out io.Writer, logf logger.Logf) error {
	root := newRootCmd(out, logf)
	if err := root.Parse(args); err != nil {
		return err
	}
	envknob.LogCurrent(logf)
	return root.Run(ctx)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func newRootCmd(out io.Writer, logf logger.Logf) *ffcli.Command {
	var metrics bool
	withMetrics := func(exec func(context.Context, []string) error) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			if err := exec(ctx, args); err != nil {
				return err
			}
			if metrics {
				fmt.Fprintln(out)
				syncs.WriteMetrics(out)
			}
			return nil
		}
	}

	cc := &counterCmd{out: out}
	counter := &ffcli.Command{
		Name:       "counter",
		ShortUsage: "syncbench counter [-threads N] [-iters M]",
		ShortHelp:  "Increment a shared integer under each lock",
		LongHelp: strings.TrimSpace(`
Each of N goroutines increments a shared integer M times while holding the
lock. The critical section is tiny, so this measures raw lock and handoff
cost under heavy contention.
`),
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("counter", out)
			fs.IntVar(&cc.threads, "threads", 8, "number of goroutines")
			fs.IntVar(&cc.iters, "iters", 100_000, "increments per goroutine")
			return fs
		})(),
		Options: []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec:    withMetrics(cc.exec),
	}

	sc := &shootoutCmd{out: out, logf: logf}
	shootout := &ffcli.Command{
		Name:       "shootout",
		ShortUsage: "syncbench shootout [-threads N] [-ops M] [-objects K] [-lru L]",
		ShortHelp:  "Run concurrent lookups against a shared LRU cache",
		LongHelp: strings.TrimSpace(`
The cache holds K objects keyed by random UUIDs, each with a 2 KiB payload.
N goroutines share M lookups; every lookup moves the entry to the front of
the LRU, so each one takes the lock for writing. With -threads 0 the
benchmark is repeated for 2, 4, 8 and 16 goroutines.
`),
		FlagSet: (func() *flag.FlagSet {
			fs := newFlagSet("shootout", out)
			fs.IntVar(&sc.threads, "threads", 0, "number of goroutines (0 means 2, 4, 8 and 16)")
			fs.IntVar(&sc.ops, "ops", 50_000_000, "total lookups per run")
			fs.IntVar(&sc.objects, "objects", 10_000, "number of cached objects")
			fs.IntVar(&sc.lruSize, "lru", 20_000, "LRU capacity")
			return fs
		})(),
		Options: []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec:    withMetrics(sc.exec),
	}

	rootfs := newFlagSet("syncbench", out)
	rootfs.BoolVar(&metrics, "metrics", false, "print syncs event counters after the run")
	return &ffcli.Command{
		Name:       "syncbench",
		ShortUsage: "syncbench [-metrics] [counter|shootout] [flags]",
		ShortHelp:  "Compare syncs.Mutex with sync.Mutex and a spinlock",
		LongHelp: strings.TrimSpace(`
With no subcommand, syncbench runs the counter benchmark with its defaults
and then the LRU shootout.
`),
		FlagSet:     rootfs,
		Options:     []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Subcommands: []*ffcli.Command{counter, shootout},
		Exec: withMetrics(func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown subcommand %q", args[0])
			}
			fmt.Fprintf(out, "Running both benchmark suites...\n\n")
			if err := cc.exec(ctx, nil); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s\n\n", strings.Repeat("=", 60))
			return sc.exec(ctx, nil)
		}),
	}
}
