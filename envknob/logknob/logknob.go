// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package logknob provides a helpful wrapper that allows enabling logging
// based on either an envknob or a runtime toggle.
package logknob

import (
	"sync/atomic"

	"nsync.dev/envknob"
	"nsync.dev/types/logger"
)

// LogKnob allows configuring verbose logging, with multiple ways to enable.
// It supports enabling logging via envknob and via an atomic boolean that
// programs and tests can flip at runtime.
type LogKnob struct {
	env    func() bool
	manual atomic.Bool
}

// NewLogKnob creates a new LogKnob backed by the provided environment
// variable name. An empty name means only Set can enable logging.
func NewLogKnob(env string) *LogKnob {
	lk := &LogKnob{}
	if env != "" {
		lk.env = envknob.RegisterBool(env)
	} else {
		lk.env = func() bool { return false }
	}
	return lk
}

// Set will cause logs to be printed when called with Set(true). When called
// with Set(false), logs will not be printed due to an earlier call of
// Set(true), but may still be printed due to the envknob.
func (lk *LogKnob) Set(v bool) {
	lk.manual.Store(v)
}

// Enabled reports whether any of the configured methods for enabling
// logging are true.
func (lk *LogKnob) Enabled() bool {
	return lk.manual.Load() || lk.env()
}

// Do will call log with the provided format and arguments if any of the
// configured methods for enabling logging are true.
func (lk *LogKnob) Do(log logger.Logf, format string, args ...any) {
	if lk.Enabled() {
		log(format, args...)
	}
}
