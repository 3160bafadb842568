// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"sync"
	"sync/atomic"
)

// Once states.
const (
	OnceNotStarted uint32 = iota
	OnceRunning
	OnceDone
)

// Once is a run-exactly-once gate. Its zero value is ready to use.
type Once struct {
	state atomic.Uint32
	mu    sync.Mutex
}

// Run calls f if and only if no earlier Run on o has started it. Concurrent
// callers block until the first call of f returns.
//
// If f panics, the gate still moves to OnceDone before the panic
// propagates: f is never called again and later callers do not block.
func (o *Once) Run(f func()) {
	if o.state.Load() == OnceDone {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Load() != OnceNotStarted {
		return
	}
	o.state.Store(OnceRunning)
	defer o.state.Store(OnceDone)
	f()
}

// State returns the gate's current state.
func (o *Once) State() uint32 {
	return o.state.Load()
}
