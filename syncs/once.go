// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"sync/atomic"

	"nsync.dev/internal/rt"
)

// Once runs a function exactly once. The zero value is ready to use.
//
// If f panics, the panic propagates to the caller of Do and the Once is
// still considered complete: later calls return without calling f, as
// with sync.Once.
type Once struct {
	_    noCopy
	done atomic.Bool
	gate rt.Once
}

// Do calls f if and only if Do has not been called before on o. Concurrent
// callers block until the first call of f returns.
func (o *Once) Do(f func()) {
	if o.done.Load() {
		return
	}
	o.doSlow(f)
}

func (o *Once) doSlow(f func()) {
	defer o.done.Store(true)
	o.gate.Run(func() {
		normal := false
		defer func() {
			if !normal {
				event("once", "panicked")
				debugf("once", "Once %p: function did not return normally", o)
			}
		}()
		f()
		normal = true
	})
}

// IsCompleted reports whether a call to f has finished.
func (o *Once) IsCompleted() bool {
	return o.done.Load()
}
