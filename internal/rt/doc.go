// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package rt is the low-level synchronization runtime underneath package
// syncs. It mirrors the nsync C API: lock, condition variable, once, note
// and counter records manipulated by plain functions and methods, plus a
// monotonic clock.
//
// Nothing here tracks ownership or lifetimes, and nothing poisons. Callers
// are expected to pair every acquire with exactly one release and to stop
// using freed records. Package syncs provides the checked wrapper.
package rt
