// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import "errors"

var (
	// ErrPoisoned matches (via errors.Is) every *PoisonError.
	ErrPoisoned = errors.New("syncs: lock poisoned by a panic in a previous holder")

	// ErrWouldBlock is returned by the Try variants when acquiring the lock
	// would have blocked.
	ErrWouldBlock = errors.New("syncs: lock is held; try-lock would block")
)

// PoisonError is returned when a lock is acquired after a previous holder
// panicked (or called Poison) while holding it. The acquisition still
// succeeded: G is the live guard, or the data itself for IntoInner and
// GetMut.
type PoisonError[G any] struct {
	v G
}

func (e *PoisonError[G]) Error() string { return ErrPoisoned.Error() }

// Is reports whether target is ErrPoisoned.
func (e *PoisonError[G]) Is(target error) bool { return target == ErrPoisoned }

// Into returns the guard (or data) carried by the error, so that a caller
// may continue in spite of the poisoning.
func (e *PoisonError[G]) Into() G { return e.v }

// Get is like Into. It exists for callers that only inspect the value.
func (e *PoisonError[G]) Get() G { return e.v }
