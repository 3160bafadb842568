// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncs

import (
	"context"
	"sync/atomic"
	"time"

	"nsync.dev/internal/rt"
	"nsync.dev/nstime"
)

// Note is a one-shot notification with an optional parent and expiry.
// Notifying a Note notifies its descendants. A Note's expiry is never later
// than its parent's.
//
// *Note implements context.Context, so it can cancel any context-aware
// call: Done is closed once the Note is notified or expires.
//
// A Note holds its expiry timer and its link to its parent until Close.
// An unclosed child stays reachable from its parent.
type Note struct {
	r      *rt.Note
	parent *Note
	closed atomic.Bool
}

var _ context.Context = (*Note)(nil)

// NewNote returns a Note that expires at deadline, or at its parent's
// expiry if that is earlier. Use nstime.NoDeadline() for no expiry. parent
// may be nil. A child of an already notified parent starts notified.
func NewNote(parent *Note, deadline nstime.Time) *Note {
	var pr *rt.Note
	if parent != nil {
		pr = parent.rec()
	}
	return &Note{r: rt.NewNote(pr, deadline.Raw()), parent: parent}
}

func (n *Note) rec() *rt.Note {
	if n.closed.Load() {
		panic("syncs: use of closed Note")
	}
	return n.r
}

// Notify notifies n and its descendants, waking all waiters. Calling it
// again has no effect.
func (n *Note) Notify() {
	r := n.rec()
	if !r.IsNotified() {
		event("note", "notify")
	}
	r.Notify()
}

// IsNotified reports whether n or one of its ancestors has been notified.
func (n *Note) IsNotified() bool { return n.rec().IsNotified() }

// Expired reports whether n's expiry has passed.
func (n *Note) Expired() bool { return n.rec().Expired() }

// Expiry returns n's expiry, which accounts for its ancestors.
func (n *Note) Expiry() nstime.Time { return nstime.FromRaw(n.rec().Expiry()) }

// Parent returns the Note n was created under, or nil.
func (n *Note) Parent() *Note { return n.parent }

// Wait blocks until n is notified, n expires, or deadline passes, and
// reports whether n was notified.
func (n *Note) Wait(deadline nstime.Time) bool {
	return n.rec().Wait(deadline.Raw())
}

// Close releases n. Children of n are adopted by n's parent. Close is
// idempotent; any other use of n after Close panics.
func (n *Note) Close() {
	if n.closed.CompareAndSwap(false, true) {
		n.r.Free()
	}
}

// Deadline returns the wall-clock equivalent of n's expiry.
func (n *Note) Deadline() (deadline time.Time, ok bool) {
	exp := n.Expiry()
	if exp.IsNoDeadline() {
		return time.Time{}, false
	}
	return exp.Std(), true
}

// Done returns a channel that is closed when n is notified or expires.
func (n *Note) Done() <-chan struct{} { return n.rec().Done() }

// Err returns nil while Done is open, context.Canceled if n was notified,
// and context.DeadlineExceeded if it expired.
func (n *Note) Err() error {
	r := n.rec()
	select {
	case <-r.Done():
	default:
		return nil
	}
	if r.IsNotified() {
		return context.Canceled
	}
	return context.DeadlineExceeded
}

// Value returns nil; Notes carry no values.
func (n *Note) Value(key any) any { return nil }
