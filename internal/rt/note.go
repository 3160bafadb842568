// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package rt

import (
	"sync"
	"time"

	"nsync.dev/util/set"
)

// Note is a notification record with an optional parent and a fixed expiry.
// Notifying a note notifies all of its descendants. A note's expiry is never
// later than its parent's.
//
// Notes are allocated by NewNote and released by Free. Free does not make
// later use safe; the caller owns that.
type Note struct {
	expiry Time // immutable

	mu       sync.Mutex
	parent   *Note
	children set.Set[*Note]
	notified bool
	closed   bool          // done has been closed
	done     chan struct{} // closed on notification or expiry
	timer    *time.Timer   // non-nil while waiting for expiry
	freed    bool
}

// NewNote allocates a note. parent may be nil. If parent is already notified
// the new note starts notified.
func NewNote(parent *Note, deadline Time) *Note {
	n := &Note{
		expiry: deadline,
		done:   make(chan struct{}),
	}
	if parent != nil {
		parent.mu.Lock()
		if Cmp(parent.expiry, n.expiry) < 0 {
			n.expiry = parent.expiry
		}
		n.notified = parent.notified
		n.parent = parent
		if !parent.freed {
			if parent.children == nil {
				parent.children = make(set.Set[*Note])
			}
			parent.children.Add(n)
		}
		parent.mu.Unlock()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	switch {
	case n.notified:
		n.closeLocked()
	case n.expiry == NoDeadline:
	case Cmp(n.expiry, Now()) <= 0:
		n.closeLocked()
	default:
		n.timer = time.AfterFunc(Until(n.expiry), n.expire)
	}
	return n
}

func (n *Note) closeLocked() {
	if n.closed {
		return
	}
	n.closed = true
	close(n.done)
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Note) expire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closeLocked()
}

// Notify marks n and all of its descendants notified and wakes their
// waiters. It is idempotent.
func (n *Note) Notify() {
	n.mu.Lock()
	if n.notified || n.freed {
		n.mu.Unlock()
		return
	}
	n.notified = true
	n.closeLocked()
	kids := n.children.Slice()
	n.mu.Unlock()

	for _, k := range kids {
		k.Notify()
	}
}

// IsNotified reports whether Notify has been called on n or an ancestor.
func (n *Note) IsNotified() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notified
}

// Expired reports whether n's expiry has passed.
func (n *Note) Expired() bool {
	return n.expiry != NoDeadline && Cmp(Now(), n.expiry) >= 0
}

// Expiry returns the note's expiry, which accounts for its ancestors.
func (n *Note) Expiry() Time {
	return n.expiry
}

// Done returns a channel that is closed once n is notified or expires.
func (n *Note) Done() <-chan struct{} {
	return n.done
}

// Wait blocks until n is notified, n expires, or deadline passes, and
// reports whether n was notified.
func (n *Note) Wait(deadline Time) bool {
	select {
	case <-n.done:
		return n.IsNotified()
	default:
	}
	if Cmp(deadline, Now()) <= 0 {
		return n.IsNotified()
	}
	timer, stop := deadlineTimer(deadline)
	defer stop()
	select {
	case <-n.done:
	case <-timer:
	}
	return n.IsNotified()
}

// Free releases n. Its children, if any, are adopted by its parent (or
// become roots). Free of an already freed note is a no-op.
func (n *Note) Free() {
	n.mu.Lock()
	if n.freed {
		n.mu.Unlock()
		return
	}
	n.freed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	parent := n.parent
	kids := n.children
	n.parent = nil
	n.children = nil
	n.mu.Unlock()

	if parent != nil {
		parent.mu.Lock()
		delete(parent.children, n)
		if !parent.freed {
			for k := range kids {
				if parent.children == nil {
					parent.children = make(set.Set[*Note])
				}
				parent.children.Add(k)
			}
		}
		parent.mu.Unlock()
	}
	for k := range kids {
		k.mu.Lock()
		k.parent = parent
		k.mu.Unlock()
	}
}
