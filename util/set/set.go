// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package set contains set types.
package set

import (
	"maps"
	"slices"
)

// Set is a set of T.
//
// It is not safe for concurrent use.
type Set[T comparable] map[T]struct{}

// Of returns a new set containing the given elements.
func Of[T comparable](es ...T) Set[T] {
	s := make(Set[T], len(es))
	for _, e := range es {
		s.Add(e)
	}
	return s
}

// Add adds e to the set.
func (s Set[T]) Add(e T) { s[e] = struct{}{} }

// Delete removes e from the set.
func (s Set[T]) Delete(e T) { delete(s, e) }

// Contains reports whether s contains e.
func (s Set[T]) Contains(e T) bool {
	_, ok := s[e]
	return ok
}

// Len reports the number of items in s.
func (s Set[T]) Len() int { return len(s) }

// Slice returns the elements of s in unspecified order.
func (s Set[T]) Slice() []T {
	return slices.Collect(maps.Keys(s))
}
