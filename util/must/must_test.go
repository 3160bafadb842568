// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package must

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestGet(t *testing.T) {
	qt.Check(t, Get(42, nil), qt.Equals, 42)
	a, b := Get2("x", 1.5, nil)
	qt.Check(t, a, qt.Equals, "x")
	qt.Check(t, b, qt.Equals, 1.5)
}

func TestPanics(t *testing.T) {
	err := errors.New("boom")
	qt.Check(t, func() { Get(0, err) }, qt.PanicMatches, "boom")
	qt.Check(t, func() { Get2(0, 0, err) }, qt.PanicMatches, "boom")
	qt.Check(t, func() { Do(err) }, qt.PanicMatches, "boom")
	Do(nil)
}
