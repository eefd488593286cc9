/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package navigator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/navigator"
	"github.com/vnlabs/vndap/script"
)

type nopSink struct{}

func (nopSink) Stopped(string, []int, string)      {}
func (nopSink) Continued()                         {}
func (nopSink) Output(string, string, string, int) {}
func (nopSink) Terminated()                        {}

func newFixture(t *testing.T, src string) (*navigator.Navigator, *coordinator.Coordinator, *script.Host) {
	t.Helper()
	prog, err := script.ParseFile("demo.vns", src)
	require.NoError(t, err)
	h := script.New(prog, nil, nil)
	idx := breakpoint.NewIndex("/game", h, h)
	coord := coordinator.New(h, idx, nopSink{}, nil, "/game")
	h.SetDebugger(coord)
	return navigator.New(coord, h, "/game"), coord, h
}

const multiLabelScript = `
label start:
	alice "one"
	return
label middle:
	bob "two"
	return
label _private:
	return
`

func TestGotoTargetsExcludesPrivateAndSorts(t *testing.T) {
	nav, _, _ := newFixture(t, multiLabelScript[1:])

	targets := nav.GotoTargets("demo.vns", 1)

	var names []string
	for _, tg := range targets {
		names = append(names, tg.Label)
	}
	assert.Equal(t, []string{"start", "middle"}, names)
	assert.NotContains(t, names, "_private")
}

func TestJumpToLabelUnknown(t *testing.T) {
	nav, _, _ := newFixture(t, "label start:\n\treturn\n")
	err := nav.JumpToLabel("nope", false)
	assert.Error(t, err)
}

func TestJumpToLabelEnablesSkipMode(t *testing.T) {
	nav, _, h := newFixture(t, multiLabelScript[1:])

	require.NoError(t, nav.JumpToLabel("middle", false))

	// script.Host has no getter for skip mode; this checks that the jump
	// left the skip delay at its default of zero.
	prev := h.SetSkipDelay(0)
	assert.Equal(t, prev, h.SetSkipDelay(prev))
}

func TestGotoRoundTrip(t *testing.T) {
	nav, _, _ := newFixture(t, multiLabelScript[1:])

	targets := nav.GotoTargets("demo.vns", 1)
	require.NotEmpty(t, targets)

	err := nav.Goto(targets[0].ID)
	assert.NoError(t, err)

	err = nav.Goto(-1)
	assert.Error(t, err)
}
