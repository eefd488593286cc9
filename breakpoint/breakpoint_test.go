/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package breakpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/script"
)

func newFixture(t *testing.T) (string, *script.Host) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.vns")
	src := "label start:\n\talice \"hi\"\n\treturn\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	prog, err := script.ParseFile("demo.vns", src)
	require.NoError(t, err)

	return dir, script.New(prog, nil, nil)
}

func TestSetBreakpointsVerifiesExistingFile(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	result := idx.SetBreakpoints("demo.vns", []breakpoint.Breakpoint{{Line: 2}, {Line: 3}})
	require.Len(t, result, 2)
	for _, bp := range result {
		assert.True(t, bp.Verified)
		assert.Empty(t, bp.Message)
	}
}

func TestSetBreakpointsUnverifiesMissingFile(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	result := idx.SetBreakpoints("nope.vns", []breakpoint.Breakpoint{{Line: 1}})
	require.Len(t, result, 1)
	assert.False(t, result[0].Verified)
	assert.Contains(t, result[0].Message, "not found")
}

func TestCheckHotPathRejectsUnknownFile(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	idx.SetBreakpoints("demo.vns", []breakpoint.Breakpoint{{Line: 2}})

	assert.NotNil(t, idx.Check("demo.vns", 2))
	assert.Nil(t, idx.Check("demo.vns", 3))
	assert.Nil(t, idx.Check("unrelated.vns", 2))
}

func TestSetFunctionBreakpoints(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	result := idx.SetFunctionBreakpoints([]breakpoint.FunctionBreakpoint{
		{Label: "start"}, {Label: "missing"},
	})
	require.Len(t, result, 2)
	assert.True(t, result[0].Verified)
	assert.False(t, result[1].Verified)
	assert.Contains(t, result[1].Message, "unknown label")

	_, ok := idx.MatchFunctionBreakpoint("missing")
	assert.False(t, ok)
	fb, ok := idx.MatchFunctionBreakpoint("start")
	require.True(t, ok)
	assert.Equal(t, "start", fb.Label)
}

func TestAddAndRemoveTemporary(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	bp := idx.AddTemporary("demo.vns", 2)
	require.NotNil(t, idx.Check("demo.vns", 2))

	idx.RemoveTemporary(bp)
	assert.Nil(t, idx.Check("demo.vns", 2))
}

func TestShouldBreakCondition(t *testing.T) {
	dir, h := newFixture(t)
	require.NoError(t, h.Exec("shown := false"))
	idx := breakpoint.NewIndex(dir, h, h)

	result := idx.SetBreakpoints("demo.vns", []breakpoint.Breakpoint{{Line: 2, Condition: "shown"}})
	bp := idx.Check("demo.vns", 2)
	require.NotNil(t, bp)
	// id differs from result[0] since SetBreakpoints returns copies; fetch the live one.
	_ = result

	outcome := idx.ShouldBreak(bp)
	assert.False(t, outcome.Break)

	require.NoError(t, h.Exec("shown := true"))
	outcome = idx.ShouldBreak(bp)
	assert.True(t, outcome.Break)
}

func TestShouldBreakLogpoint(t *testing.T) {
	dir, h := newFixture(t)
	require.NoError(t, h.Exec("n := 7"))
	idx := breakpoint.NewIndex(dir, h, h)

	idx.SetBreakpoints("demo.vns", []breakpoint.Breakpoint{{Line: 2, LogMessage: "n is {n}"}})
	bp := idx.Check("demo.vns", 2)
	require.NotNil(t, bp)

	outcome := idx.ShouldBreak(bp)
	assert.False(t, outcome.Break)
	assert.Equal(t, "n is 7", outcome.LogOutput)
}

func TestShouldBreakHitCondition(t *testing.T) {
	dir, h := newFixture(t)
	idx := breakpoint.NewIndex(dir, h, h)

	idx.SetBreakpoints("demo.vns", []breakpoint.Breakpoint{{Line: 2, HitCondition: ">=2"}})
	bp := idx.Check("demo.vns", 2)
	require.NotNil(t, bp)

	assert.False(t, idx.ShouldBreak(bp).Break) // hit 1
	assert.True(t, idx.ShouldBreak(bp).Break)  // hit 2
}
