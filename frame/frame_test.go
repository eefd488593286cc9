/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package frame_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/frame"
	"github.com/vnlabs/vndap/host"
	"github.com/vnlabs/vndap/script"
)

func TestBuildStatementFrame(t *testing.T) {
	prog, err := script.ParseFile("demo.vns", "label start:\n\talice \"hi\"\n\treturn\n")
	require.NoError(t, err)
	h := script.New(prog, nil, nil)

	b := frame.New("/game", h, h)

	stmt, ok := prog.Label("start")
	require.True(t, ok)

	frames := b.Build(coordinator.Location{File: "demo.vns", Line: 1, Statement: stmt})
	require.Len(t, frames, 1)
	assert.Equal(t, "label start", frames[0].Name)
	assert.Equal(t, "/game/demo.vns", frames[0].Source)
	assert.Equal(t, 1, frames[0].Line)
}

func TestBuildEmptyLocation(t *testing.T) {
	prog, err := script.ParseFile("demo.vns", "label start:\n\treturn\n")
	require.NoError(t, err)
	h := script.New(prog, nil, nil)

	b := frame.New("/game", h, h)
	frames := b.Build(coordinator.Location{})
	assert.Empty(t, frames)
}

func TestBuildReturnStackPseudoFrames(t *testing.T) {
	prog, err := script.ParseFile("demo.vns", `
label start:
	call sub
	return
label sub:
	bob "in sub"
	return
`[1:])
	require.NoError(t, err)
	h := script.New(prog, nil, nil)

	var captured coordinator.Location
	h.RegisterStatementCallback(func(n host.StatementNode) error {
		if n.Kind() == "say" {
			captured = coordinator.Location{File: n.Filename(), Line: n.Linenumber(), Statement: n}
		}
		return nil
	})

	require.NoError(t, h.Run("start"))
	require.NotNil(t, captured.Statement)

	b := frame.New("/game", h, h)
	frames := b.Build(captured)
	require.Len(t, frames, 2)
	assert.Equal(t, `say "in sub"`, frames[0].Name)
	assert.Equal(t, "return to start", frames[1].Name)
}
