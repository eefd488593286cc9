/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileStatementKinds(t *testing.T) {
	src := `
label start:
	alice "Hello there!"
	"A narrator line."
	show eileen happy at left
	scene bg park
	show-screen hud
	hide-screen hud
	if $flag: jump done
	$x := 1
	jump done
label done:
	return
`[1:]

	prog, err := ParseFile("demo.vns", src)
	require.NoError(t, err)

	kinds := make([]string, 0, len(prog.stmts))
	for _, n := range prog.stmts {
		kinds = append(kinds, n.Kind())
	}

	assert.Equal(t, []string{
		"label", "say", "say", "show", "scene", "show-screen",
		"hide-screen", "if", "user-statement", "jump", "label", "return",
	}, kinds)

	start, ok := prog.Label("start")
	require.True(t, ok)
	assert.Equal(t, "label", start.Kind())
	assert.Equal(t, "demo.vns", start.Filename())

	done, ok := prog.Label("done")
	require.True(t, ok)
	assert.Equal(t, 11, done.Linenumber())

	_, ok = prog.Label("nope")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"start", "done"}, prog.Labels())
}

func TestParseFileSayAttributes(t *testing.T) {
	prog, err := ParseFile("demo.vns", `alice "Hi, \"friend\"."`)
	require.NoError(t, err)

	require.Len(t, prog.stmts, 1)
	n := prog.stmts[0]
	assert.Equal(t, "say", n.Kind())
	assert.Equal(t, "alice", n.Attr("who"))
	assert.Equal(t, `Hi, "friend".`, n.Attr("what"))
}

func TestParseFileMenu(t *testing.T) {
	src := `menu:
	"Go left" -> left
	"Go right" -> right
label left:
	return
label right:
	return
`
	prog, err := ParseFile("demo.vns", src)
	require.NoError(t, err)

	require.Len(t, prog.stmts, 5)
	menu := prog.stmts[0]
	assert.Equal(t, "menu", menu.Kind())
	assert.Equal(t, []string{"Go left", "Go right"}, menu.Attr("options"))
	assert.Equal(t, []string{"left", "right"}, menu.Attr("targets"))

	_, ok := prog.Label("left")
	assert.True(t, ok)
	_, ok = prog.Label("right")
	assert.True(t, ok)
}

func TestParseFileUnterminatedString(t *testing.T) {
	_, err := ParseFile("demo.vns", `alice hello`)
	assert.Error(t, err)
}

func TestParseFileSkipsCommentsAndBlankLines(t *testing.T) {
	prog, err := ParseFile("demo.vns", "\n# a comment\n\nlabel start:\n\treturn\n")
	require.NoError(t, err)
	require.Len(t, prog.stmts, 2)
	assert.Equal(t, "label", prog.stmts[0].Kind())
}
