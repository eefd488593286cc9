/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package variables_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/script"
	"github.com/vnlabs/vndap/variables"
)

func newHost(t *testing.T) *script.Host {
	t.Helper()
	prog, err := script.ParseFile("demo.vns", "label start:\n\treturn\n")
	require.NoError(t, err)
	return script.New(prog, nil, nil)
}

func TestScopesWithoutLocals(t *testing.T) {
	h := newHost(t)
	in := variables.New(h.Store(), h)
	assert.Equal(t, []string{"Store", "Globals"}, in.Scopes())
}

func TestScopesWithLocals(t *testing.T) {
	h := newHost(t)
	in := variables.New(h.Store(), h)
	in.SetExprLocals(h.Store())
	assert.Equal(t, []string{"Locals", "Store", "Globals"}, in.Scopes())
}

func TestStoreRowsReflectAssignments(t *testing.T) {
	h := newHost(t)
	require.NoError(t, h.Exec("score := 10"))

	in := variables.New(h.Store(), h)
	rows := in.Variables(variables.Store)

	var found bool
	for _, r := range rows {
		if r.Name == "score" {
			found = true
			assert.Equal(t, "10", r.Value)
		}
	}
	assert.True(t, found)
}

func TestSetVariableInStore(t *testing.T) {
	h := newHost(t)
	in := variables.New(h.Store(), h)

	row, err := in.SetVariable(variables.Store, "score", "99")
	require.NoError(t, err)
	assert.Equal(t, "99", row.Value)

	v, err := h.Eval("score")
	require.NoError(t, err)
	assert.EqualValues(t, 99, v)
}

func TestEvaluateWatchOnError(t *testing.T) {
	h := newHost(t)
	in := variables.New(h.Store(), h)

	row, err := in.Evaluate("undefined_name_xyz", variables.ContextWatch)
	require.NoError(t, err)
	assert.Equal(t, "", row.Value)
}

func TestEvaluateRepl(t *testing.T) {
	h := newHost(t)
	in := variables.New(h.Store(), h)

	row, err := in.Evaluate("score := 5", variables.ContextRepl)
	require.NoError(t, err)
	assert.Equal(t, "OK", row.Value)

	v, err := h.Eval("score")
	require.NoError(t, err)
	assert.EqualValues(t, 5, v)
}

func TestResetClearsReferenceTable(t *testing.T) {
	h := newHost(t)
	require.NoError(t, h.Exec(`m := {"a": 1}`))

	in := variables.New(h.Store(), h)
	row, err := in.Evaluate("m", variables.ContextWatch)
	require.NoError(t, err)
	require.NotZero(t, row.Reference)

	in.Reset()
	assert.Empty(t, in.Variables(row.Reference))
}
