/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package dapwire_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/dapwire"
	"github.com/vnlabs/vndap/util"
)

// loopback is an io.ReadWriter backed by a single buffer, enough to
// round-trip one message through Conn without a real socket.
type loopback struct {
	bytes.Buffer
}

func TestWriteMessageThenReadMessage(t *testing.T) {
	lb := &loopback{}
	conn := dapwire.New(lb, util.NewMemoryLogger(100))

	req := &dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
		Command:         "next",
	}

	require.NoError(t, conn.WriteMessage(req))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)

	got, ok := msg.(*dap.NextRequest)
	require.True(t, ok)
	assert.Equal(t, "next", got.Command)
	assert.Equal(t, 1, got.Seq)
}

func TestReadMessageOnEmptyStreamReturnsEOF(t *testing.T) {
	lb := &loopback{}
	conn := dapwire.New(lb, util.NewMemoryLogger(100))

	_, err := conn.ReadMessage()
	assert.Error(t, err)
}

// TestReadMessageDropsMalformedFrameMidStream verifies a zero-length
// Content-Length header (the §8 "dropped; stream continues" case) does
// not desync a connection that has a well-formed message right behind
// it in the same stream.
func TestReadMessageDropsMalformedFrameMidStream(t *testing.T) {
	lb := &loopback{}
	lb.WriteString("Content-Length: 0\r\n\r\n")

	conn := dapwire.New(lb, util.NewMemoryLogger(100))

	good := &dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: 7, Type: "request"},
		Command:         "next",
	}
	require.NoError(t, conn.WriteMessage(good))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)
	got, ok := msg.(*dap.NextRequest)
	require.True(t, ok)
	assert.Equal(t, "next", got.Command)
	assert.Equal(t, 7, got.Seq)
}

// TestReadMessageDecodesCustomCommand verifies a command go-dap's type
// registry has no struct for (one of vndap's own runToLine/
// jumpToLabel/getSceneState/getImageDefinition requests) decodes as a
// plain *dap.Request instead of erroring out.
func TestReadMessageDecodesCustomCommand(t *testing.T) {
	lb := &loopback{}
	body := []byte(`{"seq":3,"type":"request","command":"jumpToLabel","arguments":{"label":"chapter2"}}`)
	fmt.Fprintf(lb, "Content-Length: %d\r\n\r\n%s", len(body), body)

	conn := dapwire.New(lb, util.NewMemoryLogger(100))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)

	got, ok := msg.(*dap.Request)
	require.True(t, ok, "expected *dap.Request, got %T", msg)
	assert.Equal(t, "jumpToLabel", got.Command)
	assert.JSONEq(t, `{"label":"chapter2"}`, string(got.Arguments))
}

// TestReadMessageDecodesCustomResponse verifies the response side of
// the same four commands decodes to dapwire.CustomResponse rather than
// erroring out, since a client (or a test harness standing in for one)
// needs to read these responses back too.
func TestReadMessageDecodesCustomResponse(t *testing.T) {
	lb := &loopback{}
	body := []byte(`{"seq":4,"type":"response","request_seq":3,"success":true,"command":"getSceneState","body":{"images":[]}}`)
	fmt.Fprintf(lb, "Content-Length: %d\r\n\r\n%s", len(body), body)

	conn := dapwire.New(lb, util.NewMemoryLogger(100))

	msg, err := conn.ReadMessage()
	require.NoError(t, err)

	got, ok := msg.(*dapwire.CustomResponse)
	require.True(t, ok, "expected *dapwire.CustomResponse, got %T", msg)
	assert.Equal(t, "getSceneState", got.Command)
	assert.True(t, got.Success)
	assert.JSONEq(t, `{"images":[]}`, string(got.Body))
}
