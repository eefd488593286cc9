/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package dapserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/dapwire"
	"github.com/vnlabs/vndap/frame"
	"github.com/vnlabs/vndap/navigator"
	"github.com/vnlabs/vndap/scene"
	"github.com/vnlabs/vndap/script"
	"github.com/vnlabs/vndap/util"
	"github.com/vnlabs/vndap/variables"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	prog, err := script.ParseFile("demo.vns", "label start:\n\talice \"hi\"\n\treturn\n")
	require.NoError(t, err)
	h := script.New(prog, nil, nil)

	idx := breakpoint.NewIndex("/game", h, h)
	log := util.NewNullLogger()
	srv := NewServer(log)
	coord := coordinator.New(h, idx, srv, log, "/game")
	h.SetDebugger(coord)

	srv.Init(Deps{
		Host:        h,
		Labels:      h,
		Index:       idx,
		Coordinator: coord,
		Frames:      frame.New("/game", h, h),
		Variables:   variables.New(h.Store(), h),
		Navigator:   navigator.New(coord, h, "/game"),
		Scene:       scene.New(coord, h, "/game", []string{"/game"}),
		GameDir:     "/game",
	})
	return srv
}

func TestInitializeHandshakeReturnsSessionId(t *testing.T) {
	srv := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv.adopt(serverConn)

	wire := dapwire.New(clientConn, util.NewNullLogger())
	require.NoError(t, wire.WriteMessage(&dap.InitializeRequest{
		Request: dap.Request{
			ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
			Command:         "initialize",
		},
	}))

	// dapwire decodes an initialize response into go-dap's own type,
	// which has no sessionId field, so read the raw frame instead.
	content, err := dap.ReadBaseMessage(bufio.NewReader(clientConn))
	require.NoError(t, err)

	resp := &initializeResponse{}
	require.NoError(t, json.Unmarshal(content, resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Body.SessionId)
	assert.True(t, resp.Body.SupportsStepBack)
	assert.True(t, resp.Body.SupportsConditionalBreakpoints)
}

func TestAdoptForceClosesPreviousSession(t *testing.T) {
	srv := newTestServer(t)

	firstServer, firstClient := net.Pipe()
	defer firstClient.Close()
	srv.adopt(firstServer)

	secondServer, secondClient := net.Pipe()
	defer secondClient.Close()
	srv.adopt(secondServer)

	firstClient.SetReadDeadline(time.Now().Add(time.Second))
	buf := make([]byte, 16)
	_, err := firstClient.Read(buf)
	assert.Error(t, err, "previous connection should have been closed on new adopt")
}

func TestEventSinkNoopWithoutSession(t *testing.T) {
	srv := newTestServer(t)

	assert.NotPanics(t, func() {
		srv.Stopped("breakpoint", []int{1}, "")
		srv.Continued()
		srv.Output("stdout", "hello", "", 0)
		srv.Terminated()
	})
}

// TestCustomRequestDispatchesOverWire drives getSceneState end to end:
// go-dap's registry has no struct for it, so this is the regression
// test for the dapwire re-parsing fix that makes custom requests
// reachable at all instead of tearing down the session.
func TestCustomRequestDispatchesOverWire(t *testing.T) {
	srv := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv.adopt(serverConn)

	wire := dapwire.New(clientConn, util.NewNullLogger())
	require.NoError(t, wire.WriteMessage(&dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
		Command:         "getSceneState",
	}))

	msg, err := wire.ReadMessage()
	require.NoError(t, err)

	resp, ok := msg.(*dapwire.CustomResponse)
	require.True(t, ok, "expected *dapwire.CustomResponse, got %T", msg)
	assert.True(t, resp.Success)
	assert.Equal(t, "getSceneState", resp.Command)
}

// TestCustomRequestWithBadArgumentsRespondsWithError drives
// getImageDefinition with a malformed arguments payload and checks the
// session stays alive and answers with a failure response rather than
// closing the connection.
func TestCustomRequestWithBadArgumentsRespondsWithError(t *testing.T) {
	srv := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv.adopt(serverConn)

	wire := dapwire.New(clientConn, util.NewNullLogger())
	require.NoError(t, wire.WriteMessage(&dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: 1, Type: "request"},
		Command:         "getImageDefinition",
		Arguments:       []byte(`"not an object"`),
	}))

	msg, err := wire.ReadMessage()
	require.NoError(t, err)

	resp, ok := msg.(*dapwire.CustomResponse)
	require.True(t, ok, "expected *dapwire.CustomResponse, got %T", msg)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestStoppedEventDeliveredToAttachedSession(t *testing.T) {
	srv := newTestServer(t)
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	srv.adopt(serverConn)

	wire := dapwire.New(clientConn, util.NewNullLogger())

	done := make(chan struct{})
	go func() {
		srv.Stopped("step", nil, "")
		close(done)
	}()

	msg, err := wire.ReadMessage()
	require.NoError(t, err)
	ev, ok := msg.(*dap.StoppedEvent)
	require.True(t, ok, "expected *dap.StoppedEvent, got %T", msg)
	assert.Equal(t, "step", ev.Body.Reason)

	<-done
}
