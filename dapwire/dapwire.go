/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

/*
Package dapwire frames the DAP byte stream into discrete messages. It
owns the Content-Length framing itself rather than handing the raw
stream straight to github.com/google/go-dap: go-dap's decoder only
knows the command names in its own request registry, and errors out on
anything else (our runToLine/jumpToLabel/getSceneState/getImageDefinition
requests included), so this package reads each frame's raw bytes first,
recognizes those custom commands itself, and otherwise falls through to
go-dap for everything it does know how to decode. Either way, a
malformed frame is logged and dropped without disturbing the reader's
position in the stream, following the accept-loop idiom of logging and
dropping malformed input rather than resetting the connection.
*/
package dapwire

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/go-dap"
	"github.com/vnlabs/vndap/util"
)

/*
Conn frames a byte stream into DAP messages.
*/
type Conn struct {
	r   *bufio.Reader
	w   io.Writer
	log util.Logger
}

/*
New wraps rw as a framed DAP connection.
*/
func New(rw io.ReadWriter, log util.Logger) *Conn {
	return &Conn{r: bufio.NewReader(rw), w: rw, log: log}
}

/*
customCommands lists the commands go-dap's type registry has no struct
for, on either the request or the response side. ReadMessage decodes
these itself from the raw frame instead of asking go-dap to, since
go-dap would just report an unrecognized command.
*/
var customCommands = map[string]bool{
	"runToLine":          true,
	"jumpToLabel":        true,
	"getSceneState":      true,
	"getImageDefinition": true,
}

type malformedFrameError struct {
	reason string
}

func (e *malformedFrameError) Error() string {
	return "dapwire: " + e.reason
}

/*
CustomResponse is the generic response shape dapserver serializes for
runToLine/jumpToLabel/getSceneState/getImageDefinition. Responses carry
no command-independent typing in go-dap either, so a caller reading one
of these back off the wire (a test harness standing in for a DAP
client, say) gets one of these instead of an unrecognized-command
decode error.
*/
type CustomResponse struct {
	dap.Response
	Body json.RawMessage `json:"body,omitempty"`
}

/*
ReadMessage reads and decodes the next message. Malformed headers,
bodies or unrecognized content are logged and dropped, and ReadMessage
moves straight on to the following frame rather than returning an error
for its caller to paper over - only a genuine transport failure (EOF or
a read error) is ever returned.
*/
func (c *Conn) ReadMessage() (dap.Message, error) {
	for {
		body, err := c.readFrame()
		if err != nil {
			if mf, ok := err.(*malformedFrameError); ok {
				c.log.LogError(mf.Error())
				continue
			}
			if err != io.EOF {
				c.log.LogError("dapwire: read error: ", err)
			}
			return nil, err
		}

		var envelope struct {
			Type    string `json:"type"`
			Command string `json:"command"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.log.LogError("dapwire: malformed message: ", err)
			continue
		}

		if customCommands[envelope.Command] {
			switch envelope.Type {
			case "request":
				req := &dap.Request{}
				if err := json.Unmarshal(body, req); err != nil {
					c.log.LogError("dapwire: malformed request: ", err)
					continue
				}
				return req, nil
			case "response":
				resp := &CustomResponse{}
				if err := json.Unmarshal(body, resp); err != nil {
					c.log.LogError("dapwire: malformed response: ", err)
					continue
				}
				return resp, nil
			}
		}

		msg, err := decodeKnownMessage(body)
		if err != nil {
			c.log.LogError("dapwire: malformed message: ", err)
			continue
		}
		return msg, nil
	}
}

/*
readFrame reads one Content-Length-framed body. A header or length
problem - a missing or zero Content-Length, a malformed header line -
yields a *malformedFrameError: the stream position is still sound (the
header line was fully consumed), so the caller can log it and try the
next frame instead of tearing down the connection.
*/
func (c *Conn) readFrame() ([]byte, error) {
	length := -1
	sawHeader := false

	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			if !sawHeader && err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		sawHeader = true

		name, val, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			if n, convErr := strconv.Atoi(strings.TrimSpace(val)); convErr == nil {
				length = n
			}
		}
	}

	if length <= 0 {
		return nil, &malformedFrameError{"missing or zero Content-Length header"}
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, err
	}
	return body, nil
}

/*
decodeKnownMessage hands body to go-dap by resynthesizing the framing
it expects, so every command go-dap's registry recognizes still decodes
into its own concrete request/response/event type and dispatch in
dapserver is untouched.
*/
func decodeKnownMessage(body []byte) (dap.Message, error) {
	framed := bufio.NewReader(io.MultiReader(
		strings.NewReader(fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))),
		bytes.NewReader(body),
	))
	return dap.ReadProtocolMessage(framed)
}

/*
WriteMessage serializes and writes one message.
*/
func (c *Conn) WriteMessage(msg dap.Message) error {
	return dap.WriteProtocolMessage(c.w, msg)
}
