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
Package dapserver implements the protocol dispatcher: the single-client
TCP accept loop, the monotonic seq counter, the command handler table
and the event writer goroutine.

The accept-loop shape - one handler per connection, force-close a
previous client on new accept - follows the embedded language's
telnet debug server, generalized from
newline-delimited telnet JSON to Content-Length-framed DAP messages
carried by dapwire. The handle()/onXxxRequest() dispatch shape (request
type-switch, Body field-by-field capability negotiation) follows the
google/go-dap based servers in the example pack.
*/
package dapserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"sync"

	"github.com/google/go-dap"
	"github.com/google/uuid"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/dapwire"
	"github.com/vnlabs/vndap/frame"
	"github.com/vnlabs/vndap/host"
	"github.com/vnlabs/vndap/navigator"
	"github.com/vnlabs/vndap/scene"
	"github.com/vnlabs/vndap/util"
	"github.com/vnlabs/vndap/variables"
)

const threadID = 1

/*
Deps is every process-scoped collaborator the dispatcher needs. Exactly
one of each is constructed in cmd/vndapd and shared across client
connections.
*/
type Deps struct {
	Host        host.Host
	Labels      host.LabelTable
	Index       *breakpoint.Index
	Coordinator *coordinator.Coordinator
	Frames      *frame.Builder
	Variables   *variables.Inspector
	Navigator   *navigator.Navigator
	Scene       *scene.Inspector
	GameDir     string
	Builtins    []string
}

/*
Server accepts DAP client connections on a TCP listener, enforcing an
at-most-one-client rule.
*/
type Server struct {
	deps Deps
	log  util.Logger

	ln net.Listener

	mu      sync.Mutex
	session *session
}

/*
NewServer creates a bare dispatcher usable immediately as a
coordinator.EventSink (its Stopped/Continued/Output/Terminated methods
never touch deps). Call Init once the coordinator that will send it
events has been constructed - the two are circularly dependent
(coordinator.New needs a sink, and that sink is this Server), so
construction happens in two steps instead of one.
*/
func NewServer(log util.Logger) *Server {
	return &Server{log: log}
}

/*
Init binds deps and wires the dispatcher's hooks into the coordinator.
Call Serve afterwards to start accepting connections.
*/
func (s *Server) Init(deps Deps) {
	s.deps = deps
	deps.Coordinator.SetReferenceResetHook(deps.Variables.Reset)
	deps.Coordinator.SetExprScopePublisher(deps.Variables.SetExprLocals)
}

/*
Serve binds addr (default 127.0.0.1:5678) and accepts connections until
the listener is closed. Each new connection force-closes any previous
one.
*/
func (s *Server) Serve(addr string) error {
	if addr == "" {
		addr = "127.0.0.1:5678"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dapserver: listen: %w", err)
	}
	s.ln = ln
	s.log.LogInfo("dapserver: listening on ", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		s.adopt(conn)
	}
}

/*
Close shuts the listener down, which unblocks Serve's Accept call.
*/
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) adopt(conn net.Conn) {
	s.mu.Lock()
	prev := s.session
	sess := newSession(s, conn)
	s.session = sess
	s.mu.Unlock()

	// close() re-enters s.mu through dropSession, so it runs unlocked.
	if prev != nil {
		s.log.LogInfo("dapserver: new client, closing previous connection")
		prev.close()
	}

	s.log.LogInfo("dapserver: session ", sess.id.String(), " connected from ", conn.RemoteAddr())
	s.deps.Coordinator.Attach()
	go sess.writeLoop()
	go sess.readLoop()
}

func (s *Server) dropSession(sess *session) {
	s.mu.Lock()
	if s.session == sess {
		s.session = nil
	}
	s.mu.Unlock()
	s.deps.Coordinator.Detach()
}

// EventSink
// =========

func (s *Server) current() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

/*
Stopped implements coordinator.EventSink.
*/
func (s *Server) Stopped(reason string, hitBreakpointIDs []int, text string) {
	sess := s.current()
	if sess == nil {
		return
	}
	sess.emit(&dap.StoppedEvent{
		Event: *newEvent("stopped"),
		Body: dap.StoppedEventBody{
			Reason:            reason,
			ThreadId:          threadID,
			AllThreadsStopped: true,
			Text:              text,
			HitBreakpointIds:  hitBreakpointIDs,
		},
	})
}

/*
Continued implements coordinator.EventSink.
*/
func (s *Server) Continued() {
	sess := s.current()
	if sess == nil {
		return
	}
	sess.emit(&dap.ContinuedEvent{
		Event: *newEvent("continued"),
		Body:  dap.ContinuedEventBody{ThreadId: threadID, AllThreadsContinued: true},
	})
}

/*
Output implements coordinator.EventSink.
*/
func (s *Server) Output(category, text, source string, line int) {
	sess := s.current()
	if sess == nil {
		return
	}
	body := dap.OutputEventBody{Category: category, Output: text}
	if source != "" {
		body.Source = &dap.Source{Path: source}
		body.Line = line
	}
	sess.emit(&dap.OutputEvent{Event: *newEvent("output"), Body: body})
}

/*
Terminated implements coordinator.EventSink.
*/
func (s *Server) Terminated() {
	sess := s.current()
	if sess == nil {
		return
	}
	sess.emit(&dap.TerminatedEvent{Event: *newEvent("terminated")})
}

// session - one client connection
// ================================

/*
session owns the seq counter and event queue for one client
connection.
*/
type session struct {
	srv  *Server
	conn net.Conn
	wire *dapwire.Conn
	id   uuid.UUID

	mu  sync.Mutex
	seq int

	events    chan dap.Message
	closeOnce sync.Once
}

func newSession(srv *Server, conn net.Conn) *session {
	return &session{
		srv:    srv,
		conn:   conn,
		wire:   dapwire.New(conn, srv.log),
		id:     uuid.New(),
		events: make(chan dap.Message, 64),
	}
}

func (sess *session) nextSeq() int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.seq++
	return sess.seq
}

/*
emit queues an asynchronous event. Never blocks the caller - if the
queue is full the event is dropped and logged, so a coordinator-
originated stopped event can never stall the script thread.
*/
func (sess *session) emit(msg dap.Message) {
	select {
	case sess.events <- msg:
	default:
		sess.srv.log.LogError("dapserver: event queue full, dropping event")
	}
}

func (sess *session) writeLoop() {
	for msg := range sess.events {
		stampSeq(msg, sess.nextSeq())
		if err := sess.wire.WriteMessage(msg); err != nil {
			return
		}
	}
}

func (sess *session) readLoop() {
	defer sess.close()

	for {
		msg, err := sess.wire.ReadMessage()
		if err != nil {
			if err != io.EOF {
				sess.srv.log.LogError("dapserver: read error: ", err)
			}
			return
		}
		sess.handle(msg)
	}
}

func (sess *session) close() {
	sess.closeOnce.Do(func() {
		sess.conn.Close()
		close(sess.events)
		sess.srv.dropSession(sess)
	})
}

func (sess *session) respond(msg dap.Message) {
	stampSeq(msg, sess.nextSeq())
	if err := sess.wire.WriteMessage(msg); err != nil {
		sess.srv.log.LogError("dapserver: write error: ", err)
	}
}

func stampSeq(msg dap.Message, seq int) {
	switch m := msg.(type) {
	case *initializeResponse:
		m.Seq = seq
	case *dap.ErrorResponse:
		m.Seq = seq
	case *dap.StoppedEvent:
		m.Seq = seq
	case *dap.ContinuedEvent:
		m.Seq = seq
	case *dap.OutputEvent:
		m.Seq = seq
	case *dap.TerminatedEvent:
		m.Seq = seq
	case *dap.InitializedEvent:
		m.Seq = seq
	case *genericResponse:
		m.Seq = seq
	default:
		stampKnownResponse(msg, seq)
	}
}

// Dispatch
// ========

func (sess *session) handle(msg dap.Message) {
	switch req := msg.(type) {
	case *dap.InitializeRequest:
		sess.onInitialize(req)
	case *dap.LaunchRequest:
		sess.respond(okResponse(req.GetSeq(), "launch"))
	case *dap.AttachRequest:
		sess.respond(okResponse(req.GetSeq(), "attach"))
	case *dap.ConfigurationDoneRequest:
		sess.respond(okResponse(req.GetSeq(), "configurationDone"))
	case *dap.SetBreakpointsRequest:
		sess.onSetBreakpoints(req)
	case *dap.SetFunctionBreakpointsRequest:
		sess.onSetFunctionBreakpoints(req)
	case *dap.SetExceptionBreakpointsRequest:
		sess.onSetExceptionBreakpoints(req)
	case *dap.ThreadsRequest:
		sess.onThreads(req)
	case *dap.StackTraceRequest:
		sess.onStackTrace(req)
	case *dap.ScopesRequest:
		sess.onScopes(req)
	case *dap.VariablesRequest:
		sess.onVariables(req)
	case *dap.SetVariableRequest:
		sess.onSetVariable(req)
	case *dap.SetExpressionRequest:
		sess.onSetExpression(req)
	case *dap.EvaluateRequest:
		sess.onEvaluate(req)
	case *dap.CompletionsRequest:
		sess.onCompletions(req)
	case *dap.ContinueRequest:
		sess.deps().Coordinator.Continue()
		sess.respond(&dap.ContinueResponse{
			Response: *newResponse(req.GetSeq(), "continue"),
			Body:     dap.ContinueResponseBody{AllThreadsContinued: true},
		})
	case *dap.PauseRequest:
		sess.deps().Coordinator.Pause()
		sess.respond(okResponse(req.GetSeq(), "pause"))
	case *dap.NextRequest:
		sess.deps().Coordinator.Step(coordinator.StepOver)
		sess.respond(okResponse(req.GetSeq(), "next"))
	case *dap.StepInRequest:
		sess.deps().Coordinator.Step(coordinator.StepInto)
		sess.respond(okResponse(req.GetSeq(), "stepIn"))
	case *dap.StepOutRequest:
		sess.deps().Coordinator.Step(coordinator.StepOut)
		sess.respond(okResponse(req.GetSeq(), "stepOut"))
	case *dap.StepBackRequest:
		sess.onStepBack(req)
	case *dap.ReverseContinueRequest:
		sess.onReverseContinue(req)
	case *dap.GotoTargetsRequest:
		sess.onGotoTargets(req)
	case *dap.GotoRequest:
		sess.onGoto(req)
	case *dap.ExceptionInfoRequest:
		sess.onExceptionInfo(req)
	case *dap.DisconnectRequest:
		sess.onDisconnect(req)
	case *dap.TerminateRequest:
		sess.onTerminate(req)
	case *dap.Request:
		sess.onCustomRequest(req)
	default:
		sess.srv.log.LogError(fmt.Sprintf("dapserver: unhandled message type %T", msg))
	}
}

func (sess *session) deps() Deps {
	return sess.srv.deps
}

// initialize / capabilities
// ==========================

/*
initializeResponseBody extends go-dap's Capabilities with a sessionId
extension field, surfaced in the initialize response's
body.sessionId (non-standard but harmless; DAP clients ignore unknown
body fields).
*/
type initializeResponseBody struct {
	dap.Capabilities
	SessionId string `json:"sessionId,omitempty"`
}

type initializeResponse struct {
	dap.Response
	Body initializeResponseBody `json:"body"`
}

func (sess *session) onInitialize(req *dap.InitializeRequest) {
	resp := &initializeResponse{
		Response: *newResponse(req.GetSeq(), "initialize"),
		Body:     initializeResponseBody{SessionId: sess.id.String()},
	}

	b := &resp.Body.Capabilities
	b.SupportsConfigurationDoneRequest = true
	b.SupportsFunctionBreakpoints = true
	b.SupportsConditionalBreakpoints = true
	b.SupportsHitConditionalBreakpoints = true
	b.SupportsEvaluateForHovers = true
	b.SupportsStepBack = true
	b.SupportsSetVariable = true
	b.SupportsGotoTargetsRequest = true
	b.SupportsCompletionsRequest = true
	b.SupportsExceptionInfoRequest = true
	b.SupportsLogPoints = true
	b.SupportsSetExpression = true
	b.SupportsTerminateRequest = true
	b.SupportTerminateDebuggee = true
	b.SupportsExceptionFilterOptions = true

	b.ExceptionBreakpointFilters = []dap.ExceptionBreakpointsFilter{
		{Filter: "raised", Label: "Raised Exceptions", Default: false},
		{Filter: "uncaught", Label: "Uncaught Exceptions", Default: true},
	}
	b.CompletionTriggerCharacters = []string{"."}

	sess.respond(resp)
	sess.emit(&dap.InitializedEvent{Event: *newEvent("initialized")})
}

// breakpoints
// ===========

func (sess *session) onSetBreakpoints(req *dap.SetBreakpointsRequest) {
	specs := make([]breakpoint.Breakpoint, len(req.Arguments.Breakpoints))
	for i, b := range req.Arguments.Breakpoints {
		specs[i] = breakpoint.Breakpoint{
			Line:         b.Line,
			Condition:    b.Condition,
			HitCondition: b.HitCondition,
			LogMessage:   b.LogMessage,
		}
	}

	result := sess.deps().Index.SetBreakpoints(req.Arguments.Source.Path, specs)

	if len(result) > 0 {
		sess.deps().Coordinator.RequestTrace()
	}

	out := make([]dap.Breakpoint, len(result))
	for i, bp := range result {
		out[i] = dap.Breakpoint{
			Id:       bp.ID,
			Verified: bp.Verified,
			Message:  bp.Message,
			Line:     bp.Line,
			Source:   &dap.Source{Path: bp.Path},
		}
	}

	sess.respond(&dap.SetBreakpointsResponse{
		Response: *newResponse(req.GetSeq(), "setBreakpoints"),
		Body:     dap.SetBreakpointsResponseBody{Breakpoints: out},
	})
}

func (sess *session) onSetFunctionBreakpoints(req *dap.SetFunctionBreakpointsRequest) {
	specs := make([]breakpoint.FunctionBreakpoint, len(req.Arguments.Breakpoints))
	for i, b := range req.Arguments.Breakpoints {
		specs[i] = breakpoint.FunctionBreakpoint{Label: b.Name, Condition: b.Condition}
	}

	result := sess.deps().Index.SetFunctionBreakpoints(specs)
	if len(result) > 0 {
		sess.deps().Coordinator.RequestTrace()
	}

	out := make([]dap.Breakpoint, len(result))
	for i, fb := range result {
		out[i] = dap.Breakpoint{Id: fb.ID, Verified: fb.Verified, Message: fb.Message}
	}

	sess.respond(&dap.SetFunctionBreakpointsResponse{
		Response: *newResponse(req.GetSeq(), "setFunctionBreakpoints"),
		Body:     dap.SetFunctionBreakpointsResponseBody{Breakpoints: out},
	})
}

func (sess *session) onSetExceptionBreakpoints(req *dap.SetExceptionBreakpointsRequest) {
	raised, uncaught := false, false
	for _, f := range req.Arguments.Filters {
		switch f {
		case "raised":
			raised = true
		case "uncaught":
			uncaught = true
		}
	}
	sess.deps().Coordinator.SetExceptionFilters(raised, uncaught)
	sess.respond(okResponse(req.GetSeq(), "setExceptionBreakpoints"))
}

// threads / stack / scopes / variables
// =====================================

func (sess *session) onThreads(req *dap.ThreadsRequest) {
	sess.respond(&dap.ThreadsResponse{
		Response: *newResponse(req.GetSeq(), "threads"),
		Body:     dap.ThreadsResponseBody{Threads: []dap.Thread{{Id: threadID, Name: "script"}}},
	})
}

func (sess *session) onStackTrace(req *dap.StackTraceRequest) {
	frames := sess.deps().Frames.Build(sess.deps().Coordinator.Location())

	out := make([]dap.StackFrame, len(frames))
	for i, f := range frames {
		out[i] = dap.StackFrame{
			Id:     f.ID,
			Name:   f.Name,
			Line:   f.Line,
			Column: f.Column,
			Source: &dap.Source{Path: f.Source, Name: filepath.Base(f.Source)},
		}
	}

	sess.respond(&dap.StackTraceResponse{
		Response: *newResponse(req.GetSeq(), "stackTrace"),
		Body:     dap.StackTraceResponseBody{StackFrames: out, TotalFrames: len(out)},
	})
}

func (sess *session) onScopes(req *dap.ScopesRequest) {
	names := sess.deps().Variables.Scopes()

	out := make([]dap.Scope, len(names))
	for i, name := range names {
		out[i] = dap.Scope{
			Name:               name,
			VariablesReference: scopeRef(name),
			Expensive:          name == "Globals",
		}
	}

	sess.respond(&dap.ScopesResponse{
		Response: *newResponse(req.GetSeq(), "scopes"),
		Body:     dap.ScopesResponseBody{Scopes: out},
	})
}

func scopeRef(name string) int {
	switch name {
	case "Locals":
		return variables.Locals
	case "Store":
		return variables.Store
	case "Globals":
		return variables.Globals
	}
	return 0
}

func (sess *session) onVariables(req *dap.VariablesRequest) {
	rows := sess.deps().Variables.Variables(req.Arguments.VariablesReference)

	out := make([]dap.Variable, len(rows))
	for i, r := range rows {
		out[i] = dap.Variable{Name: r.Name, Value: r.Value, Type: r.Type, VariablesReference: r.Reference}
	}

	sess.respond(&dap.VariablesResponse{
		Response: *newResponse(req.GetSeq(), "variables"),
		Body:     dap.VariablesResponseBody{Variables: out},
	})
}

func (sess *session) onSetVariable(req *dap.SetVariableRequest) {
	row, err := sess.deps().Variables.SetVariable(req.Arguments.VariablesReference, req.Arguments.Name, req.Arguments.Value)
	if err != nil {
		sess.respondErr(req.GetSeq(), "setVariable", err)
		return
	}

	sess.respond(&dap.SetVariableResponse{
		Response: *newResponse(req.GetSeq(), "setVariable"),
		Body:     dap.SetVariableResponseBody{Value: row.Value, Type: row.Type, VariablesReference: row.Reference},
	})
}

func (sess *session) onSetExpression(req *dap.SetExpressionRequest) {
	row, err := sess.deps().Variables.SetExpression(req.Arguments.Expression, req.Arguments.Value)
	if err != nil {
		sess.respondErr(req.GetSeq(), "setExpression", err)
		return
	}

	sess.respond(&dap.SetExpressionResponse{
		Response: *newResponse(req.GetSeq(), "setExpression"),
		Body:     dap.SetExpressionResponseBody{Value: row.Value, Type: row.Type, VariablesReference: row.Reference},
	})
}

func (sess *session) onEvaluate(req *dap.EvaluateRequest) {
	ctx := variables.ContextRepl
	switch req.Arguments.Context {
	case "watch":
		ctx = variables.ContextWatch
	case "hover":
		ctx = variables.ContextHover
	}

	row, err := sess.deps().Variables.Evaluate(req.Arguments.Expression, ctx)
	if err != nil {
		sess.respondErr(req.GetSeq(), "evaluate", err)
		return
	}

	sess.respond(&dap.EvaluateResponse{
		Response: *newResponse(req.GetSeq(), "evaluate"),
		Body:     dap.EvaluateResponseBody{Result: row.Value, Type: row.Type, VariablesReference: row.Reference},
	})
}

func (sess *session) onCompletions(req *dap.CompletionsRequest) {
	items := sess.deps().Variables.Completions(req.Arguments.Text, sess.deps().Builtins)

	out := make([]dap.CompletionItem, len(items))
	for i, it := range items {
		out[i] = dap.CompletionItem{Label: it.Label}
	}

	sess.respond(&dap.CompletionsResponse{
		Response: *newResponse(req.GetSeq(), "completions"),
		Body:     dap.CompletionsResponseBody{Targets: out},
	})
}

// stepping
// ========

func (sess *session) onStepBack(req *dap.StepBackRequest) {
	if !sess.deps().Coordinator.StepBack() {
		sess.respondErrText(req.GetSeq(), "stepBack", "host does not support rollback")
		return
	}
	sess.respond(okResponse(req.GetSeq(), "stepBack"))
}

func (sess *session) onReverseContinue(req *dap.ReverseContinueRequest) {
	if !sess.deps().Coordinator.StepBack() {
		sess.respondErrText(req.GetSeq(), "reverseContinue", "host does not support rollback")
		return
	}
	sess.respond(okResponse(req.GetSeq(), "reverseContinue"))
}

// navigator
// =========

func (sess *session) onGotoTargets(req *dap.GotoTargetsRequest) {
	targets := sess.deps().Navigator.GotoTargets(req.Arguments.Source.Path, req.Arguments.Line)

	out := make([]dap.GotoTarget, len(targets))
	for i, t := range targets {
		out[i] = dap.GotoTarget{
			Id:                           t.ID,
			Label:                        t.Label,
			Line:                         t.Line,
			InstructionPointerReference:  t.InstructionRef,
		}
	}

	sess.respond(&dap.GotoTargetsResponse{
		Response: *newResponse(req.GetSeq(), "gotoTargets"),
		Body:     dap.GotoTargetsResponseBody{Targets: out},
	})
}

func (sess *session) onGoto(req *dap.GotoRequest) {
	if err := sess.deps().Navigator.Goto(req.Arguments.TargetId); err != nil {
		sess.respondErr(req.GetSeq(), "goto", err)
		return
	}
	sess.respond(okResponse(req.GetSeq(), "goto"))
}

// exceptions
// ==========

func (sess *session) onExceptionInfo(req *dap.ExceptionInfoRequest) {
	exc := sess.deps().Coordinator.LastException()
	if exc == nil {
		sess.respondErrText(req.GetSeq(), "exceptionInfo", "no exception recorded")
		return
	}

	sess.respond(&dap.ExceptionInfoResponse{
		Response: *newResponse(req.GetSeq(), "exceptionInfo"),
		Body: dap.ExceptionInfoResponseBody{
			ExceptionId: exc.TypeName,
			Description: exc.Message,
			BreakMode:   dap.ExceptionBreakModeAlways,
			Details: &dap.ExceptionDetails{
				Message:      exc.Message,
				TypeName:     exc.TypeName,
				FullTypeName: exc.FullTypeName,
				StackTrace:   exc.FormattedTrace,
			},
		},
	})
}

// disconnect / terminate
// =======================

func (sess *session) onDisconnect(req *dap.DisconnectRequest) {
	sess.respond(okResponse(req.GetSeq(), "disconnect"))
	sess.emit(&dap.TerminatedEvent{Event: *newEvent("terminated")})
	sess.close()
}

func (sess *session) onTerminate(req *dap.TerminateRequest) {
	sess.deps().Host.RequestQuit()
	sess.respond(okResponse(req.GetSeq(), "terminate"))
	sess.emit(&dap.TerminatedEvent{Event: *newEvent("terminated")})
	sess.close()
}

// custom requests
// ===============

func (sess *session) onCustomRequest(req *dap.Request) {
	switch req.Command {
	case "runToLine":
		sess.onRunToLine(req)
	case "jumpToLabel":
		sess.onJumpToLabel(req)
	case "getSceneState":
		sess.onGetSceneState(req)
	case "getImageDefinition":
		sess.onGetImageDefinition(req)
	default:
		sess.respondErrText(req.GetSeq(), req.Command, "unsupported command: "+req.Command)
	}
}

type sourceRef struct {
	Path string `json:"path"`
}

func (sess *session) onRunToLine(req *dap.Request) {
	var args struct {
		Source sourceRef `json:"source"`
		Line   int        `json:"line"`
	}
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		sess.respondErr(req.GetSeq(), req.Command, err)
		return
	}
	if err := sess.deps().Navigator.RunToLine(args.Source.Path, args.Line); err != nil {
		sess.respondErr(req.GetSeq(), req.Command, err)
		return
	}
	sess.respond(okResponse(req.GetSeq(), req.Command))
}

func (sess *session) onJumpToLabel(req *dap.Request) {
	var args struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		sess.respondErr(req.GetSeq(), req.Command, err)
		return
	}
	if err := sess.deps().Navigator.JumpToLabel(args.Label, false); err != nil {
		sess.respondErr(req.GetSeq(), req.Command, err)
		return
	}
	sess.respond(okResponse(req.GetSeq(), req.Command))
}

func (sess *session) onGetSceneState(req *dap.Request) {
	snap := sess.deps().Scene.GetSceneState()
	sess.respond(&genericResponse{
		Response: *newResponse(req.GetSeq(), req.Command),
		Body:     snap,
	})
}

func (sess *session) onGetImageDefinition(req *dap.Request) {
	var args struct {
		Tag string `json:"tag"`
	}
	if err := json.Unmarshal(req.Arguments, &args); err != nil {
		sess.respondErr(req.GetSeq(), req.Command, err)
		return
	}
	def := sess.deps().Scene.GetImageDefinition(args.Tag)
	sess.respond(&genericResponse{
		Response: *newResponse(req.GetSeq(), req.Command),
		Body:     def,
	})
}

// response helpers
// ================

/*
genericResponse carries a success body for the custom, non-standard
commands (runToLine, getSceneState, ...) that go-dap has no typed
Response for.
*/
type genericResponse struct {
	dap.Response
	Body interface{} `json:"body,omitempty"`
}

func newResponse(requestSeq int, command string) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Type: "response"},
		Command:         command,
		RequestSeq:      requestSeq,
		Success:         true,
	}
}

func newEvent(name string) *dap.Event {
	return &dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Type: "event"},
		Event:           name,
	}
}

func okResponse(requestSeq int, command string) *genericResponse {
	return &genericResponse{Response: *newResponse(requestSeq, command)}
}

func (sess *session) respondErr(requestSeq int, command string, err error) {
	sess.respond(&dap.ErrorResponse{
		Response: dap.Response{
			ProtocolMessage: dap.ProtocolMessage{Type: "response"},
			Command:         command,
			RequestSeq:      requestSeq,
			Success:         false,
			Message:         err.Error(),
		},
		Body: dap.ErrorResponseBody{Error: &dap.ErrorMessage{Format: err.Error()}},
	})
}

func (sess *session) respondErrText(requestSeq int, command, message string) {
	sess.respondErr(requestSeq, command, fmt.Errorf("%s", message))
}

/*
stampKnownResponse sets the embedded ProtocolMessage.Seq on the typed
*dap.XxxResponse values listed below (no reflection). A message type
not listed here, nor in stampSeq, keeps Seq 0.
*/
func stampKnownResponse(msg dap.Message, seq int) {
	switch m := msg.(type) {
	case *dap.LaunchResponse:
		m.Seq = seq
	case *dap.AttachResponse:
		m.Seq = seq
	case *dap.ConfigurationDoneResponse:
		m.Seq = seq
	case *dap.SetBreakpointsResponse:
		m.Seq = seq
	case *dap.SetFunctionBreakpointsResponse:
		m.Seq = seq
	case *dap.SetExceptionBreakpointsResponse:
		m.Seq = seq
	case *dap.ThreadsResponse:
		m.Seq = seq
	case *dap.StackTraceResponse:
		m.Seq = seq
	case *dap.ScopesResponse:
		m.Seq = seq
	case *dap.VariablesResponse:
		m.Seq = seq
	case *dap.SetVariableResponse:
		m.Seq = seq
	case *dap.SetExpressionResponse:
		m.Seq = seq
	case *dap.EvaluateResponse:
		m.Seq = seq
	case *dap.CompletionsResponse:
		m.Seq = seq
	case *dap.ContinueResponse:
		m.Seq = seq
	case *dap.PauseResponse:
		m.Seq = seq
	case *dap.NextResponse:
		m.Seq = seq
	case *dap.StepInResponse:
		m.Seq = seq
	case *dap.StepOutResponse:
		m.Seq = seq
	case *dap.StepBackResponse:
		m.Seq = seq
	case *dap.ReverseContinueResponse:
		m.Seq = seq
	case *dap.GotoTargetsResponse:
		m.Seq = seq
	case *dap.GotoResponse:
		m.Seq = seq
	case *dap.ExceptionInfoResponse:
		m.Seq = seq
	case *dap.DisconnectResponse:
		m.Seq = seq
	case *dap.TerminateResponse:
		m.Seq = seq
	default:
		_ = m
	}
}
