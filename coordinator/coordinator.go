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
Package coordinator implements the execution coordinator: debugger
state, pause/resume, step modes, the statement-boundary hot path, the
expression-level trace hook, and exception handling.

The pause/resume primitive is a condition-protected interrogation
state that the script thread waits on and the IDE thread signals: a
bare boolean plus sync.Cond, generalized to a richer
Disconnected|Running|Paused|Stepping state machine.
*/
package coordinator

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/host"
	"github.com/vnlabs/vndap/parser"
	"github.com/vnlabs/vndap/util"
)

/*
State is the coordinator's tagged debugger state.
*/
type State int

const (
	Disconnected State = iota
	Running
	Paused
	Stepping
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stepping:
		return "stepping"
	default:
		return "unknown"
	}
}

/*
StepMode is the coordinator's tagged step mode.
*/
type StepMode int

const (
	StepNone StepMode = iota
	StepInto
	StepOver
	StepOut
)

/*
Location is the current execution location. Mutated only from the
script thread.
*/
type Location struct {
	File       string
	Line       int
	Statement  host.StatementNode
	ExprNode   *parser.ASTNode
}

/*
ShowEntry is one row of the tracked show/scene statement map.
*/
type ShowEntry struct {
	File string
	Line int
	Kind string // "show" | "scene"
}

/*
EventSink receives the events the coordinator emits asynchronously
(stopped, continued, output, terminated). dapserver implements this to
forward them to the DAP client.
*/
type EventSink interface {
	Stopped(reason string, hitBreakpointIDs []int, text string)
	Continued()
	Output(category, text string, source string, line int)
	Terminated()
}

/*
pendingMutation is the IDE->script-thread mutation queue, drained at
every statement boundary.
*/
type pendingMutation struct {
	jumpLabel      string
	hasJump        bool
	pauseAfterJump bool
	rollback       bool
	tempBreak      *breakpoint.Breakpoint
}

/*
Coordinator owns all mutable debugger state behind a single mutex plus
a binary pause latch.
*/
type Coordinator struct {
	mu    sync.Mutex
	cond  *sync.Cond
	latch bool // true == running/free to proceed, false == paused

	state    State
	stepMode StepMode

	stmtDepth    int
	stmtStepBase int
	exprDepth    int
	exprStepBase int

	loc Location

	lastLabel string

	pending pendingMutation

	showMap map[string]ShowEntry

	breakOnRaised   bool
	breakOnUncaught bool
	lastException   *ExceptionInfo

	traceRequested bool
	traceInstalled bool

	exprScope parser.Scope

	shutdown      bool
	clientPresent bool

	host  host.Host
	index *breakpoint.Index
	sink  EventSink
	log   util.Logger

	onReferenceReset    func()
	onPublishExprScope  func(parser.Scope)

	gameDir string
}

/*
ExceptionInfo captures the latest uncaught/raised exception.
*/
type ExceptionInfo struct {
	Message        string
	TypeName       string
	FullTypeName   string
	FormattedTrace string
}

/*
New creates a coordinator wired to the given host, breakpoint index and
event sink.
*/
func New(h host.Host, index *breakpoint.Index, sink EventSink, log util.Logger, gameDir string) *Coordinator {
	c := &Coordinator{
		state:           Disconnected,
		showMap:         make(map[string]ShowEntry),
		breakOnUncaught: true,
		host:            h,
		index:           index,
		sink:            sink,
		log:             log,
		gameDir:         gameDir,
	}
	c.cond = sync.NewCond(&c.mu)

	if h != nil {
		h.RegisterStatementCallback(c.StatementCallback)
		h.OnReload(c.onReload)
	}

	return c
}

/*
SetReferenceResetHook lets the variable inspector be told to clear its
handle table whenever the coordinator resumes.
*/
func (c *Coordinator) SetReferenceResetHook(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReferenceReset = fn
}

/*
SetExprScopePublisher lets the variable inspector be told which
expression frame (if any) is current whenever the coordinator pauses.
*/
func (c *Coordinator) SetExprScopePublisher(fn func(parser.Scope)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPublishExprScope = fn
}

/*
Attach transitions the coordinator from Disconnected to Running when a
client connects.
*/
func (c *Coordinator) Attach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Running
	c.latch = true
	c.clientPresent = true
	c.cond.Broadcast()
}

/*
Detach transitions to Disconnected, releasing the script thread if it
is waiting on the latch.
*/
func (c *Coordinator) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = Disconnected
	c.clientPresent = false
	c.latch = true
	c.cond.Broadcast()
}

/*
Shutdown requests the coordinator and its script thread waiters to
unwind.
*/
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shutdown = true
	c.latch = true
	c.cond.Broadcast()
}

/*
State returns the current debugger state.
*/
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

/*
Location returns a copy of the current execution location.
*/
func (c *Coordinator) Location() Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// Resume / step / pause protocol
// ===============================

/*
Continue implements the `continue` request: resume execution.
*/
func (c *Coordinator) Continue() {
	c.mu.Lock()
	c.state = Running
	c.stepMode = StepNone
	resetFn := c.onReferenceReset
	c.latch = true
	c.cond.Broadcast()
	c.mu.Unlock()

	if resetFn != nil {
		resetFn()
	}

	c.sink.Continued()
}

/*
Pause requests the script thread to stop at the next statement
boundary. The actual transition to Paused happens inside the statement
callback.
*/
func (c *Coordinator) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepMode = StepInto
}

/*
Step implements next/stepIn/stepOut.
*/
func (c *Coordinator) Step(mode StepMode) {
	c.mu.Lock()
	c.stepMode = mode
	c.stmtStepBase = c.stmtDepth
	c.exprStepBase = c.exprDepth
	c.state = Stepping
	c.traceRequested = true
	resetFn := c.onReferenceReset
	c.latch = true
	c.cond.Broadcast()
	c.mu.Unlock()

	if resetFn != nil {
		resetFn()
	}

	c.sink.Continued()
}

/*
StepBack implements stepBack/reverseContinue. Returns false if the host
does not support rollback.
*/
func (c *Coordinator) StepBack() bool {
	if !c.host.CanRollback() {
		return false
	}

	c.mu.Lock()
	c.pending.rollback = true
	c.stepMode = StepInto
	resetFn := c.onReferenceReset
	c.latch = true
	c.cond.Broadcast()
	c.mu.Unlock()

	if resetFn != nil {
		resetFn()
	}

	c.sink.Continued()
	return true
}

/*
pause is the internal pause protocol. Called from the script thread
(statement callback or expression trace).
*/
func (c *Coordinator) pause(reason string, hitBreakpointIDs []int, text string) {
	c.mu.Lock()
	c.state = Paused
	c.latch = false
	scope := c.exprScope
	publish := c.onPublishExprScope
	c.mu.Unlock()

	if publish != nil {
		publish(scope)
	}

	c.sink.Stopped(reason, hitBreakpointIDs, text)

	c.mu.Lock()
	for !c.latch {
		if c.shutdown || c.state == Disconnected || !c.clientPresent {
			break
		}
		waitWithTimeout(c.cond, &c.mu, 100*time.Millisecond)
	}
	c.mu.Unlock()

	c.drainPendingMutation()
}

/*
waitWithTimeout releases lk, sleeps for d, then reacquires lk. It does
not wait on cond: sync.Cond has no native timeout, so the caller's loop
polls with a short sleep instead of blocking forever.
*/
func waitWithTimeout(cond *sync.Cond, lk *sync.Mutex, d time.Duration) {
	lk.Unlock()
	time.Sleep(d)
	lk.Lock()
}

// Statement callback - the hot path
// ==================================

/*
StatementCallback is registered with the host and invoked
synchronously on the script thread before every statement.
*/
func (c *Coordinator) StatementCallback(node host.StatementNode) error {
	c.mu.Lock()
	if c.shutdown {
		c.mu.Unlock()
		return nil
	}
	if c.state == Disconnected {
		c.mu.Unlock()
		return nil
	}

	if c.traceRequested && !c.traceInstalled {
		c.traceInstalled = true
	}
	c.mu.Unlock()

	if jumpErr := c.drainPendingMutation(); jumpErr != nil {
		return jumpErr
	}

	file := node.Filename()
	line := node.Linenumber()

	c.mu.Lock()
	c.loc = Location{File: file, Line: line, Statement: node}
	c.exprScope = nil
	c.stmtDepth = len(c.host.ReturnStack())
	c.mu.Unlock()

	c.updateShowMap(node)

	c.mu.Lock()
	pauseAfterJump := c.pending.pauseAfterJump
	c.mu.Unlock()

	if pauseAfterJump {
		c.mu.Lock()
		c.pending.pauseAfterJump = false
		c.mu.Unlock()
		c.host.SetSkipMode(false)
		c.pause("goto", nil, "")
		return nil
	}

	label := currentLabel(node)
	c.mu.Lock()
	labelChanged := label != "" && label != c.lastLabel
	if label != "" {
		c.lastLabel = label
	}
	c.mu.Unlock()

	if labelChanged {
		if fb, ok := c.index.MatchFunctionBreakpoint(label); ok {
			if c.passesCondition(fb.Condition) {
				c.pause("function breakpoint", nil, "")
				return nil
			}
		}
	}

	if bp := c.index.Check(file, line); bp != nil {
		outcome := c.index.ShouldBreak(bp)
		if outcome.LogOutput != "" {
			c.sink.Output("console", "[Logpoint] "+outcome.LogOutput+"\n", file, line)
		} else if outcome.Break {
			if bp.Temporary {
				c.index.RemoveTemporary(bp)
				c.host.SetSkipMode(false)
			}
			c.pause("breakpoint", []int{bp.ID}, "")
			return nil
		}
	}

	c.mu.Lock()
	mode := c.stepMode
	depth := c.stmtDepth
	base := c.stmtStepBase
	c.mu.Unlock()

	if mode == StepInto {
		c.pause("step", nil, "")
	} else if mode == StepOver && depth <= base {
		c.pause("step", nil, "")
	}

	return nil
}

func (c *Coordinator) passesCondition(cond string) bool {
	if cond == "" {
		return true
	}
	v, err := c.host.Eval(cond)
	if err != nil {
		return false
	}
	b, ok := v.(bool)
	return !ok || b
}

/*
drainPendingMutation handles a pending jump (raised as a control-
transfer error to the host) and a pending rollback. Called both at the
top of the statement callback and again after a pause returns.
*/
func (c *Coordinator) drainPendingMutation() error {
	c.mu.Lock()
	rollback := c.pending.rollback
	c.pending.rollback = false

	hasJump := c.pending.hasJump
	label := c.pending.jumpLabel
	c.pending.hasJump = false
	c.mu.Unlock()

	if rollback {
		_ = c.host.Rollback(1)
	}

	if hasJump {
		return &JumpRequest{Label: label}
	}

	return nil
}

/*
JumpRequest is the control-transfer result the statement callback
returns to ask the host to jump to a label instead of proceeding.
*/
type JumpRequest struct {
	Label string
}

func (j *JumpRequest) Error() string {
	return "jump to label " + j.Label
}

func currentLabel(node host.StatementNode) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "label" {
		if v, ok := node.Attr("label").(string); ok {
			return v
		}
	}
	return ""
}

// Show/scene tracking
// ===================

func (c *Coordinator) updateShowMap(node host.StatementNode) {
	kind := node.Kind()

	switch kind {
	case "show", "scene":
		imspec, _ := node.Attr("imspec").(string)
		layer, tag := splitImspec(imspec)

		c.mu.Lock()
		if kind == "scene" {
			prefix := layer + "\x00"
			for k := range c.showMap {
				if strings.HasPrefix(k, prefix) {
					delete(c.showMap, k)
				}
			}
		}
		c.showMap[layer+"\x00"+tag] = ShowEntry{File: node.Filename(), Line: node.Linenumber(), Kind: kind}
		c.mu.Unlock()

	case "show-screen":
		name, _ := node.Attr("screen_name").(string)

		c.mu.Lock()
		c.showMap["screens\x00screen:"+name] = ShowEntry{File: node.Filename(), Line: node.Linenumber(), Kind: "show"}
		c.mu.Unlock()

	case "hide-screen":
		name, _ := node.Attr("screen_name").(string)

		c.mu.Lock()
		delete(c.showMap, "screens\x00screen:"+name)
		c.mu.Unlock()
	}
}

/*
ShowEntryFor returns the tracked show/scene entry for (layer, tag) or
(screens, screen:name).
*/
func (c *Coordinator) ShowEntryFor(layer, tag string) (ShowEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.showMap[layer+"\x00"+tag]
	return e, ok
}

func splitImspec(imspec string) (layer, tag string) {
	fields := strings.Fields(imspec)
	layer = "master"
	if len(fields) > 0 {
		tag = fields[0]
	}
	return
}

// Expression-level trace
// =======================

/*
RequestTrace marks the expression-level trace for installation at the
next statement boundary. It is called whenever a breakpoint is added or
stepping begins.
*/
func (c *Coordinator) RequestTrace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.traceRequested = true
}

/*
VisitState implements util.VNExprDebugger for the embedded expression
interpreter: it is called for every evaluated AST node when a trace is
installed. Debugger internals (paths under the module's own source
tree) are excluded.
*/
func (c *Coordinator) VisitState(node *parser.ASTNode, vs parser.Scope, tid uint64) util.TraceableRuntimeError {
	c.mu.Lock()
	traceOn := c.traceInstalled
	c.mu.Unlock()

	if !traceOn || node == nil {
		return nil
	}

	if isInternalSource(node) {
		return nil
	}

	c.mu.Lock()
	c.loc.ExprNode = node
	c.exprScope = vs
	mode := c.stepMode
	depth := c.exprDepth
	base := c.exprStepBase
	c.mu.Unlock()

	if mode == StepInto {
		c.pause("step", nil, "")
	} else if mode == StepOver && depth <= base {
		c.pause("step", nil, "")
	}

	return nil
}

/*
VisitStepInState marks entry into an expression-level function call.
*/
func (c *Coordinator) VisitStepInState(node *parser.ASTNode, vs parser.Scope, tid uint64) util.TraceableRuntimeError {
	c.mu.Lock()
	c.exprDepth++
	c.mu.Unlock()
	return nil
}

/*
VisitStepOutState marks return from an expression-level function call
and implements step-out completion.
*/
func (c *Coordinator) VisitStepOutState(node *parser.ASTNode, vs parser.Scope, tid uint64, soErr error) util.TraceableRuntimeError {
	c.mu.Lock()
	c.exprDepth--
	mode := c.stepMode
	depth := c.exprDepth
	base := c.exprStepBase
	c.mu.Unlock()

	if mode == StepOut && depth < base {
		c.pause("step", nil, "")
	}

	if soErr != nil && c.breakOnRaised {
		c.recordException(soErr)
		c.pause("exception", nil, "")
	}

	return nil
}

func (c *Coordinator) recordException(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastException = &ExceptionInfo{
		Message:      err.Error(),
		TypeName:     "RuntimeError",
		FullTypeName: "vndap.RuntimeError",
	}
}

/*
LastException returns the latest recorded exception, or nil.
*/
func (c *Coordinator) LastException() *ExceptionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastException
}

/*
SetExceptionFilters toggles break-on-raised / break-on-uncaught.
*/
func (c *Coordinator) SetExceptionFilters(raised, uncaught bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakOnRaised = raised
	c.breakOnUncaught = uncaught
}

/*
HandleUncaught is the uncaught-exception hook installed at detach
boundaries.
*/
func (c *Coordinator) HandleUncaught(err error) {
	c.mu.Lock()
	breakOn := c.breakOnUncaught
	c.mu.Unlock()

	c.recordException(err)

	if breakOn {
		c.pause("exception", nil, "")
	}
}

func isInternalSource(node *parser.ASTNode) bool {
	if node.Token == nil {
		return false
	}
	src := node.Token.Lsource
	if src == "" {
		return false
	}
	if strings.Contains(src, "vndap") {
		return true
	}
	ext := filepath.Ext(src)
	return ext != ".rpy" && ext != ".ecal" && ext != ".vnx"
}

// Navigator support (jump/runToLine are implemented in package navigator
// and call back into the coordinator through these methods)
// =======================================================================

/*
RequestJump stashes a pending jump to label, to be raised at the next
statement boundary.
*/
func (c *Coordinator) RequestJump(label string, pauseAfter bool) {
	c.mu.Lock()
	c.pending.hasJump = true
	c.pending.jumpLabel = label
	c.pending.pauseAfterJump = pauseAfter
	c.mu.Unlock()
}

/*
ResumeForJump clears the step mode and releases the latch so the jump
takes effect - used by navigator.JumpToLabel.
*/
func (c *Coordinator) ResumeForJump() {
	c.mu.Lock()
	c.state = Running
	c.stepMode = StepNone
	c.latch = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Coordinator) onReload() {
	c.mu.Lock()
	wasPaused := c.state == Paused
	c.state = Running
	c.latch = true
	c.loc = Location{}
	c.lastLabel = ""
	c.showMap = make(map[string]ShowEntry)
	c.cond.Broadcast()
	c.mu.Unlock()

	c.index.InvalidatePathCache()

	if wasPaused {
		c.sink.Continued()
	}
}

/*
Host returns the underlying host collaborator, for packages (navigator,
variables) that need direct access alongside the coordinator.
*/
func (c *Coordinator) Host() host.Host {
	return c.host
}

/*
Index returns the breakpoint index this coordinator owns.
*/
func (c *Coordinator) Index() *breakpoint.Index {
	return c.index
}
