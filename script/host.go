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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/host"
	"github.com/vnlabs/vndap/interpreter"
	"github.com/vnlabs/vndap/parser"
	"github.com/vnlabs/vndap/scope"
	"github.com/vnlabs/vndap/util"
)

/*
callFrame is one entry in the logical call/return stack: the label the
call statement was made from, and the statement index to resume at on
return.
*/
type callFrame struct {
	label    string
	returnPC int
}

/*
checkpoint is a full state snapshot taken before every statement,
letting Rollback undo one or more statements. This reference host
keeps a bounded history rather than a full rollback log, since it is a
demo host and not a production engine.
*/
type checkpoint struct {
	pc          int
	returnStack []callFrame
	scene       map[string][]host.SceneEntry
}

const maxCheckpoints = 200

/*
Host is the reference implementation of host.Host: a small statement
interpreter running a Program, with VNExpr wired in for `$expr`
statements, if-conditions and the debug engine's evaluate/watch
requests. One Host serves one running script; construct a new one
after Reload if a fresh variable store is desired.
*/
type Host struct {
	*Program

	mu sync.Mutex

	pc          int
	returnStack []callFrame
	scene       map[string][]host.SceneEntry

	skip      bool
	skipDelay time.Duration
	tick      chan struct{}

	checkpoints []checkpoint

	reloadCbs []func()
	stmtCb    host.StatementCallback

	invoke chan func()

	quit     chan struct{}
	quitOnce sync.Once

	rp       *interpreter.VNExprRuntimeProvider
	globalVS parser.Scope
	tid      uint64

	log util.Logger
}

/*
New creates a Host running prog. debugger, if non-nil, is installed on
the embedded VNExpr runtime provider so the coordinator can observe
expression-level evaluation.
*/
func New(prog *Program, debugger util.VNExprDebugger, log util.Logger) *Host {
	if log == nil {
		log = util.NewMemoryLogger(100)
	}

	rp := interpreter.NewVNExprRuntimeProvider("script", nil, log)
	rp.Debugger = debugger

	h := &Host{
		Program:    prog,
		pc:         -1,
		scene:      make(map[string][]host.SceneEntry),
		tick:       make(chan struct{}, 1),
		invoke:     make(chan func()),
		quit:       make(chan struct{}),
		rp:         rp,
		globalVS:   scope.NewScope("store"),
		log:        log,
	}
	h.tid = rp.NewThreadID()

	return h
}

/*
SetDebugger installs the VNExpr debugger after construction. The
coordinator implements util.VNExprDebugger but itself requires a
host.Host at construction time, so the two cannot be built in one
step: callers build the Host with a nil debugger, construct the
coordinator around it, then call SetDebugger(coord) to complete the
wiring.
*/
func (h *Host) SetDebugger(debugger util.VNExprDebugger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rp.Debugger = debugger
}

/*
Store returns the script's global variable scope, handed to
variables.New and breakpoint.NewIndex by the caller wiring up the
engine.
*/
func (h *Host) Store() parser.Scope {
	return h.globalVS
}

// host.StatementCallbackRegistrar
// ================================

func (h *Host) RegisterStatementCallback(cb host.StatementCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stmtCb = cb
}

// host.ExecContext
// ================

func (h *Host) CurrentStatement() host.StatementNode {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pc < 0 || h.pc >= len(h.stmts) {
		return nil
	}
	return h.stmts[h.pc]
}

func (h *Host) ReturnStack() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.returnStack))
	for i, f := range h.returnStack {
		names[i] = f.label
	}
	return names
}

func (h *Host) SceneList(layer string) []host.SceneEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.SceneEntry, len(h.scene[layer]))
	copy(out, h.scene[layer])
	return out
}

func (h *Host) Layers() []string {
	return []string{"master", "screens"}
}

// host.Rollback
// =============

func (h *Host) CanRollback() bool { return true }

func (h *Host) Rollback(checkpoints int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if checkpoints <= 0 || checkpoints > len(h.checkpoints) {
		return fmt.Errorf("script: cannot roll back %d checkpoint(s), only %d available", checkpoints, len(h.checkpoints))
	}

	target := h.checkpoints[len(h.checkpoints)-checkpoints]
	h.checkpoints = h.checkpoints[:len(h.checkpoints)-checkpoints]

	h.pc = target.pc
	h.returnStack = target.returnStack
	h.scene = target.scene

	return nil
}

func (h *Host) snapshot() {
	h.mu.Lock()
	defer h.mu.Unlock()

	sceneCopy := make(map[string][]host.SceneEntry, len(h.scene))
	for k, v := range h.scene {
		cp := make([]host.SceneEntry, len(v))
		copy(cp, v)
		sceneCopy[k] = cp
	}
	rs := make([]callFrame, len(h.returnStack))
	copy(rs, h.returnStack)

	h.checkpoints = append(h.checkpoints, checkpoint{pc: h.pc, returnStack: rs, scene: sceneCopy})
	if len(h.checkpoints) > maxCheckpoints {
		h.checkpoints = h.checkpoints[len(h.checkpoints)-maxCheckpoints:]
	}
}

// host.SkipMode
// =============

func (h *Host) SetSkipMode(fast bool) {
	h.mu.Lock()
	h.skip = fast
	h.mu.Unlock()
}

func (h *Host) SetSkipDelay(d time.Duration) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.skipDelay
	h.skipDelay = d
	return old
}

func (h *Host) PostTick() {
	select {
	case h.tick <- struct{}{}:
	default:
	}
}

// host.Evaluator
// ==============

func (h *Host) Eval(expr string) (interface{}, error) {
	return h.evalSrc(expr)
}

func (h *Host) Exec(stmt string) error {
	_, err := h.evalSrc(stmt)
	return err
}

func (h *Host) evalSrc(src string) (interface{}, error) {
	ast, err := parser.ParseWithRuntime("eval", src, h.rp)
	if err != nil {
		return nil, err
	}
	return ast.Runtime.Eval(h.globalVS, make(map[string]interface{}), h.tid)
}

// host.ScriptThreadInvoker
// ========================

func (h *Host) InvokeOnScriptThread(fn func(), timeout time.Duration) bool {
	done := make(chan struct{})

	select {
	case h.invoke <- func() { fn(); close(done) }:
	case <-time.After(timeout):
		return false
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// host.ReloadNotifier
// ===================

func (h *Host) OnReload(cb func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloadCbs = append(h.reloadCbs, cb)
}

/*
Reload swaps in a new program, resetting execution and scene state.
Only meaningful between Run calls - this reference host has no live
code-swap support while a script thread is running. It notifies
everyone registered via OnReload, so they can invalidate any node
handles and cached paths of their own.
*/
func (h *Host) Reload(prog *Program) {
	h.mu.Lock()
	h.Program = prog
	h.pc = -1
	h.returnStack = nil
	h.scene = make(map[string][]host.SceneEntry)
	h.checkpoints = nil
	cbs := append([]func(){}, h.reloadCbs...)
	h.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

// host.Terminator
// ===============

func (h *Host) RequestQuit() {
	h.quitOnce.Do(func() {
		h.log.LogInfo("script: quit requested")
		close(h.quit)
	})
}

// Run loop
// ========

/*
Run executes the script from label startLabel until it returns off the
top of the call stack, jumps nowhere (falls past the last statement),
or RequestQuit is called. It is meant to run on its own goroutine - the
"script thread" every other package in this repository treats as a
single logical thread of control.
*/
func (h *Host) Run(startLabel string) error {
	idx, ok := h.labels[startLabel]
	if !ok {
		return fmt.Errorf("script: unknown start label %q", startLabel)
	}
	h.pc = idx

	for {
		select {
		case <-h.quit:
			return nil
		default:
		}

		select {
		case fn := <-h.invoke:
			fn()
			continue
		default:
		}

		if h.pc < 0 || h.pc >= len(h.stmts) {
			return nil
		}

		n := h.stmts[h.pc]
		h.snapshot()

		h.mu.Lock()
		cb := h.stmtCb
		h.mu.Unlock()

		if cb != nil {
			if err := cb(n); err != nil {
				if jr, ok := err.(*coordinator.JumpRequest); ok {
					if !h.jumpTo(jr.Label) {
						return fmt.Errorf("script: unknown jump target %q", jr.Label)
					}
					continue
				}
				return err
			}
		}

		next, err := h.exec(n)
		if err != nil {
			return err
		}
		h.pc = next

		h.delay()
	}
}

func (h *Host) exec(n *node) (int, error) {
	switch n.Kind() {
	case "label", "say":
		return h.pc + 1, nil

	case "show":
		imspec, _ := n.Attr("imspec").(string)
		h.doShow(imspec, "master", false)
		return h.pc + 1, nil

	case "scene":
		imspec, _ := n.Attr("imspec").(string)
		h.doShow(imspec, "master", true)
		return h.pc + 1, nil

	case "hide":
		imspec, _ := n.Attr("imspec").(string)
		h.doHide(imspec, "master")
		return h.pc + 1, nil

	case "show-screen":
		name, _ := n.Attr("screen_name").(string)
		h.mu.Lock()
		h.scene["screens"] = append(h.scene["screens"], host.SceneEntry{Tag: name})
		h.mu.Unlock()
		return h.pc + 1, nil

	case "hide-screen":
		name, _ := n.Attr("screen_name").(string)
		h.mu.Lock()
		h.scene["screens"] = removeTag(h.scene["screens"], name)
		h.mu.Unlock()
		return h.pc + 1, nil

	case "jump":
		target, _ := n.Attr("target").(string)
		idx, ok := h.labels[target]
		if !ok {
			return 0, fmt.Errorf("script: unknown jump target %q", target)
		}
		return idx, nil

	case "call":
		target, _ := n.Attr("target").(string)
		idx, ok := h.labels[target]
		if !ok {
			return 0, fmt.Errorf("script: unknown call target %q", target)
		}
		h.mu.Lock()
		h.returnStack = append(h.returnStack, callFrame{label: h.enclosingLabel(h.pc), returnPC: h.pc + 1})
		h.mu.Unlock()
		return idx, nil

	case "return":
		h.mu.Lock()
		if len(h.returnStack) == 0 {
			h.mu.Unlock()
			return len(h.stmts), nil
		}
		frame := h.returnStack[len(h.returnStack)-1]
		h.returnStack = h.returnStack[:len(h.returnStack)-1]
		h.mu.Unlock()
		return frame.returnPC, nil

	case "if":
		cond, _ := n.Attr("cond").(string)
		v, err := h.Eval(cond)
		if err != nil {
			return 0, fmt.Errorf("script: %s:%d: %w", n.Filename(), n.Linenumber(), err)
		}
		if truthy(v) {
			target, _ := n.Attr("target").(string)
			idx, ok := h.labels[target]
			if !ok {
				return 0, fmt.Errorf("script: unknown jump target %q", target)
			}
			return idx, nil
		}
		return h.pc + 1, nil

	case "menu":
		targets, _ := n.Attr("targets").([]string)
		if len(targets) == 0 {
			return h.pc + 1, nil
		}
		idx, ok := h.labels[targets[0]]
		if !ok {
			return 0, fmt.Errorf("script: unknown menu target %q", targets[0])
		}
		return idx, nil

	case "user-statement":
		expr, _ := n.Attr("expr").(string)
		if err := h.Exec(expr); err != nil {
			return 0, fmt.Errorf("script: %s:%d: %w", n.Filename(), n.Linenumber(), err)
		}
		return h.pc + 1, nil
	}

	return h.pc + 1, nil
}

func (h *Host) enclosingLabel(pc int) string {
	for i := pc; i >= 0; i-- {
		if h.stmts[i].Kind() == "label" {
			name, _ := h.stmts[i].Attr("label").(string)
			return name
		}
	}
	return ""
}

func (h *Host) jumpTo(label string) bool {
	idx, ok := h.labels[label]
	if !ok {
		return false
	}
	h.pc = idx
	return true
}

func (h *Host) delay() {
	h.mu.Lock()
	skip := h.skip
	d := h.skipDelay
	h.mu.Unlock()

	if skip || d <= 0 {
		return
	}

	select {
	case <-time.After(d):
	case <-h.tick:
	case <-h.quit:
	}
}

func (h *Host) doShow(imspec, layer string, isScene bool) {
	tag, atList := splitShowSpec(imspec)
	baseTag := firstField(tag)
	if baseTag == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if isScene {
		h.scene[layer] = nil
	} else {
		h.scene[layer] = removeTag(h.scene[layer], baseTag)
	}
	h.scene[layer] = append(h.scene[layer], host.SceneEntry{Tag: tag, AtList: atList})
}

func (h *Host) doHide(imspec, layer string) {
	baseTag := firstField(imspec)
	if baseTag == "" {
		return
	}

	h.mu.Lock()
	h.scene[layer] = removeTag(h.scene[layer], baseTag)
	h.mu.Unlock()
}

func splitShowSpec(imspec string) (tag string, atList []string) {
	parts := strings.SplitN(imspec, " at ", 2)
	tag = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		for _, f := range strings.Split(parts[1], ",") {
			if f = strings.TrimSpace(f); f != "" {
				atList = append(atList, f)
			}
		}
	}
	return
}

func removeTag(entries []host.SceneEntry, tag string) []host.SceneEntry {
	out := make([]host.SceneEntry, 0, len(entries))
	for _, e := range entries {
		if firstField(e.Tag) != tag {
			out = append(out, e)
		}
	}
	return out
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return ""
	}
	return f[0]
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	default:
		return true
	}
}
