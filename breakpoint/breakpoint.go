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
Package breakpoint implements the breakpoint index: path-normalized
storage, O(1) rejection of files with no breakpoints, and the
conditional / hit-condition / logpoint evaluation rules a hit must pass
before it becomes a pause.

The storage shape - a basename set guarding a path->line map - is
follows the flat map[string]bool keyed by "source:line" used by the
embedded language's own CLI debugger, generalized here to carry
condition/hit-condition/log-message state per breakpoint.
*/
package breakpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/vnlabs/vndap/host"
)

/*
Breakpoint is one line breakpoint.
*/
type Breakpoint struct {
	ID            int
	Path          string // normalized
	Line          int
	Verified      bool
	Message       string // verification diagnostic, if any
	Condition     string
	HitCondition  string
	LogMessage    string
	HitCount      int
	Temporary     bool // one-shot breakpoint installed by runToLine
}

/*
FunctionBreakpoint is a breakpoint keyed by label name.
*/
type FunctionBreakpoint struct {
	ID        int
	Label     string
	Condition string
	Verified  bool
	Message   string
	HitCount  int
}

/*
Outcome is what should_break decided for one hit.
*/
type Outcome struct {
	Break      bool
	LogOutput  string // non-empty if a logpoint line should be emitted instead of a break
}

/*
Index is the breakpoint index. One instance is owned by the execution
coordinator and shared between the script thread (check, hot path) and
the dispatcher thread (setBreakpoints et al).
*/
type Index struct {
	mu sync.Mutex

	baseDir string // game base directory, used to resolve relative paths

	basenames map[string]bool                 // O(1) "no breakpoints in this file" rejection
	byPath    map[string]map[int]*Breakpoint   // normalized path -> line -> breakpoint
	pathCache map[string]string                // raw path -> normalized path memo

	funcBreaks map[string]*FunctionBreakpoint // label -> function breakpoint

	nextID int

	labels host.LabelTable
	eval   host.Evaluator
}

/*
NewIndex creates an empty breakpoint index rooted at baseDir.
*/
func NewIndex(baseDir string, labels host.LabelTable, eval host.Evaluator) *Index {
	return &Index{
		baseDir:    baseDir,
		basenames:  make(map[string]bool),
		byPath:     make(map[string]map[int]*Breakpoint),
		pathCache:  make(map[string]string),
		funcBreaks: make(map[string]*FunctionBreakpoint),
		labels:     labels,
		eval:       eval,
	}
}

/*
Normalize resolves a path the way absolute paths are realpath'd,
relative ones are first resolved against the game base directory.
Results are memoized.
*/
func (idx *Index) Normalize(path string) string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.normalizeLocked(path)
}

func (idx *Index) normalizeLocked(path string) string {
	if norm, ok := idx.pathCache[path]; ok {
		return norm
	}

	p := path
	if !filepath.IsAbs(p) {
		p = filepath.Join(idx.baseDir, p)
	}

	norm, err := filepath.EvalSymlinks(p)
	if err != nil {
		// File may not exist yet (e.g. verification happens before the
		// script is loaded) - fall back to the cleaned absolute path.
		norm = filepath.Clean(p)
	}

	idx.pathCache[path] = norm
	return norm
}

/*
InvalidatePathCache clears the memoized path normalizations. Called by
the coordinator on script reload.
*/
func (idx *Index) InvalidatePathCache() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.pathCache = make(map[string]string)
}

/*
SetBreakpoints atomically replaces the breakpoint set for one file and
returns the (possibly unverified) result list in request order.
*/
func (idx *Index) SetBreakpoints(rawPath string, specs []Breakpoint) []Breakpoint {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	norm := idx.normalizeLocked(rawPath)
	base := filepath.Base(norm)

	exists := fileExists(norm)

	lines := make(map[int]*Breakpoint, len(specs))
	result := make([]Breakpoint, len(specs))

	for i, spec := range specs {
		idx.nextID++

		bp := &Breakpoint{
			ID:           idx.nextID,
			Path:         norm,
			Line:         spec.Line,
			Verified:     exists,
			Condition:    spec.Condition,
			HitCondition: spec.HitCondition,
			LogMessage:   spec.LogMessage,
		}

		if !exists {
			bp.Message = fmt.Sprintf("source file not found: %s", norm)
		}

		lines[spec.Line] = bp
		result[i] = *bp
	}

	if len(lines) == 0 {
		delete(idx.byPath, norm)
		delete(idx.basenames, base)
	} else {
		idx.byPath[norm] = lines
		idx.basenames[base] = true
	}

	return result
}

/*
SetFunctionBreakpoints atomically replaces the whole function breakpoint
set.
*/
func (idx *Index) SetFunctionBreakpoints(specs []FunctionBreakpoint) []FunctionBreakpoint {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	fb := make(map[string]*FunctionBreakpoint, len(specs))
	result := make([]FunctionBreakpoint, len(specs))

	for i, spec := range specs {
		idx.nextID++

		verified := false
		msg := fmt.Sprintf("unknown label: %s", spec.Label)
		if idx.labels != nil {
			if _, ok := idx.labels.Label(spec.Label); ok {
				verified = true
				msg = ""
			}
		}

		entry := &FunctionBreakpoint{
			ID:        idx.nextID,
			Label:     spec.Label,
			Condition: spec.Condition,
			Verified:  verified,
			Message:   msg,
		}

		fb[spec.Label] = entry
		result[i] = *entry
	}

	idx.funcBreaks = fb
	return result
}

/*
MatchFunctionBreakpoint returns the function breakpoint for label, if
one is set and verified.
*/
func (idx *Index) MatchFunctionBreakpoint(label string) (*FunctionBreakpoint, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	fb, ok := idx.funcBreaks[label]
	if !ok || !fb.Verified {
		return nil, false
	}
	cp := *fb
	return &cp, true
}

/*
Check is the hot path, called for every executing statement. It returns
the matching breakpoint, or nil, without normalizing the path unless the
basename set already indicates the file might have one.
*/
func (idx *Index) Check(file string, line int) *Breakpoint {
	base := filepath.Base(file)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.basenames[base] {
		return nil
	}

	norm := idx.normalizeLocked(file)
	lines, ok := idx.byPath[norm]
	if !ok {
		return nil
	}

	bp, ok := lines[line]
	if !ok {
		return nil
	}

	return bp
}

/*
AddTemporary inserts a one-shot breakpoint at (file, line) for runToLine
and returns it. It participates in the same index as user breakpoints
but carries no condition/hit-condition/log-message.
*/
func (idx *Index) AddTemporary(file string, line int) *Breakpoint {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	norm := idx.normalizeLocked(file)
	base := filepath.Base(norm)

	idx.nextID++
	bp := &Breakpoint{ID: idx.nextID, Path: norm, Line: line, Verified: true, Temporary: true}

	lines, ok := idx.byPath[norm]
	if !ok {
		lines = make(map[int]*Breakpoint)
		idx.byPath[norm] = lines
	}
	lines[line] = bp
	idx.basenames[base] = true

	return bp
}

/*
RemoveTemporary retires a temporary breakpoint previously returned by
AddTemporary. If it was the last breakpoint for the file the basename
entry is dropped too.
*/
func (idx *Index) RemoveTemporary(bp *Breakpoint) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	lines, ok := idx.byPath[bp.Path]
	if !ok {
		return
	}

	delete(lines, bp.Line)

	if len(lines) == 0 {
		delete(idx.byPath, bp.Path)
		delete(idx.basenames, filepath.Base(bp.Path))
	}
}

/*
ShouldBreak evaluates a matched breakpoint's condition, hit-condition
and logpoint rules in order. Hit count is incremented before the
checks run.
*/
func (idx *Index) ShouldBreak(bp *Breakpoint) Outcome {
	idx.mu.Lock()
	bp.HitCount++
	hitCount := bp.HitCount
	condition := bp.Condition
	hitCondition := bp.HitCondition
	logMessage := bp.LogMessage
	idx.mu.Unlock()

	if condition != "" {
		v, err := idx.eval.Eval(condition)
		if err != nil {
			return Outcome{Break: false}
		}
		if !truthy(v) {
			return Outcome{Break: false}
		}
	}

	if hitCondition != "" {
		if !evalHitCondition(hitCondition, hitCount) {
			return Outcome{Break: false}
		}
	}

	if logMessage != "" {
		return Outcome{Break: false, LogOutput: idx.renderLogMessage(logMessage)}
	}

	return Outcome{Break: true}
}

/*
renderLogMessage substitutes every {expr} occurrence in template with
the evaluation of expr. Evaluation errors render as "<expr: err>" inline
and never cause a break.
*/
func (idx *Index) renderLogMessage(template string) string {
	var b strings.Builder

	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open == -1 {
			b.WriteString(template[i:])
			break
		}
		open += i

		shut := strings.IndexByte(template[open:], '}')
		if shut == -1 {
			b.WriteString(template[i:])
			break
		}
		shut += open

		b.WriteString(template[i:open])

		expr := template[open+1 : shut]
		v, err := idx.eval.Eval(expr)
		if err != nil {
			fmt.Fprintf(&b, "<%s: %v>", expr, err)
		} else {
			b.WriteString(repr(v))
		}

		i = shut + 1
	}

	return b.String()
}

/*
repr renders a logpoint expression's value the way the variables
inspector does: strings quoted, nil as "null", everything else via
fmt.Sprint.
*/
func repr(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", s)
	default:
		return fmt.Sprint(s)
	}
}

/*
evalHitCondition implements ">N", ">=N", "<N", "<=N", "==N", "!=N", "%N"
and bare "N" (equality) against the current hit count. Parse errors
cause a break.
*/
func evalHitCondition(expr string, hitCount int) bool {
	expr = strings.TrimSpace(expr)

	ops := []string{">=", "<=", "==", "!=", ">", "<", "%"}
	for _, op := range ops {
		if strings.HasPrefix(expr, op) {
			n, err := strconv.Atoi(strings.TrimSpace(expr[len(op):]))
			if err != nil {
				return true
			}
			switch op {
			case ">":
				return hitCount > n
			case ">=":
				return hitCount >= n
			case "<":
				return hitCount < n
			case "<=":
				return hitCount <= n
			case "==":
				return hitCount == n
			case "!=":
				return hitCount != n
			case "%":
				return n != 0 && hitCount%n == 0
			}
		}
	}

	n, err := strconv.Atoi(expr)
	if err != nil {
		return true
	}
	return hitCount == n
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
