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
Package variables implements the variable inspector: scope roots,
reference-handle allocation with lazy expansion, value formatting,
mutation and evaluate/completions.

Built on parser.Scope's ToJSONObject/SetValue/SetLocalValue (the
embedded expression language's own scope walk), wrapped in a
lazily-expanded reference-handle model so composite values are only
unpacked on demand.
*/
package variables

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"devt.de/krotik/common/stringutil"
	"github.com/vnlabs/vndap/host"
	"github.com/vnlabs/vndap/parser"
)

// Reserved scope root handles.
const (
	Locals = 1
	Store  = 2
	Globals = 3

	firstDynamic = 1000
	maxRows      = 100
	maxDepth     = 3
	maxStringLen = 1000
	maxCompletions = 50
)

/*
Row is one formatted variable row.
*/
type Row struct {
	Name      string
	Value     string
	Type      string
	Reference int
}

/*
composite is what an allocated reference handle points to: an owned
snapshot of a composite value plus the depth it was captured at.
*/
type composite struct {
	kind  string // "map" | "seq" | "set" | "object"
	value interface{}
	depth int
}

/*
Inspector is the variable inspector. One instance is owned by the
coordinator; its reference table is reset on every resume.
*/
type Inspector struct {
	mu      sync.Mutex
	nextRef int
	refs    map[int]*composite

	store      parser.Scope
	exprLocals parser.Scope // nil unless an expression frame is attached
	eval       host.Evaluator
}

/*
New creates an Inspector backed by the script's named-variable store.
*/
func New(store parser.Scope, eval host.Evaluator) *Inspector {
	return &Inspector{
		refs:    make(map[int]*composite),
		nextRef: firstDynamic,
		store:   store,
		eval:    eval,
	}
}

/*
Reset clears the reference-handle table. Called by the coordinator
whenever execution resumes.
*/
func (in *Inspector) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.refs = make(map[int]*composite)
}

/*
SetExprLocals attaches the current expression frame's scope, or nil if
none is attached.
*/
func (in *Inspector) SetExprLocals(s parser.Scope) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.exprLocals = s
}

/*
Scopes returns the scope roots visible for the current frame. Locals is
included only when an expression frame is attached.
*/
func (in *Inspector) Scopes() []string {
	in.mu.Lock()
	hasLocals := in.exprLocals != nil
	in.mu.Unlock()

	if hasLocals {
		return []string{"Locals", "Store", "Globals"}
	}
	return []string{"Store", "Globals"}
}

/*
Variables lists the rows for a given reference: a reserved scope root
or an allocated handle.
*/
func (in *Inspector) Variables(ref int) []Row {
	switch ref {
	case Locals:
		return in.scopeRows(in.exprLocals, true)
	case Store:
		return in.scopeRows(in.store, false)
	case Globals:
		return in.globalsRows()
	}

	in.mu.Lock()
	c, ok := in.refs[ref]
	in.mu.Unlock()
	if !ok {
		return nil
	}

	return in.compositeRows(c)
}

func (in *Inspector) scopeRows(s parser.Scope, excludeUnderscore bool) []Row {
	if s == nil {
		return nil
	}

	obj := s.ToJSONObject()
	names := make([]string, 0, len(obj))
	for k := range obj {
		if excludeUnderscore && strings.HasPrefix(k, "_") {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, in.formatRow(name, obj[name], 0))
	}
	return rows
}

func (in *Inspector) globalsRows() []Row {
	rows := in.scopeRows(in.store, false)
	if n := len(rows); n > maxRows {
		rows = rows[:maxRows]
		rows = append(rows, Row{Name: "…", Value: fmt.Sprintf("(%d more items)", n-maxRows), Type: ""})
	}
	return rows
}

func (in *Inspector) compositeRows(c *composite) []Row {
	switch v := c.value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		rows := make([]Row, 0, len(keys))
		for i, k := range keys {
			if i >= maxRows {
				rows = append(rows, Row{Name: "…", Value: fmt.Sprintf("(%d more items)", len(keys)-maxRows)})
				break
			}
			rows = append(rows, in.formatRow(fmt.Sprintf("%q", k), v[k], c.depth+1))
		}
		return rows

	case []interface{}:
		rows := make([]Row, 0, len(v))
		for i, elem := range v {
			if i >= maxRows {
				rows = append(rows, Row{Name: "…", Value: fmt.Sprintf("(%d more items)", len(v)-maxRows)})
				break
			}
			rows = append(rows, in.formatRow(fmt.Sprintf("[%d]", i), elem, c.depth+1))
		}
		return rows

	case map[interface{}]bool: // set
		keys := make([]interface{}, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		rows := make([]Row, 0, len(keys))
		for i, k := range keys {
			if i >= maxRows {
				rows = append(rows, Row{Name: "…", Value: fmt.Sprintf("(%d more items)", len(keys)-maxRows)})
				break
			}
			rows = append(rows, in.formatRow(fmt.Sprintf("{%d}", i), k, c.depth+1))
		}
		return rows
	}

	return nil
}

/*
formatRow renders one (name, value) pair and, if the value is
composite and within the recursion depth cap, allocates a fresh
reference handle.
*/
func (in *Inspector) formatRow(name string, value interface{}, depth int) Row {
	kind, isComposite, size := classify(value)

	row := Row{Name: name, Type: goTypeName(value)}

	switch {
	case !isComposite:
		row.Value = formatScalar(value)
	case size == 0:
		row.Value = fmt.Sprintf("%s (0 items)", kind)
	case depth >= maxDepth:
		row.Value = fmt.Sprintf("%s (%d items)", kind, size)
	default:
		row.Value = fmt.Sprintf("%s (%d items)", kind, size)
		row.Reference = in.allocate(kind, value, depth)
	}

	return row
}

func (in *Inspector) allocate(kind string, value interface{}, depth int) int {
	in.mu.Lock()
	defer in.mu.Unlock()

	ref := in.nextRef
	in.nextRef++
	in.refs[ref] = &composite{kind: kind, value: value, depth: depth}
	return ref
}

func classify(value interface{}) (kind string, isComposite bool, size int) {
	switch v := value.(type) {
	case map[string]interface{}:
		return "map", true, len(v)
	case []interface{}:
		return "list", true, len(v)
	case map[interface{}]bool:
		return "set", true, len(v)
	default:
		return "", false, 0
	}
}

func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return truncateString(fmt.Sprintf("%q", v))
	default:
		return truncateString(fmt.Sprint(v))
	}
}

func truncateString(s string) string {
	if len(s) <= maxStringLen {
		return s
	}
	return s[:maxStringLen] + "…"
}

func goTypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int, int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case map[string]interface{}:
		return "map"
	case []interface{}:
		return "list"
	case map[interface{}]bool:
		return "set"
	default:
		return "object"
	}
}

// Mutation
// ========

/*
SetVariable evaluates valueExpr and writes it into the variable named by
ref/name, then returns the refreshed row.
*/
func (in *Inspector) SetVariable(ref int, name, valueExpr string) (Row, error) {
	v, err := in.eval.Eval(valueExpr)
	if err != nil {
		return Row{}, err
	}

	switch ref {
	case Locals:
		if in.exprLocals == nil {
			return Row{}, fmt.Errorf("no expression frame attached")
		}
		if err := in.exprLocals.SetLocalValue(name, v); err != nil {
			return Row{}, err
		}
	case Store:
		if err := in.store.SetValue(name, v); err != nil {
			return Row{}, err
		}
	case Globals:
		if err := in.store.SetValue(name, v); err != nil {
			return Row{}, err
		}
	default:
		if err := in.setInComposite(ref, name, v); err != nil {
			return Row{}, err
		}
	}

	return in.formatRow(name, v, 0), nil
}

func (in *Inspector) setInComposite(ref int, name string, v interface{}) error {
	in.mu.Lock()
	c, ok := in.refs[ref]
	in.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown variable reference %d", ref)
	}

	switch container := c.value.(type) {
	case map[string]interface{}:
		key := strings.Trim(name, "\"")
		container[key] = v
	case []interface{}:
		idx, err := parseIndex(name)
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(container) {
			return fmt.Errorf("index out of range: %s", name)
		}
		container[idx] = v
	default:
		return fmt.Errorf("value at reference %d is not mutable", ref)
	}

	return nil
}

func parseIndex(name string) (int, error) {
	name = strings.TrimPrefix(name, "[")
	name = strings.TrimSuffix(name, "]")
	return strconv.Atoi(name)
}

/*
SetExpression executes `expr = valueExpr` in the script store and
returns the refreshed row.
*/
func (in *Inspector) SetExpression(expr, valueExpr string) (Row, error) {
	if err := in.eval.Exec(fmt.Sprintf("%s = %s", expr, valueExpr)); err != nil {
		return Row{}, err
	}

	v, err := in.eval.Eval(expr)
	if err != nil {
		return Row{}, err
	}

	return in.formatRow(expr, v, 0), nil
}

// Evaluate / completions
// =======================

/*
Context is the evaluate request's context: watch, hover or repl.
*/
type Context int

const (
	ContextWatch Context = iota
	ContextHover
	ContextRepl
)

/*
Evaluate runs expr against the host and, for a composite result,
allocates a reference handle.
*/
func (in *Inspector) Evaluate(expr string, ctx Context) (Row, error) {
	v, err := in.eval.Eval(expr)
	if err == nil {
		// Convert to JSON types, as the scope rows do, so maps classify as composite
		if b, jerr := json.Marshal(stringutil.ConvertToJSONMarshalableObject(v)); jerr == nil {
			json.Unmarshal(b, &v)
		}
		return in.formatRow(expr, v, 0), nil
	}

	switch ctx {
	case ContextHover:
		return Row{Value: ""}, nil
	case ContextWatch:
		return Row{Value: ""}, nil
	case ContextRepl:
		if execErr := in.eval.Exec(expr); execErr != nil {
			return Row{Value: fmt.Sprintf("Error: %v", execErr)}, nil
		}
		return Row{Value: "OK", Type: "NoneType"}, nil
	}

	return Row{}, err
}

/*
Completion is one completions-request result.
*/
type Completion struct {
	Label string
	Type  string
}

/*
Completions implements dot-attribute and store-name completion,
capped and alphabetized.
*/
func (in *Inspector) Completions(prefix string, builtins []string) []Completion {
	var results []Completion

	if idx := strings.LastIndex(prefix, "."); idx >= 0 {
		lhs := prefix[:idx]
		lead := prefix[idx+1:]

		v, err := in.eval.Eval(lhs)
		if err == nil {
			if m, ok := v.(map[string]interface{}); ok {
				for k := range m {
					if strings.HasPrefix(k, lead) {
						results = append(results, Completion{Label: k, Type: goTypeName(m[k])})
					}
				}
			}
		}
	} else {
		obj := in.store.ToJSONObject()
		for k, v := range obj {
			if strings.HasPrefix(k, prefix) {
				results = append(results, Completion{Label: k, Type: goTypeName(v)})
			}
		}
		for _, b := range builtins {
			if strings.HasPrefix(b, prefix) {
				results = append(results, Completion{Label: b, Type: "builtin"})
			}
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Label < results[j].Label })

	if len(results) > maxCompletions {
		results = results[:maxCompletions]
	}
	return results
}
