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
Package script is the reference host: a small, self-contained statement
interpreter for a visual-novel-style script format, implementing every
interface in package host so the debug engine has something real to
observe in tests and in the `vndapd serve` demo command. It is not a
production visual-novel engine.

The script format is line-oriented and flat (label/jump/call/return,
say, show/hide/scene, show-screen/hide-screen, `$expr` for VNExpr
statements, a single-line `if cond: jump target`, and a minimal
`menu:` block), following the embedded expression language's own
line-oriented script format and original_source/renpy/debugger's
statement-kind vocabulary
("say", "jump", "call", "label", "show", "scene", "show-screen",
"hide-screen", "user-statement").
*/
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vnlabs/vndap/host"
)

/*
node is the concrete host.StatementNode implementation.
*/
type node struct {
	file  string
	line  int
	kind  string
	attrs map[string]interface{}
}

func (n *node) Filename() string { return n.file }
func (n *node) Linenumber() int  { return n.line }
func (n *node) Kind() string     { return n.kind }

func (n *node) Attr(name string) interface{} {
	if n.attrs == nil {
		return nil
	}
	return n.attrs[name]
}

/*
Program is a parsed script: an ordered statement list plus a label
index.
*/
type Program struct {
	stmts  []*node
	labels map[string]int // label name -> index into stmts of the label statement itself
}

/*
Label implements host.LabelTable.
*/
func (p *Program) Label(name string) (host.StatementNode, bool) {
	idx, ok := p.labels[name]
	if !ok {
		return nil, false
	}
	return p.stmts[idx], true
}

/*
Labels implements host.LabelTable.
*/
func (p *Program) Labels() []string {
	names := make([]string, 0, len(p.labels))
	for name := range p.labels {
		names = append(names, name)
	}
	return names
}

/*
ParseFile parses a script file's contents. file is stored on every
statement as its normalized source path.
*/
func ParseFile(file, src string) (*Program, error) {
	p := &Program{labels: make(map[string]int)}

	lines := strings.Split(src, "\n")

	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		raw := lines[i]
		trimmed := strings.TrimSpace(raw)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "label ") && strings.HasSuffix(trimmed, ":"):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "label "), ":")
			name = strings.TrimSpace(name)
			p.labels[name] = len(p.stmts)
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "label", attrs: map[string]interface{}{"label": name}})

		case trimmed == "return":
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "return"})

		case strings.HasPrefix(trimmed, "jump "):
			target := strings.TrimSpace(strings.TrimPrefix(trimmed, "jump "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "jump", attrs: map[string]interface{}{"target": target}})

		case strings.HasPrefix(trimmed, "call "):
			target := strings.TrimSpace(strings.TrimPrefix(trimmed, "call "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "call", attrs: map[string]interface{}{"target": target}})

		case strings.HasPrefix(trimmed, "show-screen "):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "show-screen "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "show-screen", attrs: map[string]interface{}{"screen_name": name}})

		case strings.HasPrefix(trimmed, "hide-screen "):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "hide-screen "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "hide-screen", attrs: map[string]interface{}{"screen_name": name}})

		case strings.HasPrefix(trimmed, "show "):
			imspec := strings.TrimSpace(strings.TrimPrefix(trimmed, "show "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "show", attrs: map[string]interface{}{"imspec": imspec}})

		case strings.HasPrefix(trimmed, "scene "):
			imspec := strings.TrimSpace(strings.TrimPrefix(trimmed, "scene "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "scene", attrs: map[string]interface{}{"imspec": imspec}})

		case strings.HasPrefix(trimmed, "hide "):
			imspec := strings.TrimSpace(strings.TrimPrefix(trimmed, "hide "))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "hide", attrs: map[string]interface{}{"imspec": imspec}})

		case strings.HasPrefix(trimmed, "if ") && strings.Contains(trimmed, ": jump "):
			rest := strings.TrimPrefix(trimmed, "if ")
			parts := strings.SplitN(rest, ": jump ", 2)
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "if", attrs: map[string]interface{}{
				"cond": strings.TrimSpace(parts[0]), "target": strings.TrimSpace(parts[1]),
			}})

		case trimmed == "menu:":
			indent := indentOf(raw)
			var options []string
			var targets []string
			j := i + 1
			for j < len(lines) {
				optRaw := lines[j]
				if strings.TrimSpace(optRaw) == "" {
					j++
					continue
				}
				if indentOf(optRaw) <= indent {
					break
				}
				text, target, ok := parseMenuOption(optRaw)
				if !ok {
					break
				}
				options = append(options, text)
				targets = append(targets, target)
				j++
			}
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "menu", attrs: map[string]interface{}{
				"options": options, "targets": targets,
			}})
			i = j - 1

		case strings.HasPrefix(trimmed, "$"):
			expr := strings.TrimSpace(strings.TrimPrefix(trimmed, "$"))
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "user-statement", attrs: map[string]interface{}{"expr": expr}})

		default:
			who, what, err := parseSay(trimmed)
			if err != nil {
				return nil, fmt.Errorf("script: %s:%d: %w", file, lineNo, err)
			}
			p.stmts = append(p.stmts, &node{file: file, line: lineNo, kind: "say", attrs: map[string]interface{}{"who": who, "what": what}})
		}
	}

	return p, nil
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

/*
parseMenuOption parses a `"text" -> target` menu line.
*/
func parseMenuOption(line string) (text, target string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, `"`) {
		return "", "", false
	}

	end := strings.Index(trimmed[1:], `"`)
	if end < 0 {
		return "", "", false
	}
	text = trimmed[1 : end+1]

	rest := strings.TrimSpace(trimmed[end+2:])
	rest = strings.TrimPrefix(rest, "->")
	target = strings.TrimSpace(rest)
	if target == "" {
		return "", "", false
	}

	return text, target, true
}

/*
parseSay parses `who "what"` or bare `"what"` (narrator line).
*/
func parseSay(line string) (who, what string, err error) {
	first := strings.Index(line, `"`)
	if first < 0 {
		return "", "", fmt.Errorf("unrecognized statement: %s", line)
	}

	last := strings.LastIndex(line, `"`)
	if last <= first {
		return "", "", fmt.Errorf("unterminated string: %s", line)
	}

	who = strings.TrimSpace(line[:first])
	what = line[first+1 : last]
	if unquoted, err := strconv.Unquote(`"` + what + `"`); err == nil {
		what = unquoted
	}

	return who, what, nil
}
