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
Package frame builds the DAP stack frame list from the coordinator's
current location: the statement-level location, any expression frames
above it belonging to game files, and pseudo-frames for the logical
return stack. There is no teacher counterpart (the embedded expression
language's Describe() returns a flat node list, not a DAP-shaped frame
stack), so the merge logic here is new.
*/
package frame

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/host"
)

/*
Frame is one DAP stack frame.
*/
type Frame struct {
	ID     int
	Name   string
	Source string // absolute path
	Line   int
	Column int // always 0; unused
}

/*
Builder produces frame lists from a coordinator and execution context.
*/
type Builder struct {
	gameDir string
	labels  host.LabelTable
	exec    host.ExecContext
}

/*
New creates a frame Builder rooted at gameDir.
*/
func New(gameDir string, labels host.LabelTable, exec host.ExecContext) *Builder {
	return &Builder{gameDir: gameDir, labels: labels, exec: exec}
}

/*
Build constructs the frame list for the coordinator's current
location, innermost first: the statement frame, then any expression
frames, then the logical return-stack pseudo-frames.
*/
func (b *Builder) Build(loc coordinator.Location) []Frame {
	var frames []Frame
	id := 1

	if loc.Statement != nil {
		frames = append(frames, Frame{
			ID:     id,
			Name:   statementName(loc.Statement),
			Source: b.resolvePath(loc.File),
			Line:   loc.Line,
		})
		id++
	}

	if loc.ExprNode != nil && loc.ExprNode.Token != nil {
		src := loc.ExprNode.Token.Lsource
		if b.isGameFile(src) {
			frames = append(frames, Frame{
				ID:     id,
				Name:   "expr " + loc.ExprNode.Name,
				Source: b.resolvePath(src),
				Line:   loc.ExprNode.Token.Lline,
			})
			id++
		}
	}

	for i := len(b.exec.ReturnStack()) - 1; i >= 0; i-- {
		label := b.exec.ReturnStack()[i]

		node, ok := b.labels.Label(label)
		if !ok {
			continue
		}

		frames = append(frames, Frame{
			ID:     id,
			Name:   fmt.Sprintf("return to %s", label),
			Source: b.resolvePath(node.Filename()),
			Line:   node.Linenumber(),
		})
		id++
	}

	return frames
}

func statementName(node host.StatementNode) string {
	switch node.Kind() {
	case "say":
		what, _ := node.Attr("what").(string)
		return fmt.Sprintf("say %q", truncate(what, 60))
	case "jump", "call":
		if target, ok := node.Attr("target").(string); ok {
			return fmt.Sprintf("%s %s", node.Kind(), target)
		}
	case "label":
		if label, ok := node.Attr("label").(string); ok {
			return fmt.Sprintf("label %s", label)
		}
	}
	return node.Kind()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

func (b *Builder) isGameFile(src string) bool {
	if src == "" {
		return false
	}
	if strings.HasPrefix(src, b.gameDir) {
		return true
	}
	ext := filepath.Ext(src)
	return ext == ".rpy" || ext == ".ecal" || ext == ".vnx"
}

func (b *Builder) resolvePath(path string) string {
	path = strings.TrimPrefix(path, "file://")
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.gameDir, path)
}
