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
Package navigator implements gotoTargets/goto/jumpToLabel/runToLine and
the skip-mode knobs that drive fast-forward. New relative to the
teacher (the embedded expression language has no label/goto model);
Continue/ContType from the embedded language's debugger is reused as the resume
primitive underneath a jump via coordinator.ResumeForJump.
*/
package navigator

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sort"

	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/host"
)

/*
Target is one gotoTargets result row.
*/
type Target struct {
	ID              int
	Label           string
	Line            int
	InstructionRef  string // non-empty when the label lives in a different file
}

/*
Navigator drives fast-forward execution.
*/
type Navigator struct {
	coord   *coordinator.Coordinator
	labels  host.LabelTable
	gameDir string
}

/*
New creates a Navigator.
*/
func New(coord *coordinator.Coordinator, labels host.LabelTable, gameDir string) *Navigator {
	return &Navigator{coord: coord, labels: labels, gameDir: gameDir}
}

/*
GotoTargets enumerates every public label, sorted same-file first then
by line.
*/
func (n *Navigator) GotoTargets(file string, line int) []Target {
	names := n.labels.Labels()
	sort.Strings(names)

	var targets []Target
	for _, name := range names {
		if len(name) > 0 && name[0] == '_' {
			continue
		}

		node, ok := n.labels.Label(name)
		if !ok {
			continue
		}

		t := Target{
			ID:    labelID(name, node.Linenumber()),
			Label: name,
			Line:  node.Linenumber(),
		}

		if node.Filename() != file {
			t.InstructionRef = node.Filename()
		}

		targets = append(targets, t)
	}

	sort.SliceStable(targets, func(i, j int) bool {
		iSame := targets[i].InstructionRef == ""
		jSame := targets[j].InstructionRef == ""
		if iSame != jSame {
			return iSame
		}
		return targets[i].Line < targets[j].Line
	})

	return targets
}

func labelID(name string, line int) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", name, line)
	return int(h.Sum32() & 0x7fffffff)
}

/*
Goto resolves a target id back to a label by re-hashing the label map,
then delegates to JumpToLabel.
*/
func (n *Navigator) Goto(targetID int) error {
	for _, name := range n.labels.Labels() {
		node, ok := n.labels.Label(name)
		if !ok {
			continue
		}
		if labelID(name, node.Linenumber()) == targetID {
			return n.JumpToLabel(name, true)
		}
	}
	return fmt.Errorf("unknown goto target: %d", targetID)
}

/*
JumpToLabel stashes the pending jump, resumes, and nudges the host out
of idle interaction.
*/
func (n *Navigator) JumpToLabel(label string, pauseAfter bool) error {
	if _, ok := n.labels.Label(label); !ok {
		return fmt.Errorf("unknown label: %s", label)
	}

	n.coord.RequestJump(label, pauseAfter)
	n.coord.Host().SetSkipMode(true)
	n.coord.ResumeForJump()
	n.coord.Host().PostTick()

	return nil
}

/*
RunToLine locates the enclosing label (if any), installs a temporary
breakpoint at (abs(file), line), enables skip mode, and either jumps to
the target's label or simply resumes.
*/
func (n *Navigator) RunToLine(file string, line int) error {
	abs := file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(n.gameDir, file)
	}

	n.coord.Index().AddTemporary(abs, line)

	targetLabel := n.enclosingLabel(abs, line)
	currentLabel := n.currentLabelName()

	n.coord.Host().SetSkipMode(true)

	if targetLabel != "" && targetLabel != currentLabel {
		return n.JumpToLabel(targetLabel, false)
	}

	n.coord.Continue()
	return nil
}

func (n *Navigator) enclosingLabel(file string, line int) string {
	var best string
	bestLine := -1

	for _, name := range n.labels.Labels() {
		node, ok := n.labels.Label(name)
		if !ok || node.Filename() != file {
			continue
		}
		if node.Linenumber() <= line && node.Linenumber() > bestLine {
			best = name
			bestLine = node.Linenumber()
		}
	}

	return best
}

func (n *Navigator) currentLabelName() string {
	loc := n.coord.Location()
	if loc.Statement == nil {
		return ""
	}
	return n.enclosingLabel(loc.File, loc.Line)
}
