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
Package scene implements the scene inspector: getSceneState and
getImageDefinition. It has no direct counterpart in the embedded
expression language (ECAL has no scene-graph concept); source-location
provenance is found by
scanning script files with regexp + bufio.Scanner, the one place this
module intentionally stays on the standard library (see DESIGN.md -
there is no corpus library for source-text pattern scanning, unlike
wire framing, CLI or logging).
*/
package scene

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/host"
)

var (
	imageDeclRe       = regexp.MustCompile(`^\s*image\s+([\w.]+)(?:\s+(.*))?:?\s*$`)
	layeredImageDeclRe = regexp.MustCompile(`^\s*layeredimage\s+([\w.]+)\s*:\s*$`)
	attributeDeclRe   = regexp.MustCompile(`^(\s*)attribute\s+(\S+)`)
	alwaysDeclRe      = regexp.MustCompile(`^(\s*)always\s*:`)
	groupDeclRe       = regexp.MustCompile(`^(\s*)group\s+(\S+)\s*:`)
	screenDeclRe      = regexp.MustCompile(`^\s*screen\s+(\w+)\s*[(:]`)
)

/*
Definition is a source-location provenance record.
*/
type Definition struct {
	Found bool
	File  string
	Line  int
	Type  string
}

/*
ImageComponent is one active sub-layer of a layered image.
*/
type ImageComponent struct {
	File       string
	Group      string
	Attribute  string
	Definition Definition
}

/*
ImageState is one (layer, tag) entry in the scene snapshot.
*/
type ImageState struct {
	Tag           string
	Layer         string
	Attributes    []string
	File          string
	Position      string
	Definition    Definition
	ShowStatement *coordinator.ShowEntry
	StatementType string

	IsLayered bool
	Components []ImageComponent
}

/*
ScreenState is one displayed screen.
*/
type ScreenState struct {
	Name          string
	Type          string
	Layer         string
	Definition    Definition
	ShowStatement *coordinator.ShowEntry
}

/*
Snapshot is the getSceneState result.
*/
type Snapshot struct {
	CurrentLabel   string
	CurrentLine    int
	CurrentSpeaker string

	Images  []ImageState
	Screens []ScreenState
	Audio   map[string]string // channel -> basename
}

/*
Inspector builds scene snapshots from the coordinator's execution
context and by scanning the game's source tree for declarations.
*/
type Inspector struct {
	coord   *coordinator.Coordinator
	exec    host.ExecContext
	gameDir string
	roots   []string // search roots (game + common dirs)
}

/*
New creates a scene Inspector. roots lists every directory scanned for
image/layeredimage/screen declarations (typically the game directory
and any shared/common script directory).
*/
func New(coord *coordinator.Coordinator, exec host.ExecContext, gameDir string, roots []string) *Inspector {
	return &Inspector{coord: coord, exec: exec, gameDir: gameDir, roots: roots}
}

/*
GetSceneState assembles a full scene snapshot.
*/
func (in *Inspector) GetSceneState() Snapshot {
	loc := in.coord.Location()

	snap := Snapshot{
		CurrentLine: loc.Line,
		Audio:       make(map[string]string),
	}

	if loc.Statement != nil {
		snap.CurrentLabel = labelFor(in.exec, loc.Line)
		if what, ok := loc.Statement.Attr("what").(string); ok && loc.Statement.Kind() == "say" {
			if speaker, ok2 := loc.Statement.Attr("who").(string); ok2 {
				snap.CurrentSpeaker = speaker
			}
			_ = what
		}
	}

	for _, layer := range in.exec.Layers() {
		for _, entry := range in.exec.SceneList(layer) {
			snap.Images = append(snap.Images, in.buildImageState(layer, entry))
		}
	}

	snap.Screens = in.buildScreens()

	return snap
}

func labelFor(exec host.ExecContext, line int) string {
	stack := exec.ReturnStack()
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

func (in *Inspector) buildImageState(layer string, entry host.SceneEntry) ImageState {
	var attrs []string
	if fields := strings.Fields(entry.Tag); len(fields) > 1 {
		attrs = fields[1:]
	}
	st := ImageState{Tag: entry.Tag, Layer: layer, Attributes: attrs}

	if show, ok := in.coord.ShowEntryFor(layer, firstField(entry.Tag)); ok {
		st.ShowStatement = &show
		st.StatementType = show.Kind
	}

	if len(entry.AtList) > 0 {
		st.Position = strings.Join(entry.AtList, ", ")
	}

	def, isLayered := in.findImageDefinition(firstField(entry.Tag))
	st.Definition = def

	if isLayered {
		st.IsLayered = true
		st.Components = in.layeredComponents(firstField(entry.Tag), st.Attributes)
	}

	return st
}

func firstField(s string) string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return s
	}
	return f[0]
}

/*
GetImageDefinition returns the definition record for tag only, or a
not-found sentinel.
*/
func (in *Inspector) GetImageDefinition(tag string) Definition {
	def, _ := in.findImageDefinition(tag)
	return def
}

/*
findImageDefinition scans every root for `image <tag> ...` or
`layeredimage <tag>:` declarations. Returns whether the match was a
layeredimage block.
*/
func (in *Inspector) findImageDefinition(tag string) (Definition, bool) {
	for _, root := range in.roots {
		var found Definition
		var isLayered bool

		err := walkScripts(root, func(path string) bool {
			f, err := os.Open(path)
			if err != nil {
				return true
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := scanner.Text()

				if m := layeredImageDeclRe.FindStringSubmatch(line); m != nil && m[1] == tag {
					found = Definition{Found: true, File: path, Line: lineNo, Type: "layeredimage"}
					isLayered = true
					return false
				}
				if m := imageDeclRe.FindStringSubmatch(line); m != nil && m[1] == tag {
					found = Definition{Found: true, File: path, Line: lineNo, Type: "image"}
					return false
				}
			}
			return true
		})
		if err == nil && found.Found {
			return found, isLayered
		}
	}

	return Definition{Found: false}, false
}

/*
layeredComponents walks the layeredimage block for tag, respecting
indentation and group/always scopes, and returns one component per
currently active attribute.
*/
func (in *Inspector) layeredComponents(tag string, activeAttrs []string) []ImageComponent {
	active := make(map[string]bool, len(activeAttrs))
	for _, a := range activeAttrs {
		active[a] = true
	}

	var components []ImageComponent

	for _, root := range in.roots {
		_ = walkScripts(root, func(path string) bool {
			f, err := os.Open(path)
			if err != nil {
				return true
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			lineNo := 0
			inBlock := false
			blockIndent := -1
			currentGroup := ""
			groupIndent := -1

			for scanner.Scan() {
				lineNo++
				line := scanner.Text()

				if m := layeredImageDeclRe.FindStringSubmatch(line); m != nil {
					if m[1] == tag {
						inBlock = true
						blockIndent = indentOf(line)
						continue
					}
					if inBlock {
						break
					}
				}

				if !inBlock {
					continue
				}

				ind := indentOf(line)
				if strings.TrimSpace(line) == "" {
					continue
				}
				if ind <= blockIndent {
					break
				}

				if currentGroup != "" && ind <= groupIndent {
					currentGroup = ""
				}

				if m := groupDeclRe.FindStringSubmatch(line); m != nil {
					currentGroup = m[2]
					groupIndent = indentOf(line)
					continue
				}

				if m := alwaysDeclRe.FindStringSubmatch(line); m != nil {
					continue
				}

				if m := attributeDeclRe.FindStringSubmatch(line); m != nil {
					attr := m[2]
					if active[attr] || currentGroup == "" {
						components = append(components, ImageComponent{
							File:      path,
							Group:     currentGroup,
							Attribute: attr,
							Definition: Definition{Found: true, File: path, Line: lineNo, Type: "attribute"},
						})
					}
				}
			}

			return true
		})
	}

	return components
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func (in *Inspector) buildScreens() []ScreenState {
	var screens []ScreenState

	seen := make(map[string]bool)
	for _, layer := range append(in.exec.Layers(), "screens") {
		for _, entry := range in.exec.SceneList(layer) {
			name := firstField(entry.Tag)
			if seen[name] {
				continue
			}
			seen[name] = true

			def := in.findScreenDefinition(name)
			s := ScreenState{Name: name, Layer: layer, Type: "screen", Definition: def}
			if show, ok := in.coord.ShowEntryFor("screens", "screen:"+name); ok {
				s.ShowStatement = &show
			}
			screens = append(screens, s)
		}
	}

	return screens
}

func (in *Inspector) findScreenDefinition(name string) Definition {
	for _, root := range in.roots {
		var found Definition

		err := walkScripts(root, func(path string) bool {
			f, err := os.Open(path)
			if err != nil {
				return true
			}
			defer f.Close()

			scanner := bufio.NewScanner(f)
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				if m := screenDeclRe.FindStringSubmatch(scanner.Text()); m != nil && m[1] == name {
					found = Definition{Found: true, File: path, Line: lineNo, Type: "screen"}
					return false
				}
			}
			return true
		})
		if err == nil && found.Found {
			return found
		}
	}

	return Definition{Found: false}
}

var excludedDirs = map[string]bool{"cache": true, ".git": true, "__pycache__": true}

/*
walkScripts walks root, invoking visit(path) for every script source
file, skipping cache-like directories. visit returns false to stop the
walk early (match found).
*/
func walkScripts(root string, visit func(path string) bool) error {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if excludedDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".rpy" && ext != ".ecal" && ext != ".vnx" && ext != ".vns" {
			return nil
		}

		if !visit(path) {
			return errStopWalk
		}
		return nil
	})

	if err == errStopWalk {
		return nil
	}
	return err
}

var errStopWalk = stopWalkError{}

type stopWalkError struct{}

func (stopWalkError) Error() string { return "stop walk" }
