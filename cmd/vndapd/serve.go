/*
 * vndap
 *
 * Copyright 2020 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the MIT
 * License, If a copy of the MIT License was not distributed with this
 * file, You can obtain one at https://opensource.org/licenses/MIT.
 */

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vnlabs/vndap/breakpoint"
	"github.com/vnlabs/vndap/config"
	"github.com/vnlabs/vndap/coordinator"
	"github.com/vnlabs/vndap/dapserver"
	"github.com/vnlabs/vndap/frame"
	"github.com/vnlabs/vndap/navigator"
	"github.com/vnlabs/vndap/scene"
	"github.com/vnlabs/vndap/script"
	"github.com/vnlabs/vndap/util"
	"github.com/vnlabs/vndap/variables"
)

var (
	serveAddr       string
	serveScript     string
	serveStartLabel string
	serveRoots      []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Parse a script and serve it over the Debug Adapter Protocol",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.Str(config.ListenAddr), "TCP address to listen on")
	serveCmd.Flags().StringVar(&serveScript, "script", "", "path to the script file to run (required)")
	serveCmd.Flags().StringVar(&serveStartLabel, "start-label", "start", "label to begin execution at")
	serveCmd.Flags().StringSliceVar(&serveRoots, "roots", nil, "additional directories scanned for scene declarations")
	serveCmd.MarkFlagRequired("script")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := util.NewZerologLogger(newLogger())

	src, err := os.ReadFile(serveScript)
	if err != nil {
		return fmt.Errorf("vndapd: reading %s: %w", serveScript, err)
	}

	gameDir := filepath.Dir(serveScript)

	prog, err := script.ParseFile(filepath.Base(serveScript), string(src))
	if err != nil {
		return fmt.Errorf("vndapd: %w", err)
	}

	if _, ok := prog.Label(serveStartLabel); !ok {
		return fmt.Errorf("vndapd: start label %q not found in %s", serveStartLabel, serveScript)
	}

	// srv is built before the coordinator that will report events to it
	// (NewServer/Init split, see dapserver.NewServer) and h is built
	// before the coordinator that will debug it (script.Host.SetDebugger),
	// since coordinator.New itself requires both already in hand.
	srv := dapserver.NewServer(log)
	h := script.New(prog, nil, log)

	index := breakpoint.NewIndex(gameDir, h, h)
	coord := coordinator.New(h, index, srv, log, gameDir)
	h.SetDebugger(coord)

	vars := variables.New(h.Store(), h)
	frames := frame.New(gameDir, h, h)
	nav := navigator.New(coord, h, gameDir)
	roots := append([]string{gameDir}, serveRoots...)
	sceneInsp := scene.New(coord, h, gameDir, roots)

	srv.Init(dapserver.Deps{
		Host:        h,
		Labels:      h,
		Index:       index,
		Coordinator: coord,
		Frames:      frames,
		Variables:   vars,
		Navigator:   nav,
		Scene:       sceneInsp,
		GameDir:     gameDir,
	})

	runErr := make(chan error, 1)
	go func() {
		runErr <- h.Run(serveStartLabel)
	}()

	log.LogInfo("vndapd: serving ", serveScript, " on ", serveAddr)
	go func() {
		if err := <-runErr; err != nil {
			log.LogError("vndapd: script run ended: ", err)
		}
	}()

	return srv.Serve(serveAddr)
}
