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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vnlabs/vndap/config"
)

var logLevel string

/*
rootCmd is the vndapd entry point. Subcommands are registered from
their own files' init() functions, following the cobra layout used
throughout the retrieved example pack (e.g. dontbug's cmd package).
*/
var rootCmd = &cobra.Command{
	Use:   "vndapd",
	Short: "Debug Adapter Protocol server for a visual-novel script runtime",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.Str(config.LogLevel), "log level: debug, info, error")
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
