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

	"github.com/spf13/cobra"

	"github.com/vnlabs/vndap/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vndapd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("vndapd", config.ProductVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
