// Copyright 2025 The OdsSync Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odsdir/odssync/ods"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Lists the ODS codes read from the workbook",
	RunE: func(_ *cobra.Command, _ []string) error {
		codes, err := ods.ReadCodes(syncOptions.CodesPath)
		if err != nil {
			return fmt.Errorf("reading ODS codes from %s: %w", syncOptions.CodesPath, err)
		}

		width := len("code")
		for _, code := range codes {
			if len(code) > width {
				width = len(code)
			}
		}
		line := strings.Repeat("─", width+2)

		fmt.Printf("╭─────┬%s╮\n", line)
		fmt.Printf("│   # │ %-*s │\n", width, "code")
		fmt.Printf("├─────┼%s┤\n", line)
		for i, code := range codes {
			fmt.Printf("│ %3d │ %-*s │\n", i+1, width, code)
		}
		fmt.Printf("╰─────┴%s╯\n", line)
		fmt.Printf("%d codes.\n", len(codes))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(codesCmd)
}
