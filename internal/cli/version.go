// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := newPalette(out)
			fmt.Fprintln(out, p.Title.Render("applianceai "+Version))
			fmt.Fprintln(out, p.field("Commit:", GitCommit))
			fmt.Fprintln(out, p.field("Built:", BuildDate))
			fmt.Fprintln(out, p.field("Go:", runtime.Version()))
			fmt.Fprintln(out, p.field("Platform:", runtime.GOOS+"/"+runtime.GOARCH))
			return nil
		},
	}
}
