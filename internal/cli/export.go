// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/export"
)

func newExportCmd(o *rootOptions) *cobra.Command {
	var (
		format     string
		outDir     string
		noMetadata bool
	)

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a conversation as Markdown, JSON or YAML",
		Long: `Export a stored conversation. Without a session id the most recent
conversation is exported. Output goes to stdout unless --out names a
directory, in which case a timestamped file is written there.`,
		Example: `  applianceai export
  applianceai export 3 --format json
  applianceai export --format md --out ~/Documents`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := export.DefaultOptions()
			opts.IncludeMetadata = !noMetadata
			exp, err := export.ForFormat(format, opts)
			if err != nil {
				return err
			}

			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			sessions, err := loadSessions(cmd.Context(), a)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				return errors.New("no conversations to export")
			}
			session := sessions[0]
			if len(args) == 1 {
				found := false
				for _, s := range sessions {
					if s.ID == args[0] {
						session, found = s, true
						break
					}
				}
				if !found {
					session.ID, session.Name = args[0], ""
				}
			}

			msgs, err := loadSession(cmd.Context(), a, session.ID)
			if err != nil {
				return err
			}
			sel := selectionForTitle(session.Name)
			t := &export.Transcript{
				Appliance:  sel.appliance,
				Brand:      sel.brand,
				SessionID:  session.ID,
				ExportedAt: time.Now(),
				Messages:   msgs,
			}

			if outDir == "" || outDir == "-" {
				data, err := exp.Export(t)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := export.WriteFile(t, exp, outDir)
			if err != nil {
				return err
			}
			a.log.Info().Str("path", path).Str("format", format).Msg("transcript exported")
			fmt.Fprintln(cmd.OutOrStdout(), newPalette(cmd.OutOrStdout()).Success.Render("Saved "+path))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "output format ("+strings.Join(export.Formats, ", ")+")")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory to write the file to (default stdout)")
	cmd.Flags().BoolVar(&noMetadata, "no-metadata", false, "omit the Markdown metadata header")
	return cmd
}
