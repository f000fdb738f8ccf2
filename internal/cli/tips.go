// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/tips"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

func newTipsCmd(o *rootOptions) *cobra.Command {
	var (
		sel     selection
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Show maintenance tips for an appliance",
		Long: `Show maintenance tips, most urgent first. When you are not logged in or
the backend cannot be reached the built-in tips are shown.`,
		Example: `  applianceai tips -a washing-machine -b lg`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sel.validate(); err != nil {
				return err
			}
			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				list []model.Tip
				note string
			)
			switch err := a.requireLogin(cmd.Context()); {
			case errors.Is(err, errNotLoggedIn):
				note = "Not logged in; showing built-in tips."
			case err != nil:
				return err
			default:
				a.selectFor(sel)
				a.store.FetchMaintenanceTips(cmd.Context(), sel.appliance, sel.brand)
				st := a.store.Snapshot()
				list = st.Chat.Tips
				if st.Chat.TipsError != "" {
					note = st.Chat.TipsError + "; showing built-in tips."
					list = nil
				}
			}
			if list == nil {
				list = tips.Static(sel.appliance, sel.brand)
				tips.SortByUrgency(list)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			p := newPalette(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), p.Title.Render("Maintenance tips for your "+sel.String()))
			if note != "" {
				fmt.Fprintln(cmd.OutOrStdout(), p.Dim.Render(note))
			}
			writeTips(cmd.OutOrStdout(), p, list)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print tips as JSON")
	return cmd
}

// writeTips prints tips with an urgency badge each.
func writeTips(w io.Writer, p palette, list []model.Tip) {
	if len(list) == 0 {
		fmt.Fprintln(w, p.Dim.Render("No tips for this appliance."))
		return
	}
	width := terminalWidth(w) - 4
	for _, t := range list {
		badge := p.Low
		switch t.Urgency {
		case model.UrgencyHigh:
			badge = p.High
		case model.UrgencyMedium:
			badge = p.Medium
		}
		label := strings.ToUpper(string(t.Urgency))
		if label == "" {
			label = "TIP"
		}
		fmt.Fprintf(w, "  %s %s\n", badge.Render(util.PadRight("["+label+"]", 9)), t.Title)
		fmt.Fprintf(w, "  %s %s\n", strings.Repeat(" ", 9), p.Dim.Render(util.Truncate(t.Description, width-10)))
	}
}
