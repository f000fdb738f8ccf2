// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/ui/components"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var (
		clearAll bool
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List recent conversations or show one",
		Example: `  applianceai history
  applianceai history 3
  applianceai history --clear --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			p := newPalette(out)

			switch {
			case clearAll:
				if !yes {
					answer, err := newPrompter(cmd.InOrStdin(), out).line("Delete all chat history? [y/N] ")
					if err != nil || !strings.EqualFold(strings.TrimSpace(answer), "y") {
						fmt.Fprintln(out, p.Dim.Render("Cancelled."))
						return nil
					}
				}
				a.store.ClearHistory(cmd.Context())
				st := a.store.Snapshot()
				if st.Chat.HistoryStatus == store.LoadFailed {
					return errors.New(st.Chat.HistoryError)
				}
				fmt.Fprintln(out, p.Success.Render("Chat history cleared."))
				return nil

			case len(args) == 1:
				msgs, err := loadSession(cmd.Context(), a, args[0])
				if err != nil {
					return err
				}
				rp := newReplyPrinter(out, a.cfg.UI.Theme, a.cfg.UI.MarkdownWidth)
				for i, m := range msgs {
					if i > 0 {
						fmt.Fprintln(out)
					}
					rp.message(m)
				}
				return nil

			default:
				sessions, err := loadSessions(cmd.Context(), a)
				if err != nil {
					return err
				}
				writeSessions(out, p, sessions, time.Now())
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete all chat history")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func loadSessions(ctx context.Context, a *app) ([]model.SessionSummary, error) {
	a.store.FetchHistory(ctx)
	st := a.store.Snapshot()
	if st.Chat.HistoryStatus == store.LoadFailed {
		return nil, errors.New(st.Chat.HistoryError)
	}
	return st.Chat.History, nil
}

func loadSession(ctx context.Context, a *app, id string) ([]model.Message, error) {
	a.store.FetchSessionMessages(ctx, id)
	st := a.store.Snapshot()
	if st.Chat.CurrentSessionID != id {
		if st.Chat.HistoryError != "" {
			return nil, errors.New(st.Chat.HistoryError)
		}
		return nil, fmt.Errorf("conversation %s could not be loaded", id)
	}
	return st.Chat.Messages, nil
}

// writeSessions prints the recent sessions as an aligned table.
func writeSessions(w io.Writer, p palette, sessions []model.SessionSummary, now time.Time) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, p.Dim.Render("No conversations yet."))
		return
	}
	idWidth := 2
	for _, s := range sessions {
		if n := util.Width(s.ID); n > idWidth {
			idWidth = n
		}
	}
	titleWidth := 32
	header := fmt.Sprintf("%s  %s  %8s  %s",
		util.PadRight("ID", idWidth), util.PadRight("CONVERSATION", titleWidth), "MESSAGES", "UPDATED")
	fmt.Fprintln(w, p.Dim.Render(header))
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  %s  %8d  %s\n",
			util.PadRight(s.ID, idWidth),
			util.PadRight(util.Truncate(s.Title(), titleWidth), titleWidth),
			s.MessageCount,
			components.FormatTimestamp(s.UpdatedAt, now))
	}
}
