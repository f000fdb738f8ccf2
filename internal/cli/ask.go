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
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/ui/components"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
)

func newAskCmd(o *rootOptions) *cobra.Command {
	var (
		sel     selection
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Send one question for an appliance and brand and print the answer.
The question is read from stdin when it is omitted or "-".`,
		Example: `  applianceai ask -a refrigerator -b lg "The ice maker stopped working"
  echo "Washer will not drain" | applianceai ask -a washing-machine -b samsung
  applianceai ask -a refrigerator -b samsung --json "It is too warm inside"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sel.validate(); err != nil {
				return err
			}
			question := strings.Join(args, " ")
			if question == "" || question == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read question: %w", err)
				}
				question = string(b)
			}

			a, err := o.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}
			a.selectFor(sel)

			if err := a.store.Submit(cmd.Context(), question); err != nil {
				if errors.Is(err, store.ErrEmptyMessage) {
					return errors.New("no question given")
				}
				return err
			}
			reply, err := lastReply(a.store.Snapshot())
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reply)
			}
			newReplyPrinter(cmd.OutOrStdout(), a.cfg.UI.Theme, a.cfg.UI.MarkdownWidth).reply(reply)
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the reply as JSON")
	return cmd
}

// lastReply returns the newest assistant message, or the send error when
// the last send failed.
func lastReply(st store.State) (model.Message, error) {
	if st.Chat.Error != "" {
		if !st.Auth.IsAuthenticated {
			return model.Message{}, fmt.Errorf("%s (%w)", st.Chat.Error, errNotLoggedIn)
		}
		return model.Message{}, errors.New(st.Chat.Error)
	}
	msgs := st.Chat.Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAI() {
			return msgs[i], nil
		}
	}
	return model.Message{}, errors.New("no reply received")
}

// =============================================================================
// OUTPUT
// =============================================================================

// replyPrinter writes transcript messages. Markdown is rendered only when
// the output is a terminal so piped output stays plain.
type replyPrinter struct {
	w     io.Writer
	p     palette
	md    *components.Markdown
	width int
}

func newReplyPrinter(w io.Writer, theme string, mdWidth int) *replyPrinter {
	rp := &replyPrinter{w: w, p: newPalette(w), width: terminalWidth(w)}
	if mdWidth > 0 && mdWidth < rp.width {
		rp.width = mdWidth
	}
	if isTerminal(w) && colorsEnabled(w) {
		rp.md = components.NewMarkdown(styles.NewTheme(theme).GlamourStyle())
	}
	return rp
}

// reply prints an assistant answer followed by its source line.
func (rp *replyPrinter) reply(m model.Message) {
	content := m.Content
	if rp.md != nil {
		content = rp.md.Render(content, rp.width)
	}
	fmt.Fprintln(rp.w, content)
	if meta := replyMeta(m); meta != "" {
		fmt.Fprintln(rp.w)
		fmt.Fprintln(rp.w, rp.p.Dim.Render(meta))
	}
}

// message prints one transcript entry with a speaker label.
func (rp *replyPrinter) message(m model.Message) {
	if m.IsUser() {
		fmt.Fprintln(rp.w, rp.p.User.Render("You:")+" "+m.Content)
		return
	}
	fmt.Fprintln(rp.w, rp.p.Assistant.Render("Assistant:"))
	rp.reply(m)
}

func replyMeta(m model.Message) string {
	var parts []string
	if m.Source != "" {
		parts = append(parts, "Source: "+m.Source)
	}
	if c := m.ConfidencePercent(); c != "" {
		parts = append(parts, "Confidence: "+c)
	}
	return strings.Join(parts, " · ")
}
