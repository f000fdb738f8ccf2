// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/config"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/tips"
)

// =============================================================================
// INPUT
// =============================================================================

// lineReader is where the REPL reads lines from.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// historyReader is a liner-backed reader with line editing and history
// persisted to a file in the config directory.
type historyReader struct {
	line        *liner.State
	historyFile string
}

func newHistoryReader(historyFile string) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &historyReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *historyReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *historyReader) Close() error {
	defer r.line.Close()
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = r.line.WriteHistory(f)
	return err
}

// plainReader reads piped input, one line per prompt.
type plainReader struct{ pr *prompter }

func (r plainReader) Prompt(prompt string) (string, error) {
	s, err := r.pr.line(prompt)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return "", io.EOF
	}
	return s, err
}

func (plainReader) Close() error { return nil }

// =============================================================================
// CHAT COMMAND
// =============================================================================

func newChatCmd(o *rootOptions) *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Chat about one appliance from a line-editing prompt.

Commands during the chat:
  /tips      Show maintenance tips
  /history   List recent conversations
  /clear     Clear the conversation on screen
  /help      Show these commands
  /quit      Leave (Ctrl+D also works)`,
		Example: `  applianceai chat -a refrigerator -b lg`,
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
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}
			a.selectFor(sel)

			var in lineReader = plainReader{pr: newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())}
			if isTerminal(cmd.InOrStdin()) && isTerminal(cmd.OutOrStdout()) {
				dir, err := config.ConfigDir()
				if err != nil {
					dir = os.TempDir()
				}
				in = newHistoryReader(filepath.Join(dir, "chat_history"))
			}
			defer func() {
				if err := in.Close(); err != nil {
					a.log.Warn().Err(err).Msg("could not save chat history")
				}
			}()

			return (&repl{app: a, sel: sel, in: in, out: newReplyPrinter(cmd.OutOrStdout(), a.cfg.UI.Theme, a.cfg.UI.MarkdownWidth)}).run(cmd.Context())
		},
	}
	sel.register(cmd)
	return cmd
}

// repl is one interactive chat session.
type repl struct {
	app *app
	sel selection
	in  lineReader
	out *replyPrinter
}

func (r *repl) run(ctx context.Context) error {
	w, p := r.out.w, r.out.p
	fmt.Fprintln(w, p.Title.Render("Chatting about your "+r.sel.String()))
	fmt.Fprintln(w, p.Dim.Render("Type /help for commands, /quit to leave."))
	fmt.Fprintln(w)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		input, err := r.in.Prompt("you› ")
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(w)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(w, p.Dim.Render("(/quit to leave)"))
			continue
		case err != nil:
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if quit := r.command(ctx, input); quit {
				return nil
			}
			continue
		}

		if err := r.app.store.Submit(ctx, input); err != nil {
			fmt.Fprintln(w, p.Warning.Render(err.Error()))
			continue
		}
		reply, err := lastReply(r.app.store.Snapshot())
		if err != nil {
			fmt.Fprintln(w, p.Error.Render(err.Error()))
			if errors.Is(err, errNotLoggedIn) {
				return errNotLoggedIn
			}
			r.app.store.Dispatch(store.ClearError{})
			continue
		}
		fmt.Fprintln(w)
		r.out.reply(reply)
		fmt.Fprintln(w)
	}
}

// command runs a slash command and reports whether the session should end.
func (r *repl) command(ctx context.Context, input string) bool {
	w, p := r.out.w, r.out.p
	name := strings.ToLower(strings.Fields(input)[0])

	switch name {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Fprintln(w, "  /tips     maintenance tips for your "+r.sel.String())
		fmt.Fprintln(w, "  /history  recent conversations")
		fmt.Fprintln(w, "  /clear    clear the conversation")
		fmt.Fprintln(w, "  /quit     leave")

	case "/tips", "/t":
		r.app.store.FetchMaintenanceTips(ctx, r.sel.appliance, r.sel.brand)
		st := r.app.store.Snapshot()
		list := st.Chat.Tips
		if st.Chat.TipsError != "" {
			fmt.Fprintln(w, p.Warning.Render(st.Chat.TipsError+"; showing built-in tips"))
			list = tips.Static(r.sel.appliance, r.sel.brand)
			tips.SortByUrgency(list)
		}
		writeTips(w, p, list)

	case "/history":
		r.app.store.FetchHistory(ctx)
		st := r.app.store.Snapshot()
		if st.Chat.HistoryStatus == store.LoadFailed {
			fmt.Fprintln(w, p.Error.Render(st.Chat.HistoryError))
			break
		}
		writeSessions(w, p, st.Chat.History, time.Now())

	case "/clear", "/c":
		r.app.store.Dispatch(store.ClearMessages{})
		fmt.Fprintln(w, p.Success.Render("Conversation cleared."))

	default:
		fmt.Fprintln(w, p.Warning.Render("Unknown command "+name+"; /help lists commands."))
	}
	return false
}
