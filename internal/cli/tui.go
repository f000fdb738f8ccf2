// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/applianceai-tui/internal/config"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/ui/chat"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/voice"
)

// runTUI starts the full-screen interface.
func runTUI(cmd *cobra.Command, o *rootOptions) error {
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("%w; in scripts use a subcommand such as 'applianceai ask'", ErrTTYRequired)
	}

	a, err := o.open(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	theme := styles.NewTheme(a.cfg.UI.Theme)
	a.store.Dispatch(store.SetTheme{Theme: theme.GlamourStyle()})

	dict := a.dictation()
	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = ""
	}

	m := chat.New(chat.Deps{
		Store:          a.store,
		Dictation:      dict,
		Theme:          theme,
		ShowTimestamps: a.cfg.UI.ShowTimestamps,
		MarkdownWidth:  a.cfg.UI.MarkdownWidth,
		ExportDir:      exportDir,
		Context:        ctx,
	})
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)

	stopWatch := chat.WatchStore(ctx, a.store, p.Send)
	defer stopWatch()
	a.watchTheme(ctx, p)

	_, err = p.Run()
	if dict != nil && dict.IsListening() {
		dict.StopListening()
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// dictation builds the voice adapter from the [voice] section. It returns
// nil when no recognizer is configured or the command is missing, which the
// UI reports as unsupported.
func (a *app) dictation() *voice.Dictation {
	if a.cfg.Voice.Command == "" {
		return nil
	}
	rec := voice.NewCommandRecognizer(a.cfg.Voice.Command, a.cfg.Voice.Args, a.cfg.Voice.Language)
	if !rec.Supported() {
		a.log.Info().Str("command", a.cfg.Voice.Command).Msg("voice command not found, dictation disabled")
		return nil
	}
	return voice.NewDictation(rec)
}

// watchTheme forwards theme changes in the config file to the running
// program.
func (a *app) watchTheme(ctx context.Context, p *tea.Program) {
	if err := os.MkdirAll(filepath.Dir(a.cfgPath), 0700); err != nil {
		a.log.Warn().Err(err).Msg("config directory unavailable, hot reload disabled")
		return
	}
	current := a.cfg.UI.Theme
	err := config.Watch(ctx, a.cfgPath, config.DefaultWatchDebounce, func(cfg *config.Config, err error) {
		if err != nil {
			a.log.Warn().Err(err).Msg("config reload failed")
			return
		}
		if cfg.UI.Theme == current {
			return
		}
		current = cfg.UI.Theme
		a.log.Info().Str("theme", current).Msg("theme changed")
		p.Send(chat.ThemeMsg{Mode: current})
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("hot reload disabled")
	}
}
