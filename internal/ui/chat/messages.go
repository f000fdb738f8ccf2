// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/applianceai-tui/internal/export"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/voice"
)

// =============================================================================
// MESSAGES
// =============================================================================

// storeUpdatedMsg reports that the store changed, either because a thunk
// finished or because WatchStore saw a dispatch. The state itself is read
// from the store.
type storeUpdatedMsg struct{}

// sentMsg reports that a send finished, successfully or not.
type sentMsg struct{}

// authDoneMsg carries the guard error of a login or signup, if any.
type authDoneMsg struct{ err error }

// voiceEventMsg wraps one dictation event.
type voiceEventMsg struct{ ev voice.Event }

// copiedMsg reports the outcome of a clipboard write.
type copiedMsg struct{ err error }

// exportedMsg reports where a transcript export was written.
type exportedMsg struct {
	path string
	err  error
}

// dismissMsg expires a notification.
type dismissMsg struct{ id int }

// ThemeMsg switches the theme, for example after the config file changed.
type ThemeMsg struct{ Mode string }

// NotificationTTL is how long a notification stays on screen.
const NotificationTTL = 5 * time.Second

// WatchStore forwards store changes made outside the update loop, such as a
// forced logout after a 401, to send. Bursts of dispatches collapse into one
// message. It stops when ctx ends or the returned function is called.
func WatchStore(ctx context.Context, s *store.Store, send func(tea.Msg)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	changed := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(store.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				send(storeUpdatedMsg{})
			}
		}
	}()
	return cancel
}

// =============================================================================
// COMMANDS
// =============================================================================

func resumeCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		s.Resume(ctx)
		return storeUpdatedMsg{}
	}
}

func sendCmd(ctx context.Context, p *store.PendingSend) tea.Cmd {
	return func() tea.Msg {
		p.Run(ctx)
		return sentMsg{}
	}
}

func tipsCmd(ctx context.Context, s *store.Store, appliance, brand string) tea.Cmd {
	return func() tea.Msg {
		s.FetchMaintenanceTips(ctx, appliance, brand)
		return storeUpdatedMsg{}
	}
}

func historyCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		s.FetchHistory(ctx)
		return storeUpdatedMsg{}
	}
}

func sessionCmd(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		s.FetchSessionMessages(ctx, id)
		return storeUpdatedMsg{}
	}
}

func clearHistoryCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		s.ClearHistory(ctx)
		return storeUpdatedMsg{}
	}
}

func logoutCmd(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		s.Logout(ctx)
		return storeUpdatedMsg{}
	}
}

func loginCmd(ctx context.Context, s *store.Store, email, password string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: s.Login(ctx, email, password)}
	}
}

func signupCmd(ctx context.Context, s *store.Store, username, email, password, confirm string) tea.Cmd {
	return func() tea.Msg {
		return authDoneMsg{err: s.Signup(ctx, username, email, password, confirm)}
	}
}

// listenVoice waits for the next dictation event. It is re-armed after every
// event.
func listenVoice(d *voice.Dictation) tea.Cmd {
	if d == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-d.Events()
		if !ok {
			return nil
		}
		return voiceEventMsg{ev: ev}
	}
}

// toggleVoice runs off the update loop since stopping may wait for the
// recognizer to exit.
func toggleVoice(d *voice.Dictation) tea.Cmd {
	return func() tea.Msg {
		d.Toggle()
		return nil
	}
}

func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

func exportCmd(t *export.Transcript, dir string) tea.Cmd {
	return func() tea.Msg {
		exp, err := export.ForFormat("md", export.DefaultOptions())
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := export.WriteFile(t, exp, dir)
		return exportedMsg{path: path, err: err}
	}
}

func dismissAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return dismissMsg{id: id}
	})
}
