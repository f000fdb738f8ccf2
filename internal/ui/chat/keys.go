// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings of the client.
type KeyMap struct {
	// Global
	Quit           key.Binding
	NextFocus      key.Binding
	PrevFocus      key.Binding
	ToggleSidebar  key.Binding
	TogglePanel    key.Binding
	SwitchPanelTab key.Binding
	Dictate        key.Binding
	Logout         key.Binding
	Theme          key.Binding
	Dismiss        key.Binding
	Export         key.Binding
	Help           key.Binding

	// Composer
	Send    key.Binding
	Newline key.Binding

	// Lists and transcript
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Select     key.Binding
	Back       key.Binding
	Copy       key.Binding
	Helpful    key.Binding
	NotHelpful key.Binding
	Clear      key.Binding
	Refresh    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		NextFocus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		PrevFocus: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "previous pane"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "sidebar"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "tips panel"),
		),
		SwitchPanelTab: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "tips/history"),
		),
		Dictate: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "dictate"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "logout"),
		),
		Theme: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "theme"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "dismiss"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "help"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("A-enter", "new line"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy message"),
		),
		Helpful: key.NewBinding(
			key.WithKeys("+"),
			key.WithHelp("+", "helpful"),
		),
		NotHelpful: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "not helpful"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear history"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Newline, k.NextFocus, k.Dictate, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped for the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Dictate, k.Export},
		{k.NextFocus, k.PrevFocus, k.ToggleSidebar, k.TogglePanel, k.SwitchPanelTab},
		{k.Up, k.Down, k.Select, k.Back, k.Copy, k.Helpful, k.NotHelpful},
		{k.Clear, k.Refresh, k.Theme, k.Dismiss, k.Logout, k.Quit},
	}
}
