// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM
// =============================================================================

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

var fieldLabels = [fieldCount]string{"Username", "Email", "Password", "Confirm password"}

// loginForm holds the inputs of both tabs. The login tab shows email and
// password; signup shows all four.
type loginForm struct {
	inputs [fieldCount]textinput.Model
	tab    store.AuthTab
	focus  int // index into fields()
	err    string
}

func newLoginForm() loginForm {
	var f loginForm
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 128
		ti.Width = 32
		f.inputs[i] = ti
	}
	f.inputs[fieldUsername].Placeholder = "Choose a username"
	f.inputs[fieldEmail].Placeholder = "you@example.com"
	for _, i := range []int{fieldPassword, fieldConfirm} {
		f.inputs[i].Placeholder = "••••••••"
		f.inputs[i].EchoMode = textinput.EchoPassword
		f.inputs[i].EchoCharacter = '•'
	}
	f.tab = store.TabLogin
	f.focusField(0)
	return f
}

func (f *loginForm) fields() []int {
	if f.tab == store.TabSignup {
		return []int{fieldUsername, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []int{fieldEmail, fieldPassword}
}

// focusField focuses the i-th visible field, wrapping at both ends.
func (f *loginForm) focusField(i int) tea.Cmd {
	fields := f.fields()
	switch {
	case i < 0:
		i = len(fields) - 1
	case i >= len(fields):
		i = 0
	}
	f.focus = i
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	return f.inputs[fields[i]].Focus()
}

func (f *loginForm) value(field int) string {
	return f.inputs[field].Value()
}

// reset clears every field.
func (f *loginForm) reset(tab store.AuthTab) {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.err = ""
	f.tab = tab
	f.focusField(0)
}

// setTab switches tabs, keeping the email but never carrying passwords over.
func (f *loginForm) setTab(tab store.AuthTab) {
	f.tab = tab
	f.err = ""
	f.inputs[fieldPassword].SetValue("")
	f.inputs[fieldConfirm].SetValue("")
	f.focusField(0)
}

func (f *loginForm) update(msg tea.Msg) tea.Cmd {
	field := f.fields()[f.focus]
	var cmd tea.Cmd
	f.inputs[field], cmd = f.inputs[field].Update(msg)
	return cmd
}

// =============================================================================
// LOGIN PAGE
// =============================================================================

func (m Model) updateLogin(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		next := store.TabSignup
		if st.UI.ActiveTab == store.TabSignup {
			next = store.TabLogin
		}
		m.store.Dispatch(store.ClearAuthError{})
		m.store.Dispatch(store.SetActiveTab{Tab: next})
		return m, nil

	case tea.KeyUp, tea.KeyShiftTab:
		return m, m.form.focusField(m.form.focus - 1)

	case tea.KeyDown:
		return m, m.form.focusField(m.form.focus + 1)

	case tea.KeyEsc:
		m.store.Dispatch(store.ClearAuthError{})
		m.store.Dispatch(store.Navigate{Route: store.RouteHome})
		return m, nil

	case tea.KeyEnter:
		if st.Auth.Loading {
			return m, nil
		}
		m.form.err = ""
		email := m.form.value(fieldEmail)
		password := m.form.value(fieldPassword)
		if st.UI.ActiveTab == store.TabSignup {
			if password != m.form.value(fieldConfirm) {
				m.form.err = "Passwords do not match"
				return m, nil
			}
			return m, signupCmd(m.ctx, m.store, m.form.value(fieldUsername), email, password, m.form.value(fieldConfirm))
		}
		return m, loginCmd(m.ctx, m.store, email, password)
	}

	return m, m.form.update(msg)
}

func (m Model) viewLogin(st store.State, width, height int) string {
	t := m.theme

	loginTab, signupTab := t.PanelTabActive, t.PanelTab
	title := "Welcome back"
	action := "Sign in"
	if st.UI.ActiveTab == store.TabSignup {
		loginTab, signupTab = t.PanelTab, t.PanelTabActive
		title = "Create your account"
		action = "Sign up"
	}

	var b strings.Builder
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, loginTab.Render("Login"), " ", signupTab.Render("Sign up")))
	b.WriteString("\n\n")
	b.WriteString(t.HeaderTitle.Render(title))
	b.WriteString("\n\n")

	fields := m.form.fields()
	for i, field := range fields {
		label := t.FormLabel.Render(fieldLabels[field])
		input := t.Input.Width(36)
		if i == m.form.focus {
			input = t.InputFocused.Width(36)
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(input.Render(m.form.inputs[field].View()))
		b.WriteString("\n")
	}

	switch {
	case m.form.err != "":
		b.WriteString("\n" + styles.RenderError(m.form.err))
	case st.Auth.Error != "":
		b.WriteString("\n" + styles.RenderError(st.Auth.Error))
	case st.Auth.Loading:
		b.WriteString("\n" + t.Typing.Render(m.spinner.View()+" "+action+"…"))
	}

	b.WriteString("\n\n")
	b.WriteString(t.ShortcutKey.Render("enter") + " " + t.ShortcutDesc.Render(strings.ToLower(action)) + "   ")
	b.WriteString(t.ShortcutKey.Render("tab") + " " + t.ShortcutDesc.Render("switch") + "   ")
	b.WriteString(t.ShortcutKey.Render("esc") + " " + t.ShortcutDesc.Render("back"))

	box := t.FormBox.Render(b.String())
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
