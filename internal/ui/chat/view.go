// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/tips"
	"github.com/jeranaias/applianceai-tui/internal/ui/components"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	sidebarWidth     = 28
	panelWidth       = 36
	minCenterWidth   = 40
	maxNotifications = 2
	composerHeight   = 3
)

// frame is the size of every region for the current window and state.
type frame struct {
	sidebar int
	panel   int
	center  int
	body    int // rows between the notifications and the composer
	notes   int
}

func (m Model) frame(st store.State) frame {
	var f frame
	if st.UI.SidebarOpen {
		f.sidebar = sidebarWidth
	}
	if st.UI.RightPanelOpen {
		f.panel = panelWidth
	}
	// Narrow terminals drop the panel first, then the sidebar.
	if m.width-f.sidebar-f.panel < minCenterWidth {
		f.panel = 0
	}
	if m.width-f.sidebar < minCenterWidth {
		f.sidebar = 0
	}
	f.center = m.width - f.sidebar - f.panel

	f.notes = len(st.UI.Notifications)
	if f.notes > maxNotifications {
		f.notes = maxNotifications
	}
	// header, notifications, composer with its border, composer footer, status bar
	chrome := 1 + f.notes + composerHeight + 2 + 1 + 1
	f.body = m.height - chrome
	if f.body < 4 {
		f.body = 4
	}
	return f
}

// layout sizes the viewport and the composer to the window.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	f := m.frame(m.store.Snapshot())
	if m.viewport.Width != f.center || m.viewport.Height != f.body-1 {
		m.viewport.Width = f.center
		m.viewport.Height = f.body - 1
		m.transcriptKey = ""
	}
	m.composer.SetWidth(m.width - 4)
	m.help.Width = m.width
}

// refreshTranscript re-renders the viewport content when anything it shows
// has changed.
func (m *Model) refreshTranscript() {
	if m.width == 0 {
		return
	}
	st := m.store.Snapshot()

	width := m.viewport.Width - 2
	if m.mdWidth > 0 && m.mdWidth < width {
		width = m.mdWidth
	}

	var fb strings.Builder
	for _, msg := range st.Chat.Messages {
		fb.WriteString(string(msg.Feedback))
		fb.WriteByte(',')
	}
	key := fmt.Sprintf("%d|%d|%d|%d|%d|%t|%t|%s|%s|%s|%s",
		len(st.Chat.Messages), lastMessageID(st.Chat.Messages), m.msgFocus, width, m.viewport.Height,
		m.theme.IsDark, m.showTS, st.Chat.SelectedAppliance, st.Chat.SelectedBrand,
		st.Chat.CurrentSessionID, fb.String())
	if key == m.transcriptKey && !m.stickBottom && !m.scrollToFocus {
		return
	}
	m.transcriptKey = key

	if len(st.Chat.Messages) == 0 {
		m.viewport.SetContent(m.emptyTranscript(st))
		m.viewport.GotoTop()
		m.stickBottom, m.scrollToFocus = false, false
		return
	}

	content, offsets := components.RenderTranscript(st.Chat.Messages, m.msgFocus, width, m.showTS, m.now(), m.theme, m.md)
	m.viewport.SetContent(content)

	switch {
	case m.scrollToFocus && m.msgFocus >= 0 && m.msgFocus < len(offsets):
		m.viewport.SetYOffset(offsets[m.msgFocus])
	case m.stickBottom:
		m.viewport.GotoBottom()
	}
	m.stickBottom, m.scrollToFocus = false, false
}

func (m Model) emptyTranscript(st store.State) string {
	var lines []string
	if !st.Chat.HasSelection() {
		lines = append(lines,
			m.theme.HeaderTitle.Render("What can I help you fix today?"),
			"",
			m.theme.Muted.Render("Choose an appliance and brand in the sidebar to get started."),
		)
	} else {
		name := model.BrandName(st.Chat.SelectedBrand) + " " + model.ApplianceName(st.Chat.SelectedAppliance)
		lines = append(lines,
			m.theme.HeaderTitle.Render("Ask anything about your "+name),
			"",
			m.theme.Muted.Render("Try one of these:"),
		)
		for _, q := range tips.QuickQuestions(st.Chat.SelectedAppliance, st.Chat.SelectedBrand) {
			lines = append(lines, m.theme.QuickQuestion.Render("  • "+q))
		}
	}
	return lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
		strings.Join(lines, "\n"))
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the current page.
func (m Model) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}
	st := m.store.Snapshot()

	if m.showHelp {
		box := m.theme.FormBox.Render(
			m.theme.HeaderTitle.Render("Keyboard shortcuts") + "\n\n" +
				m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
				m.theme.Muted.Render("F1 to close"))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	switch st.UI.Route {
	case store.RouteChat:
		return m.viewChat(st)
	case store.RouteLogin:
		top, rows := m.top(st, "", "")
		return lipgloss.JoinVertical(lipgloss.Left, top, m.viewLogin(st, m.width, m.height-rows))
	default:
		top, rows := m.top(st, "", "")
		return lipgloss.JoinVertical(lipgloss.Left, top,
			components.RenderWelcome(m.width, m.height-rows, st.Auth.IsAuthenticated, m.theme))
	}
}

// top renders the header and the visible notifications and reports how many
// rows they take.
func (m Model) top(st store.State, appliance, brand string) (string, int) {
	parts := []string{components.RenderHeader(m.width, st.Auth.User, appliance, brand, m.theme)}
	if notes := components.RenderNotifications(st.UI.Notifications, maxNotifications, m.width, m.theme); notes != "" {
		parts = append(parts, notes)
	}
	out := lipgloss.JoinVertical(lipgloss.Left, parts...)
	return out, lipgloss.Height(out)
}

func (m Model) viewChat(st store.State) string {
	f := m.frame(st)
	top, _ := m.top(st, st.Chat.SelectedAppliance, st.Chat.SelectedBrand)

	var cols []string
	if f.sidebar > 0 {
		cols = append(cols, components.RenderSidebar(components.SidebarProps{
			Appliance: st.Chat.SelectedAppliance,
			Brand:     st.Chat.SelectedBrand,
			Cursor:    m.sidebarCursor,
			Focused:   m.focus == focusSidebar,
			Width:     f.sidebar,
			Height:    f.body,
		}, m.theme))
	}

	center := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.centerStatus(st, f.center))
	cols = append(cols, lipgloss.NewStyle().Width(f.center).Height(f.body).MaxHeight(f.body).Render(center))

	if f.panel > 0 {
		cols = append(cols, components.RenderPanel(components.PanelProps{
			ShowHistory:  st.UI.RightPanelTab == store.PanelHistory,
			Focused:      m.focus == focusPanel,
			Cursor:       m.panelCursor,
			Width:        f.panel,
			Height:       f.body,
			Appliance:    st.Chat.SelectedAppliance,
			Brand:        st.Chat.SelectedBrand,
			Tips:         st.Chat.Tips,
			Questions:    quickQuestions(st),
			TipsError:    st.Chat.TipsError,
			History:      st.Chat.History,
			HistoryBusy:  st.Chat.HistoryStatus == store.LoadLoading,
			HistoryError: st.Chat.HistoryError,
			CurrentID:    st.Chat.CurrentSessionID,
			Now:          m.now(),
		}, m.theme))
	}

	status := components.RenderStatusBar(components.StatusProps{
		Width:     m.width,
		Status:    st.Chat.Status,
		Spinner:   m.spinner.View(),
		Listening: m.dict != nil && m.dict.IsListening(),
		Focus:     m.focus.String(),
		Shortcuts: m.shortcuts(),
	}, m.theme)

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		m.viewComposer(st),
		status,
	)
}

// centerStatus is the line under the transcript: typing indicator, send
// error or live dictation.
func (m Model) centerStatus(st store.State, width int) string {
	switch {
	case st.Chat.IsTyping():
		return m.theme.Typing.Render(m.spinner.View() + " Assistant is typing…")
	case st.Chat.Error != "":
		return styles.RenderError(util.Truncate(st.Chat.Error, width-20)) + m.theme.Muted.Render("  esc to dismiss")
	case m.interim != "":
		return m.theme.Listening.Render("● ") + m.theme.Muted.Render(util.Truncate(m.interim, width-4))
	default:
		return ""
	}
}

func (m Model) viewComposer(st store.State) string {
	style := m.theme.Input
	switch {
	case !st.Chat.HasSelection():
		style = m.theme.InputDisabled
	case m.focus == focusComposer:
		style = m.theme.InputFocused
	}
	box := style.Width(m.width - 2).Render(m.composer.View())

	count := utf8.RuneCountInString(m.composer.Value())
	countStyle := m.theme.CharCount
	if count > MaxMessageLength*9/10 {
		countStyle = m.theme.CharCountWarning
	}
	right := countStyle.Render(fmt.Sprintf("%d/%d", count, MaxMessageLength))

	var left string
	switch {
	case m.note != "":
		left = m.theme.WarningStyle.Render(m.note)
	case m.dict != nil && m.dict.IsListening():
		left = m.theme.Listening.Render("● listening…") + m.theme.Muted.Render("  ctrl+o to stop")
	default:
		left = m.theme.Muted.Render("enter send · alt+enter new line · ctrl+o dictate")
	}
	return lipgloss.JoinVertical(lipgloss.Left, box, alignEdges(left, right, m.width))
}

// shortcuts are the status bar hints for the focused pane.
func (m Model) shortcuts() []components.Shortcut {
	common := []components.Shortcut{{Key: "tab", Desc: "pane"}, {Key: "F1", Desc: "help"}, {Key: "C-c", Desc: "quit"}}
	var own []components.Shortcut
	switch m.focus {
	case focusSidebar:
		own = []components.Shortcut{{Key: "enter", Desc: "select"}, {Key: "esc", Desc: "back"}}
	case focusTranscript:
		own = []components.Shortcut{{Key: "↑↓", Desc: "message"}, {Key: "c", Desc: "copy"}, {Key: "+/-", Desc: "rate"}}
	case focusPanel:
		own = []components.Shortcut{{Key: "enter", Desc: "open"}, {Key: "r", Desc: "refresh"}, {Key: "C-p", Desc: "tips/history"}}
	default:
		own = []components.Shortcut{{Key: "enter", Desc: "send"}, {Key: "C-o", Desc: "dictate"}, {Key: "C-e", Desc: "export"}}
	}
	return append(own, common...)
}

func alignEdges(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 1
	if gap < 1 {
		return left
	}
	return " " + left + strings.Repeat(" ", gap-1) + right
}
