// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/export"
	"github.com/jeranaias/applianceai-tui/internal/logging"
	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/tips"
	"github.com/jeranaias/applianceai-tui/internal/ui/components"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/voice"
)

// MaxMessageLength is the composer's character limit.
const MaxMessageLength = 2000

// =============================================================================
// FOCUS
// =============================================================================

type focusArea int

const (
	focusComposer focusArea = iota
	focusTranscript
	focusSidebar
	focusPanel
)

// String returns the name shown in the status bar.
func (f focusArea) String() string {
	switch f {
	case focusComposer:
		return "compose"
	case focusTranscript:
		return "transcript"
	case focusSidebar:
		return "appliances"
	case focusPanel:
		return "panel"
	default:
		return ""
	}
}

// focusOrder is the tab order, left to right.
var focusOrder = []focusArea{focusSidebar, focusTranscript, focusComposer, focusPanel}

// =============================================================================
// MODEL
// =============================================================================

// Deps are the collaborators of the root model.
type Deps struct {
	Store     *store.Store
	Dictation *voice.Dictation
	Theme     *styles.Theme

	ShowTimestamps bool

	// MarkdownWidth caps the wrap width of assistant replies; 0 follows the
	// transcript width.
	MarkdownWidth int

	// ExportDir receives Ctrl+E exports. Empty means the working directory.
	ExportDir string

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
	Now       func() time.Time

	// Context is cancelled when the program exits; every thunk runs under it.
	Context context.Context
}

// seenState is the part of the previous snapshot that side effects are
// derived from.
type seenState struct {
	route        store.Route
	tab          store.AuthTab
	selection    string
	messages     int
	lastMessage  int64
	session      string
	notification int
}

// Model is the root Bubble Tea model.
type Model struct {
	store     *store.Store
	dict      *voice.Dictation
	ctx       context.Context
	clip      func(string) error
	now       func() time.Time
	exportDir string
	showTS    bool
	mdWidth   int
	log       zerolog.Logger

	theme    *styles.Theme
	md       *components.Markdown
	keys     KeyMap
	help     help.Model
	showHelp bool

	width  int
	height int

	focus         focusArea
	sidebarCursor int
	panelCursor   int
	msgFocus      int // -1 when no message is focused

	viewport viewport.Model
	composer textarea.Model
	spinner  spinner.Model
	form     loginForm

	note    string // composer-level hint, cleared on the next send
	interim string // live dictation transcript

	seen          seenState
	transcriptKey string
	stickBottom   bool
	scrollToFocus bool
	quitting      bool
}

// New creates the root model.
func New(d Deps) Model {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Clipboard == nil {
		d.Clipboard = clipboard.WriteAll
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Theme == nil {
		d.Theme = styles.NewTheme(styles.ModeDark)
	}

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = MaxMessageLength
	ta.Prompt = "┃ "
	ta.Placeholder = "Select an appliance and brand to start"
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = d.Theme.Typing

	vp := viewport.New(80, 20)

	return Model{
		store:     d.Store,
		dict:      d.Dictation,
		ctx:       d.Context,
		clip:      d.Clipboard,
		now:       d.Now,
		exportDir: d.ExportDir,
		showTS:    d.ShowTimestamps,
		mdWidth:   d.MarkdownWidth,
		log:       logging.For("ui"),
		theme:     d.Theme,
		md:        components.NewMarkdown(d.Theme.GlamourStyle()),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		focus:     focusSidebar,
		msgFocus:  -1,
		viewport:  vp,
		composer:  ta,
		spinner:   sp,
		form:      newLoginForm(),
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init restores a stored session and starts the spinner, the cursor blink and
// the dictation listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		resumeCmd(m.ctx, m.store),
		listenVoice(m.dict),
	)
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		var cmd tea.Cmd
		m, cmd = m.handleKey(msg)
		cmds = append(cmds, cmd)
		if m.quitting {
			return m, tea.Batch(cmds...)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case storeUpdatedMsg:

	case sentMsg:
		if m.store.Snapshot().UI.RightPanelTab == store.PanelHistory {
			cmds = append(cmds, historyCmd(m.ctx, m.store))
		}

	case authDoneMsg:
		if msg.err != nil {
			m.form.err = authErrorText(msg.err)
		}

	case voiceEventMsg:
		m.handleVoice(msg.ev)
		cmds = append(cmds, listenVoice(m.dict))

	case copiedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("clipboard write failed")
			m.store.Dispatch(store.Notify{Kind: store.NotifyError, Text: "Could not copy to clipboard"})
		} else {
			m.store.Dispatch(store.Notify{Kind: store.NotifySuccess, Text: "Copied to clipboard"})
		}

	case exportedMsg:
		if msg.err != nil {
			m.log.Error().Err(msg.err).Msg("export failed")
			m.store.Dispatch(store.Notify{Kind: store.NotifyError, Text: "Export failed: " + msg.err.Error()})
		} else {
			m.store.Dispatch(store.Notify{Kind: store.NotifySuccess, Text: "Saved " + msg.path})
		}

	case dismissMsg:
		m.store.Dispatch(store.DismissNotification{ID: msg.id})

	case ThemeMsg:
		m.setTheme(msg.Mode)

	default:
		var cmd tea.Cmd
		m.composer, cmd = m.composer.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, m.form.update(msg))
	}

	cmds = append(cmds, m.reconcile())
	m.layout()
	m.refreshTranscript()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// STATE-DRIVEN SIDE EFFECTS
// =============================================================================

// reconcile compares the snapshot with the previous one and returns the
// commands its changes call for.
func (m *Model) reconcile() tea.Cmd {
	st := m.store.Snapshot()
	var cmds []tea.Cmd

	if st.UI.Route != m.seen.route {
		m.seen.route = st.UI.Route
		switch st.UI.Route {
		case store.RouteChat:
			if st.Chat.HasSelection() {
				m.focus = focusComposer
			} else {
				m.focus = focusSidebar
			}
			if st.Auth.IsAuthenticated {
				cmds = append(cmds, historyCmd(m.ctx, m.store))
			}
		case store.RouteLogin:
			m.form.reset(st.UI.ActiveTab)
			if m.dict != nil && m.dict.IsListening() {
				cmds = append(cmds, toggleVoice(m.dict))
			}
		}
	}

	if st.UI.ActiveTab != m.seen.tab {
		m.seen.tab = st.UI.ActiveTab
		m.form.setTab(st.UI.ActiveTab)
	}

	selection := st.Chat.SelectedAppliance + "/" + st.Chat.SelectedBrand
	if selection != m.seen.selection {
		m.seen.selection = selection
		m.sidebarCursor = 0
		m.panelCursor = 0
		m.msgFocus = -1
		if st.Chat.HasSelection() {
			m.composer.Placeholder = fmt.Sprintf("Ask me about your %s %s... (Alt+Enter for new line)",
				model.BrandName(st.Chat.SelectedBrand),
				strings.ToLower(model.ApplianceName(st.Chat.SelectedAppliance)))
			if m.focus == focusSidebar {
				m.focus = focusComposer
			}
			cmds = append(cmds, tipsCmd(m.ctx, m.store, st.Chat.SelectedAppliance, st.Chat.SelectedBrand))
		} else {
			m.composer.Placeholder = "Select an appliance and brand to start"
		}
	}

	n, last := len(st.Chat.Messages), lastMessageID(st.Chat.Messages)
	if n != m.seen.messages || last != m.seen.lastMessage || st.Chat.CurrentSessionID != m.seen.session {
		m.seen.messages = n
		m.seen.lastMessage = last
		m.seen.session = st.Chat.CurrentSessionID
		if m.msgFocus >= n {
			m.msgFocus = -1
		}
		m.transcriptKey = ""
		m.stickBottom = true
	}

	for _, n := range st.UI.Notifications {
		if n.ID > m.seen.notification {
			m.seen.notification = n.ID
			cmds = append(cmds, dismissAfter(n.ID, NotificationTTL))
		}
	}

	wantFocus := st.UI.Route == store.RouteChat && m.focus == focusComposer && st.Chat.HasSelection()
	switch {
	case wantFocus && !m.composer.Focused():
		cmds = append(cmds, m.composer.Focus())
	case !wantFocus && m.composer.Focused():
		m.composer.Blur()
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if m.dict != nil && m.dict.IsListening() {
			m.dict.StopListening()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Theme):
		next := styles.ModeLight
		if !m.theme.IsDark {
			next = styles.ModeDark
		}
		m.setTheme(next)
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if list := m.store.Snapshot().UI.Notifications; len(list) > 0 {
			m.store.Dispatch(store.DismissNotification{ID: list[len(list)-1].ID})
		}
		return m, nil
	}

	st := m.store.Snapshot()
	switch st.UI.Route {
	case store.RouteLogin:
		return m.updateLogin(msg, st)
	case store.RouteChat:
		return m.updateChat(msg, st)
	default:
		return m.updateHome(msg, st)
	}
}

func (m Model) updateHome(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if st.Auth.IsAuthenticated {
			m.store.Dispatch(store.Navigate{Route: store.RouteChat})
		} else {
			m.store.Dispatch(store.Navigate{Route: store.RouteLogin})
		}
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateChat(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.cycleFocus(1, st)
		return m, nil

	case key.Matches(msg, m.keys.PrevFocus):
		m.cycleFocus(-1, st)
		return m, nil

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.store.Dispatch(store.ToggleSidebar{})
		if m.focus == focusSidebar && st.UI.SidebarOpen {
			m.focus = focusComposer
		}
		return m, nil

	case key.Matches(msg, m.keys.TogglePanel):
		m.store.Dispatch(store.ToggleRightPanel{})
		if m.focus == focusPanel && st.UI.RightPanelOpen {
			m.focus = focusComposer
		}
		return m, nil

	case key.Matches(msg, m.keys.SwitchPanelTab):
		m.panelCursor = 0
		if st.UI.RightPanelTab == store.PanelHistory {
			m.store.Dispatch(store.SetRightPanelTab{Tab: store.PanelSmartTips})
			return m, nil
		}
		m.store.Dispatch(store.SetRightPanelTab{Tab: store.PanelHistory})
		return m, historyCmd(m.ctx, m.store)

	case key.Matches(msg, m.keys.Dictate):
		if m.dict == nil {
			m.store.Dispatch(store.Notify{Kind: store.NotifyWarning, Text: voice.ErrUnsupported.Error()})
			return m, nil
		}
		return m, toggleVoice(m.dict)

	case key.Matches(msg, m.keys.Logout):
		return m, logoutCmd(m.ctx, m.store)

	case key.Matches(msg, m.keys.Export):
		return m.exportTranscript(st)
	}

	switch m.focus {
	case focusSidebar:
		return m.updateSidebar(msg, st)
	case focusTranscript:
		return m.updateTranscript(msg, st)
	case focusPanel:
		return m.updatePanel(msg, st)
	default:
		return m.updateComposer(msg, st)
	}
}

func (m Model) updateComposer(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case msg.Type == tea.KeyEsc:
		m.note = ""
		if st.Chat.Error != "" {
			m.store.Dispatch(store.ClearError{})
		}
		return m, nil
	}

	if !st.Chat.HasSelection() {
		return m, nil
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

// submit hands the composer text to the store. Guard failures leave the text
// in place.
func (m Model) submit() (Model, tea.Cmd) {
	p, err := m.store.BeginSubmit(m.composer.Value())
	switch {
	case err == nil:
	case errors.Is(err, store.ErrEmptyMessage):
		return m, nil
	case errors.Is(err, store.ErrNoSelection):
		m.note = "Select an appliance and brand first"
		return m, nil
	case errors.Is(err, store.ErrSendInFlight):
		m.note = "Waiting for the previous reply…"
		return m, nil
	default:
		m.note = err.Error()
		return m, nil
	}

	m.note = ""
	m.composer.Reset()
	return m, sendCmd(m.ctx, p)
}

func (m Model) updateSidebar(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	choices := components.Choices(st.Chat.SelectedAppliance, st.Chat.SelectedBrand)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sidebarCursor > 0 {
			m.sidebarCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sidebarCursor < len(choices)-1 {
			m.sidebarCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.sidebarCursor >= len(choices) {
			return m, nil
		}
		id := choices[m.sidebarCursor].ID
		if st.Chat.SelectedAppliance == "" {
			m.store.Dispatch(store.SelectAppliance{ID: id})
		} else {
			m.store.Dispatch(store.SelectBrand{ID: id})
		}
	case key.Matches(msg, m.keys.Back):
		m.store.Dispatch(store.Back{})
	}
	return m, nil
}

func (m Model) updateTranscript(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	msgs := st.Chat.Messages
	switch {
	case key.Matches(msg, m.keys.Up):
		switch {
		case len(msgs) == 0:
		case m.msgFocus < 0:
			m.msgFocus = len(msgs) - 1
		case m.msgFocus > 0:
			m.msgFocus--
		}
		m.transcriptKey = ""
		m.scrollToFocus = true

	case key.Matches(msg, m.keys.Down):
		if m.msgFocus >= 0 && m.msgFocus < len(msgs)-1 {
			m.msgFocus++
			m.transcriptKey = ""
			m.scrollToFocus = true
		}

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()

	case key.Matches(msg, m.keys.Copy):
		if m.msgFocus >= 0 && m.msgFocus < len(msgs) {
			return m, copyCmd(m.clip, msgs[m.msgFocus].Content)
		}

	case key.Matches(msg, m.keys.Helpful):
		m.setFeedback(msgs, model.FeedbackUp)

	case key.Matches(msg, m.keys.NotHelpful):
		m.setFeedback(msgs, model.FeedbackDown)

	case key.Matches(msg, m.keys.Back):
		m.msgFocus = -1
		m.transcriptKey = ""
		m.focus = focusComposer
	}
	return m, nil
}

// setFeedback marks the focused assistant reply. Repeating the same mark
// clears it.
func (m *Model) setFeedback(msgs []model.Message, fb model.Feedback) {
	if m.msgFocus < 0 || m.msgFocus >= len(msgs) {
		return
	}
	target := msgs[m.msgFocus]
	if !target.IsAI() {
		return
	}
	if target.Feedback == fb {
		fb = model.FeedbackNone
	}
	m.store.Dispatch(store.SetFeedback{ID: target.ID, Feedback: fb})
	m.transcriptKey = ""
}

func (m Model) updatePanel(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	if st.UI.RightPanelTab == store.PanelHistory {
		return m.updateHistory(msg, st)
	}

	questions := quickQuestions(st)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.panelCursor > 0 {
			m.panelCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.panelCursor < len(questions)-1 {
			m.panelCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.panelCursor < len(questions) {
			m.composer.SetValue(questions[m.panelCursor])
			m.focus = focusComposer
		}
	case key.Matches(msg, m.keys.Refresh):
		if st.Chat.HasSelection() {
			return m, tipsCmd(m.ctx, m.store, st.Chat.SelectedAppliance, st.Chat.SelectedBrand)
		}
	}
	return m, nil
}

func (m Model) updateHistory(msg tea.KeyMsg, st store.State) (Model, tea.Cmd) {
	sessions := st.Chat.History
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.panelCursor > 0 {
			m.panelCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.panelCursor < len(sessions)-1 {
			m.panelCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.panelCursor < len(sessions) {
			return m, sessionCmd(m.ctx, m.store, sessions[m.panelCursor].ID)
		}
	case key.Matches(msg, m.keys.Clear):
		m.panelCursor = 0
		return m, clearHistoryCmd(m.ctx, m.store)
	case key.Matches(msg, m.keys.Refresh):
		return m, historyCmd(m.ctx, m.store)
	}
	return m, nil
}

// cycleFocus moves to the next visible pane in tab order.
func (m *Model) cycleFocus(dir int, st store.State) {
	visible := func(f focusArea) bool {
		switch f {
		case focusSidebar:
			return st.UI.SidebarOpen
		case focusPanel:
			return st.UI.RightPanelOpen
		default:
			return true
		}
	}
	idx := 0
	for i, f := range focusOrder {
		if f == m.focus {
			idx = i
		}
	}
	for range focusOrder {
		idx = (idx + dir + len(focusOrder)) % len(focusOrder)
		if visible(focusOrder[idx]) {
			break
		}
	}
	m.focus = focusOrder[idx]
	m.panelCursor = 0
	if m.focus != focusTranscript && m.msgFocus >= 0 {
		m.msgFocus = -1
		m.transcriptKey = ""
	}
}

func lastMessageID(msgs []model.Message) int64 {
	if len(msgs) == 0 {
		return 0
	}
	return msgs[len(msgs)-1].ID
}

// =============================================================================
// DICTATION
// =============================================================================

func (m *Model) handleVoice(ev voice.Event) {
	switch ev.Kind {
	case voice.EventStarted:
		m.interim = ""
	case voice.EventTranscript:
		m.interim = ev.Text
	case voice.EventEnded:
		m.interim = ""
		m.appendDictation(ev.Text)
	case voice.EventError:
		m.interim = ""
		if ev.Err != nil {
			m.store.Dispatch(store.Notify{Kind: store.NotifyError, Text: "Voice input: " + ev.Err.Error()})
		}
	}
}

// appendDictation places a final transcript into the composer after any
// text already typed.
func (m *Model) appendDictation(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	current := strings.TrimRight(m.composer.Value(), " ")
	if current != "" {
		text = current + " " + text
	}
	m.composer.SetValue(text)
	m.composer.CursorEnd()
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) setTheme(mode string) {
	m.theme = styles.NewTheme(mode)
	m.md = components.NewMarkdown(m.theme.GlamourStyle())
	m.spinner.Style = m.theme.Typing
	m.transcriptKey = ""
	if m.theme.IsDark {
		m.store.Dispatch(store.SetTheme{Theme: styles.ModeDark})
	} else {
		m.store.Dispatch(store.SetTheme{Theme: styles.ModeLight})
	}
}

// exportTranscript writes the visible transcript as Markdown.
func (m Model) exportTranscript(st store.State) (Model, tea.Cmd) {
	if len(st.Chat.Messages) == 0 {
		m.note = "Nothing to export yet"
		return m, nil
	}
	t := &export.Transcript{
		Appliance:  st.Chat.SelectedAppliance,
		Brand:      st.Chat.SelectedBrand,
		SessionID:  st.Chat.CurrentSessionID,
		ExportedAt: m.now(),
		Messages:   st.Chat.Messages,
	}
	return m, exportCmd(t, m.exportDir)
}

func quickQuestions(st store.State) []string {
	if st.Chat.HasSelection() {
		return tips.QuickQuestions(st.Chat.SelectedAppliance, st.Chat.SelectedBrand)
	}
	return nil
}

func authErrorText(err error) string {
	switch {
	case errors.Is(err, store.ErrMissingCredentials):
		return "Please fill in all fields"
	case errors.Is(err, store.ErrPasswordMismatch):
		return "Passwords do not match"
	default:
		return err.Error()
	}
}
