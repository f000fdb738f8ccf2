// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"time"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// =============================================================================
// CHAT
// =============================================================================

// ChatStatus is the send state of the transcript.
type ChatStatus int

const (
	StatusIdle ChatStatus = iota
	StatusSending
	StatusError
)

// String returns the string representation of the status.
func (s ChatStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSending:
		return "sending"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// LoadStatus tracks a list fetched from the backend.
type LoadStatus int

const (
	LoadIdle LoadStatus = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

// ChatState is the chat slice.
type ChatState struct {
	SelectedAppliance string
	SelectedBrand     string

	Messages []model.Message
	Status   ChatStatus
	Error    string

	Tips       []model.Tip
	TipsLoaded bool
	TipsError  string

	History          []model.SessionSummary
	HistoryStatus    LoadStatus
	HistoryError     string
	CurrentSessionID string

	// NextID is the last local message id handed out.
	NextID int64
	// Epoch advances on every selection change.
	Epoch uint64
}

// IsTyping reports whether the assistant is composing a reply.
func (c ChatState) IsTyping() bool { return c.Status == StatusSending }

// IsLoading reports whether a send is outstanding.
func (c ChatState) IsLoading() bool { return c.Status == StatusSending }

// isSelected reports whether appliance and brand are the current selection.
func (c ChatState) isSelected(appliance, brand string) bool {
	return c.SelectedAppliance == appliance && c.SelectedBrand == brand
}

// HasSelection reports whether both appliance and brand are chosen.
func (c ChatState) HasSelection() bool {
	return c.SelectedAppliance != "" && c.SelectedBrand != ""
}

// Message returns the message with the given local id.
func (c ChatState) Message(id int64) (model.Message, bool) {
	for _, m := range c.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}

// =============================================================================
// AUTH
// =============================================================================

// AuthState is the auth slice.
type AuthState struct {
	User            *model.User
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// =============================================================================
// UI
// =============================================================================

// Route is the page shown by the TUI.
type Route string

const (
	RouteHome  Route = "home"
	RouteLogin Route = "login"
	RouteChat  Route = "chat"
)

// AuthTab is the active tab of the login page.
type AuthTab string

const (
	TabLogin  AuthTab = "login"
	TabSignup AuthTab = "signup"
)

// PanelTab is the active tab of the right panel.
type PanelTab string

const (
	PanelSmartTips PanelTab = "smartTips"
	PanelHistory   PanelTab = "history"
)

// NotificationKind is the severity of a notification.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message shown in the status line.
type Notification struct {
	ID        int
	Kind      NotificationKind
	Text      string
	Timestamp time.Time
}

// MaxNotifications bounds the notification list; the oldest are dropped.
const MaxNotifications = 20

// UIState is the UI slice.
type UIState struct {
	Route          Route
	ActiveTab      AuthTab
	SidebarOpen    bool
	RightPanelOpen bool
	RightPanelTab  PanelTab
	Theme          string
	Notifications  []Notification

	// LoginRedirects counts forced navigations to the login page.
	LoginRedirects int

	nextNotificationID int
}

// =============================================================================
// ROOT
// =============================================================================

// State is the whole client state.
type State struct {
	Auth AuthState
	Chat ChatState
	UI   UIState
}

// InitialState returns the state before hydration.
func InitialState() State {
	return State{
		Chat: ChatState{},
		UI: UIState{
			Route:         RouteHome,
			ActiveTab:     TabLogin,
			SidebarOpen:   true,
			RightPanelTab: PanelSmartTips,
			Theme:         "dark",
		},
	}
}

// clone copies the slices so a snapshot cannot alias live state.
func (s State) clone() State {
	out := s
	if s.Auth.User != nil {
		u := *s.Auth.User
		out.Auth.User = &u
	}
	out.Chat.Messages = append([]model.Message(nil), s.Chat.Messages...)
	out.Chat.Tips = append([]model.Tip(nil), s.Chat.Tips...)
	out.Chat.History = append([]model.SessionSummary(nil), s.Chat.History...)
	out.UI.Notifications = append([]Notification(nil), s.UI.Notifications...)
	return out
}
