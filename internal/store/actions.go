// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/jeranaias/applianceai-tui/internal/model"

// Action is a state transition. Every reducer sees every action and ignores
// the ones it does not handle.
type Action interface {
	actionName() string
}

// =============================================================================
// CHAT ACTIONS
// =============================================================================

// SelectAppliance chooses an appliance and clears the brand.
type SelectAppliance struct{ ID string }

// SelectBrand chooses a brand for the selected appliance.
type SelectBrand struct{ ID string }

// ClearSelection resets appliance, brand, transcript and tips.
type ClearSelection struct{}

// Back steps the selection flow back one level.
type Back struct{}

// AppendMessage appends a message, assigning the next local id.
type AppendMessage struct{ Message model.Message }

// ClearMessages empties the transcript.
type ClearMessages struct{}

// ClearError clears the chat error and returns an error status to idle.
type ClearError struct{}

// SetFeedback marks a message as helpful or not.
type SetFeedback struct {
	ID       int64
	Feedback model.Feedback
}

// sendStarted moves the chat to sending. User, when set, is appended as the
// optimistic user message in the same step.
type sendStarted struct{ User *model.Message }

type sendSucceeded struct {
	Epoch uint64
	Reply model.Message
}

type sendFailed struct {
	Epoch uint64
	Err   string
}

type tipsLoaded struct {
	Epoch     uint64
	Appliance string
	Brand     string
	Tips      []model.Tip
}

type tipsFailed struct {
	Epoch     uint64
	Appliance string
	Brand     string
	Err       string
}

type historyRequested struct{}

type historyLoaded struct{ Sessions []model.SessionSummary }

type historyFailed struct{ Err string }

type sessionLoaded struct {
	ID       string
	Messages []model.Message
}

type historyCleared struct{}

func (SelectAppliance) actionName() string  { return "chat/selectAppliance" }
func (SelectBrand) actionName() string      { return "chat/selectBrand" }
func (ClearSelection) actionName() string   { return "chat/clearSelection" }
func (Back) actionName() string             { return "chat/back" }
func (AppendMessage) actionName() string    { return "chat/appendMessage" }
func (ClearMessages) actionName() string    { return "chat/clearMessages" }
func (ClearError) actionName() string       { return "chat/clearError" }
func (SetFeedback) actionName() string      { return "chat/setFeedback" }
func (sendStarted) actionName() string      { return "chat/send/pending" }
func (sendSucceeded) actionName() string    { return "chat/send/fulfilled" }
func (sendFailed) actionName() string       { return "chat/send/rejected" }
func (tipsLoaded) actionName() string       { return "chat/tips/fulfilled" }
func (tipsFailed) actionName() string       { return "chat/tips/rejected" }
func (historyRequested) actionName() string { return "chat/history/pending" }
func (historyLoaded) actionName() string    { return "chat/history/fulfilled" }
func (historyFailed) actionName() string    { return "chat/history/rejected" }
func (sessionLoaded) actionName() string    { return "chat/session/fulfilled" }
func (historyCleared) actionName() string   { return "chat/history/cleared" }

// =============================================================================
// AUTH ACTIONS
// =============================================================================

// ClearAuthError clears the auth error.
type ClearAuthError struct{}

// Logout ends the session and routes to login.
type Logout struct{}

// ForcedLogout is dispatched when the backend rejects the token.
type ForcedLogout struct{}

type hydrated struct {
	Token        string
	RefreshToken string
}

type authStarted struct{}

type loginSucceeded struct {
	User         model.User
	Token        string
	RefreshToken string
}

type authFailed struct{ Err string }

type signupSucceeded struct{}

type tokenRefreshed struct {
	Token        string
	RefreshToken string
}

type verified struct{ User model.User }

func (ClearAuthError) actionName() string  { return "auth/clearError" }
func (Logout) actionName() string          { return "auth/logout" }
func (ForcedLogout) actionName() string    { return "auth/forcedLogout" }
func (hydrated) actionName() string        { return "auth/hydrated" }
func (authStarted) actionName() string     { return "auth/pending" }
func (loginSucceeded) actionName() string  { return "auth/login/fulfilled" }
func (authFailed) actionName() string      { return "auth/rejected" }
func (signupSucceeded) actionName() string { return "auth/signup/fulfilled" }
func (tokenRefreshed) actionName() string  { return "auth/refreshed" }
func (verified) actionName() string        { return "auth/verified" }

// =============================================================================
// UI ACTIONS
// =============================================================================

// SetActiveTab switches the login page tab.
type SetActiveTab struct{ Tab AuthTab }

// ToggleSidebar shows or hides the selection sidebar.
type ToggleSidebar struct{}

// ToggleRightPanel shows or hides the tips/history panel.
type ToggleRightPanel struct{}

// SetRightPanelOpen opens or closes the tips/history panel.
type SetRightPanelOpen struct{ Open bool }

// SetRightPanelTab switches the right panel tab and opens the panel.
type SetRightPanelTab struct{ Tab PanelTab }

// SetTheme switches the colour theme.
type SetTheme struct{ Theme string }

// Notify adds a notification.
type Notify struct {
	Kind NotificationKind
	Text string
}

// DismissNotification removes a notification by id.
type DismissNotification struct{ ID int }

// Navigate changes the route.
type Navigate struct{ Route Route }

func (SetActiveTab) actionName() string        { return "ui/setActiveTab" }
func (ToggleSidebar) actionName() string       { return "ui/toggleSidebar" }
func (ToggleRightPanel) actionName() string    { return "ui/toggleRightPanel" }
func (SetRightPanelOpen) actionName() string   { return "ui/setRightPanelOpen" }
func (SetRightPanelTab) actionName() string    { return "ui/setRightPanelTab" }
func (SetTheme) actionName() string            { return "ui/setTheme" }
func (Notify) actionName() string              { return "ui/notify" }
func (DismissNotification) actionName() string { return "ui/dismissNotification" }
func (Navigate) actionName() string            { return "ui/navigate" }
