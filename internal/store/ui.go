// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"fmt"
	"time"
)

// reduceUI applies a to the UI slice.
func reduceUI(s UIState, a Action, now time.Time) UIState {
	switch a := a.(type) {
	case SetActiveTab:
		s.ActiveTab = a.Tab

	case ToggleSidebar:
		s.SidebarOpen = !s.SidebarOpen

	case ToggleRightPanel:
		s.RightPanelOpen = !s.RightPanelOpen

	case SetRightPanelOpen:
		s.RightPanelOpen = a.Open

	case SetRightPanelTab:
		s.RightPanelTab = a.Tab
		s.RightPanelOpen = true

	case SetTheme:
		if a.Theme == "dark" || a.Theme == "light" {
			s.Theme = a.Theme
		}

	case Notify:
		s = notify(s, a.Kind, a.Text, now)

	case DismissNotification:
		kept := make([]Notification, 0, len(s.Notifications))
		for _, n := range s.Notifications {
			if n.ID != a.ID {
				kept = append(kept, n)
			}
		}
		s.Notifications = kept

	case Navigate:
		s.Route = a.Route

	case hydrated:
		if a.Token != "" && s.Route == RouteHome {
			s.Route = RouteChat
		}

	case loginSucceeded:
		s.Route = RouteChat
		s = notify(s, NotifySuccess, fmt.Sprintf("Welcome, %s", displayName(a.User.Username, a.User.Email)), now)

	case signupSucceeded:
		s.ActiveTab = TabLogin
		s = notify(s, NotifySuccess, "Account created. Please log in.", now)

	case Logout:
		s.Route = RouteLogin
		s.ActiveTab = TabLogin

	case ForcedLogout:
		// A rejected login attempt is already on the login page; the inline
		// auth error covers it.
		if s.Route != RouteLogin {
			s = notify(s, NotifyWarning, "Your session has expired. Please log in again.", now)
		}
		s.Route = RouteLogin
		s.ActiveTab = TabLogin
		s.LoginRedirects++

	case historyCleared:
		s = notify(s, NotifyInfo, "Chat history cleared", now)
	}
	return s
}

func notify(s UIState, kind NotificationKind, text string, now time.Time) UIState {
	s.nextNotificationID++
	n := Notification{ID: s.nextNotificationID, Kind: kind, Text: text, Timestamp: now}

	list := make([]Notification, 0, len(s.Notifications)+1)
	list = append(list, s.Notifications...)
	list = append(list, n)
	if len(list) > MaxNotifications {
		list = list[len(list)-MaxNotifications:]
	}
	s.Notifications = list
	return s
}

func displayName(username, email string) string {
	if username != "" {
		return username
	}
	if email != "" {
		return email
	}
	return "back"
}
