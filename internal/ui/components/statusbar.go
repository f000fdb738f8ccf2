// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/store"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// HEADER (NAVBAR)
// =============================================================================

// RenderHeader draws the top bar: product name, selection, signed-in user.
func RenderHeader(width int, user *model.User, appliance, brand string, theme *styles.Theme) string {
	left := theme.HeaderTitle.Render("ApplianceAI")
	if appliance != "" {
		ctx := model.ApplianceName(appliance)
		if brand != "" {
			ctx = model.BrandName(brand) + " " + ctx
		}
		left += theme.HeaderSubtitle.Render("  " + ctx)
	}

	right := ""
	if name := user.DisplayName(); name != "" {
		right = theme.Muted.Render(name)
	}
	return theme.Header.Width(width).Render(spread(left, right, width-2))
}

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusProps is everything the status bar renders from.
type StatusProps struct {
	Width     int
	Status    store.ChatStatus
	Spinner   string
	Listening bool
	Focus     string
	Shortcuts []Shortcut
}

// RenderStatusBar draws the state on the left and key hints on the right.
// Hints are dropped from the end until they fit.
func RenderStatusBar(p StatusProps, theme *styles.Theme) string {
	var left []string
	switch p.Status {
	case store.StatusSending:
		left = append(left, theme.Typing.Render(p.Spinner+" waiting for reply"))
	case store.StatusError:
		left = append(left, theme.ErrorStyle.Render(styles.StatusIndicators.Error+" error"))
	default:
		left = append(left, theme.SuccessStyle.Render("ready"))
	}
	if p.Listening {
		left = append(left, theme.Listening.Render("● listening"))
	}
	if p.Focus != "" {
		left = append(left, theme.Muted.Render("["+p.Focus+"]"))
	}
	l := strings.Join(left, "  ")

	avail := p.Width - 2 - lipgloss.Width(l) - 2
	hints := make([]string, 0, len(p.Shortcuts))
	for _, s := range p.Shortcuts {
		h := theme.ShortcutKey.Render(s.Key) + " " + theme.ShortcutDesc.Render(s.Desc)
		if lipgloss.Width(strings.Join(append(hints, h), "  ")) > avail {
			break
		}
		hints = append(hints, h)
	}
	return theme.StatusBar.Width(p.Width).Render(spread(l, strings.Join(hints, "  "), p.Width-2))
}

// spread places left and right at the edges of width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// RenderNotifications draws the newest max notifications, newest last.
func RenderNotifications(list []store.Notification, max, width int, theme *styles.Theme) string {
	if len(list) == 0 || max <= 0 {
		return ""
	}
	if len(list) > max {
		list = list[len(list)-max:]
	}
	lines := make([]string, 0, len(list))
	for _, n := range list {
		text := util.Truncate(n.Text, width-6)
		switch n.Kind {
		case store.NotifySuccess:
			lines = append(lines, styles.RenderSuccess(text))
		case store.NotifyWarning:
			lines = append(lines, styles.RenderWarning(text))
		case store.NotifyError:
			lines = append(lines, styles.RenderError(text))
		default:
			lines = append(lines, styles.RenderInfo(text))
		}
	}
	return strings.Join(lines, "\n")
}
