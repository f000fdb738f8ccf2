// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// =============================================================================
// RIGHT PANEL: SMART TIPS AND HISTORY
// =============================================================================

// PanelProps is everything the right panel renders from.
type PanelProps struct {
	ShowHistory bool
	Focused     bool
	Cursor      int
	Width       int
	Height      int

	// Smart tips
	Appliance string
	Brand     string
	Tips      []model.Tip
	Questions []string
	TipsError string

	// History
	History      []model.SessionSummary
	HistoryBusy  bool
	HistoryError string
	CurrentID    string
	Now          time.Time
}

// RenderPanel draws the tab header and the active tab.
func RenderPanel(p PanelProps, theme *styles.Theme) string {
	inner := p.Width - 3
	if inner < 12 {
		inner = 12
	}

	tipsTab, historyTab := theme.PanelTabActive, theme.PanelTab
	if p.ShowHistory {
		tipsTab, historyTab = theme.PanelTab, theme.PanelTabActive
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		tipsTab.Render("Smart Tips"), " ", historyTab.Render("History"))

	var body string
	if p.ShowHistory {
		body = renderHistory(p, inner, theme)
	} else {
		body = renderTips(p, inner, theme)
	}

	style := theme.Panel.Width(p.Width - 1)
	if p.Height > 0 {
		style = style.Height(p.Height)
	}
	return style.Render(header + "\n\n" + body)
}

func renderTips(p PanelProps, width int, theme *styles.Theme) string {
	if p.Appliance == "" || p.Brand == "" {
		return theme.Muted.Render(wrapText("Select an appliance and brand to see maintenance tips.", width))
	}

	var lines []string
	for _, tip := range p.Tips {
		badge := theme.Urgency(tip.Urgency).Render(strings.ToUpper(string(tip.Urgency)))
		title := util.Truncate(strings.TrimSpace(tip.Icon+" "+tip.Title), width-util.Width(string(tip.Urgency))-1)
		lines = append(lines,
			theme.TipTitle.Render(title)+" "+badge,
			theme.TipBody.Render(wrapText(tip.Description, width)),
			"",
		)
	}
	if len(p.Tips) == 0 {
		lines = append(lines, theme.Muted.Render("No tips for this appliance."), "")
	}
	if p.TipsError != "" {
		lines = append(lines, theme.WarningStyle.Render(wrapText(p.TipsError, width)), "")
	}

	if len(p.Questions) > 0 {
		lines = append(lines, theme.FormLabel.Render("Quick questions"))
		for i, q := range p.Questions {
			line := fmt.Sprintf("%d. %s", i+1, q)
			if p.Focused && i == p.Cursor {
				lines = append(lines, theme.SidebarItemSelected.Render(wrapText(line, width-2)))
			} else {
				lines = append(lines, theme.QuickQuestion.Render(wrapText(line, width)))
			}
		}
	}
	return strings.Join(lines, "\n")
}

func renderHistory(p PanelProps, width int, theme *styles.Theme) string {
	if p.HistoryBusy && len(p.History) == 0 {
		return theme.Muted.Render("Loading history…")
	}
	var lines []string
	if p.HistoryError != "" {
		lines = append(lines, theme.ErrorStyle.Render(wrapText(p.HistoryError, width)), "")
	}
	if len(p.History) == 0 {
		lines = append(lines, theme.Muted.Render("No previous conversations."))
		return strings.Join(lines, "\n")
	}

	for i, s := range p.History {
		title := util.Truncate(s.Title(), width-2)
		meta := fmt.Sprintf("%d messages", s.MessageCount)
		if ts := FormatTimestamp(s.UpdatedAt, p.Now); ts != "" {
			meta += " · " + ts
		}
		switch {
		case p.Focused && i == p.Cursor:
			lines = append(lines, theme.SidebarItemSelected.Render(title))
		case s.ID == p.CurrentID:
			lines = append(lines, theme.InfoStyle.Render("• "+title))
		default:
			lines = append(lines, theme.TipTitle.Render(title))
		}
		lines = append(lines, theme.Muted.Render("  "+meta))
	}
	lines = append(lines, "", theme.SidebarHint.Render("enter open · x clear all"))
	return strings.Join(lines, "\n")
}

func wrapText(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}
