// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

// MessageView renders one transcript entry.
type MessageView struct {
	Message       model.Message
	Width         int
	Focused       bool
	ShowTimestamp bool
	Now           time.Time
}

// Render draws the label line, the bubble and, for assistant replies, the
// source/confidence/feedback line. md may be nil for plain text.
func (v MessageView) Render(theme *styles.Theme, md *Markdown) string {
	width := v.Width
	if width < 24 {
		width = 24
	}
	inner := width - 4

	body := v.Message.Content
	style := theme.UserBubble
	if v.Message.IsAI() {
		style = theme.AssistantBubble
		if md != nil {
			body = md.Render(v.Message.Content, inner)
		}
	}
	if v.Focused {
		style = style.BorderForeground(styles.Amber)
	}

	label := theme.MessageLabel.Render(v.Message.Type.DisplayName())
	if v.ShowTimestamp {
		if ts := FormatTimestamp(v.Message.Timestamp, v.Now); ts != "" {
			label += " " + theme.Timestamp.Render(ts)
		}
	}
	if v.Focused {
		label = theme.WarningStyle.Render("›") + " " + label
	}

	parts := []string{label, style.Width(width - 2).Render(body)}
	if meta := MessageMeta(v.Message); meta != "" {
		parts = append(parts, theme.MessageMeta.Render(meta))
	}

	block := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if v.Message.IsUser() {
		return lipgloss.NewStyle().PaddingLeft(2).Render(block)
	}
	return block
}

// MessageMeta is the trailing line under an assistant reply.
func MessageMeta(m model.Message) string {
	if !m.IsAI() {
		return ""
	}
	var parts []string
	if m.Source != "" {
		parts = append(parts, "Source: "+m.Source)
	}
	if c := m.ConfidencePercent(); c != "" {
		parts = append(parts, "Confidence: "+c)
	}
	switch m.Feedback {
	case model.FeedbackUp:
		parts = append(parts, "▲ helpful")
	case model.FeedbackDown:
		parts = append(parts, "▼ not helpful")
	}
	return strings.Join(parts, " · ")
}

// RenderTranscript renders every message, separated by blank lines, with
// the message at focus highlighted. focus < 0 highlights nothing. offsets[i]
// is the first line of message i.
func RenderTranscript(msgs []model.Message, focus, width int, showTS bool, now time.Time, theme *styles.Theme, md *Markdown) (out string, offsets []int) {
	blocks := make([]string, 0, len(msgs))
	offsets = make([]int, 0, len(msgs))
	line := 0
	for i, m := range msgs {
		block := MessageView{
			Message:       m,
			Width:         width,
			Focused:       i == focus,
			ShowTimestamp: showTS,
			Now:           now,
		}.Render(theme, md)
		offsets = append(offsets, line)
		line += lipgloss.Height(block) + 1
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), offsets
}
