// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles for one output stream. Colors are dropped when
// the stream is not a terminal or NO_COLOR is set.
type palette struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Dim       lipgloss.Style
	Separator lipgloss.Style
	Prompt    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style

	High   lipgloss.Style
	Medium lipgloss.Style
	Low    lipgloss.Style
}

func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(colorProfile(w))

	return palette{
		Title:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Label:     r.NewStyle().Foreground(lipgloss.Color("245")).Width(14),
		Value:     r.NewStyle().Foreground(lipgloss.Color("252")),
		Success:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Error:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("214")),
		Dim:       r.NewStyle().Foreground(lipgloss.Color("242")),
		Separator: r.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("51")),
		User:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		Assistant: r.NewStyle().Bold(true).Foreground(lipgloss.Color("141")),

		High:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		Medium: r.NewStyle().Foreground(lipgloss.Color("214")),
		Low:    r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// separator renders a horizontal rule of width characters.
func (p palette) separator(width int) string {
	if width <= 0 {
		width = 60
	}
	return p.Separator.Render(strings.Repeat("─", width))
}

// field renders an aligned "label  value" line.
func (p palette) field(label, value string) string {
	return p.Label.Render(label) + p.Value.Render(value)
}
