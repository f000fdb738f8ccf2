// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders assistant replies with glamour. Renderers are cached per
// wrap width; a failed render falls back to the raw text.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer for a glamour standard style ("dark",
// "light", "notty").
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Style returns the glamour style in use.
func (m *Markdown) Style() string { return m.style }

// Render renders content wrapped to width.
func (m *Markdown) Render(content string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := m.renderer(width)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) renderer(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
