// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/applianceai-tui/internal/model"
)

// MarkdownExporter exports transcripts to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown. AI replies are already Markdown
// and are written verbatim; user messages are escaped.
func (e *MarkdownExporter) Export(t *Transcript) ([]byte, error) {
	if err := validate(t); err != nil {
		return nil, err
	}

	var sb strings.Builder
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %q\n", t.Title())
		if t.Appliance != "" {
			fmt.Fprintf(&sb, "appliance: %s\n", t.Appliance)
		}
		if t.Brand != "" {
			fmt.Fprintf(&sb, "brand: %s\n", t.Brand)
		}
		if t.SessionID != "" {
			fmt.Fprintf(&sb, "session: %s\n", t.SessionID)
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(t.Messages))
		if !t.ExportedAt.IsZero() {
			fmt.Fprintf(&sb, "exported: %s\n", t.ExportedAt.Format(time.RFC3339))
		}
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", t.Title())

	for i, msg := range t.Messages {
		label := msg.Type.DisplayName()
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, msg.Timestamp.Format("2006-01-02 15:04"))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		if msg.IsAI() {
			sb.WriteString(strings.TrimSpace(msg.Content))
		} else {
			sb.WriteString(escapeMarkdown(msg.Content))
		}
		sb.WriteString("\n\n")

		if meta := messageMeta(msg); meta != "" {
			fmt.Fprintf(&sb, "*%s*\n\n", meta)
		}
		if i < len(t.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}
	return []byte(sb.String()), nil
}

// messageMeta renders source, confidence and feedback for AI messages.
func messageMeta(m model.Message) string {
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
		parts = append(parts, "Marked helpful")
	case model.FeedbackDown:
		parts = append(parts, "Marked not helpful")
	}
	return strings.Join(parts, " · ")
}

// escapeMarkdown escapes characters that would start Markdown structure at
// the beginning of a line.
func escapeMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		switch trimmed[0] {
		case '#', '>', '-', '*', '+', '|', '`':
			lines[i] = strings.Replace(l, trimmed[:1], `\`+trimmed[:1], 1)
		}
	}
	return strings.Join(lines, "\n")
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string { return "text/markdown" }
