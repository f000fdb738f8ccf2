// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/applianceai-tui/internal/model"
	"github.com/jeranaias/applianceai-tui/internal/util"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no messages")

// Transcript is the exported view of a conversation.
type Transcript struct {
	Appliance  string          `json:"appliance" yaml:"appliance"`
	Brand      string          `json:"brand" yaml:"brand"`
	SessionID  string          `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	ExportedAt time.Time       `json:"exported_at" yaml:"exported_at"`
	Messages   []model.Message `json:"messages" yaml:"messages"`
}

// Title names the transcript the way the backend names sessions.
func (t *Transcript) Title() string {
	if t.Appliance == "" {
		return "Appliance Support"
	}
	if t.Brand == "" {
		return fmt.Sprintf("%s Support", model.ApplianceName(t.Appliance))
	}
	return fmt.Sprintf("%s %s Support", model.BrandName(t.Brand), model.ApplianceName(t.Appliance))
}

// Exporter converts a transcript to one format.
type Exporter interface {
	Export(t *Transcript) ([]byte, error)
	FileExtension() string
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata adds a front-matter header (Markdown only).
	IncludeMetadata bool
	// IncludeTimestamps adds per-message times (Markdown only).
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{IncludeMetadata: true, IncludeTimestamps: true}
}

// Formats lists the accepted format names.
var Formats = []string{"md", "json", "yaml"}

// ForFormat returns the exporter for name: md|markdown, json, yaml|yml.
func ForFormat(name string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "yaml", "yml":
		return NewYAMLExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want %s)", name, strings.Join(Formats, ", "))
	}
}

// WriteFile exports t into dir under a generated name and returns the path.
func WriteFile(t *Transcript, exp Exporter, dir string) (string, error) {
	data, err := exp.Export(t)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, DefaultFilename(t, exp))
	if err := util.WriteFileAtomic(path, data, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// DefaultFilename builds "<title>_<timestamp><ext>".
func DefaultFilename(t *Transcript, exp Exporter) string {
	ts := t.ExportedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("%s_%s%s", sanitizeFilename(t.Title()), ts.Format("20060102_150405"), exp.FileExtension())
}

// sanitizeFilename replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	var b strings.Builder
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "transcript"
	}
	return b.String()
}

func validate(t *Transcript) error {
	if t == nil {
		return errors.New("transcript is nil")
	}
	if len(t.Messages) == 0 {
		return ErrEmptyTranscript
	}
	return nil
}
