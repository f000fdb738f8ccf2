// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended by Truncate when text is cut.
const Ellipsis = "…"

// Truncate shortens s to at most maxWidth terminal columns. Wide runes
// (CJK, emoji) count as two columns. An ellipsis is appended when the text is
// cut and there is room for it.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight pads s with spaces up to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Width returns the number of terminal columns s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// NormalizeMessage prepares composed or dictated text for sending: NFC
// normalisation, CRLF/CR folded to LF, and surrounding whitespace removed.
// Interior newlines are kept.
func NormalizeMessage(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

// FirstLine returns the first non-empty line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
