// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic_CreatesParentsAndSetsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.toml")

	require.NoError(t, WriteFileAtomic(path, []byte("theme = \"dark\"\n"), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme = \"dark\"\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestWriteFileAtomic_ReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	require.NoError(t, WriteFileAtomic(path, []byte("first"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "file.txt", entries[0].Name())
}

func TestWriteAtomic_FailedFillKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, WriteFileAtomic(path, []byte("original"), 0600))

	boom := errors.New("encode failed")
	err := WriteAtomic(path, 0600, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "LG", 10, "LG"},
		{"exact", "Samsung", 7, "Samsung"},
		{"cut", "Washing Machine", 8, "Washing…"},
		{"zero", "anything", 0, ""},
		{"one column", "abc", 1, "a"},
		{"wide runes", "冷蔵庫の修理", 7, "冷蔵庫…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.width)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, Width(got), tt.width)
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	// "e" followed by a combining acute accent composes to a single rune.
	assert.Equal(t, "caf\u00e9", NormalizeMessage("  cafe\u0301 \n"))
	assert.Equal(t, "line one\nline two", NormalizeMessage("line one\r\nline two\r"))
	assert.Equal(t, "", NormalizeMessage(" \t\r\n "))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "ice maker leaking", FirstLine("\n  ice maker leaking \nsince monday"))
	assert.Equal(t, "", FirstLine("   \n\t"))
}
