// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	log := For("api")
	log.Info().Str("path", "/chat/").Msg("request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "api", line["component"])
	assert.Equal(t, "/chat/", line["path"])
	assert.Equal(t, "request", line["message"])
}

func TestSetup_WritesFileAtLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "applianceai.log")

	closer, err := Setup(Options{Level: "warn", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { SetLogger(zerolog.Nop()) })

	log := For("store")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
}

func TestSetup_RejectsUnknownLevel(t *testing.T) {
	_, err := Setup(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestSetup_NoOutputsIsNop(t *testing.T) {
	closer, err := Setup(Options{})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, zerolog.Disabled, Logger().GetLevel())
}
