// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the structured logger shared by every package.
//
// The TUI owns the terminal, so log lines go to a file under the config
// directory. Packages obtain a component logger with For and never write to
// stdout or stderr directly.
//
//	log := logging.For("api")
//	log.Debug().Str("path", "/chat/").Msg("request")
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls where and how much is logged.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	Level string

	// Path is the log file. Empty disables file output.
	Path string

	// Console, when set, also receives human-readable output. CLI
	// subcommands pass os.Stderr here; the TUI leaves it nil.
	Console io.Writer
}

var (
	baseMu sync.RWMutex
	base   = zerolog.Nop()
)

// Setup builds the process-wide logger. The returned closer flushes and
// closes the log file and is safe to call when no file was opened.
func Setup(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return nopCloser{}, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nopCloser{}, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.Kitchen})
	}

	if len(writers) == 0 {
		SetLogger(zerolog.Nop())
		return closer, nil
	}

	SetLogger(zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger())
	return closer, nil
}

// SetLogger replaces the process-wide logger. Tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	baseMu.Lock()
	defer baseMu.Unlock()
	base = l
}

// Logger returns the process-wide logger.
func Logger() zerolog.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	return base
}

// For returns a logger tagged with the given component name.
func For(component string) zerolog.Logger {
	l := Logger()
	return l.With().Str("component", component).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
