// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice provides speech-to-text dictation for the chat composer.
//
// A Recognizer is the platform capability: something that turns audio into
// text and reports results through callbacks. Dictation wraps one Recognizer
// and exposes a small, panic-free surface to the UI: start, stop, the
// current transcript and a channel of events.
package voice

import (
	"context"
	"errors"
)

// ErrUnsupported is reported when no recognizer is available.
var ErrUnsupported = errors.New("speech recognition is not supported on this system")

// Result is one recognition result. Interim results have Final false.
type Result struct {
	Text  string
	Final bool
}

// Recognizer is a speech recognition engine. Callbacks may be invoked from
// any goroutine; OnEnd is invoked exactly once per started session, after
// any OnResult or OnError for that session.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context) error
	Stop() error
	OnResult(func(Result))
	OnError(func(error))
	OnEnd(func())
}

// NoopRecognizer is used where no speech engine is configured.
type NoopRecognizer struct{}

func (NoopRecognizer) Supported() bool                 { return false }
func (NoopRecognizer) Start(ctx context.Context) error { return ErrUnsupported }
func (NoopRecognizer) Stop() error                     { return nil }
func (NoopRecognizer) OnResult(func(Result))           {}
func (NoopRecognizer) OnError(func(error))             {}
func (NoopRecognizer) OnEnd(func())                    {}
