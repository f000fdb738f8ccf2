// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/logging"
)

// EventKind identifies a dictation event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventTranscript
	EventError
	EventEnded
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventTranscript:
		return "transcript"
	case EventError:
		return "error"
	case EventEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Event is delivered on Dictation.Events. Text holds the transcript so far
// on EventTranscript and the final transcript on EventEnded, which is sent
// exactly once per session. EventError carries only Err.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

const eventBuffer = 64

// Dictation is a single-utterance dictation session over a Recognizer.
// Only final results are kept; they are trimmed and joined with spaces.
type Dictation struct {
	rec Recognizer

	mu         sync.Mutex
	listening  bool
	transcript string
	cancel     context.CancelFunc

	events chan Event
	log    zerolog.Logger
}

// NewDictation wraps rec. A nil rec behaves like NoopRecognizer.
func NewDictation(rec Recognizer) *Dictation {
	if rec == nil {
		rec = NoopRecognizer{}
	}
	d := &Dictation{
		rec:    rec,
		events: make(chan Event, eventBuffer),
		log:    logging.For("voice"),
	}
	rec.OnResult(d.handleResult)
	rec.OnError(d.handleError)
	rec.OnEnd(d.handleEnd)
	return d
}

// Events returns the channel dictation events are delivered on.
func (d *Dictation) Events() <-chan Event {
	return d.events
}

// IsSupported reports whether the recognizer can run.
func (d *Dictation) IsSupported() bool {
	return d.rec.Supported()
}

// IsListening reports whether a session is active.
func (d *Dictation) IsListening() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listening
}

// Transcript returns the final text recognized in the current or last
// session.
func (d *Dictation) Transcript() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.transcript
}

// StartListening begins a session and clears the previous transcript. It is
// a no-op while already listening. Failures arrive as EventError.
func (d *Dictation) StartListening() {
	if !d.rec.Supported() {
		d.emit(Event{Kind: EventError, Err: ErrUnsupported})
		return
	}

	d.mu.Lock()
	if d.listening {
		d.mu.Unlock()
		return
	}
	d.listening = true
	d.transcript = ""
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	if err := d.rec.Start(ctx); err != nil {
		d.mu.Lock()
		d.listening = false
		d.cancel = nil
		d.mu.Unlock()
		cancel()
		d.log.Warn().Err(err).Msg("dictation failed to start")
		d.emit(Event{Kind: EventError, Err: err})
		return
	}
	d.emit(Event{Kind: EventStarted})
}

// StopListening ends the session. It is a no-op while not listening.
func (d *Dictation) StopListening() {
	if !d.IsListening() {
		return
	}
	if err := d.rec.Stop(); err != nil {
		d.handleError(err)
	}
	// Recognizers that end asynchronously have not reported yet.
	if transcript, ok := d.finish(); ok {
		d.emit(Event{Kind: EventEnded, Text: transcript})
	}
}

// Toggle starts or stops listening.
func (d *Dictation) Toggle() {
	if d.IsListening() {
		d.StopListening()
		return
	}
	d.StartListening()
}

func (d *Dictation) handleResult(r Result) {
	if !r.Final {
		return
	}
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return
	}

	d.mu.Lock()
	if !d.listening {
		d.mu.Unlock()
		return
	}
	if d.transcript == "" {
		d.transcript = text
	} else {
		d.transcript += " " + text
	}
	transcript := d.transcript
	d.mu.Unlock()

	d.emit(Event{Kind: EventTranscript, Text: transcript})
}

func (d *Dictation) handleError(err error) {
	transcript, ended := d.finish()
	d.log.Warn().Err(err).Msg("dictation error")
	d.emit(Event{Kind: EventError, Err: err})
	if ended {
		d.emit(Event{Kind: EventEnded, Text: transcript})
	}
}

func (d *Dictation) handleEnd() {
	if transcript, ok := d.finish(); ok {
		d.emit(Event{Kind: EventEnded, Text: transcript})
	}
}

// finish closes the active session and returns its transcript. ok is false
// when the session was already closed, so callers report its end only once.
func (d *Dictation) finish() (transcript string, ok bool) {
	d.mu.Lock()
	if !d.listening {
		d.mu.Unlock()
		return "", false
	}
	d.listening = false
	transcript = d.transcript
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return transcript, true
}

// emit never blocks; when nobody drains the channel the event is dropped.
func (d *Dictation) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.log.Debug().Str("kind", ev.Kind.String()).Msg("dictation event dropped")
	}
}
