// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package voice

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jeranaias/applianceai-tui/internal/logging"
)

// ErrAlreadyRunning is returned by Start while a session is active.
var ErrAlreadyRunning = errors.New("recognizer already running")

// CommandRecognizer runs an external speech-to-text program for each
// utterance. Every stdout line is either a JSON object
// {"text": "...", "final": true} or plain text, which counts as final.
// The utterance ends when the program exits.
type CommandRecognizer struct {
	Command  string
	Args     []string
	Language string

	mu       sync.Mutex
	cmd      *exec.Cmd
	done     chan struct{}
	stopping bool

	onResult func(Result)
	onError  func(error)
	onEnd    func()

	log zerolog.Logger
}

// NewCommandRecognizer creates a recognizer for the given program.
func NewCommandRecognizer(command string, args []string, language string) *CommandRecognizer {
	return &CommandRecognizer{
		Command:  command,
		Args:     args,
		Language: language,
		log:      logging.For("voice"),
	}
}

// Supported reports whether the program can be found.
func (c *CommandRecognizer) Supported() bool {
	if c.Command == "" {
		return false
	}
	_, err := exec.LookPath(c.Command)
	return err == nil
}

func (c *CommandRecognizer) OnResult(fn func(Result)) { c.mu.Lock(); c.onResult = fn; c.mu.Unlock() }
func (c *CommandRecognizer) OnError(fn func(error))   { c.mu.Lock(); c.onError = fn; c.mu.Unlock() }
func (c *CommandRecognizer) OnEnd(fn func())          { c.mu.Lock(); c.onEnd = fn; c.mu.Unlock() }

// Start launches the program. ctx bounds the whole utterance.
func (c *CommandRecognizer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return ErrAlreadyRunning
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Env = append(os.Environ(), "APPLIANCEAI_VOICE_LANGUAGE="+c.Language)
	cmd.Stderr = io.Discard
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", c.Command, err)
	}

	c.cmd = cmd
	c.done = make(chan struct{})
	c.stopping = false
	c.log.Debug().Str("command", c.Command).Int("pid", cmd.Process.Pid).Msg("recognizer started")

	go c.run(cmd, stdout, c.done)
	return nil
}

// run reads results until the program exits, then reports the end.
func (c *CommandRecognizer) run(cmd *exec.Cmd, stdout io.Reader, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		res, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		c.mu.Lock()
		fn := c.onResult
		c.mu.Unlock()
		if fn != nil {
			fn(res)
		}
	}
	waitErr := cmd.Wait()

	c.mu.Lock()
	stopped := c.stopping
	c.cmd = nil
	c.stopping = false
	onError, onEnd := c.onError, c.onEnd
	c.mu.Unlock()

	if waitErr != nil && !stopped && onError != nil {
		onError(fmt.Errorf("%s: %w", c.Command, waitErr))
	}
	if onEnd != nil {
		onEnd()
	}
}

// parseLine decodes one stdout line.
func parseLine(line string) (Result, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Result{}, false
	}
	if strings.HasPrefix(line, "{") {
		var payload struct {
			Text  string `json:"text"`
			Final *bool  `json:"final"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err == nil {
			final := payload.Final == nil || *payload.Final
			return Result{Text: payload.Text, Final: final}, true
		}
	}
	return Result{Text: line, Final: true}, true
}

// Stop terminates the running program and waits until its end has been
// reported. Stopping an idle recognizer is a no-op.
func (c *CommandRecognizer) Stop() error {
	c.mu.Lock()
	if c.cmd == nil {
		c.mu.Unlock()
		return nil
	}
	c.stopping = true
	proc := c.cmd.Process
	done := c.done
	c.mu.Unlock()

	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop recognizer: %w", err)
	}
	<-done
	return nil
}
