// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width used for wrapping.
	MinTerminalWidth = 40
)

// fdOf returns the descriptor behind r or w when it is an *os.File.
func fdOf(v any) (int, bool) {
	f, ok := v.(*os.File)
	if !ok || f == nil {
		return 0, false
	}
	return int(f.Fd()), true
}

// isTerminal reports whether v is an *os.File attached to a terminal.
// Buffers used by tests are never terminals.
func isTerminal(v any) bool {
	fd, ok := fdOf(v)
	return ok && term.IsTerminal(fd)
}

// terminalWidth returns the width of the terminal behind w, or
// DefaultTerminalWidth when w is not a terminal.
func terminalWidth(w io.Writer) int {
	fd, ok := fdOf(w)
	if !ok {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// colorsEnabled honours NO_COLOR and FORCE_COLOR before falling back to TTY
// detection. See https://no-color.org/.
func colorsEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(w)
}

// colorProfile is the termenv profile for output written to w.
func colorProfile(w io.Writer) termenv.Profile {
	if !colorsEnabled(w) {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE INPUT
// =============================================================================

// ErrTTYRequired is returned when an operation needs a terminal on stdin.
var ErrTTYRequired = errors.New("this command needs an interactive terminal")

// prompter reads answers from the command's input. Lines are read through
// one buffered reader so that piped answers are consumed in order.
type prompter struct {
	in  io.Reader
	out io.Writer
	br  *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, br: bufio.NewReader(in)}
}

// line prints label and reads one line of input.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		if errors.Is(err, io.EOF) {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// secret reads a line without echo when input is a terminal. Piped input
// is read as a plain line so scripts can supply passwords on stdin.
func (p *prompter) secret(label string) (string, error) {
	fd, ok := fdOf(p.in)
	if !ok || !term.IsTerminal(fd) {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
