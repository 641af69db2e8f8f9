package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is the interactive source. It puts the terminal in raw mode
// and edits lines with golang.org/x/term. It also reads deferred secrets
// and confirmations, so it serves as the executor's Prompter.
type Terminal struct {
	fd    int
	state *term.State
	t     *term.Terminal
}

// NewTerminal switches in to raw mode. Output for the session must be
// written through the Terminal. Close restores the previous mode.
func NewTerminal(in *os.File, out io.Writer, c *Completer, h *History) (*Terminal, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, "")
	if c != nil {
		t.AutoCompleteCallback = c.Callback
	}
	if h != nil {
		t.History = h
	}
	if width, height, err := term.GetSize(fd); err == nil {
		_ = t.SetSize(width, height)
	}
	return &Terminal{fd: fd, state: state, t: t}, nil
}

// Next reads one edited line. Ctrl-C, or Ctrl-D on an empty line, ends
// input with io.EOF.
func (t *Terminal) Next(prompt string) (string, error) {
	t.t.SetPrompt(prompt)
	return t.t.ReadLine()
}

// Write writes output translated for raw mode.
func (t *Terminal) Write(p []byte) (int, error) {
	return t.t.Write(p)
}

// ReadSecret reads a line without echo.
func (t *Terminal) ReadSecret(prompt string) (string, error) {
	return t.t.ReadPassword(prompt)
}

// Confirm asks a yes/no question. An empty answer means no. Answers are
// not recorded in the history.
func (t *Terminal) Confirm(question string) (bool, error) {
	hist := t.t.History
	t.t.History = discard{}
	defer func() { t.t.History = hist }()

	fmt.Fprintln(t.t, question)
	t.t.SetPrompt("(y/n) ")
	for {
		answer, err := t.t.ReadLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
	}
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	return term.Restore(t.fd, t.state)
}

type discard struct{}

func (discard) Add(string) {}
func (discard) Len() int { return 0 }
func (discard) At(int) string { return "" }
