package repl

import (
	"bufio"
	"io"
	"strings"
)

// CommentPrefix starts a batch line that is skipped.
const CommentPrefix = "#"

const maxLineSize = 1 << 20

// Source yields raw input lines. Next returns io.EOF when input ends.
type Source interface {
	Next(prompt string) (string, error)
}

// Batch reads lines from a script file or a pipe. Blank lines and comment
// lines are skipped.
type Batch struct {
	scanner *bufio.Scanner
	line    int
}

// NewBatch creates a batch source over r.
func NewBatch(r io.Reader) *Batch {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Batch{scanner: s}
}

// Next returns the next line to execute. The prompt is not shown.
func (b *Batch) Next(string) (string, error) {
	for b.scanner.Scan() {
		b.line++
		raw := b.scanner.Text()
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, CommentPrefix) {
			continue
		}
		return raw, nil
	}
	if err := b.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Line returns the number of the last line read, starting at 1.
func (b *Batch) Line() int {
	return b.line
}
