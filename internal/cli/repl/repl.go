package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
)

// AbortError ends a batch run at a failed line without the ignore prefix.
type AbortError struct {
	Line string
	Err  error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("batch aborted at %q: %v", e.Line, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Loop reads lines from a Source and executes them one at a time.
type Loop struct {
	exec    *shell.Executor
	printer *output.Printer
	source  Source
	batch   bool
	log     logger.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithBatch makes unignored failures end the run.
func WithBatch(batch bool) Option {
	return func(l *Loop) {
		l.batch = batch
	}
}

// WithLogger sets the loop logger. Without one the package default is used.
func WithLogger(log logger.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

// New creates a loop.
func New(exec *shell.Executor, printer *output.Printer, src Source, opts ...Option) *Loop {
	l := &Loop{
		exec:    exec,
		printer: printer,
		source:  src,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) logger() logger.Logger {
	if l.log != nil {
		return l.log
	}
	return logger.Default()
}

// Run executes lines until the input ends, the exit command runs or ctx
// is cancelled. In batch mode it returns an *AbortError for the first
// failed line without the ignore prefix.
func (l *Loop) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		prompt := ""
		if !l.batch {
			prompt = l.exec.Session().Prompt()
		}

		raw, err := l.source.Next(prompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		exit, err := l.step(ctx, raw)
		if err != nil || exit {
			return err
		}
	}
	return nil
}

func (l *Loop) step(ctx context.Context, raw string) (bool, error) {
	line, err := shell.Parse(raw)
	if errors.Is(err, shell.ErrEmptyLine) {
		return false, nil
	}

	var res *output.Result
	if err == nil {
		res, err = l.exec.Execute(ctx, line)
	}
	if err != nil {
		l.printer.PrintError(err)
		if l.batch && !ignored(raw) {
			return false, &AbortError{Line: strings.TrimSpace(raw), Err: err}
		}
		return false, nil
	}

	if err := l.printer.Print(res); err != nil {
		l.logger().Warn("print result", "error", err)
	}
	return res != nil && res.Exit, nil
}

// ignored reports whether a line carries the ignore prefix. A line that
// fails to parse still honours it.
func ignored(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), string(shell.IgnorePrefix))
}
