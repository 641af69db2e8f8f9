package shell

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
	"github.com/pradeepp88/indy-cli-go/internal/telemetry/logger"
)

// Prompter reads values the operator must type rather than pass on the line.
type Prompter interface {
	// ReadSecret reads one line without echo.
	ReadSecret(prompt string) (string, error)

	// Confirm asks a yes/no question.
	Confirm(question string) (bool, error)
}

// Observer records handler invocations.
type Observer interface {
	ObserveCommand(command string, d time.Duration, err error)
}

// Executor resolves, validates and invokes parsed lines against the session.
type Executor struct {
	registry    *Registry
	session     *session.Context
	prompter    Prompter
	interactive bool
	log         logger.Logger
	observer    Observer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPrompter sets the source of deferred values and confirmations.
// Without one, deferred params fail.
func WithPrompter(p Prompter) ExecutorOption {
	return func(e *Executor) {
		e.prompter = p
	}
}

// WithInteractive marks the executor as driven by an operator at a terminal.
func WithInteractive(interactive bool) ExecutorOption {
	return func(e *Executor) {
		e.interactive = interactive
	}
}

// WithLogger sets the logger used for invocation records. Without one the
// package default logger at the time of each invocation is used.
func WithLogger(l logger.Logger) ExecutorOption {
	return func(e *Executor) {
		e.log = l
	}
}

// WithObserver sets the recorder of handler invocations.
func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) {
		e.observer = o
	}
}

// NewExecutor creates an executor over a registry and the process session.
func NewExecutor(reg *Registry, sess *session.Context, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: reg,
		session:  sess,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the session the executor mutates.
func (e *Executor) Session() *session.Context {
	return e.session
}

// Registry returns the command catalog.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Interactive reports whether the executor serves an operator at a terminal.
func (e *Executor) Interactive() bool {
	return e.interactive
}

// Execute runs one parsed line.
//
// Help requests are answered from the registry. Any other line is resolved
// to a command, its tokens are bound and validated, session preconditions
// are checked and only then is the handler invoked. Handler failures are
// returned as ExecutionError with the cause kept unmodified.
func (e *Executor) Execute(ctx context.Context, line *Line) (*output.Result, error) {
	if line == nil || len(line.Tokens) == 0 {
		return nil, ErrEmptyLine
	}

	spec, args, help, err := e.resolve(line.Tokens)
	if err != nil || help != nil {
		return help, err
	}

	binding, err := spec.Bind(args)
	if err != nil {
		return nil, err
	}
	if err := e.readDeferred(binding); err != nil {
		return nil, err
	}

	params, err := spec.Validate(binding.Values)
	if err != nil {
		return nil, err
	}

	if err := e.checkPreconditions(spec.Requirements(params)); err != nil {
		return nil, err
	}

	inv := &Invocation{
		Spec:         spec,
		Bindings:     binding.Values,
		Params:       params,
		Session:      e.session,
		Prompter:     e.prompter,
		Interactive:  e.interactive,
		IgnoreResult: line.IgnoreResult,
	}
	return e.invoke(ctx, inv)
}

func (e *Executor) invoke(ctx context.Context, inv *Invocation) (*output.Result, error) {
	id := ulid.Make().String()
	base := e.log
	if base == nil {
		base = logger.Default()
	}
	ctx = logger.WithCommandID(logger.WithLogger(ctx, base), id)
	log := logger.L(ctx)

	start := time.Now()
	res, err := inv.Spec.Run(ctx, inv)
	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveCommand(inv.Spec.Path(), elapsed, err)
	}

	if err != nil {
		log.Debug("command failed",
			"command", inv.Spec.Path(),
			"params", inv.Params.Names(),
			"duration", elapsed,
			"error", err,
		)
		return nil, Execution(err)
	}

	log.Debug("command executed",
		"command", inv.Spec.Path(),
		"params", logger.RedactParams(inv.Params.Raw()),
		"duration", elapsed,
	)
	return res, nil
}

// resolve finds the command a line names. A non-nil help result means the
// line was a help request and has already been answered.
func (e *Executor) resolve(tokens []Token) (*CommandSpec, []Token, *output.Result, error) {
	first := tokens[0]
	if first.Named {
		return nil, nil, nil, &Error{Kind: KindUnknownCommand, Name: first.Name + "=" + first.Value}
	}
	rest := tokens[1:]

	if first.Value == ReservedHelp {
		res, err := e.help(rest)
		return nil, nil, res, err
	}

	if e.registry.IsGroup(first.Value) {
		if len(rest) == 0 || isHelp(rest[0]) {
			res, err := e.registry.HelpGroup(first.Value)
			return nil, nil, res, err
		}
		if rest[0].Named {
			return nil, nil, nil, &Error{
				Kind:    KindUnknownCommand,
				Name:    first.Value,
				Message: fmt.Sprintf("command name expected after group %q", first.Value),
			}
		}
		spec, err := e.registry.Lookup(first.Value, rest[0].Value)
		if err != nil {
			return nil, nil, nil, err
		}
		return commandOrHelp(spec, rest[1:])
	}

	spec, err := e.registry.Lookup("", first.Value)
	if err != nil {
		kind := KindUnknownCommand
		if len(rest) > 0 {
			kind = KindUnknownGroup
		}
		return nil, nil, nil, &Error{
			Kind:        kind,
			Name:        first.Value,
			Suggestions: FindSimilar(first.Value, e.registry.TopLevelNames(), maxSuggestions),
		}
	}
	return commandOrHelp(spec, rest)
}

func commandOrHelp(spec *CommandSpec, args []Token) (*CommandSpec, []Token, *output.Result, error) {
	if len(args) == 1 && isHelp(args[0]) {
		return nil, nil, HelpCommand(spec), nil
	}
	return spec, args, nil, nil
}

// help answers "help", "help <group>", "help <command>" and
// "help <group> <command>".
func (e *Executor) help(args []Token) (*output.Result, error) {
	if len(args) == 0 {
		return e.registry.HelpAll(), nil
	}
	if args[0].Named {
		return nil, NewError(KindUnexpectedPositionalArgument, args[0].Name+"="+args[0].Value)
	}

	name := args[0].Value
	if e.registry.IsGroup(name) {
		if len(args) > 1 && !args[1].Named {
			spec, err := e.registry.Lookup(name, args[1].Value)
			if err != nil {
				return nil, err
			}
			return HelpCommand(spec), nil
		}
		return e.registry.HelpGroup(name)
	}
	if spec, err := e.registry.Lookup("", name); err == nil {
		return HelpCommand(spec), nil
	}
	return e.registry.HelpGroup(name)
}

func isHelp(t Token) bool {
	return !t.Named && t.Value == ReservedHelp
}

func (e *Executor) readDeferred(b *Binding) error {
	for _, name := range b.Deferred {
		if e.prompter == nil {
			return Failf("parameter %q must be typed at an interactive terminal", name)
		}
		v, err := e.prompter.ReadSecret(fmt.Sprintf("Enter value for %s: ", name))
		if err != nil {
			return Execution(err)
		}
		b.Values[name] = v
	}
	return nil
}

func (e *Executor) checkPreconditions(req Requirement) error {
	switch {
	case req.Has(NeedWallet) && !e.session.HasWallet():
		return ErrNoOpenWallet
	case req.Has(NeedIdentity) && !e.session.HasIdentity():
		return ErrNoActiveIdentity
	case req.Has(NeedPool) && !e.session.HasPool():
		return ErrNoPoolConnection
	case req.Has(NeedTransaction) && !e.session.HasTransaction():
		return ErrNoStoredTransaction
	}
	return nil
}
