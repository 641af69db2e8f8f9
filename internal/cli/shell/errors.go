package shell

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable interpreter error type.
type Kind int

const (
	KindEmptyLine Kind = iota + 1
	KindUnterminatedJSON
	KindUnterminatedQuote
	KindUnexpectedPositionalArgument
	KindDuplicateCommand
	KindUnknownGroup
	KindUnknownCommand
	KindUnknownParameter
	KindMissingRequiredParam
	KindInvalidParamValue
	KindNoOpenWallet
	KindNoPoolConnection
	KindNoActiveIdentity
	KindNoStoredTransaction
	KindExecution
	KindIO
)

// Category groups kinds for reporting and exit-code decisions.
type Category string

const (
	CategoryParse        Category = "ParseError"
	CategoryResolve      Category = "ResolveError"
	CategoryValidation   Category = "ValidationError"
	CategoryPrecondition Category = "PreconditionError"
	CategoryExecution    Category = "ExecutionError"
	CategoryIO           Category = "IOError"
)

var kindNames = map[Kind]string{
	KindEmptyLine:                    "EmptyLine",
	KindUnterminatedJSON:             "UnterminatedJson",
	KindUnterminatedQuote:            "UnterminatedQuote",
	KindUnexpectedPositionalArgument: "UnexpectedPositionalArgument",
	KindDuplicateCommand:             "DuplicateCommand",
	KindUnknownGroup:                 "UnknownGroup",
	KindUnknownCommand:               "UnknownCommand",
	KindUnknownParameter:             "UnknownParameter",
	KindMissingRequiredParam:         "MissingRequiredParam",
	KindInvalidParamValue:            "InvalidParamValue",
	KindNoOpenWallet:                 "NoOpenWallet",
	KindNoPoolConnection:             "NoPoolConnection",
	KindNoActiveIdentity:             "NoActiveIdentity",
	KindNoStoredTransaction:          "NoStoredTransaction",
	KindExecution:                    "ExecutionError",
	KindIO:                           "IOError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Category returns the taxonomy bucket of the kind.
func (k Kind) Category() Category {
	switch k {
	case KindEmptyLine, KindUnterminatedJSON, KindUnterminatedQuote, KindUnexpectedPositionalArgument:
		return CategoryParse
	case KindDuplicateCommand, KindUnknownGroup, KindUnknownCommand, KindUnknownParameter:
		return CategoryResolve
	case KindMissingRequiredParam, KindInvalidParamValue:
		return CategoryValidation
	case KindNoOpenWallet, KindNoPoolConnection, KindNoActiveIdentity, KindNoStoredTransaction:
		return CategoryPrecondition
	case KindIO:
		return CategoryIO
	default:
		return CategoryExecution
	}
}

// Error is a typed interpreter error.
type Error struct {
	Kind Kind

	// Name is the offending token, parameter, group or command.
	Name string

	// Shape is set for InvalidParamValue.
	Shape Shape

	Suggestions []string
	Message     string
	Cause       error
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrEmptyLine            = &Error{Kind: KindEmptyLine}
	ErrUnterminatedJSON     = &Error{Kind: KindUnterminatedJSON}
	ErrUnterminatedQuote    = &Error{Kind: KindUnterminatedQuote}
	ErrUnexpectedPositional = &Error{Kind: KindUnexpectedPositionalArgument}
	ErrDuplicateCommand     = &Error{Kind: KindDuplicateCommand}
	ErrUnknownGroup         = &Error{Kind: KindUnknownGroup}
	ErrUnknownCommand       = &Error{Kind: KindUnknownCommand}
	ErrUnknownParameter     = &Error{Kind: KindUnknownParameter}
	ErrMissingRequiredParam = &Error{Kind: KindMissingRequiredParam}
	ErrInvalidParamValue    = &Error{Kind: KindInvalidParamValue}
	ErrNoOpenWallet         = &Error{Kind: KindNoOpenWallet}
	ErrNoPoolConnection     = &Error{Kind: KindNoPoolConnection}
	ErrNoActiveIdentity     = &Error{Kind: KindNoActiveIdentity}
	ErrNoStoredTransaction  = &Error{Kind: KindNoStoredTransaction}
	ErrExecution            = &Error{Kind: KindExecution}
	ErrIO                   = &Error{Kind: KindIO}
)

func (e *Error) Error() string {
	msg := e.message()
	if len(e.Suggestions) > 0 {
		msg += ". Did you mean: " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

func (e *Error) message() string {
	if e.Message != "" {
		return e.Message
	}

	switch e.Kind {
	case KindEmptyLine:
		return "empty line"
	case KindUnterminatedJSON:
		return fmt.Sprintf("unterminated JSON value: %s", e.Name)
	case KindUnterminatedQuote:
		return fmt.Sprintf("unterminated quote: %s", e.Name)
	case KindUnexpectedPositionalArgument:
		return fmt.Sprintf("unexpected positional argument %q", e.Name)
	case KindDuplicateCommand:
		return fmt.Sprintf("command %q is already registered", e.Name)
	case KindUnknownGroup:
		return fmt.Sprintf("unknown group %q", e.Name)
	case KindUnknownCommand:
		return fmt.Sprintf("unknown command %q", e.Name)
	case KindUnknownParameter:
		return fmt.Sprintf("unknown parameter %q", e.Name)
	case KindMissingRequiredParam:
		return fmt.Sprintf("missing required parameter %q", e.Name)
	case KindInvalidParamValue:
		return fmt.Sprintf("invalid value for parameter %q: expected %s", e.Name, e.Shape)
	case KindNoOpenWallet:
		return "there is no opened wallet now"
	case KindNoPoolConnection:
		return "there is no opened pool now"
	case KindNoActiveIdentity:
		return "there is no active did"
	case KindNoStoredTransaction:
		return "there is no transaction stored into context"
	case KindIO:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Name, e.Cause)
		}
		return e.Name
	default:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return "command failed"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Category returns the taxonomy bucket of the error.
func (e *Error) Category() Category {
	return e.Kind.Category()
}

// NewError creates an error of the given kind naming the offending token.
func NewError(kind Kind, name string) *Error {
	return &Error{Kind: kind, Name: name}
}

// Missing reports a required parameter with no value.
func Missing(name string) *Error {
	return &Error{Kind: KindMissingRequiredParam, Name: name}
}

// Invalid reports a value that does not match the declared shape.
func Invalid(name string, shape Shape) *Error {
	return &Error{Kind: KindInvalidParamValue, Name: name, Shape: shape}
}

// Execution wraps a handler failure. Interpreter errors pass through as is.
func Execution(cause error) error {
	if cause == nil {
		return nil
	}
	if e, ok := As(cause); ok {
		return e
	}
	return &Error{Kind: KindExecution, Cause: cause}
}

// Failf creates an execution error with a formatted message.
func Failf(format string, args ...any) *Error {
	return &Error{Kind: KindExecution, Cause: fmt.Errorf(format, args...)}
}

// IO wraps a file or pipe failure.
func IO(path string, cause error) *Error {
	return &Error{Kind: KindIO, Name: path, Cause: cause}
}

// As extracts an *Error from err.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindExecution for foreign errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindExecution
}
