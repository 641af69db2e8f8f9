package shell

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
	"github.com/pradeepp88/indy-cli-go/internal/cli/session"
)

// Shape is the closed set of parameter value types.
type Shape int

const (
	ShapeString Shape = iota
	ShapeBool
	ShapeInt
	ShapeJSON
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeBool:
		return "boolean"
	case ShapeInt:
		return "integer"
	case ShapeJSON:
		return "json"
	case ShapeList:
		return "comma-separated list"
	default:
		return "string"
	}
}

// ParamSpec describes one command parameter.
type ParamSpec struct {
	Name     string
	Help     string
	Shape    Shape
	Main     bool
	Required bool

	// Deferred params may be given as a bare token equal to their name,
	// in which case the value is read from the Prompter without echo.
	Deferred bool

	Default    string
	HasDefault bool
}

// Main declares the required positional-main string parameter.
func Main(name, help string) ParamSpec {
	return ParamSpec{Name: name, Help: help, Main: true, Required: true}
}

// Required declares a required named string parameter.
func Required(name, help string) ParamSpec {
	return ParamSpec{Name: name, Help: help, Required: true}
}

// Optional declares an optional named string parameter.
func Optional(name, help string) ParamSpec {
	return ParamSpec{Name: name, Help: help}
}

// Of sets the value shape.
func (p ParamSpec) Of(shape Shape) ParamSpec {
	p.Shape = shape
	return p
}

// WithDefault sets the raw default value used when the param is not bound.
func (p ParamSpec) WithDefault(v string) ParamSpec {
	p.Default = v
	p.HasDefault = true
	return p
}

// Secret marks the param as deferred.
func (p ParamSpec) Secret() ParamSpec {
	p.Deferred = true
	return p
}

// NotRequired clears the required flag, e.g. for an optional main param.
func (p ParamSpec) NotRequired() ParamSpec {
	p.Required = false
	return p
}

// Requirement is a bit set of session preconditions.
type Requirement uint8

const (
	NeedWallet Requirement = 1 << iota
	NeedIdentity
	NeedPool
	NeedTransaction
)

// Has reports whether all bits of other are set.
func (r Requirement) Has(other Requirement) bool {
	return r&other == other
}

// Invocation is a resolved, validated command ready to run.
type Invocation struct {
	Spec *CommandSpec

	// Bindings holds the raw name=value pairs as bound from the line,
	// after deferred values were read.
	Bindings map[string]string

	Params  *Params
	Session *session.Context

	Prompter    Prompter
	Interactive bool

	IgnoreResult bool
}

// HandlerFunc is the capability a CommandSpec invokes.
type HandlerFunc func(ctx context.Context, inv *Invocation) (*output.Result, error)

// CommandSpec describes one command. It is immutable after registration.
type CommandSpec struct {
	Group    string
	Name     string
	Help     string
	Detail   string
	Params   []ParamSpec
	Examples []string

	// Variadic commands accept name=value pairs not declared in Params.
	Variadic bool

	// Requires lists static preconditions. When accepts validated params
	// and returns preconditions that depend on them.
	Requires Requirement
	When     func(p *Params) Requirement

	Run HandlerFunc
}

// GroupSpec describes a command group.
type GroupSpec struct {
	Name string
	Help string
}

var paramNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Path returns the command as typed, e.g. "wallet open" or "about".
func (c *CommandSpec) Path() string {
	if c.Group == "" {
		return c.Name
	}
	return c.Group + " " + c.Name
}

// Param returns the named parameter spec.
func (c *CommandSpec) Param(name string) (ParamSpec, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// MainParam returns the positional-main parameter, if declared.
func (c *CommandSpec) MainParam() (ParamSpec, bool) {
	for _, p := range c.Params {
		if p.Main {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Requirements returns the preconditions for the given params.
func (c *CommandSpec) Requirements(p *Params) Requirement {
	req := c.Requires
	if c.When != nil && p != nil {
		req |= c.When(p)
	}
	return req
}

func (c *CommandSpec) validate() error {
	if c.Name == "" || !paramNamePattern.MatchString(c.Name) {
		return fmt.Errorf("invalid command name %q", c.Name)
	}
	if c.Run == nil {
		return fmt.Errorf("command %q has no handler", c.Path())
	}

	seen := make(map[string]bool, len(c.Params))
	mains := 0
	for _, p := range c.Params {
		if !paramNamePattern.MatchString(p.Name) {
			return fmt.Errorf("command %q: invalid parameter name %q", c.Path(), p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("command %q: duplicate parameter %q", c.Path(), p.Name)
		}
		seen[p.Name] = true
		if p.Main {
			mains++
		}
	}
	if mains > 1 {
		return fmt.Errorf("command %q: more than one main parameter", c.Path())
	}
	return nil
}
