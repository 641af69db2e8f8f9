package shell

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Value is one coerced parameter value.
type Value struct {
	Shape Shape
	Raw   string

	b bool
	i int64
	j json.RawMessage
	l []string
}

// Params holds the typed, validated parameters of an invocation.
type Params struct {
	values map[string]Value
	extra  map[string]string
}

// Binding is the result of matching line tokens against a spec.
type Binding struct {
	Values map[string]string

	// Deferred lists params named by a bare token whose value must be prompted.
	Deferred []string
}

// Bind matches tokens (after the command words) against the command's params.
//
// A name=value token binds that name; a later binding of the same name
// wins. A bare token equal to an unbound deferred param name defers it;
// otherwise it binds the main param once. Any other bare token is an error.
func (c *CommandSpec) Bind(tokens []Token) (*Binding, error) {
	b := &Binding{Values: make(map[string]string, len(tokens))}
	mainParam, hasMain := c.MainParam()
	mainBound := false

	for _, t := range tokens {
		if t.Named {
			b.Values[t.Name] = t.Value
			if hasMain && t.Name == mainParam.Name {
				mainBound = true
			}
			continue
		}

		if p, ok := c.Param(t.Value); ok && p.Deferred && !b.deferred(p.Name) {
			if _, bound := b.Values[p.Name]; !bound {
				b.Deferred = append(b.Deferred, p.Name)
				continue
			}
		}

		if hasMain && !mainBound {
			b.Values[mainParam.Name] = t.Value
			mainBound = true
			continue
		}
		return nil, NewError(KindUnexpectedPositionalArgument, t.Value)
	}

	return b, nil
}

func (b *Binding) deferred(name string) bool {
	for _, d := range b.Deferred {
		if d == name {
			return true
		}
	}
	return false
}

// Validate checks bound raw values against their ParamSpecs and coerces them.
//
// Unknown names fail unless the command is variadic, in which case they are
// kept as extras. Required params must be bound or defaulted.
func (c *CommandSpec) Validate(raw map[string]string) (*Params, error) {
	p := &Params{values: make(map[string]Value, len(c.Params))}

	for _, name := range sortedKeys(raw) {
		if _, ok := c.Param(name); ok {
			continue
		}
		if !c.Variadic {
			return nil, &Error{
				Kind:        KindUnknownParameter,
				Name:        name,
				Suggestions: FindSimilar(name, c.paramNames(), maxSuggestions),
			}
		}
		if p.extra == nil {
			p.extra = make(map[string]string)
		}
		p.extra[name] = raw[name]
	}

	for _, spec := range c.Params {
		rawValue, ok := raw[spec.Name]
		if !ok {
			if !spec.HasDefault {
				if spec.Required {
					return nil, Missing(spec.Name)
				}
				continue
			}
			rawValue = spec.Default
		}

		v, err := coerce(spec, rawValue)
		if err != nil {
			return nil, err
		}
		p.values[spec.Name] = v
	}

	return p, nil
}

func (c *CommandSpec) paramNames() []string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		names[i] = p.Name
	}
	return names
}

func coerce(spec ParamSpec, raw string) (Value, error) {
	v := Value{Shape: spec.Shape, Raw: raw}

	switch spec.Shape {
	case ShapeBool:
		switch strings.ToLower(raw) {
		case "true":
			v.b = true
		case "false":
			v.b = false
		default:
			return v, Invalid(spec.Name, spec.Shape)
		}
	case ShapeInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return v, Invalid(spec.Name, spec.Shape)
		}
		v.i = i
	case ShapeJSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(raw)); err != nil {
			return v, Invalid(spec.Name, spec.Shape)
		}
		v.j = json.RawMessage(buf.Bytes())
	case ShapeList:
		if raw == "" {
			return v, Invalid(spec.Name, spec.Shape)
		}
		v.l = strings.Split(raw, ",")
	}

	return v, nil
}

// Has reports whether the param has a value (explicit or default).
func (p *Params) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// Lookup returns the raw string of a param.
func (p *Params) Lookup(name string) (string, bool) {
	v, ok := p.values[name]
	return v.Raw, ok
}

// String returns the raw string of a param, or "" if absent.
func (p *Params) String(name string) string {
	return p.values[name].Raw
}

// Bool returns a boolean param, or false if absent.
func (p *Params) Bool(name string) bool {
	return p.values[name].b
}

// Int returns an integer param.
func (p *Params) Int(name string) (int64, bool) {
	v, ok := p.values[name]
	return v.i, ok
}

// JSON returns a compacted JSON param, or nil if absent.
func (p *Params) JSON(name string) json.RawMessage {
	return p.values[name].j
}

// List returns a list param, or nil if absent.
func (p *Params) List(name string) []string {
	return p.values[name].l
}

// Extra returns name=value pairs not declared by a variadic command.
func (p *Params) Extra() map[string]string {
	return p.extra
}

// Names returns the names of all params with a value, sorted.
func (p *Params) Names() []string {
	names := make([]string, 0, len(p.values))
	for name := range p.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the unparsed value of every param, extras included.
func (p *Params) Raw() map[string]string {
	out := make(map[string]string, len(p.values)+len(p.extra))
	for name, v := range p.values {
		out[name] = v.Raw
	}
	for name, v := range p.extra {
		out[name] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
