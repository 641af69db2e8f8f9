package shell

import (
	"fmt"
	"sort"
)

// ReservedHelp is the word that always resolves to help.
const ReservedHelp = "help"

// Registry is the static command catalog.
//
// All registration happens before the first line is read; afterwards the
// registry is only read, so it needs no locking.
type Registry struct {
	groups   map[string]GroupSpec
	commands map[string]map[string]*CommandSpec
}

// NewRegistry creates an empty registry holding only the top-level namespace.
func NewRegistry() *Registry {
	return &Registry{
		groups:   make(map[string]GroupSpec),
		commands: map[string]map[string]*CommandSpec{"": {}},
	}
}

// AddGroup declares a command group.
func (r *Registry) AddGroup(g GroupSpec) error {
	if g.Name == "" || g.Name == ReservedHelp {
		return fmt.Errorf("invalid group name %q", g.Name)
	}
	if _, ok := r.groups[g.Name]; ok {
		return fmt.Errorf("group %q is already registered", g.Name)
	}
	if _, ok := r.commands[""][g.Name]; ok {
		return fmt.Errorf("group %q collides with a top-level command", g.Name)
	}
	r.groups[g.Name] = g
	r.commands[g.Name] = make(map[string]*CommandSpec)
	return nil
}

// Register adds a command under its group.
func (r *Registry) Register(spec CommandSpec) error {
	cmds, ok := r.commands[spec.Group]
	if !ok {
		return NewError(KindUnknownGroup, spec.Group)
	}
	if err := spec.validate(); err != nil {
		return err
	}
	if spec.Group != "" && spec.Name == ReservedHelp {
		return fmt.Errorf("command name %q is reserved", ReservedHelp)
	}
	if spec.Group == "" {
		if _, ok := r.groups[spec.Name]; ok {
			return fmt.Errorf("command %q collides with a group", spec.Name)
		}
	}
	if _, ok := cmds[spec.Name]; ok {
		return NewError(KindDuplicateCommand, spec.Path())
	}

	s := spec
	cmds[spec.Name] = &s
	return nil
}

// MustRegister registers all specs and panics on the first failure.
// It is meant for the built-in catalog, where a failure is a programming error.
func (r *Registry) MustRegister(specs ...CommandSpec) {
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// IsGroup reports whether name is a registered group.
func (r *Registry) IsGroup(name string) bool {
	_, ok := r.groups[name]
	return ok
}

// Group returns the group spec.
func (r *Registry) Group(name string) (GroupSpec, error) {
	g, ok := r.groups[name]
	if !ok {
		return GroupSpec{}, &Error{Kind: KindUnknownGroup, Name: name, Suggestions: r.suggestTop(name)}
	}
	return g, nil
}

// Lookup returns the command spec. An empty group means a top-level command.
func (r *Registry) Lookup(group, command string) (*CommandSpec, error) {
	cmds, ok := r.commands[group]
	if !ok {
		return nil, &Error{Kind: KindUnknownGroup, Name: group, Suggestions: r.suggestTop(group)}
	}
	spec, ok := cmds[command]
	if !ok {
		name := command
		if group != "" {
			name = group + " " + command
		}
		return nil, &Error{
			Kind:        KindUnknownCommand,
			Name:        name,
			Suggestions: FindSimilar(command, keys(cmds), maxSuggestions),
		}
	}
	return spec, nil
}

// Groups returns all groups sorted by name.
func (r *Registry) Groups() []GroupSpec {
	out := make([]GroupSpec, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Commands returns the commands of a group sorted by name.
// An empty group returns the top-level commands.
func (r *Registry) Commands(group string) ([]*CommandSpec, error) {
	cmds, ok := r.commands[group]
	if !ok {
		return nil, &Error{Kind: KindUnknownGroup, Name: group, Suggestions: r.suggestTop(group)}
	}
	out := make([]*CommandSpec, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// All returns every command ordered by group, then command.
// Top-level commands come first.
func (r *Registry) All() []*CommandSpec {
	top, _ := r.Commands("")
	out := append([]*CommandSpec(nil), top...)
	for _, g := range r.Groups() {
		cmds, _ := r.Commands(g.Name)
		out = append(out, cmds...)
	}
	return out
}

// TopLevelNames returns group names and top-level command names, sorted.
func (r *Registry) TopLevelNames() []string {
	names := keys(r.commands[""])
	for name := range r.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) suggestTop(name string) []string {
	return FindSimilar(name, r.TopLevelNames(), maxSuggestions)
}

func keys(m map[string]*CommandSpec) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
