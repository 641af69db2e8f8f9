package shell

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pradeepp88/indy-cli-go/internal/cli/output"
)

const usageLine = "[<group>] <command> [[<main_param>] <param_name>=<param_value>]*"

// HelpAll renders the top-level help screen: top-level commands, then groups.
func (r *Registry) HelpAll() *output.Result {
	res := output.NewResult().
		Text("Hyperledger Indy CLI\n\nUsage:\n  " + usageLine)

	top, _ := r.Commands("")
	entries := [][2]string{{ReservedHelp, "Print help"}}
	for _, c := range top {
		entries = append(entries, [2]string{c.Name, c.Help})
	}
	res.Title("Commands:").Text(listing(entries))

	groups := r.Groups()
	if len(groups) > 0 {
		entries = entries[:0]
		for _, g := range groups {
			entries = append(entries, [2]string{g.Name, g.Help})
		}
		res.Title("Groups:").Text(listing(entries))
	}

	return res.Text(`Type "help <group>" or "<group> help" to list the commands of a group.`)
}

// HelpGroup renders the commands of a group.
func (r *Registry) HelpGroup(name string) (*output.Result, error) {
	g, err := r.Group(name)
	if err != nil {
		return nil, err
	}
	cmds, _ := r.Commands(name)

	entries := make([][2]string, 0, len(cmds))
	for _, c := range cmds {
		entries = append(entries, [2]string{c.Name, c.Help})
	}

	res := output.NewResult().
		Text(fmt.Sprintf("Group:\n  %s - %s\n\nUsage:\n  %s <command> [[<main_param>] <param_name>=<param_value>]*", g.Name, g.Help, g.Name)).
		Title("Commands:").Text(listing(entries)).
		Text(fmt.Sprintf(`Type "%s <command> help" to get more information about a command.`, g.Name))
	return res, nil
}

// HelpCommand renders usage, parameters and examples of one command.
func HelpCommand(c *CommandSpec) *output.Result {
	res := output.NewResult().
		Text(fmt.Sprintf("Command:\n  %s - %s", c.Path(), c.Help))
	if c.Detail != "" {
		res.Text("\n" + c.Detail)
	}
	res.Title("Usage:").Text("  " + Usage(c))

	if len(c.Params) > 0 {
		entries := make([][2]string, 0, len(c.Params))
		for _, p := range c.Params {
			entries = append(entries, [2]string{p.Name, paramHelp(p)})
		}
		res.Title("Parameters:").Text(listing(entries))
	}

	if len(c.Examples) > 0 {
		res.Title("Examples:").Text("  " + strings.Join(c.Examples, "\n  "))
	}
	return res
}

// Usage renders the one-line synopsis of a command.
func Usage(c *CommandSpec) string {
	parts := []string{c.Path()}
	for _, p := range c.Params {
		var arg string
		if p.Main {
			arg = "<" + p.Name + "-value>"
		} else {
			arg = p.Name + "=<" + p.Name + "-value>"
		}
		if !p.Required || p.HasDefault {
			arg = "[" + arg + "]"
		}
		parts = append(parts, arg)
	}
	if c.Variadic {
		parts = append(parts, "[<name>=<value>]*")
	}
	return strings.Join(parts, " ")
}

func paramHelp(p ParamSpec) string {
	var notes []string
	switch {
	case p.Required && !p.HasDefault:
		notes = append(notes, "required")
	default:
		notes = append(notes, "optional")
	}
	if p.Shape != ShapeString {
		notes = append(notes, p.Shape.String())
	}
	if p.HasDefault {
		notes = append(notes, "default "+p.Default)
	}
	if p.Deferred {
		notes = append(notes, "type the bare name to enter it hidden")
	}
	return fmt.Sprintf("%s (%s)", p.Help, strings.Join(notes, ", "))
}

func listing(entries [][2]string) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "  %s\t- %s\n", e[0], e[1])
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}
