package repl

import (
	"sort"
	"strings"

	"github.com/pradeepp88/indy-cli-go/internal/cli/shell"
)

const helpWord = "help"

// Completer completes group, command and param names from the registry.
type Completer struct {
	reg *shell.Registry
}

// NewCompleter creates a completer over reg.
func NewCompleter(reg *shell.Registry) *Completer {
	return &Completer{reg: reg}
}

// Complete returns the sorted candidates for the last word of line.
// A line ending in a space completes a new word.
func (c *Completer) Complete(line string) []string {
	words := strings.Fields(line)
	partial := ""
	if len(words) > 0 && !strings.HasSuffix(line, " ") {
		partial = words[len(words)-1]
		words = words[:len(words)-1]
	}

	var candidates []string
	switch {
	case len(words) == 0:
		candidates = append(c.reg.TopLevelNames(), helpWord)
	case len(words) == 1 && c.reg.IsGroup(words[0]):
		cmds, _ := c.reg.Commands(words[0])
		for _, cmd := range cmds {
			candidates = append(candidates, cmd.Name)
		}
		candidates = append(candidates, helpWord)
	default:
		spec := c.command(words)
		if spec == nil {
			return nil
		}
		typed := make(map[string]bool)
		for _, w := range words {
			if name, _, ok := strings.Cut(w, "="); ok {
				typed[name] = true
			}
		}
		for _, p := range spec.Params {
			if !typed[p.Name] {
				candidates = append(candidates, p.Name+"=")
			}
		}
	}

	var out []string
	seen := make(map[string]bool)
	for _, cand := range candidates {
		if strings.HasPrefix(cand, partial) && !seen[cand] {
			seen[cand] = true
			out = append(out, cand)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Completer) command(words []string) *shell.CommandSpec {
	group, name := "", words[0]
	if c.reg.IsGroup(words[0]) {
		if len(words) < 2 {
			return nil
		}
		group, name = words[0], words[1]
	}
	spec, err := c.reg.Lookup(group, name)
	if err != nil {
		return nil
	}
	return spec
}

// Callback is a golang.org/x/term AutoCompleteCallback. On tab it extends
// the word before the cursor to the longest common prefix of the
// candidates, adding a space after a unique complete word.
func (c *Completer) Callback(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' {
		return "", 0, false
	}
	if pos > len(line) {
		pos = len(line)
	}
	head, tail := line[:pos], line[pos:]

	candidates := c.Complete(head)
	if len(candidates) == 0 {
		return "", 0, false
	}
	start := strings.LastIndexByte(head, ' ') + 1
	word := commonPrefix(candidates)
	if len(candidates) == 1 && !strings.HasSuffix(word, "=") {
		word += " "
	}
	if word == head[start:] {
		return "", 0, false
	}
	head = head[:start] + word
	return head + tail, len(head), true
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
