package shell

import (
	"strings"
)

// IgnorePrefix marks a line whose failure must not abort a batch run.
const IgnorePrefix = '-'

// Token is one whitespace-delimited unit of a line.
type Token struct {
	Name  string
	Value string

	// Named is true for name=value tokens. Bare tokens carry only Value.
	Named bool
}

// Line is a tokenized input line.
type Line struct {
	Raw          string
	IgnoreResult bool
	Tokens       []Token
}

// Parse tokenizes a raw line.
//
// Whitespace separates tokens except inside {...} or [...] JSON values and
// double-quoted segments. A quote directly followed by { or [ wraps a JSON
// value and may contain nested quotes. The first = outside any quoted or
// JSON segment makes the token named. A leading - on the line sets
// IgnoreResult and is stripped.
func Parse(raw string) (*Line, error) {
	text := strings.TrimSpace(raw)
	line := &Line{Raw: raw}

	if strings.HasPrefix(text, string(IgnorePrefix)) {
		line.IgnoreResult = true
		text = strings.TrimSpace(text[1:])
	}
	if text == "" {
		return nil, ErrEmptyLine
	}

	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	line.Tokens = tokens
	return line, nil
}

// Words returns the leading bare tokens, which name the group and command.
func (l *Line) Words() []string {
	var words []string
	for _, t := range l.Tokens {
		if t.Named {
			break
		}
		words = append(words, t.Value)
	}
	return words
}

type tokenizer struct {
	src []rune
	pos int

	buf      strings.Builder
	eq       int
	segments bool
	active   bool
	tokens   []Token
}

func tokenize(text string) ([]Token, error) {
	t := &tokenizer{src: []rune(text), eq: -1}

	for t.pos < len(t.src) {
		c := t.src[t.pos]
		switch {
		case isSpace(c):
			t.flush()
			t.pos++
		case c == '"':
			if err := t.quoted(); err != nil {
				return nil, err
			}
		case c == '{' || c == '[':
			if err := t.json(false); err != nil {
				return nil, err
			}
		case c == '=' && t.eq < 0 && !t.segments:
			t.active = true
			t.eq = t.buf.Len()
			t.buf.WriteRune(c)
			t.pos++
		default:
			t.active = true
			t.buf.WriteRune(c)
			t.pos++
		}
	}
	t.flush()

	return t.tokens, nil
}

// quoted consumes a "..." segment, stripping the quotes.
func (t *tokenizer) quoted() error {
	start := t.pos
	t.active = true
	t.segments = true
	t.pos++

	if t.pos < len(t.src) && (t.src[t.pos] == '{' || t.src[t.pos] == '[') {
		return t.json(true)
	}

	for t.pos < len(t.src) {
		c := t.src[t.pos]
		t.pos++
		if c == '"' {
			return nil
		}
		t.buf.WriteRune(c)
	}
	return NewError(KindUnterminatedQuote, string(t.src[start:]))
}

// json consumes a balanced JSON object or array, honoring string literals.
// When wrapped, a closing quote must follow the value.
func (t *tokenizer) json(wrapped bool) error {
	start := t.pos
	if wrapped {
		start--
	}
	t.active = true
	t.segments = true

	depth := 0
	inString := false
	for t.pos < len(t.src) {
		c := t.src[t.pos]
		t.buf.WriteRune(c)
		t.pos++

		if inString {
			switch c {
			case '\\':
				if t.pos < len(t.src) {
					t.buf.WriteRune(t.src[t.pos])
					t.pos++
				}
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
		if depth == 0 {
			if !wrapped {
				return nil
			}
			if t.pos < len(t.src) && t.src[t.pos] == '"' {
				t.pos++
				return nil
			}
			return NewError(KindUnterminatedQuote, string(t.src[start:t.pos]))
		}
	}

	if wrapped {
		return NewError(KindUnterminatedQuote, string(t.src[start:]))
	}
	return NewError(KindUnterminatedJSON, string(t.src[start:]))
}

func (t *tokenizer) flush() {
	if !t.active {
		return
	}

	s := t.buf.String()
	if t.eq >= 0 {
		t.tokens = append(t.tokens, Token{Name: s[:t.eq], Value: s[t.eq+1:], Named: true})
	} else {
		t.tokens = append(t.tokens, Token{Value: s})
	}

	t.buf.Reset()
	t.eq = -1
	t.segments = false
	t.active = false
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
