package output

import "fmt"

// SectionKind identifies how a section is rendered.
type SectionKind int

const (
	SectionSuccess SectionKind = iota
	SectionWarning
	SectionText
	SectionTitle
	SectionTable
	SectionData
)

// Section is one block of command output.
type Section struct {
	Kind  SectionKind
	Text  string
	Table *Table
	Data  any
}

// Result is the successful outcome of a command.
//
// A nil *Result is valid and renders nothing.
type Result struct {
	Sections []Section

	// Exit asks the control loop to stop after rendering.
	Exit bool
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{}
}

// Successf returns a result holding a single success line.
func Successf(format string, args ...any) *Result {
	return NewResult().Success(format, args...)
}

// Success appends a success line.
func (r *Result) Success(format string, args ...any) *Result {
	return r.add(Section{Kind: SectionSuccess, Text: fmt.Sprintf(format, args...)})
}

// Warn appends a warning line.
func (r *Result) Warn(format string, args ...any) *Result {
	return r.add(Section{Kind: SectionWarning, Text: fmt.Sprintf(format, args...)})
}

// Text appends plain text, printed as is.
func (r *Result) Text(text string) *Result {
	return r.add(Section{Kind: SectionText, Text: text})
}

// Title appends a section heading.
func (r *Result) Title(text string) *Result {
	return r.add(Section{Kind: SectionTitle, Text: text})
}

// Table appends a table.
func (r *Result) Table(t *Table) *Result {
	return r.add(Section{Kind: SectionTable, Table: t})
}

// Data appends a structured payload rendered by the configured formatter.
func (r *Result) Data(v any) *Result {
	return r.add(Section{Kind: SectionData, Data: v})
}

// WithExit marks the result as terminating the session.
func (r *Result) WithExit() *Result {
	r.Exit = true
	return r
}

func (r *Result) add(s Section) *Result {
	r.Sections = append(r.Sections, s)
	return r
}
