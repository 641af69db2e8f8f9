package output

import (
	"fmt"
	"io"
)

// Printer renders results and errors.
type Printer struct {
	out       io.Writer
	errOut    io.Writer
	formatter Formatter
}

// NewPrinter creates a printer. Errors go to errOut; a nil errOut means out.
func NewPrinter(out, errOut io.Writer, format Format) *Printer {
	if errOut == nil {
		errOut = out
	}
	return &Printer{
		out:       out,
		errOut:    errOut,
		formatter: NewFormatter(format),
	}
}

// Out returns the main writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Print renders every section of a result in order.
func (p *Printer) Print(r *Result) error {
	if r == nil {
		return nil
	}

	for _, s := range r.Sections {
		var err error
		switch s.Kind {
		case SectionSuccess:
			_, err = fmt.Fprintln(p.out, Success(s.Text))
		case SectionWarning:
			_, err = fmt.Fprintln(p.out, Warning(s.Text))
		case SectionTitle:
			_, err = fmt.Fprintln(p.out, Header(s.Text))
		case SectionText:
			_, err = fmt.Fprintln(p.out, s.Text)
		case SectionTable:
			if s.Table != nil {
				err = p.formatter.Format(p.out, s.Table)
			}
		case SectionData:
			err = p.formatter.Format(p.out, s.Data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// PrintError renders a failed command.
func (p *Printer) PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.errOut, Error(err.Error()))
}

// Warn renders a single warning line outside a result.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, Warning(fmt.Sprintf(format, args...)))
}
