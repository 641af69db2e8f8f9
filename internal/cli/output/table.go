package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column maps a record field to a table header.
type Column struct {
	Key   string
	Title string
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// TableFromRecords builds a table from decoded JSON objects, one row per record.
func TableFromRecords(columns []Column, records ...map[string]any) *Table {
	t := &Table{}
	for _, c := range columns {
		t.Headers = append(t.Headers, c.Title)
	}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = Cell(rec[c.Key])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Render renders the table with borders.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	widths := t.widths(noHeaders)
	if len(widths) == 0 {
		return nil
	}

	var b strings.Builder
	sep := separator(widths)
	b.WriteString(sep)
	if !noHeaders && len(t.Headers) > 0 {
		writeRow(&b, t.Headers, widths)
		b.WriteString(sep)
	}
	for _, row := range t.Rows {
		writeRow(&b, row, widths)
	}
	if len(t.Rows) > 0 {
		b.WriteString(sep)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *Table) widths(noHeaders bool) []int {
	n := len(t.Headers)
	for _, row := range t.Rows {
		n = max(n, len(row))
	}
	widths := make([]int, n)
	if !noHeaders {
		for i, h := range t.Headers {
			widths[i] = lipgloss.Width(h)
		}
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	return widths
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	b.WriteByte('|')
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteByte(' ')
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", w-lipgloss.Width(cell)))
		b.WriteString(" |")
	}
	b.WriteByte('\n')
}

// Cell formats one decoded JSON value for display.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// TableFormatter formats data as a bordered table.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
// Supports: Table, map[string]any, []map[string]any. Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	switch v := data.(type) {
	case nil:
		return nil
	case *Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return v.RenderWithOptions(w, f.NoHeaders)
	case map[string]any:
		return mapToTable(v).RenderWithOptions(w, f.NoHeaders)
	case []map[string]any:
		return recordsToTable(v).RenderWithOptions(w, f.NoHeaders)
	default:
		return (&JSONFormatter{}).Format(w, data)
	}
}

// mapToTable converts a map to a key-value table with sorted keys.
func mapToTable(m map[string]any) *Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := NewTable("Key", "Value")
	for _, k := range keys {
		t.AddRow(k, Cell(m[k]))
	}
	return t
}

// recordsToTable uses the union of keys, sorted, as columns.
func recordsToTable(records []map[string]any) *Table {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)

	columns := make([]Column, len(keys))
	for i, k := range keys {
		columns[i] = Column{Key: k, Title: k}
	}
	return TableFromRecords(columns, records...)
}
