package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table writes aligned columns with a styled header.
type Table struct {
	w      *tabwriter.Writer
	widths []int
}

// NewTable starts a table on out and writes its header.
func NewTable(out io.Writer, headers ...string) *Table {
	t := &Table{
		w:      tabwriter.NewWriter(out, 0, 0, 2, ' ', 0),
		widths: make([]int, len(headers)),
	}

	styled := make([]string, len(headers))
	rules := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = TableHeaderStyle.Render(h)
		rules[i] = strings.Repeat("-", max(len(h), 4))
	}
	t.line(styled)
	t.line(rules)
	return t
}

// Row appends one row. Values are formatted with %v.
func (t *Table) Row(values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	t.line(cells)
}

// Flush writes the buffered rows.
func (t *Table) Flush() error {
	return t.w.Flush()
}

func (t *Table) line(cells []string) {
	_, _ = fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}
