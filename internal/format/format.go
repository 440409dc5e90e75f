// Package format renders tabular CLI output (check summaries, test
// results) as fixed-width terminal tables or Markdown.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the rendering style.
type Mode int

const (
	Terminal Mode = iota // box-drawing tables for a TTY
	Markdown             // pipe tables for reports
)

// Align is a per-column horizontal alignment.
type Align int

const (
	AlignAuto Align = iota
	AlignLeft
	AlignRight
)

// Table accumulates rows and renders them once via Render.
type Table struct {
	writer table.Writer
	mode   Mode
	cols   []table.ColumnConfig
}

// New creates an empty table rendering in the given mode.
func New(m Mode) *Table {
	w := table.NewWriter()
	if m == Terminal {
		w.SetStyle(table.StyleLight)
	}
	return &Table{writer: w, mode: m}
}

// Head sets the header row.
func (t *Table) Head(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Add appends one data row.
func (t *Table) Add(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// Foot appends a footer row, typically totals.
func (t *Table) Foot(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

// AlignColumn sets the alignment of a 1-based column.
func (t *Table) AlignColumn(number int, a Align) {
	t.cols = append(t.cols, table.ColumnConfig{
		Number: number,
		Align:  toTextAlign(a),
	})
	t.writer.SetColumnConfigs(t.cols)
}

// Render returns the formatted table.
func (t *Table) Render() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}

func toTextAlign(a Align) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	default:
		return text.AlignDefault
	}
}
