// Package table provides the in-memory, schema-aware table every
// pipeline stage operates on. All operations address columns by name,
// never by position, so renames and reorders stay safe against source
// schema drift.
package table

import (
	"fmt"

	"github.com/shopspring/decimal"

	"salesmart/pkg/etlerr"
)

// Kind is the type of a column. Dates travel as text in the source
// format, so there is no date kind.
type Kind uint8

const (
	Int Kind = iota
	Decimal
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Decimal:
		return "Decimal"
	case String:
		return "String"
	default:
		return "Unknown"
	}
}

// Column is a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table holds ordered columns and row-major cells. A cell is nil (null),
// int64, decimal.Decimal, or string, matching the column kind.
type Table struct {
	cols  []Column
	index map[string]int
	rows  [][]any
}

// New creates an empty table with the given columns.
func New(cols []Column) *Table {
	t := &Table{cols: append([]Column(nil), cols...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.index[c.Name] = i
	}
}

// Columns returns a copy of the column definitions in order.
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.cols...)
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// NumCols returns the column count.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnKind returns the kind of a named column.
func (t *Table) ColumnKind(name string) (Kind, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, etlerr.NewColumnNotFound(name)
	}
	return t.cols[i].Kind, nil
}

// AppendRow adds a row. The cell count must match the column count; cell
// values are trusted to match their column kinds.
func (t *Table) AppendRow(cells []any) error {
	if len(cells) != len(t.cols) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.cols))
	}
	t.rows = append(t.rows, append([]any(nil), cells...))
	return nil
}

// Value returns the cell at (row, column name). Null cells are nil.
func (t *Table) Value(row int, name string) (any, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, etlerr.NewColumnNotFound(name)
	}
	return t.rows[row][i], nil
}

// Set assigns the cell at (row, column name).
func (t *Table) Set(row int, name string, v any) error {
	i, ok := t.index[name]
	if !ok {
		return etlerr.NewColumnNotFound(name)
	}
	t.rows[row][i] = v
	return nil
}

// Rename renames a column in place.
func (t *Table) Rename(old, new string) error {
	i, ok := t.index[old]
	if !ok {
		return etlerr.NewColumnNotFound(old)
	}
	t.cols[i].Name = new
	t.reindex()
	return nil
}

// Drop removes a column and its cells.
func (t *Table) Drop(name string) error {
	i, ok := t.index[name]
	if !ok {
		return etlerr.NewColumnNotFound(name)
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	for r := range t.rows {
		t.rows[r] = append(t.rows[r][:i], t.rows[r][i+1:]...)
	}
	t.reindex()
	return nil
}

// LowerNames lower-cases every column name. Reference sources arrive
// with inconsistent header casing; join keys need one deterministic form.
func (t *Table) LowerNames() {
	for i := range t.cols {
		t.cols[i].Name = lower(t.cols[i].Name)
	}
	t.reindex()
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Select returns a new table with exactly the named columns, in the
// given order. Columns not named are dropped.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	cols := make([]Column, len(names))
	for j, name := range names {
		i, ok := t.index[name]
		if !ok {
			return nil, etlerr.NewColumnNotFound(name)
		}
		idx[j] = i
		cols[j] = t.cols[i]
	}
	out := New(cols)
	out.rows = make([][]any, len(t.rows))
	for r, row := range t.rows {
		cells := make([]any, len(idx))
		for j, i := range idx {
			cells[j] = row[i]
		}
		out.rows[r] = cells
	}
	return out, nil
}

// AddColumn appends a null-filled column of the given kind.
func (t *Table) AddColumn(name string, kind Kind) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already exists", name)
	}
	t.cols = append(t.cols, Column{Name: name, Kind: kind})
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], nil)
	}
	t.reindex()
	return nil
}

// AppendTable stacks other's rows under t. The two schemas must agree
// exactly in name, order, and kind.
func (t *Table) AppendTable(other *Table) error {
	if len(other.cols) != len(t.cols) {
		return etlerr.NewSchemaMismatch("", fmt.Sprintf("column count %d != %d", len(other.cols), len(t.cols)))
	}
	for i, c := range other.cols {
		if c != t.cols[i] {
			return etlerr.NewSchemaMismatch("", fmt.Sprintf("column %d is %s %s, expected %s %s",
				i, c.Name, c.Kind, t.cols[i].Name, t.cols[i].Kind))
		}
	}
	for _, row := range other.rows {
		t.rows = append(t.rows, append([]any(nil), row...))
	}
	return nil
}

// DecimalValue reads a numeric cell as a decimal, coercing Int cells.
func DecimalValue(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case int64:
		return decimal.NewFromInt(x), true
	default:
		return decimal.Decimal{}, false
	}
}
