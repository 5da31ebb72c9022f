package table

import (
	"fmt"
	"math"
	"strings"
)

// Column is a named sequence of cells sharing one semantic kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// NewColumn builds a column; values are used as-is.
func NewColumn(name string, kind Kind, values []Value) *Column {
	return &Column{Name: name, Kind: kind, Values: values}
}

func (c *Column) Len() int { return len(c.Values) }

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Floats returns the finite numeric readings of the column, skipping everything else.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Column) Clone() *Column {
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: vals}
}

func (c *Column) Equal(o *Column) bool {
	if c.Name != o.Name || c.Kind != o.Kind || len(c.Values) != len(o.Values) {
		return false
	}
	for i := range c.Values {
		if !c.Values[i].Equal(o.Values[i]) {
			return false
		}
	}
	return true
}

// Table is an ordered collection of equally long columns.
// Stages treat tables as immutable values and return new ones.
type Table struct {
	Columns []*Column
}

// New validates that all columns have the same length.
func New(cols ...*Column) (*Table, error) {
	if len(cols) > 0 {
		n := cols[0].Len()
		for _, c := range cols[1:] {
			if c.Len() != n {
				return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), n)
			}
		}
	}
	return &Table{Columns: cols}, nil
}

// MustNew is New for literals in tests and fixtures; it panics on ragged input.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the first column called name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the first column called name.
func (t *Table) Column(name string) (*Column, bool) {
	if i := t.Index(name); i >= 0 {
		return t.Columns[i], true
	}
	return nil, false
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.Clone()
	}
	return &Table{Columns: cols}
}

// Equal reports structural equality: same names, kinds, and cells in order.
func (t *Table) Equal(o *Table) bool {
	if t.NumCols() != o.NumCols() || t.NumRows() != o.NumRows() {
		return false
	}
	for i := range t.Columns {
		if !t.Columns[i].Equal(o.Columns[i]) {
			return false
		}
	}
	return true
}

// Row returns the cells of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.Columns))
	for j, c := range t.Columns {
		out[j] = c.Values[i]
	}
	return out
}

// RowKey hashes row i across all columns; nulls compare equal.
func (t *Table) RowKey(i int) string {
	parts := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		parts[j] = c.Values[i].Key()
	}
	return strings.Join(parts, "\x1f")
}

// Take returns a new table holding the given rows in order.
func (t *Table) Take(rows []int) *Table {
	cols := make([]*Column, len(t.Columns))
	for j, c := range t.Columns {
		vals := make([]Value, len(rows))
		for k, i := range rows {
			vals[k] = c.Values[i]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return &Table{Columns: cols}
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) *Table {
	rows := t.NumRows()
	if n < 0 || n > rows {
		n = rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.Take(idx)
}

// Drop returns a table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := &Table{}
	for _, c := range t.Columns {
		if !skip[c.Name] {
			out.Columns = append(out.Columns, c)
		}
	}
	return out
}

// Records renders the table as a header plus string rows.
func (t *Table) Records() (header []string, rows [][]string) {
	header = t.Names()
	rows = make([][]string, t.NumRows())
	for i := range rows {
		rec := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			rec[j] = c.Values[i].String()
		}
		rows[i] = rec
	}
	return header, rows
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
