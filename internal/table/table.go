// Package table provides the in-memory Table value produced by the loader
// and consumed by the presentation layer.
//
// A Table is an ordered set of named columns with a uniform row count. Each
// column has a single kind, fixed when the table is built:
//
//   - KindNumeric: every non-missing cell is a number
//   - KindText: anything else; numeric-looking cells keep their text
//
// Tables are values. Every cleaning operation (DropDuplicates, FillMissing,
// Select) returns a new Table and leaves the receiver untouched, so a Table
// can be shared between concurrent readers without locking.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnknownColumn is returned when an operation names a column the table
// does not have.
var ErrUnknownColumn = errors.New("column not found")

// Kind is the inferred type of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

// String returns the lowercase kind name used in JSON and templates.
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// Value is a single cell.
type Value struct {
	Num     float64 // set when the column is numeric
	Text    string  // set when the column is text
	Missing bool
}

// Null is the missing cell.
var Null = Value{Missing: true}

// Number returns a numeric cell.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Null
	}
	return Value{Num: f}
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{Text: s}
}

// Format renders the cell the way it is written on export.
// Missing cells are empty; numbers use the shortest exact representation.
func (v Value) Format(kind Kind) string {
	if v.Missing {
		return ""
	}
	if kind == KindNumeric {
		return FormatNumber(v.Num)
	}
	return v.Text
}

// FormatNumber formats a float without exponent and without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Column is a named, single-kind sequence of cells.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Len returns the number of cells.
func (c Column) Len() int {
	return len(c.Values)
}

// Missing returns the number of missing cells.
func (c Column) Missing() int {
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			n++
		}
	}
	return n
}

// Table is an ordered set of columns with a uniform row count.
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a table from columns.
// All columns must have the same length and distinct names.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, col := range columns {
		if _, dup := t.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col.Name)
		}
		if i == 0 {
			t.rows = col.Len()
		} else if col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", col.Name, col.Len(), t.rows)
		}
		t.index[col.Name] = i
		t.columns[i] = col
	}

	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.Name
	}
	return names
}

// Columns returns the columns in order. Callers must not modify the cells.
func (t *Table) Columns() []Column {
	return t.columns
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Cell returns the value at row, column index.
func (t *Table) Cell(row, col int) Value {
	return t.columns[col].Values[row]
}

// Row returns the formatted cells of a row.
func (t *Table) Row(row int) []string {
	out := make([]string, len(t.columns))
	for j, col := range t.columns {
		out[j] = col.Values[row].Format(col.Kind)
	}
	return out
}

// Records returns the header followed by every row, formatted for export.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, t.rows+1)
	records = append(records, t.Names())
	for i := 0; i < t.rows; i++ {
		records = append(records, t.Row(i))
	}
	return records
}

// NumericColumns returns the names of numeric columns in table order.
func (t *Table) NumericColumns() []string {
	var names []string
	for _, col := range t.columns {
		if col.Kind == KindNumeric {
			names = append(names, col.Name)
		}
	}
	return names
}

// Head returns a table with at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.takeRows(rows)
}

// takeRows builds a new table holding the given row indexes in order.
func (t *Table) takeRows(rows []int) *Table {
	out := &Table{
		columns: make([]Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    len(rows),
	}
	for j, col := range t.columns {
		values := make([]Value, len(rows))
		for i, r := range rows {
			values[i] = col.Values[r]
		}
		out.columns[j] = Column{Name: col.Name, Kind: col.Kind, Values: values}
		out.index[col.Name] = j
	}
	return out
}
