package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DropDuplicates returns a table without rows that repeat an earlier row,
// and the number of rows removed. Missing cells compare equal to each other.
// First occurrences keep their relative order, so applying it twice is the
// same as applying it once.
func (t *Table) DropDuplicates() (*Table, int) {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]int, 0, t.rows)

	for i := 0; i < t.rows; i++ {
		key := t.rowKey(i)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}

	return t.takeRows(keep), t.rows - len(keep)
}

// rowKey encodes a row so that equal rows produce equal keys.
// Each cell is length-prefixed to keep the encoding unambiguous.
func (t *Table) rowKey(row int) string {
	var b strings.Builder
	for _, col := range t.columns {
		v := col.Values[row]
		var cell string
		switch {
		case v.Missing:
			cell = "\x00"
		case col.Kind == KindNumeric:
			cell = "n" + strconv.FormatUint(math.Float64bits(v.Num+0), 16)
		default:
			cell = "t" + v.Text
		}
		b.WriteString(strconv.Itoa(len(cell)))
		b.WriteByte(':')
		b.WriteString(cell)
	}
	return b.String()
}

// FillMissing returns a table where missing cells of numeric columns hold
// the mean of the column's present values, and the number of cells filled.
// Text columns and all-missing numeric columns are left as they are.
func (t *Table) FillMissing() (*Table, int) {
	out := &Table{
		columns: make([]Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    t.rows,
	}
	filled := 0

	for j, col := range t.columns {
		out.index[col.Name] = j
		mean, ok := col.mean()
		if col.Kind != KindNumeric || !ok || col.Missing() == 0 {
			out.columns[j] = col
			continue
		}

		values := make([]Value, len(col.Values))
		for i, v := range col.Values {
			if v.Missing {
				values[i] = Number(mean)
				filled++
				continue
			}
			values[i] = v
		}
		out.columns[j] = Column{Name: col.Name, Kind: col.Kind, Values: values}
	}

	return out, filled
}

// mean returns the mean of present numeric values.
func (c Column) mean() (float64, bool) {
	if c.Kind != KindNumeric {
		return 0, false
	}
	// Running mean: a plain sum overflows for values near the float64 limit.
	var m float64
	n := 0
	for _, v := range c.Values {
		if v.Missing {
			continue
		}
		n++
		k := float64(n)
		m += v.Num/k - m/k
	}
	if n == 0 {
		return 0, false
	}
	return m, true
}

// Select returns a table holding only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{
		columns: make([]Column, 0, len(names)),
		index:   make(map[string]int, len(names)),
	}

	for _, name := range names {
		i, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("select %q: %w", name, ErrUnknownColumn)
		}
		if _, dup := out.index[name]; dup {
			continue
		}
		out.index[name] = len(out.columns)
		out.columns = append(out.columns, t.columns[i])
	}

	if len(out.columns) > 0 {
		out.rows = t.rows
	}

	return out, nil
}

// ColumnStats summarises one column for the file info panel.
type ColumnStats struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Missing int    `json:"missing"`

	// Min, Max and Mean are nil for text columns and for numeric columns
	// with no values.
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Mean *float64 `json:"mean,omitempty"`
}

// Stats returns a summary of every column in order.
func (t *Table) Stats() []ColumnStats {
	stats := make([]ColumnStats, len(t.columns))
	for j, col := range t.columns {
		missing := col.Missing()
		s := ColumnStats{
			Name:    col.Name,
			Kind:    col.Kind.String(),
			Count:   col.Len() - missing,
			Missing: missing,
		}
		if mean, ok := col.mean(); ok {
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range col.Values {
				if v.Missing {
					continue
				}
				lo = math.Min(lo, v.Num)
				hi = math.Max(hi, v.Num)
			}
			s.Min, s.Max, s.Mean = &lo, &hi, &mean
		}
		stats[j] = s
	}
	return stats
}
