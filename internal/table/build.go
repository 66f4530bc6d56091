package table

// build.go turns a raw string grid (header + rows) into a typed Table.
//
// The rules follow what spreadsheet users expect from a CSV import:
//   - blank header cells become "Unnamed: <index>"
//   - repeated header names get ".1", ".2", ... suffixes
//   - short rows are padded with missing cells
//   - common NA spellings are treated as missing
//   - a column is numeric only if every present cell is a plain number

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches integers, decimals and scientific notation.
// Hex floats, "Inf" and digit separators are deliberately not numbers.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// missingMarkers are the cell spellings read as missing.
var missingMarkers = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsMissing reports whether a raw cell is a missing marker.
func IsMissing(s string) bool {
	return missingMarkers[s]
}

// ParseNumber parses a raw cell as a number.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FromRecords builds a table from a header row and data rows.
// Rows longer than the header must be rejected by the caller; here any
// extra cells are ignored.
func FromRecords(header []string, rows [][]string) *Table {
	names := NormalizeHeader(header)

	t := &Table{
		columns: make([]Column, len(names)),
		index:   make(map[string]int, len(names)),
		rows:    len(rows),
	}

	for j, name := range names {
		t.columns[j] = inferColumn(name, j, rows)
		t.index[name] = j
	}

	return t
}

// inferColumn reads column j from rows and fixes its kind.
func inferColumn(name string, j int, rows [][]string) Column {
	raw := make([]string, len(rows))
	present := make([]bool, len(rows))
	numeric := true

	for i, row := range rows {
		if j >= len(row) || IsMissing(row[j]) {
			continue
		}
		raw[i] = row[j]
		present[i] = true
		if numeric {
			if _, ok := ParseNumber(row[j]); !ok {
				numeric = false
			}
		}
	}

	col := Column{Name: name, Kind: KindText, Values: make([]Value, len(rows))}
	if numeric {
		col.Kind = KindNumeric
	}

	for i := range rows {
		switch {
		case !present[i]:
			col.Values[i] = Null
		case numeric:
			f, _ := ParseNumber(raw[i])
			col.Values[i] = Number(f)
		default:
			col.Values[i] = Text(raw[i])
		}
	}

	return col
}

// NormalizeHeader returns unique, non-empty column names for a header row.
// Names are kept verbatim, surrounding whitespace included; only an empty
// cell gets a generated name.
func NormalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, h := range header {
		name := h
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}

	// Reserve original names first so a later "a.1" does not collide
	// with a suffix generated for an earlier repeat of "a".
	taken := make(map[string]bool, len(names))
	for _, name := range names {
		taken[name] = true
	}

	used := make(map[string]bool, len(names))
	for i, name := range names {
		if !used[name] {
			used[name] = true
			continue
		}
		n := seen[name]
		candidate := name
		for {
			n++
			candidate = fmt.Sprintf("%s.%d", name, n)
			if !used[candidate] && !taken[candidate] {
				break
			}
		}
		seen[name] = n
		used[candidate] = true
		names[i] = candidate
	}

	return names
}
