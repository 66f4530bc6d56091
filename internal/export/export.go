// Package export writes a table.Table to a downloadable file.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// Format is a conversion target.
type Format string

const (
	CSV   Format = "CSV"
	Excel Format = "Excel"
)

// MIME types sent with downloads.
const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SheetName is the worksheet written for Excel exports.
const SheetName = "Sheet1"

// ErrUnknownFormat is returned for conversion targets other than CSV and Excel.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat accepts "csv", "excel" or "xlsx" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "excel", "xlsx":
		return Excel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	if f == Excel {
		return ".xlsx"
	}
	return ".csv"
}

// MIME returns the content type for the format.
func (f Format) MIME() string {
	if f == Excel {
		return MIMEXLSX
	}
	return MIMECSV
}

// File is an exported table ready to download.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Export encodes t in the given format. originalName is the uploaded
// filename the export name is derived from.
func Export(t *table.Table, format Format, originalName string) (*File, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case CSV:
		data, err = WriteCSV(t)
	case Excel:
		data, err = WriteXLSX(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	return &File{
		Name: DeriveFilename(originalName, format),
		MIME: format.MIME(),
		Data: data,
	}, nil
}

// DeriveFilename replaces the extension of original with the format's.
// "sales.xlsx" becomes "sales.csv"; a name without an extension gets one.
func DeriveFilename(original string, format Format) string {
	base := filepath.Base(original)
	if base == "." || base == string(filepath.Separator) {
		base = "export"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = "export"
	}
	return stem + format.Ext()
}

// WriteCSV encodes the header and rows with no index column.
func WriteCSV(t *table.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.WriteAll(t.Records()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX encodes the table on a single worksheet using excelize's
// stream writer. Numeric cells are written as numbers and missing cells are
// left empty.
func WriteXLSX(t *table.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, err
	}

	header := make([]any, t.NumCols())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, err
	}

	cols := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := make([]any, len(cols))
		for j, col := range cols {
			v := col.Values[i]
			switch {
			case v.Missing:
				row[j] = nil
			case col.Kind == table.KindNumeric:
				row[j] = v.Num
			default:
				row[j] = v.Text
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
