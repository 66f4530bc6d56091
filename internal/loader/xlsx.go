package loader

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// loadXLSX reads the first worksheet of a workbook. The first non-blank row
// is the header; raw cell values are used so number formats do not turn
// numbers into text.
func loadXLSX(data []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Detail: err.Error(), Err: err}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ParseError{Format: FormatXLSX, Detail: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Format: FormatXLSX, Detail: err.Error(), Err: err}
	}

	for len(rows) > 0 && blankRow(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &ParseError{Format: FormatXLSX, Detail: "empty file", Err: ErrEmptyFile}
	}

	header := rows[0]
	body := rows[1:]

	// Cells to the right of the header get generated names.
	width := len(header)
	for _, row := range body {
		if len(row) > width {
			width = len(row)
		}
	}
	for len(header) < width {
		header = append(header, "")
	}

	return table.FromRecords(header, body), nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
