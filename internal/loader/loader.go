// Package loader turns an uploaded file into a table.Table.
//
// # Formats
//
// Two extensions are recognised: "csv" and "xlsx". Anything else fails with
// [ErrUnsupportedFormat] before the data is read.
//
// # Encoding fallback
//
// CSV files are read as UTF-8 first. Only when the bytes are not valid
// UTF-8 does the loader retry with the fallback encodings, in order:
//
//	latin-1, cp1252, iso-8859-1, utf-16, utf-8-sig
//
// Each attempt decodes from a fresh reader over the original bytes. The first
// attempt that both decodes and parses wins, and its name is reported in
// [Result.Encoding]. When every attempt fails the loader returns
// [ErrAllEncodingsExhausted].
//
// A structural problem in valid UTF-8 (too many fields, empty file) is a
// [*ParseError] and never triggers the fallback loop.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// Format is a recognised upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// EncodingUTF8 is reported for CSV files that were valid UTF-8.
const EncodingUTF8 = "utf-8"

var (
	// ErrUnsupportedFormat is returned for extensions other than csv and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrAllEncodingsExhausted is returned when a CSV file is not valid UTF-8
	// and none of the fallback encodings produced a table.
	ErrAllEncodingsExhausted = errors.New("could not read file with any of the tried encodings")

	// ErrEmptyFile is wrapped by the ParseError for a file with no header row.
	ErrEmptyFile = errors.New("empty file")
)

// ParseError reports structurally malformed content unrelated to character
// encoding: a corrupt spreadsheet container, a malformed CSV grid, or an
// empty file.
type ParseError struct {
	Format Format
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error (%s): %s", e.Format, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is a successfully loaded file.
type Result struct {
	Table *table.Table

	// Encoding is the character encoding the CSV was read with.
	// Empty for spreadsheets.
	Encoding string
}

// Fallback reports whether the file needed a fallback encoding.
func (r *Result) Fallback() bool {
	return r.Encoding != "" && r.Encoding != EncodingUTF8
}

// ParseFormat normalises a declared extension ("CSV", ".xlsx", ...).
func ParseFormat(ext string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether a filename has a loadable extension.
func Supported(filename string) bool {
	_, err := ParseFormat(filepath.Ext(filename))
	return err == nil
}

// Load reads data according to the declared extension.
func Load(data []byte, ext string) (*Result, error) {
	format, err := ParseFormat(ext)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		t, err := loadXLSX(data)
		if err != nil {
			return nil, err
		}
		return &Result{Table: t}, nil
	default:
		return loadCSV(data)
	}
}

// LoadFile loads data using the extension of filename.
func LoadFile(filename string, data []byte) (*Result, error) {
	return Load(data, filepath.Ext(filename))
}
