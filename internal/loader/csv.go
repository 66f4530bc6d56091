package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// errDecode marks an attempt that failed while decoding bytes to text.
var errDecode = errors.New("encoding error")

// candidate is one fallback encoding.
type candidate struct {
	name string
	enc  encoding.Encoding
}

// fallbackEncodings are tried in order after UTF-8 fails to decode.
// latin-1 and iso-8859-1 are the same charmap under two names.
var fallbackEncodings = []candidate{
	{name: "latin-1", enc: charmap.ISO8859_1},
	{name: "cp1252", enc: charmap.Windows1252},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "utf-16", enc: unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{name: "utf-8-sig", enc: unicode.UTF8BOM},
}

// FallbackEncodings returns the fallback encoding names in priority order.
func FallbackEncodings() []string {
	names := make([]string, len(fallbackEncodings))
	for i, c := range fallbackEncodings {
		names[i] = c.name
	}
	return names
}

// loadCSV reads data as UTF-8 and falls back to other encodings only on a
// decoding failure.
func loadCSV(data []byte) (*Result, error) {
	t, err := parseUTF8(data)
	if err == nil {
		return &Result{Table: t, Encoding: EncodingUTF8}, nil
	}
	if !errors.Is(err, errDecode) {
		return nil, err
	}

	for _, c := range fallbackEncodings {
		// A new reader per attempt: a failed parse consumes its source.
		t, err := parseDecoded(bytes.NewReader(data), c.enc)
		if err != nil {
			slog.Debug("csv encoding attempt failed", "encoding", c.name, "error", err)
			continue
		}
		return &Result{Table: t, Encoding: c.name}, nil
	}

	return nil, ErrAllEncodingsExhausted
}

// parseUTF8 parses data as UTF-8, skipping a leading byte order mark.
func parseUTF8(data []byte) (*table.Table, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("utf-8: %w", errDecode)
	}
	return parseGrid(newBOMSkippingReader(bytes.NewReader(data)))
}

// parseDecoded decodes r with enc and parses the resulting text.
// Undecodable input shows up as U+FFFD in the decoder output, which is
// treated as a decoding failure.
func parseDecoded(r io.Reader, enc encoding.Encoding) (*table.Table, error) {
	text, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	if bytes.ContainsRune(text, utf8.RuneError) {
		return nil, fmt.Errorf("%w: invalid byte sequence", errDecode)
	}
	return parseGrid(bytes.NewReader(text))
}

// parseGrid reads a comma-separated grid whose first record is the header.
// Rows with more fields than the header are rejected; shorter rows are
// padded with missing cells by table.FromRecords.
func parseGrid(r io.Reader) (*table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	var rows [][]string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: FormatCSV, Detail: err.Error(), Err: err}
		}

		if header == nil {
			header = record
			continue
		}

		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Format: FormatCSV,
				Detail: fmt.Sprintf("line %d: expected %d fields, saw %d", line, len(header), len(record)),
			}
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, &ParseError{Format: FormatCSV, Detail: "empty file", Err: ErrEmptyFile}
	}

	return table.FromRecords(header, rows), nil
}
