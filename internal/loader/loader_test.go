package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func TestLoad_UTF8(t *testing.T) {
	data := []byte("name,qty,price\nwidget,3,1.25\ngadget,10,0.5\nbolt,,2\n")

	res, err := Load(data, "csv")
	require.NoError(t, err)

	assert.Equal(t, "utf-8", res.Encoding)
	assert.False(t, res.Fallback())
	assert.Equal(t, 3, res.Table.NumRows())
	assert.Equal(t, 3, res.Table.NumCols())
	assert.Equal(t, []string{"name", "qty", "price"}, res.Table.Names())
	assert.Equal(t, []string{"qty", "price"}, res.Table.NumericColumns())
}

func TestLoad_UTF8WithMultibyte(t *testing.T) {
	res, err := Load([]byte("city\nZürich\nSão Paulo\n"), ".csv")
	require.NoError(t, err)

	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, []string{"Zürich"}, res.Table.Row(0))
}

func TestLoad_UTF8BOMIsSkipped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,v\n1,2\n")...)

	res, err := Load(data, "csv")
	require.NoError(t, err)

	assert.Equal(t, "utf-8", res.Encoding)
	assert.Equal(t, []string{"id", "v"}, res.Table.Names())
}

func TestLoad_Latin1Fallback(t *testing.T) {
	data, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte("name,city\nJosé,Zürich\n"))
	require.NoError(t, err)

	res, err := Load(data, "csv")
	require.NoError(t, err)

	assert.Equal(t, "latin-1", res.Encoding)
	assert.True(t, res.Fallback())
	assert.Equal(t, []string{"José", "Zürich"}, res.Table.Row(0))
}

func TestLoad_EarliestCandidateWins(t *testing.T) {
	// 0x80 is the euro sign in cp1252 but a control character in latin-1.
	// Both decode, so the earlier candidate must be reported.
	data := []byte("item,price\ncoffee,\x803\n")

	res, err := Load(data, "csv")
	require.NoError(t, err)
	assert.Equal(t, "latin-1", res.Encoding)
}

func TestLoad_UTF16Fallback(t *testing.T) {
	// U+2C00 is 0x00 0x2C in UTF-16LE, which the single-byte charsets read
	// as an extra comma, so only utf-16 yields a consistent grid.
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte("a,b\n1Ⰰ,2\n"))
	require.NoError(t, err)

	res, err := Load(data, "csv")
	require.NoError(t, err)

	assert.Equal(t, "utf-16", res.Encoding)
	assert.Equal(t, []string{"a", "b"}, res.Table.Names())
	assert.Equal(t, []string{"1Ⰰ", "2"}, res.Table.Row(0))
}

func TestLoad_AllEncodingsExhausted(t *testing.T) {
	// Invalid UTF-8, too many fields under every single-byte charset,
	// an odd byte count for utf-16.
	data := []byte("a,b\n1,2,3\n\xff")

	_, err := Load(data, "csv")
	assert.ErrorIs(t, err, ErrAllEncodingsExhausted)
}

func TestLoad_MalformedUTF8DoesNotFallBack(t *testing.T) {
	_, err := Load([]byte("a,b\n1,2,3\n"), "csv")

	var perr *ParseError
	require.True(t, errors.As(err, &perr), "want *ParseError, got %v", err)
	assert.Equal(t, FormatCSV, perr.Format)
	assert.Contains(t, perr.Detail, "expected 2 fields, saw 3")
	assert.NotErrorIs(t, err, ErrAllEncodingsExhausted)
}

func TestLoad_ShortRowsArePadded(t *testing.T) {
	res, err := Load([]byte("a,b,c\n1\n2,3,4\n"), "csv")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Table.NumRows())
	assert.Equal(t, []string{"1", "", ""}, res.Table.Row(0))
}

func TestLoad_EmptyCSV(t *testing.T) {
	_, err := Load(nil, "csv")

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "empty file", perr.Detail)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	for _, ext := range []string{"txt", ".txt", "xls", ""} {
		_, err := Load([]byte("a,b\n1,2\n"), ext)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "ext %q", ext)
	}
}

func TestLoad_CorruptXLSX(t *testing.T) {
	_, err := Load([]byte("this is not a zip container"), "xlsx")

	var perr *ParseError
	require.True(t, errors.As(err, &perr), "want *ParseError, got %v", err)
	assert.Equal(t, FormatXLSX, perr.Format)
}

func TestLoad_XLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"name", "qty", nil, "note"},
		{"widget", 3, nil, "ok"},
		{"gadget", 1.5, nil, nil},
		{"bolt", nil, nil, "late", "extra"},
	})

	res, err := Load(data, "XLSX")
	require.NoError(t, err)

	tbl := res.Table
	assert.Empty(t, res.Encoding)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"name", "qty", "Unnamed: 2", "note", "Unnamed: 4"}, tbl.Names())
	assert.Contains(t, tbl.NumericColumns(), "qty")
	assert.Equal(t, []string{"gadget", "1.5", "", "", ""}, tbl.Row(1))
}

func TestLoad_EmptyXLSX(t *testing.T) {
	data := buildWorkbook(t, nil)

	_, err := Load(data, "xlsx")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "empty file", perr.Detail)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadFile(t *testing.T) {
	res, err := LoadFile("Report.Final.CSV", []byte("a\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Table.NumRows())

	_, err = LoadFile("notes.txt", []byte("a\n1\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.csv"))
	assert.True(t, Supported("a.XLSX"))
	assert.False(t, Supported("a.xls"))
	assert.False(t, Supported("csv"))
}

func TestFallbackEncodings_Order(t *testing.T) {
	assert.Equal(t,
		[]string{"latin-1", "cp1252", "iso-8859-1", "utf-16", "utf-8-sig"},
		FallbackEncodings(),
	)
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
