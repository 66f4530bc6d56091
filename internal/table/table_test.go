package table

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Table {
	return FromRecords(
		[]string{"name", "age", "score"},
		[][]string{
			{"alice", "30", "1.5"},
			{"bob", "", "2"},
			{"alice", "30", "1.5"},
			{"carol", "41", "NA"},
			{"bob", "", "2"},
		},
	)
}

func TestFromRecords_InfersKinds(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 5, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumCols())
	assert.Equal(t, []string{"name", "age", "score"}, tbl.Names())
	assert.Equal(t, []string{"age", "score"}, tbl.NumericColumns())

	age, ok := tbl.Column("age")
	require.True(t, ok)
	assert.Equal(t, KindNumeric, age.Kind)
	assert.Equal(t, 30.0, age.Values[0].Num)
	assert.True(t, age.Values[1].Missing)
	assert.Equal(t, 2, age.Missing())

	score, _ := tbl.Column("score")
	assert.True(t, score.Values[3].Missing, "NA should be read as missing")
}

func TestFromRecords_MixedColumnIsText(t *testing.T) {
	tbl := FromRecords(
		[]string{"id"},
		[][]string{{"1"}, {"2"}, {"x3"}},
	)

	col, _ := tbl.Column("id")
	assert.Equal(t, KindText, col.Kind)
	assert.Equal(t, "1", col.Values[0].Text)
	assert.Equal(t, "x3", col.Values[2].Text)
}

func TestFromRecords_AllMissingIsNumeric(t *testing.T) {
	tbl := FromRecords([]string{"empty"}, [][]string{{""}, {"null"}})

	col, _ := tbl.Column("empty")
	assert.Equal(t, KindNumeric, col.Kind)
	assert.Equal(t, 2, col.Missing())
}

func TestFromRecords_PadsShortRows(t *testing.T) {
	tbl := FromRecords([]string{"a", "b"}, [][]string{{"1"}, {"2", "x"}})

	require.Equal(t, 2, tbl.NumRows())
	b, _ := tbl.Column("b")
	assert.True(t, b.Values[0].Missing)
	assert.Equal(t, "x", b.Values[1].Text)
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		want   []string
	}{
		{"plain", []string{"a", "b"}, []string{"a", "b"}},
		{"blank", []string{"a", "", "c"}, []string{"a", "Unnamed: 1", "c"}},
		{"whitespace only", []string{"a", " "}, []string{"a", " "}},
		{"repeated", []string{"a", "a", "a"}, []string{"a", "a.1", "a.2"}},
		{"suffix already present", []string{"a", "a", "a.1"}, []string{"a", "a.2", "a.1"}},
		{"surrounding space kept", []string{" a", "b "}, []string{" a", "b "}},
		{"spaced repeat is distinct", []string{"a", " a"}, []string{"a", " a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.header))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1", 1, true},
		{"-2.5", -2.5, true},
		{" 3 ", 3, true},
		{".5", 0.5, true},
		{"1e3", 1000, true},
		{"0x10", 0, false},
		{"Inf", 0, false},
		{"1,000", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseNumber(%q) ok", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "ParseNumber(%q)", tt.in)
		}
	}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(
		Column{Name: "a", Values: []Value{Text("x")}},
		Column{Name: "b", Values: []Value{Text("x"), Text("y")}},
	)
	assert.Error(t, err)

	_, err = New(
		Column{Name: "a", Values: []Value{Text("x")}},
		Column{Name: "a", Values: []Value{Text("y")}},
	)
	assert.Error(t, err)

	tbl, err := New(Column{Name: "a", Kind: KindNumeric, Values: []Value{Number(1), Null}})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())
}

func TestDropDuplicates(t *testing.T) {
	tbl := sample()

	deduped, removed := tbl.DropDuplicates()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 3, deduped.NumRows())
	assert.Equal(t, []string{"alice", "30", "1.5"}, deduped.Row(0))
	assert.Equal(t, []string{"bob", "", "2"}, deduped.Row(1))
	assert.Equal(t, []string{"carol", "41", ""}, deduped.Row(2))

	// the receiver is unchanged
	assert.Equal(t, 5, tbl.NumRows())
}

func TestDropDuplicates_Idempotent(t *testing.T) {
	once, _ := sample().DropDuplicates()
	twice, removed := once.DropDuplicates()

	assert.Equal(t, 0, removed)
	assert.Equal(t, once.Records(), twice.Records())
}

func TestDropDuplicates_CellBoundaries(t *testing.T) {
	// "a,bc" and "ab,c" must not collide
	tbl := FromRecords([]string{"x", "y"}, [][]string{{"a", "bc"}, {"ab", "c"}})

	_, removed := tbl.DropDuplicates()
	assert.Equal(t, 0, removed)
}

func TestFillMissing(t *testing.T) {
	tbl := FromRecords(
		[]string{"name", "v", "none"},
		[][]string{
			{"a", "1", ""},
			{"", "", ""},
			{"c", "3", ""},
		},
	)

	filled, n := tbl.FillMissing()
	assert.Equal(t, 1, n)

	v, _ := filled.Column("v")
	assert.False(t, v.Values[1].Missing)
	assert.Equal(t, 2.0, v.Values[1].Num)

	name, _ := filled.Column("name")
	assert.True(t, name.Values[1].Missing, "text columns are not filled")

	none, _ := filled.Column("none")
	assert.Equal(t, 3, none.Missing(), "all-missing column stays missing")

	orig, _ := tbl.Column("v")
	assert.True(t, orig.Values[1].Missing, "receiver is unchanged")
}

func TestSelect(t *testing.T) {
	tbl := sample()

	sel, err := tbl.Select("score", "name")
	require.NoError(t, err)
	assert.Equal(t, []string{"score", "name"}, sel.Names())
	assert.Equal(t, 5, sel.NumRows())

	_, err = tbl.Select("missing")
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	empty, err := tbl.Select()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NumCols())
	assert.Equal(t, 0, empty.NumRows())
}

func TestHead(t *testing.T) {
	tbl := sample()

	assert.Equal(t, 2, tbl.Head(2).NumRows())
	assert.Equal(t, 5, tbl.Head(10).NumRows())
	assert.Equal(t, 0, tbl.Head(-1).NumRows())
}

func TestRecords(t *testing.T) {
	tbl := FromRecords([]string{"a", "b"}, [][]string{{"1.50", "x"}, {"", "y"}})

	assert.Equal(t, [][]string{
		{"a", "b"},
		{"1.5", "x"},
		{"", "y"},
	}, tbl.Records())
}

func TestStats(t *testing.T) {
	stats := sample().Stats()
	require.Len(t, stats, 3)

	assert.Equal(t, "text", stats[0].Kind)
	assert.Equal(t, 5, stats[0].Count)

	age := stats[1]
	assert.Equal(t, "numeric", age.Kind)
	assert.Equal(t, 3, age.Count)
	assert.Equal(t, 2, age.Missing)
	require.NotNil(t, age.Mean)
	assert.Equal(t, 30.0, *age.Min)
	assert.Equal(t, 41.0, *age.Max)
	assert.InDelta(t, 33.666, *age.Mean, 0.001)

	assert.Nil(t, stats[0].Min)
	assert.Nil(t, stats[0].Mean)
}

func TestStats_ExtremeMagnitudes(t *testing.T) {
	tests := []struct {
		name     string
		cells    []string
		wantMean float64
	}{
		{"near max", []string{"1e308", "1e308", ""}, 1e308},
		{"opposite signs", []string{"-1e308", "1e308"}, 0},
		{"near max negative", []string{"-1.5e308", "-1.7e308"}, -1.6e308},
		{"tiny", []string{"2e-300", "4e-300"}, 3e-300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]string, len(tt.cells))
			for i, c := range tt.cells {
				rows[i] = []string{c}
			}
			tbl := FromRecords([]string{"v"}, rows)
			require.Equal(t, KindNumeric, tbl.Columns()[0].Kind)

			stats := tbl.Stats()
			require.NotNil(t, stats[0].Mean)
			mean := *stats[0].Mean
			assert.False(t, math.IsInf(mean, 0) || math.IsNaN(mean), "mean = %v", mean)
			assert.InDelta(t, tt.wantMean, mean, math.Abs(tt.wantMean)*1e-9)

			_, err := json.Marshal(stats)
			require.NoError(t, err)
		})
	}
}

func TestFillMissing_ExtremeMagnitudesStayNumeric(t *testing.T) {
	tbl := FromRecords([]string{"v"}, [][]string{{"1e308"}, {"1e308"}, {""}})

	filled, n := tbl.FillMissing()
	assert.Equal(t, 1, n)

	col := filled.Columns()[0]
	require.Equal(t, KindNumeric, col.Kind)
	assert.Equal(t, 1e308, col.Values[2].Num)

	// The formatted fill value parses back as the same number.
	got, ok := ParseNumber(col.Values[2].Format(KindNumeric))
	require.True(t, ok)
	assert.Equal(t, 1e308, got)
}

func TestStats_ZeroIsReported(t *testing.T) {
	tbl := FromRecords([]string{"v", "label"}, [][]string{{"0", "x"}, {"0", "y"}})

	data, err := json.Marshal(tbl.Stats())
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)

	for _, key := range []string{"min", "max", "mean"} {
		v, ok := got[0][key]
		require.True(t, ok, "%s missing from numeric column", key)
		assert.Equal(t, 0.0, v)
		_, ok = got[1][key]
		assert.False(t, ok, "%s present on text column", key)
	}
}
