package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

func TestBuild_NoNumericColumns(t *testing.T) {
	tbl := table.FromRecords([]string{"name"}, [][]string{{"a"}, {"b"}})

	_, err := Build(tbl, 600, 300)
	assert.ErrorIs(t, err, ErrNoNumericColumns)
}

func TestBuild_SeriesSelection(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		rows    [][]string
		wantBar []string
		wantAll []string
	}{
		{
			name:    "single numeric column",
			header:  []string{"label", "v"},
			rows:    [][]string{{"a", "1"}, {"b", "2"}},
			wantBar: []string{"v"},
			wantAll: []string{"v"},
		},
		{
			name:    "bar keeps the first two",
			header:  []string{"x", "label", "y", "z"},
			rows:    [][]string{{"1", "a", "2", "3"}},
			wantBar: []string{"x", "y"},
			wantAll: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Build(table.FromRecords(tt.header, tt.rows), 600, 300)
			require.NoError(t, err)

			assert.Equal(t, tt.wantBar, seriesNames(set.Bar))
			assert.Equal(t, tt.wantAll, seriesNames(set.Line))
			assert.Equal(t, tt.wantAll, seriesNames(set.Area))
		})
	}
}

func TestBuild_MissingCellsSkipped(t *testing.T) {
	tbl := table.FromRecords([]string{"v"}, [][]string{{"1"}, {""}, {"3"}})

	set, err := Build(tbl, 600, 300)
	require.NoError(t, err)

	pts := set.Line.Series[0].Points
	require.Len(t, pts, 2)
	assert.Equal(t, 0, pts[0].Row)
	assert.Equal(t, 2, pts[1].Row)
}

func TestBuild_PointsInsideBox(t *testing.T) {
	tbl := table.FromRecords([]string{"a", "b"}, [][]string{
		{"-5", "10"},
		{"0", "20"},
		{"7.5", "-2"},
	})

	set, err := Build(tbl, 400, 200)
	require.NoError(t, err)

	for _, c := range []*Chart{set.Bar, set.Line, set.Area} {
		assert.Equal(t, -5.0, c.YMin)
		assert.Equal(t, 20.0, c.YMax)
		for _, s := range c.Series {
			for _, p := range s.Points {
				assert.GreaterOrEqual(t, p.X, Padding, "%s %s x", c.Kind, s.Name)
				assert.LessOrEqual(t, p.X, 400-Padding, "%s %s x", c.Kind, s.Name)
				assert.GreaterOrEqual(t, p.Y, Padding, "%s %s y", c.Kind, s.Name)
				assert.LessOrEqual(t, p.Y, 200-Padding, "%s %s y", c.Kind, s.Name)
			}
		}
	}

	// Largest value sits at the top, smallest at the bottom.
	line := set.Line
	assert.InDelta(t, Padding, line.Series[1].Points[1].Y, 1e-9)
	assert.InDelta(t, 200-Padding, line.Series[0].Points[0].Y, 1e-9)
}

func TestBuild_LineSpansWidth(t *testing.T) {
	tbl := table.FromRecords([]string{"v"}, [][]string{{"1"}, {"2"}, {"3"}})

	set, err := Build(tbl, 400, 200)
	require.NoError(t, err)

	pts := set.Line.Series[0].Points
	assert.InDelta(t, Padding, pts[0].X, 1e-9)
	assert.InDelta(t, 400-Padding, pts[2].X, 1e-9)
}

func TestBuild_ConstantColumn(t *testing.T) {
	tbl := table.FromRecords([]string{"v"}, [][]string{{"0"}, {"0"}})

	set, err := Build(tbl, 400, 200)
	require.NoError(t, err)

	assert.Less(t, set.Line.YMin, set.Line.YMax)
	assert.InDelta(t, 200-Padding, set.Line.Baseline, 1e-9)
}

func TestBuild_Truncates(t *testing.T) {
	rows := make([][]string, MaxPoints+50)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i)}
	}

	set, err := Build(table.FromRecords([]string{"n"}, rows), 600, 300)
	require.NoError(t, err)

	assert.True(t, set.Truncated)
	assert.Equal(t, MaxPoints, set.Rows)
	assert.Len(t, set.Line.Series[0].Points, MaxPoints)
}

func TestBuild_BarWidthFitsGroup(t *testing.T) {
	tbl := table.FromRecords([]string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}})

	set, err := Build(tbl, 424, 200)
	require.NoError(t, err)

	// 376px of plot split into two groups; 80% of each shared by two bars.
	assert.InDelta(t, 75.2, set.Bar.BarWidth, 1e-9)
	a, b := set.Bar.Series[0].Points[0], set.Bar.Series[1].Points[0]
	assert.InDelta(t, a.X+set.Bar.BarWidth, b.X, 1e-9)
}

func seriesNames(c *Chart) []string {
	names := make([]string, len(c.Series))
	for i, s := range c.Series {
		names[i] = s.Name
	}
	return names
}

func TestBuild_ExtremeMagnitudes(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"opposite limits", [][]string{{"-1e308"}, {"1e308"}}},
		{"max only", [][]string{{"1.7e308"}, {"1.7e308"}}},
		{"tiny", [][]string{{"1e-300"}, {"-3e-300"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := Build(table.FromRecords([]string{"v"}, tt.rows), 400, 200)
			require.NoError(t, err)

			for _, c := range []*Chart{set.Bar, set.Line, set.Area} {
				assert.False(t, math.IsNaN(c.Baseline) || math.IsInf(c.Baseline, 0), "%s baseline", c.Kind)
				for _, p := range c.Series[0].Points {
					assert.False(t, math.IsNaN(p.Y) || math.IsInf(p.Y, 0), "%s y = %v", c.Kind, p.Y)
					assert.GreaterOrEqual(t, p.Y, Padding-1e-9)
					assert.LessOrEqual(t, p.Y, 200-Padding+1e-9)
				}
			}

			_, err = json.Marshal(set)
			require.NoError(t, err)
		})
	}
}
