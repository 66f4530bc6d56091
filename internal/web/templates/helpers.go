package templates

import (
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/datasweeper/internal/chart"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

var chartTitles = map[chart.Kind]string{
	chart.Bar:  "Bar chart",
	chart.Line: "Line chart",
	chart.Area: "Area chart",
}

func panelID(fileID string) string {
	return "file-" + fileID
}

// filePath is the route of an operation on one file.
func filePath(fileID, op string) string {
	return "/file/" + fileID + "/" + op
}

func shape(t *table.Table) string {
	return humanize.Comma(int64(t.NumRows())) + " rows, " + strconv.Itoa(t.NumCols()) + " columns"
}

// formatStat renders an optional summary value; nil renders empty.
func formatStat(v *float64) string {
	if v == nil {
		return ""
	}
	return humanize.FtoaWithDigits(*v, 4)
}

// barExtent returns the top and height of the bar for pt. Negative values
// hang below the baseline.
func barExtent(c *chart.Chart, pt chart.Point) (top, height float64) {
	top, height = pt.Y, c.Baseline-pt.Y
	if height < 0 {
		top, height = c.Baseline, -height
	}
	return top, height
}

// areaPoints closes the series polygon along the baseline.
func areaPoints(c *chart.Chart, s chart.Series) string {
	first, last := s.Points[0], s.Points[len(s.Points)-1]
	return points(s.Points) + " " +
		num(last.X) + "," + num(c.Baseline) + " " +
		num(first.X) + "," + num(c.Baseline)
}

type legendEntry struct {
	X     float64
	Name  string
	Color string
}

// legend lays the series names out right to left along the top edge.
func legend(c *chart.Chart) []legendEntry {
	entries := make([]legendEntry, len(c.Series))
	x := c.Width - chart.Padding
	for i := len(c.Series) - 1; i >= 0; i-- {
		s := c.Series[i]
		x -= float64(len(s.Name))*6 + 24
		entries[i] = legendEntry{X: x, Name: s.Name, Color: s.Color}
	}
	return entries
}

func points(pts []chart.Point) string {
	var b strings.Builder
	for i, pt := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(num(pt.X))
		b.WriteByte(',')
		b.WriteString(num(pt.Y))
	}
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
