package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datasweeper/internal/loader"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

func newInspectCmd(app *App) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show a file's encoding, size, preview and column summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			res, size, err := loadPath(path)
			if err != nil {
				return err
			}
			t := res.Table
			w := app.Stdout

			fmt.Fprintln(w, titleStyle.Render(filepath.Base(path)))
			meta := fmt.Sprintf("%s · %s rows · %d columns", humanize.Bytes(uint64(size)), humanize.Comma(int64(t.NumRows())), t.NumCols())
			if res.Encoding != "" {
				meta += " · encoding " + res.Encoding
			}
			fmt.Fprintln(w, mutedStyle.Render(meta))
			if res.Fallback() {
				fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf("Successfully read %s with encoding: %s", filepath.Base(path), res.Encoding)))
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, previewGrid(t.Head(rows)))

			fmt.Fprintln(w)
			fmt.Fprintln(w, statsGrid(t.Stats()))

			numeric := t.NumericColumns()
			if len(numeric) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("No numeric columns to visualize"))
			} else {
				fmt.Fprintln(w, "Numeric columns: "+strings.Join(numeric, ", "))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 5, "number of preview rows")
	return cmd
}

// loadPath reads and parses a CSV or XLSX file from disk.
func loadPath(path string) (*loader.Result, int64, error) {
	if !loader.Supported(path) {
		return nil, 0, fmt.Errorf("%s: %w", path, loader.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	res, err := loader.LoadFile(path, data)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s: %w", path, err)
	}
	return res, int64(len(data)), nil
}

func previewGrid(t *table.Table) string {
	numeric := make(map[int]bool)
	for j, col := range t.Columns() {
		numeric[j] = col.Kind == table.KindNumeric
	}
	records := t.Records()
	return renderGrid(records[0], records[1:], numeric)
}

func statsGrid(stats []table.ColumnStats) string {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		row := []string{s.Name, s.Kind, humanize.Comma(int64(s.Count)), humanize.Comma(int64(s.Missing)), "", "", ""}
		for k, v := range []*float64{s.Min, s.Max, s.Mean} {
			if v != nil {
				row[4+k] = humanize.FtoaWithDigits(*v, 4)
			}
		}
		rows[i] = row
	}
	return renderGrid(
		[]string{"Column", "Type", "Values", "Missing", "Min", "Max", "Mean"},
		rows,
		map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true},
	)
}
