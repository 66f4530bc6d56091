package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datasweeper/internal/export"
)

var errOverwriteInput = errors.New("output path is the input file")

func newConvertCmd(app *App) *cobra.Command {
	var (
		to          string
		out         string
		recipePath  string
		dedupe      bool
		fillMissing bool
		columns     []string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Clean a file and write it as CSV or Excel",
		Example: `  sweep convert sales.xlsx --to csv --dedupe
  sweep convert raw.csv --to excel --columns region,amount --out clean.xlsx
  sweep convert raw.csv --recipe cleanup.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]

			recipe := &Recipe{}
			if recipePath != "" {
				r, err := LoadRecipe(recipePath)
				if err != nil {
					return err
				}
				recipe = r
			}
			// Flags add to the recipe; explicit columns replace it.
			recipe.DropDuplicates = recipe.DropDuplicates || dedupe
			recipe.FillMissing = recipe.FillMissing || fillMissing
			if cmd.Flags().Changed("columns") {
				recipe.Columns = columns
			}
			if !cmd.Flags().Changed("to") && recipe.Format != "" {
				to = recipe.Format
			}

			format, err := export.ParseFormat(to)
			if err != nil {
				return err
			}

			res, _, err := loadPath(input)
			if err != nil {
				return err
			}
			if res.Fallback() {
				fmt.Fprintln(app.Stderr, noticeStyle.Render(fmt.Sprintf("Successfully read %s with encoding: %s", filepath.Base(input), res.Encoding)))
			}

			t, rep, err := recipe.Apply(res.Table)
			if err != nil {
				return err
			}
			slog.Info("cleaning applied", "file", input, "removed", rep.Removed, "filled", rep.Filled, "columns", t.NumCols())

			file, err := export.Export(t, format, input)
			if err != nil {
				return err
			}

			if out == "" {
				out = filepath.Join(filepath.Dir(input), file.Name)
			}
			same, err := samePath(input, out)
			if err != nil {
				return err
			}
			if same {
				return fmt.Errorf("%w: %s (use --out)", errOverwriteInput, out)
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return err
			}

			if recipe.DropDuplicates {
				fmt.Fprintf(app.Stdout, "Duplicates removed: %d\n", rep.Removed)
			}
			if recipe.FillMissing {
				fmt.Fprintf(app.Stdout, "Missing values filled: %d\n", rep.Filled)
			}
			fmt.Fprintf(app.Stdout, "Wrote %s (%s, %s rows)\n", out, humanize.Bytes(uint64(len(file.Data))), humanize.Comma(int64(t.NumRows())))
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "csv", "output format: csv or excel")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: input name with the new extension)")
	cmd.Flags().StringVar(&recipePath, "recipe", "", "YAML file of cleaning steps")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "remove duplicate rows")
	cmd.Flags().BoolVar(&fillMissing, "fill-missing", false, "fill missing numeric values with the column mean")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to keep, in order")
	return cmd
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
