package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/datasweeper/internal/table"
)

// Recipe is a saved set of cleaning steps:
//
//	drop_duplicates: true
//	fill_missing: true
//	columns: [region, amount]
//	format: excel
type Recipe struct {
	DropDuplicates bool     `yaml:"drop_duplicates"`
	FillMissing    bool     `yaml:"fill_missing"`
	Columns        []string `yaml:"columns,omitempty"`
	Format         string   `yaml:"format,omitempty"`
}

// LoadRecipe reads a YAML recipe. Unknown keys are rejected.
func LoadRecipe(path string) (*Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r Recipe
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	// An empty or comment-only file is a recipe with no steps.
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse recipe %s: %w", path, err)
	}
	return &r, nil
}

// StepReport counts what each cleaning step changed.
type StepReport struct {
	Removed int
	Filled  int
}

// Apply runs the recipe's steps in order: duplicates, missing values, then
// column selection.
func (r *Recipe) Apply(t *table.Table) (*table.Table, StepReport, error) {
	var rep StepReport
	if r.DropDuplicates {
		t, rep.Removed = t.DropDuplicates()
	}
	if r.FillMissing {
		t, rep.Filled = t.FillMissing()
	}
	if len(r.Columns) > 0 {
		var err error
		t, err = t.Select(r.Columns...)
		if err != nil {
			return nil, rep, err
		}
	}
	return t, rep, nil
}
