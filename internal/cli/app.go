// Package cli implements the sweep command line tool: inspect and convert
// CSV and Excel files without starting the web server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// App holds the streams commands write to.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewApp returns an App bound to the process streams.
func NewApp() *App {
	return &App{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Execute runs the CLI with the provided args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.Stderr, errorStyle.Render("error: ")+err.Error())
		return err
	}
	return nil
}
