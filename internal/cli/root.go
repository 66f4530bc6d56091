package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/datasweeper/internal/logging"
)

func newRootCmd(app *App) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "sweep",
		Short: "Inspect, clean and convert CSV and Excel files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Errors are printed once by App.Execute.
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			slog.SetDefault(logging.New(app.Stderr, logLevel, "text"))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newInspectCmd(app))
	root.AddCommand(newConvertCmd(app))
	return root
}
