package cli

import (
	"os"

	"github.com/MrSnakeDoc/sitesaver/internal/app"
	"github.com/MrSnakeDoc/sitesaver/internal/config"
	"github.com/MrSnakeDoc/sitesaver/internal/version"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           version.Name,
	Short:         "Save websites from the browser popup or the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

// newApp builds the container for one command. Terminal commands only log
// warnings unless --verbose is set; serve keeps the configured level.
func newApp(quiet bool) *app.App {
	cfg := config.Load()
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "warn"
	}
	return app.New(cfg, app.NewLogger(cfg))
}
