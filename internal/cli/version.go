package cli

import (
	"github.com/MrSnakeDoc/sitesaver/internal/version"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		pterm.Printf("%s %s (commit=%s, built=%s, go=%s)\n",
			version.Name, version.Version, version.Commit, version.BuildDate, version.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
