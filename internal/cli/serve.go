package cli

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the companion service the popup talks to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return newApp(false).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
