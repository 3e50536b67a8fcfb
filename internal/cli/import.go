package cli

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/MrSnakeDoc/sitesaver/internal/scheduler"
	"github.com/MrSnakeDoc/sitesaver/internal/sources/homepage"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// ImportCmd writes Homepage bookmarks into the local store.
type ImportCmd struct {
	store scheduler.RecordStore
	owner func() string
	log   logger.Logger
}

type ImportInput struct {
	File   string
	Sample bool
}

func (c ImportCmd) Run(ctx context.Context, in ImportInput) error {
	var (
		written int
		err     error
	)
	switch {
	case in.Sample:
		written, err = c.importSample(ctx)
	case in.File != "":
		r := scheduler.NewImportReloader(in.File, c.store, nil, c.owner, c.log, 0, nil)
		written, err = r.Reload(ctx)
	default:
		return errors.New("give a bookmarks.yaml/services.yaml file or --sample")
	}
	if err != nil {
		return err
	}

	pterm.Success.Printf("Imported %d sites\n", written)
	return nil
}

func (c ImportCmd) importSample(ctx context.Context) (int, error) {
	cfg, err := homepage.SampleBookmarks()
	if err != nil {
		return 0, err
	}
	owner := ""
	if c.owner != nil {
		owner = c.owner()
	}
	records, err := homepage.NewMapper().MapBookmarks(cfg, owner)
	if err != nil {
		return 0, err
	}
	return scheduler.Apply(ctx, c.store, records, c.log)
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a Homepage bookmarks.yaml or services.yaml",
	Long: "Import a Homepage bookmarks.yaml or services.yaml into the local catalogue.\n" +
		"Groups become categories (unknown groups land in " + string(domain.CategoryOther) + ").\n" +
		"Imports are additive: importing the same URL again overwrites it.",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("sample", false, "Import the starter catalogue shipped with the binary")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	sample, _ := cmd.Flags().GetBool("sample")
	in := ImportInput{Sample: sample}
	if len(args) == 1 {
		in.File = args[0]
	}

	a := newApp(true)
	defer a.Close()

	ctx := cmd.Context()
	svc := a.Auth()
	a.RestoreSession(ctx)

	return ImportCmd{
		store: a.Local(),
		owner: func() string {
			u, _ := svc.CurrentUser()
			return u.ID
		},
		log: a.Logger(),
	}.Run(ctx, in)
}
