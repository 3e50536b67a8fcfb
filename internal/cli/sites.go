package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/id"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// SiteStore is the part of the local catalog store the terminal uses.
type SiteStore interface {
	Insert(ctx context.Context, rec domain.Record) (domain.Record, error)
	GetAll(ctx context.Context) ([]domain.Record, error)
	Delete(ctx context.Context, targetURL string) (domain.Record, error)
	FindByName(ctx context.Context, name string) ([]domain.Record, error)
}

// SitesCmd handles local catalogue operations independent of cobra.
type SitesCmd struct {
	store   SiteStore
	newID   func() (string, error)
	owner   func() string
	now     func() time.Time
	confirm func(msg string) bool
	probe   func(ctx context.Context, records []domain.Record, timeout time.Duration) []domain.Reachability
}

type SitesAddInput struct {
	Name     string
	URL      string
	Category string
	Output   string
}

type SitesListInput struct {
	Query  string
	Output string
}

type SitesFindInput struct {
	Name   string
	Output string
}

type SitesRemoveInput struct {
	URL         string
	SkipConfirm bool
}

type SitesCheckInput struct {
	Query   string
	Timeout time.Duration
}

func (c SitesCmd) Add(ctx context.Context, in SitesAddInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	form, err := domain.Form{
		Name:     in.Name,
		URL:      in.URL,
		Category: toCategory(in.Category),
	}.Validate()
	if err != nil {
		printValidation(err)
		return err
	}

	recordID, err := c.newID()
	if err != nil {
		return fmt.Errorf("failed to generate record id: %w", err)
	}
	owner := ""
	if c.owner != nil {
		owner = c.owner()
	}

	rec, err := c.store.Insert(ctx, form.ToRecord(owner, recordID, c.now()))
	if err != nil {
		printValidation(err)
		return err
	}

	if in.Output == "json" {
		return printJSON(rec)
	}
	pterm.Success.Printf("Saved %s (%s) under %s\n", rec.DisplayName, rec.TargetURL, rec.Category)
	return nil
}

func (c SitesCmd) List(ctx context.Context, in SitesListInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	records, err := c.store.GetAll(ctx)
	if err != nil {
		return err
	}
	records = domain.FilterRecords(in.Query, records)

	if in.Output == "json" {
		return printJSON(records)
	}
	if len(records) == 0 {
		if in.Query != "" {
			pterm.Info.Printf("No saved sites match %q\n", in.Query)
		} else {
			pterm.Info.Println("No saved sites")
		}
		return nil
	}

	data := pterm.TableData{{"Name", "URL", "Category", "Added"}}
	for _, r := range records {
		data = append(data, []string{r.DisplayName, r.TargetURL, string(r.Category), formatTime(r.AddedAt)})
	}
	printTable(data)
	return nil
}

// Find lists the records named exactly name.
func (c SitesCmd) Find(ctx context.Context, in SitesFindInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	records, err := c.store.FindByName(ctx, strings.TrimSpace(in.Name))
	if err != nil {
		return err
	}
	if in.Output == "json" {
		return printJSON(records)
	}
	if len(records) == 0 {
		pterm.Info.Printf("No saved site named %q\n", in.Name)
		return nil
	}

	data := pterm.TableData{{"ID", "Name", "URL", "Category"}}
	for _, r := range records {
		data = append(data, []string{r.RecordID, r.DisplayName, r.TargetURL, string(r.Category)})
	}
	printTable(data)
	return nil
}

func (c SitesCmd) Remove(ctx context.Context, in SitesRemoveInput) error {
	// Stored URLs always carry a scheme
	target := domain.NormalizeURL(in.URL)
	if target == "" {
		return domain.Invalid("URL is required", map[string]string{"url": domain.MsgURLRequired})
	}

	if !in.SkipConfirm {
		if !c.confirm(fmt.Sprintf("Are you sure you want to delete '%s'?", target)) {
			pterm.Info.Println("Deletion cancelled")
			return nil
		}
	}

	rec, err := c.store.Delete(ctx, target)
	if errors.Is(err, domain.ErrNotFound) {
		pterm.Info.Printf("No saved site with URL '%s'\n", target)
		return nil
	}
	if err != nil {
		return err
	}
	pterm.Success.Printf("Deleted %s (%s)\n", rec.DisplayName, rec.TargetURL)
	return nil
}

// Check probes every saved URL and reports the unreachable ones.
func (c SitesCmd) Check(ctx context.Context, in SitesCheckInput) error {
	records, err := c.store.GetAll(ctx)
	if err != nil {
		return err
	}
	records = domain.FilterRecords(in.Query, records)
	if len(records) == 0 {
		pterm.Info.Println("No saved sites to check")
		return nil
	}

	results := c.probe(ctx, records, in.Timeout)

	data := pterm.TableData{{"Name", "URL", "Status"}}
	down := 0
	for _, res := range results {
		status := "ok"
		if !res.OK() {
			status = "unreachable: " + res.Err.Error()
			down++
		}
		data = append(data, []string{res.Record.DisplayName, res.Record.TargetURL, status})
	}
	printTable(data)

	if down > 0 {
		pterm.Warning.Printf("%d of %d sites unreachable\n", down, len(results))
	} else {
		pterm.Success.Printf("All %d sites reachable\n", len(results))
	}
	return nil
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage the local catalogue",
}

var sitesAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Save a website",
	Args:  cobra.ExactArgs(2),
	RunE:  runSitesAdd,
}

var sitesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved websites",
	Args:    cobra.NoArgs,
	RunE:    runSitesList,
}

var sitesFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Show the websites saved under this exact name",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesFind,
}

var sitesRemoveCmd = &cobra.Command{
	Use:     "rm <url>",
	Aliases: []string{"delete"},
	Short:   "Delete the saved website with this exact URL",
	Args:    cobra.ExactArgs(1),
	RunE:    runSitesRemove,
}

var sitesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe every saved URL",
	Args:  cobra.NoArgs,
	RunE:  runSitesCheck,
}

func init() {
	sitesAddCmd.Flags().StringP("category", "c", string(domain.DefaultCategory), "Category ("+strings.Join(domain.CategoryStrings(domain.Categories), ", ")+")")
	sitesAddCmd.Flags().StringP("output", "o", "", "Output format (json)")
	sitesListCmd.Flags().StringP("query", "q", "", "Filter on name, URL or category")
	sitesListCmd.Flags().StringP("output", "o", "", "Output format (json)")
	sitesFindCmd.Flags().StringP("output", "o", "", "Output format (json)")
	sitesRemoveCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")
	sitesCheckCmd.Flags().StringP("query", "q", "", "Only check matching sites")
	sitesCheckCmd.Flags().Duration("timeout", 5*time.Second, "Timeout per site")

	sitesCmd.AddCommand(sitesAddCmd, sitesListCmd, sitesFindCmd, sitesRemoveCmd, sitesCheckCmd)
	rootCmd.AddCommand(sitesCmd)
}

// withSites builds a SitesCmd over the local store and closes it afterwards.
func withSites(cmd *cobra.Command, fn func(ctx context.Context, c SitesCmd) error) error {
	a := newApp(true)
	defer a.Close()

	ctx := cmd.Context()
	svc := a.Auth()
	a.RestoreSession(ctx)

	c := SitesCmd{
		store: a.Local(),
		newID: id.NewSiteID,
		owner: func() string {
			u, _ := svc.CurrentUser()
			return u.ID
		},
		now:     time.Now,
		confirm: confirm,
		probe:   domain.CheckRecords,
	}
	return fn(ctx, c)
}

func runSitesAdd(cmd *cobra.Command, args []string) error {
	category, _ := cmd.Flags().GetString("category")
	output, _ := cmd.Flags().GetString("output")
	return withSites(cmd, func(ctx context.Context, c SitesCmd) error {
		return c.Add(ctx, SitesAddInput{Name: args[0], URL: args[1], Category: category, Output: output})
	})
}

func runSitesList(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	output, _ := cmd.Flags().GetString("output")
	return withSites(cmd, func(ctx context.Context, c SitesCmd) error {
		return c.List(ctx, SitesListInput{Query: query, Output: output})
	})
}

func runSitesFind(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	return withSites(cmd, func(ctx context.Context, c SitesCmd) error {
		return c.Find(ctx, SitesFindInput{Name: args[0], Output: output})
	})
}

func runSitesRemove(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	return withSites(cmd, func(ctx context.Context, c SitesCmd) error {
		return c.Remove(ctx, SitesRemoveInput{URL: args[0], SkipConfirm: yes})
	})
}

func runSitesCheck(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return withSites(cmd, func(ctx context.Context, c SitesCmd) error {
		return c.Check(ctx, SitesCheckInput{Query: query, Timeout: timeout})
	})
}
