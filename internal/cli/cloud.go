package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// CloudService is the owner-scoped cloud catalogue.
type CloudService interface {
	Insert(ctx context.Context, w domain.NewWebsite) (domain.Website, error)
	GetAll(ctx context.Context) ([]domain.Website, error)
	GetByID(ctx context.Context, id string) (domain.Website, error)
	Update(ctx context.Context, id string, p domain.Patch) (domain.Website, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string) ([]domain.Website, error)
	GetByCategory(ctx context.Context, c domain.Category) ([]domain.Website, error)
}

// CloudCmd handles cloud catalogue operations independent of cobra.
type CloudCmd struct {
	svc     CloudService
	confirm func(msg string) bool
}

type CloudAddInput struct {
	Name       string
	URL        string
	Categories []string
	Status     string
	Output     string
}

type CloudListInput struct {
	Query    string
	Category string
	Output   string
}

type CloudGetInput struct {
	ID     string
	Output string
}

// CloudUpdateInput carries only the fields to change; nil means unchanged.
type CloudUpdateInput struct {
	ID         string
	Name       *string
	URL        *string
	Categories []string
	Status     *string
	Output     string
}

type CloudRemoveInput struct {
	ID          string
	SkipConfirm bool
}

// toCategory accepts any casing; unknown names are kept so validation can
// report them.
func toCategory(s string) domain.Category {
	if c, ok := domain.ParseCategory(s); ok {
		return c
	}
	return domain.Category(strings.TrimSpace(s))
}

func toCategories(ss []string) []domain.Category {
	out := make([]domain.Category, 0, len(ss))
	for _, s := range ss {
		out = append(out, toCategory(s))
	}
	return out
}

func (c CloudCmd) Add(ctx context.Context, in CloudAddInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	site, err := c.svc.Insert(ctx, domain.NewWebsite{
		Name:       in.Name,
		URL:        in.URL,
		Categories: toCategories(in.Categories),
		Status:     domain.Status(in.Status),
	})
	if err != nil {
		printValidation(err)
		return err
	}

	if in.Output == "json" {
		return printJSON(site)
	}
	pterm.Success.Printf("Saved %s to the cloud (id %s)\n", site.Name, site.ID)
	return nil
}

func (c CloudCmd) List(ctx context.Context, in CloudListInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	var (
		sites []domain.Website
		err   error
	)
	switch {
	case strings.TrimSpace(in.Query) != "":
		sites, err = c.svc.Search(ctx, strings.TrimSpace(in.Query))
	case in.Category != "":
		cat, ok := domain.ParseCategory(in.Category)
		if !ok {
			return domain.Invalid("unknown category", map[string]string{"category": domain.MsgCategoryRequired})
		}
		sites, err = c.svc.GetByCategory(ctx, cat)
	default:
		sites, err = c.svc.GetAll(ctx)
	}
	if err != nil {
		return err
	}

	if in.Output == "json" {
		return printJSON(sites)
	}
	if len(sites) == 0 {
		pterm.Info.Println("No cloud sites found")
		return nil
	}

	data := pterm.TableData{{"ID", "Name", "URL", "Categories", "Status", "Created"}}
	for _, s := range sites {
		data = append(data, []string{s.ID, s.Name, s.URL, joinCategories(s.Categories), string(s.Status), formatTime(s.CreatedAt)})
	}
	printTable(data)
	return nil
}

func (c CloudCmd) Get(ctx context.Context, in CloudGetInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	site, err := c.svc.GetByID(ctx, in.ID)
	if err != nil {
		return err
	}
	if in.Output == "json" {
		return printJSON(site)
	}
	printWebsite(site)
	return nil
}

func (c CloudCmd) Update(ctx context.Context, in CloudUpdateInput) error {
	if err := validateOutput(in.Output); err != nil {
		return err
	}

	var p domain.Patch
	p.Name = in.Name
	p.URL = in.URL
	if in.Categories != nil {
		cats := toCategories(in.Categories)
		p.Categories = &cats
	}
	if in.Status != nil {
		st := domain.Status(*in.Status)
		p.Status = &st
	}
	if p.Empty() {
		return domain.Invalid("nothing to update", map[string]string{"patch": "set at least one field"})
	}

	site, err := c.svc.Update(ctx, in.ID, p)
	if err != nil {
		printValidation(err)
		return err
	}
	if in.Output == "json" {
		return printJSON(site)
	}
	pterm.Success.Printf("Updated %s\n", site.ID)
	printWebsite(site)
	return nil
}

func (c CloudCmd) Remove(ctx context.Context, in CloudRemoveInput) error {
	if !in.SkipConfirm {
		if !c.confirm(fmt.Sprintf("Are you sure you want to delete cloud site '%s'?", in.ID)) {
			pterm.Info.Println("Deletion cancelled")
			return nil
		}
	}

	if err := c.svc.Delete(ctx, in.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			pterm.Info.Printf("Cloud site '%s' not found\n", in.ID)
			return nil
		}
		return err
	}
	pterm.Success.Printf("Deleted cloud site: %s\n", in.ID)
	return nil
}

func printWebsite(s domain.Website) {
	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"ID", s.ID})
	rows = append(rows, []string{"Name", s.Name})
	rows = append(rows, []string{"URL", s.URL})
	rows = append(rows, []string{"Categories", joinCategories(s.Categories)})
	rows = append(rows, []string{"Status", string(s.Status)})
	rows = append(rows, []string{"Created", formatTime(s.CreatedAt)})
	rows = append(rows, []string{"Updated", formatTime(s.UpdatedAt)})
	printTable(rows)
}

var cloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Manage the cloud catalogue of the signed-in user",
}

var cloudAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Save a website to the cloud",
	Args:  cobra.ExactArgs(2),
	RunE:  runCloudAdd,
}

var cloudListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List, search or filter cloud websites",
	Args:    cobra.NoArgs,
	RunE:    runCloudList,
}

var cloudGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a cloud website",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloudGet,
}

var cloudUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a cloud website",
	Args:  cobra.ExactArgs(1),
	RunE:  runCloudUpdate,
}

var cloudRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a cloud website",
	Args:    cobra.ExactArgs(1),
	RunE:    runCloudRemove,
}

func init() {
	cloudAddCmd.Flags().StringSliceP("category", "c", []string{string(domain.DefaultCategory)}, "Categories (repeatable)")
	cloudAddCmd.Flags().String("status", string(domain.StatusActive), "Status (active, archived)")
	cloudAddCmd.Flags().StringP("output", "o", "", "Output format (json)")

	cloudListCmd.Flags().StringP("query", "q", "", "Search name and URL")
	cloudListCmd.Flags().StringP("category", "c", "", "Only websites in this category")
	cloudListCmd.Flags().StringP("output", "o", "", "Output format (json)")

	cloudGetCmd.Flags().StringP("output", "o", "", "Output format (json)")

	cloudUpdateCmd.Flags().String("name", "", "New name")
	cloudUpdateCmd.Flags().String("url", "", "New URL")
	cloudUpdateCmd.Flags().StringSliceP("category", "c", nil, "Replace the categories")
	cloudUpdateCmd.Flags().String("status", "", "New status (active, archived)")
	cloudUpdateCmd.Flags().StringP("output", "o", "", "Output format (json)")

	cloudRemoveCmd.Flags().BoolP("yes", "y", false, "Skip confirmation")

	cloudCmd.AddCommand(cloudAddCmd, cloudListCmd, cloudGetCmd, cloudUpdateCmd, cloudRemoveCmd)
	rootCmd.AddCommand(cloudCmd)
}

// withCloud restores the session and connects the remote store.
func withCloud(cmd *cobra.Command, fn func(ctx context.Context, c CloudCmd) error) error {
	a := newApp(true)
	defer a.Close()

	ctx := cmd.Context()
	if _, ok := a.RestoreSession(ctx); !ok {
		return domain.AuthRequired("cloud")
	}
	store, err := a.Remote()
	if err != nil {
		return err
	}
	return fn(ctx, CloudCmd{svc: store, confirm: confirm})
}

func runCloudAdd(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("category")
	status, _ := cmd.Flags().GetString("status")
	output, _ := cmd.Flags().GetString("output")
	return withCloud(cmd, func(ctx context.Context, c CloudCmd) error {
		return c.Add(ctx, CloudAddInput{Name: args[0], URL: args[1], Categories: categories, Status: status, Output: output})
	})
}

func runCloudList(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")
	category, _ := cmd.Flags().GetString("category")
	output, _ := cmd.Flags().GetString("output")
	return withCloud(cmd, func(ctx context.Context, c CloudCmd) error {
		return c.List(ctx, CloudListInput{Query: query, Category: category, Output: output})
	})
}

func runCloudGet(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	return withCloud(cmd, func(ctx context.Context, c CloudCmd) error {
		return c.Get(ctx, CloudGetInput{ID: args[0], Output: output})
	})
}

func runCloudUpdate(cmd *cobra.Command, args []string) error {
	in := CloudUpdateInput{ID: args[0]}
	in.Output, _ = cmd.Flags().GetString("output")
	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		in.Name = &v
	}
	if cmd.Flags().Changed("url") {
		v, _ := cmd.Flags().GetString("url")
		in.URL = &v
	}
	if cmd.Flags().Changed("category") {
		in.Categories, _ = cmd.Flags().GetStringSlice("category")
		if in.Categories == nil {
			in.Categories = []string{}
		}
	}
	if cmd.Flags().Changed("status") {
		v, _ := cmd.Flags().GetString("status")
		in.Status = &v
	}
	return withCloud(cmd, func(ctx context.Context, c CloudCmd) error {
		return c.Update(ctx, in)
	})
}

func runCloudRemove(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	return withCloud(cmd, func(ctx context.Context, c CloudCmd) error {
		return c.Remove(ctx, CloudRemoveInput{ID: args[0], SkipConfirm: yes})
	})
}
