package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/tabsignal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// TabSender publishes "save current tab" requests.
type TabSender interface {
	Send(ctx context.Context, tab tabsignal.Tab) (tabsignal.Ack, error)
}

// TabCmd sends a tab to the popup independent of cobra.
type TabCmd struct {
	sender TabSender
}

type TabSaveInput struct {
	URL   string
	Title string
	ID    int
}

// Save hands the tab to the popup. Without a listener the request is not an
// error: the popup shows a badge the next time the user looks.
func (c TabCmd) Save(ctx context.Context, in TabSaveInput) error {
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return domain.Invalid("URL is required", map[string]string{"url": domain.MsgURLRequired})
	}

	ack, err := c.sender.Send(ctx, tabsignal.Tab{ID: in.ID, URL: url, Title: strings.TrimSpace(in.Title), Active: true})
	switch {
	case errors.Is(err, tabsignal.ErrNoListener):
		pterm.Warning.Println("No popup is listening (!). Open it to finish saving.")
		return nil
	case errors.Is(err, tabsignal.ErrAckTimeout):
		pterm.Warning.Println("The popup did not acknowledge the request (!)")
		return nil
	case err != nil:
		return err
	}
	pterm.Success.Printf("Sent to the popup at %s\n", formatTime(ack.At))
	return nil
}

var tabCmd = &cobra.Command{
	Use:   "tab",
	Short: "Talk to a running popup",
}

var tabSaveCmd = &cobra.Command{
	Use:   "save <url>",
	Short: "Open the popup's creation form pre-filled with this page",
	Args:  cobra.ExactArgs(1),
	RunE:  runTabSave,
}

func init() {
	tabSaveCmd.Flags().StringP("title", "t", "", "Page title used as the website name")
	tabSaveCmd.Flags().Int("id", 0, "Browser tab id")

	tabCmd.AddCommand(tabSaveCmd)
	rootCmd.AddCommand(tabCmd)
}

func runTabSave(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	tabID, _ := cmd.Flags().GetInt("id")

	a := newApp(true)
	defer a.Close()

	publisher, err := a.Publisher()
	if err != nil {
		return err
	}
	return TabCmd{sender: publisher}.Save(cmd.Context(), TabSaveInput{URL: args[0], Title: title, ID: tabID})
}
