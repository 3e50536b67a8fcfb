package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/pterm/pterm"
)

// stdout receives JSON output.
var stdout io.Writer = os.Stdout

func validateOutput(output string) error {
	if output != "" && output != "json" {
		return fmt.Errorf("unsupported --output value: use 'json'")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(data pterm.TableData) {
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func joinCategories(cs []domain.Category) string {
	return strings.Join(domain.CategoryStrings(cs), ", ")
}

// printValidation lists the offending fields of an invalid error.
func printValidation(err error) {
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindInvalid || len(de.Details) == 0 {
		return
	}
	fields := make([]string, 0, len(de.Details))
	for field := range de.Details {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		pterm.Warning.Printf("%s: %s\n", field, de.Details[field])
	}
}

// confirm asks a yes/no question on the terminal.
func confirm(msg string) bool {
	pterm.DefaultInteractiveConfirm.DefaultText = msg
	ok, _ := pterm.DefaultInteractiveConfirm.Show()
	return ok
}
