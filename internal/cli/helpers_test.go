package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/MrSnakeDoc/sitesaver/internal/store/local"
	"github.com/pterm/pterm"
)

// captureOutput sends pterm and JSON output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	pterm.SetDefaultOutput(&buf)
	pterm.DisableStyling()
	oldStdout := stdout
	stdout = &buf
	t.Cleanup(func() {
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
		stdout = oldStdout
	})
	return &buf
}

func newLocalStore(t *testing.T) *local.Store {
	t.Helper()
	store := local.Open(local.Options{Path: filepath.Join(t.TempDir(), "sites.db")}, logger.Nop())
	t.Cleanup(func() { _ = store.Close() })
	return store
}
