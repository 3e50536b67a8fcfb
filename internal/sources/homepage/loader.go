package homepage

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind selects the Homepage file format
type Kind string

const (
	KindBookmarks Kind = "bookmarks"
	KindServices  Kind = "services"
)

//go:embed sample_bookmarks.yaml
var sampleBookmarks []byte

// templateVar matches Homepage template variables ({{HOMEPAGE_VAR_...}})
var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads a Homepage bookmarks.yaml or services.yaml
type Loader struct {
	filePath string
}

// NewLoader creates a new Homepage loader
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// DetectKind guesses the format from the file name; anything that is not
// services*.yaml is read as bookmarks.
func DetectKind(path string) Kind {
	base := strings.ToLower(path)
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if strings.HasPrefix(base, "services") {
		return KindServices
	}
	return KindBookmarks
}

// LoadBookmarks reads and parses a bookmarks.yaml file
func (l *Loader) LoadBookmarks() (BookmarksConfig, error) {
	data, err := l.read()
	if err != nil {
		return nil, err
	}
	return ParseBookmarks(data)
}

// LoadServices reads and parses a services.yaml file
func (l *Loader) LoadServices() (ServicesConfig, error) {
	data, err := l.read()
	if err != nil {
		return nil, err
	}

	var config ServicesConfig
	if err := yaml.Unmarshal(stripTemplateVariables(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse services yaml: %w", err)
	}
	return config, nil
}

func (l *Loader) read() ([]byte, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read homepage file: %w", err)
	}
	return data, nil
}

// ParseBookmarks parses bookmarks.yaml content
func ParseBookmarks(data []byte) (BookmarksConfig, error) {
	var config BookmarksConfig
	if err := yaml.Unmarshal(stripTemplateVariables(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return config, nil
}

// SampleBookmarks returns the starter catalogue shipped with the binary
func SampleBookmarks() (BookmarksConfig, error) {
	return ParseBookmarks(sampleBookmarks)
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
