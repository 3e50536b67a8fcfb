package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single value",
			input:    "value1",
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			input:    "value1, value2, value3",
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "quoted values and blanks",
			input:    `"openid", 'email',, `,
			expected: []string{"openid", "email"},
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() length = %v, want %v", len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(envPrefix+tt.key, tt.value)
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(envPrefix+tt.key, tt.value)
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv(envPrefix+"TEST_INT", "42")
	t.Setenv(envPrefix+"TEST_INT_INVALID", "not_a_number")

	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %v, want 42", got)
	}
	if got := getenvInt("TEST_INT_INVALID", 7); got != 7 {
		t.Errorf("getenvInt() invalid = %v, want 7", got)
	}
	if got := getenvInt("TEST_INT_MISSING", 3); got != 3 {
		t.Errorf("getenvInt() missing = %v, want 3", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envPrefix+"DATA_DIR", dir)
	t.Setenv(envPrefix+"REMOTE_DSN", "")
	t.Setenv(envPrefix+"REDIS_ADDR", "")

	cfg := Load()

	if cfg.LocalDBName != "SitesDatabase" {
		t.Errorf("LocalDBName = %v, want SitesDatabase", cfg.LocalDBName)
	}
	if cfg.LocalDBVersion != 2 {
		t.Errorf("LocalDBVersion = %v, want 2", cfg.LocalDBVersion)
	}
	if want := filepath.Join(dir, "sitesdatabase.db"); cfg.LocalDBPath() != want {
		t.Errorf("LocalDBPath() = %v, want %v", cfg.LocalDBPath(), want)
	}
	if cfg.RemoteEnabled() {
		t.Error("RemoteEnabled() should be false without a DSN")
	}
	if cfg.SignalEnabled() {
		t.Error("SignalEnabled() should be false without a redis address")
	}
	if len(cfg.AllowedCIDRS) != 2 {
		t.Errorf("AllowedCIDRS = %v, want loopback defaults", cfg.AllowedCIDRS)
	}
	if len(cfg.AllowedHosts) != 3 {
		t.Errorf("AllowedHosts = %v, want loopback names", cfg.AllowedHosts)
	}
}

func TestLoadTrimsBackendURL(t *testing.T) {
	t.Setenv(envPrefix+"BACKEND_URL", "https://project.example.co/")
	t.Setenv(envPrefix+"OAUTH_CLIENT_ID", "client-id")

	cfg := Load()

	if cfg.BackendURL != "https://project.example.co" {
		t.Errorf("BackendURL = %v, want trailing slash trimmed", cfg.BackendURL)
	}
	if !cfg.AuthEnabled() {
		t.Error("AuthEnabled() should be true with backend and client id")
	}
}
