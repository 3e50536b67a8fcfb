package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SITESAVER_"

type Config struct {
	ListenAddr      string        // ex: "127.0.0.1:7878"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional rotating JSON log file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Local catalog store
	DataDir            string        // directory holding the local database file
	LocalDBName        string        // keyed container name (ex: "SitesDatabase")
	LocalDBVersion     int           // schema version; a change recreates the container
	LocalDBOpenTimeout time.Duration // file lock timeout

	// Import
	ImportFile     string        // path to a Homepage bookmarks.yaml (optional, empty = disabled)
	ImportInterval time.Duration // interval to re-import the file (default: 24h)

	// Remote catalog store
	RemoteDSN string // Postgres DSN (optional, empty = cloud catalogue disabled)

	// Auth
	BackendURL       string   // hosted auth backend base URL
	BackendAnonKey   string   // public API key sent with every auth request
	OAuthClientID    string   // OAuth client id of the identity provider
	OAuthRedirectURL string   // redirect URI registered with the identity provider
	OAuthScopes      []string // ex: openid, email, profile
	KeyringService   string   // OS keyring service name for the persisted session

	// Redis (tab signal bus)
	RedisAddr           string        // ex: "localhost:6379" (optional, empty = disabled)
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
	TabAckTimeout       time.Duration // how long a sender waits for the popup to acknowledge

	// Access restrictions
	AllowedOrigins []string // CORS origins allowed to call the API (the extension)
	AllowedHosts   []string // Host headers accepted by the API
	AllowedCIDRS   []string // restrict access to specific IPs/CIDRs
	TrustProxy     bool     // true => trust X-Forwarded-For headers
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first; variables already set win.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		// Server settings
		ListenAddr:      getenv("LISTEN_ADDR", "127.0.0.1:7878"),
		ShutdownTimeout: mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:      getenv("LOG_LEVEL", "info"),
		PrettyLog:     mustBool("PRETTY_LOG", true),
		LogFile:       getenv("LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getenvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getenvInt("LOG_MAX_AGE_DAYS", 28),

		// Local store
		DataDir:            getenv("DATA_DIR", defaultDataDir()),
		LocalDBName:        getenv("LOCAL_DB_NAME", "SitesDatabase"),
		LocalDBVersion:     getenvInt("LOCAL_DB_VERSION", 2),
		LocalDBOpenTimeout: mustDuration("LOCAL_DB_OPEN_TIMEOUT", time.Second),

		// Import
		ImportFile:     getenv("IMPORT_FILE", ""),
		ImportInterval: mustDuration("IMPORT_INTERVAL", 24*time.Hour),

		// Remote store
		RemoteDSN: getenv("REMOTE_DSN", ""),

		// Auth
		BackendURL:       strings.TrimRight(getenv("BACKEND_URL", ""), "/"),
		BackendAnonKey:   getenv("BACKEND_ANON_KEY", ""),
		OAuthClientID:    getenv("OAUTH_CLIENT_ID", ""),
		OAuthRedirectURL: getenv("OAUTH_REDIRECT_URL", ""),
		OAuthScopes:      splitAndTrim(getenv("OAUTH_SCOPES", "openid,email,profile")),
		KeyringService:   getenv("KEYRING_SERVICE", "sitesaver"),

		// Redis settings
		RedisAddr:           getenv("REDIS_ADDR", ""),
		RedisUser:           getenv("REDIS_USERNAME", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
		TabAckTimeout:       mustDuration("TAB_ACK_TIMEOUT", 2*time.Second),

		// Access restrictions
		AllowedOrigins: splitAndTrim(getenv("ALLOWED_ORIGINS", "chrome-extension://*")),
		AllowedHosts:   splitAndTrim(getenv("ALLOWED_HOSTS", "localhost,127.0.0.1,::1")),
		AllowedCIDRS:   parseAllowedIPs(getenv("ALLOWED_CIDRS", "127.0.0.1/32,::1/128")),
		TrustProxy:     mustBool("TRUST_PROXY", false),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = redact(cfg.RedisPassword)
		cfgCopy.RemoteDSN = redact(cfg.RemoteDSN)
		cfgCopy.BackendAnonKey = redact(cfg.BackendAnonKey)
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// LocalDBPath is the bbolt file backing the local catalog store.
func (c *Config) LocalDBPath() string {
	return filepath.Join(c.DataDir, strings.ToLower(c.LocalDBName)+".db")
}

// RemoteEnabled reports whether the cloud catalogue is configured.
func (c *Config) RemoteEnabled() bool { return c.RemoteDSN != "" }

// AuthEnabled reports whether sign-in can be attempted.
func (c *Config) AuthEnabled() bool { return c.BackendURL != "" && c.OAuthClientID != "" }

// SignalEnabled reports whether the Redis tab signal bus is configured.
func (c *Config) SignalEnabled() bool { return c.RedisAddr != "" }

// helpers
func redact(v string) string {
	if v == "" {
		return ""
	}
	return "***REDACTED***"
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitesaver")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "sitesaver")
	}
	return "."
}

func getenv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
