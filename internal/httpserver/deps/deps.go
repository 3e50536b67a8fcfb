package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/index"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/MrSnakeDoc/sitesaver/internal/tabsignal"
	"github.com/redis/go-redis/v9"
)

// LocalStore is the on-device catalogue.
type LocalStore interface {
	Ready(ctx context.Context) error
	Insert(ctx context.Context, rec domain.Record) (domain.Record, error)
	GetAll(ctx context.Context) ([]domain.Record, error)
	Delete(ctx context.Context, targetURL string) (domain.Record, error)
	Get(ctx context.Context, recordID string) (domain.Record, error)
	FindByName(ctx context.Context, name string) ([]domain.Record, error)
	Count(ctx context.Context) (int, error)
}

// RemoteStore is the owner-scoped cloud catalogue.
type RemoteStore interface {
	Insert(ctx context.Context, w domain.NewWebsite) (domain.Website, error)
	GetAll(ctx context.Context) ([]domain.Website, error)
	GetByID(ctx context.Context, id string) (domain.Website, error)
	Update(ctx context.Context, id string, p domain.Patch) (domain.Website, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string) ([]domain.Website, error)
	GetByCategory(ctx context.Context, c domain.Category) ([]domain.Website, error)
	Ping(ctx context.Context) error
}

// Authenticator is the sign-in glue.
type Authenticator interface {
	Configured() bool
	ConsentURL(state, nonce string) (string, error)
	Complete(ctx context.Context, redirectedTo, wantState, nonce string) (auth.User, error)
	SignInWithIDToken(ctx context.Context, idToken, nonce string) (auth.User, error)
	SignOut(ctx context.Context) error
	CurrentUser() (auth.User, bool)
}

// TabSender publishes "save current tab" requests.
type TabSender interface {
	Send(ctx context.Context, tab tabsignal.Tab) (tabsignal.Ack, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time        // for testing, defaults to time.Now
	NewID          func() (string, error)  // local record ids
	AllowedHosts   []string                // Host headers allowed to access the server
	AllowedOrigins []string                // CORS origins (the extension)
	AllowedCIDRS   []string                // client IPs allowed to call the API
	TrustProxy     bool                    // true if running behind a trusted reverse proxy
	Local          LocalStore              // local catalog store
	Remote         RemoteStore             // nil when the cloud catalogue is disabled
	MemoryIndex    *index.MemoryIndex      // popup view of the local catalogue
	Auth           Authenticator           // nil when sign-in is not configured
	Logins         *auth.Logins            // consent flows in progress
	Tabs           TabSender               // nil when the signal bus is disabled
	Drafts         *tabsignal.Drafts       // creation form pre-filled from a tab
	RedisClient    *redis.Client           // signal bus connection, for status only
	ReloadTrigger  chan struct{}           // nil when no import file is configured
	RequestTimeout time.Duration           // per-request timeout
}

// Now returns the current time from TimeNow, or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
