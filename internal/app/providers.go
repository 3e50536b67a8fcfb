package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/config"
	"github.com/MrSnakeDoc/sitesaver/internal/index"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	redisconn "github.com/MrSnakeDoc/sitesaver/internal/redis"
	"github.com/MrSnakeDoc/sitesaver/internal/store/local"
	"github.com/MrSnakeDoc/sitesaver/internal/store/remote"
	"github.com/MrSnakeDoc/sitesaver/internal/tabsignal"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

var (
	// ErrRemoteDisabled is returned when SITESAVER_REMOTE_DSN is empty.
	ErrRemoteDisabled = errors.New("cloud catalogue disabled: SITESAVER_REMOTE_DSN is not set")
	// ErrSignalDisabled is returned when SITESAVER_REDIS_ADDR is empty.
	ErrSignalDisabled = errors.New("tab signal disabled: SITESAVER_REDIS_ADDR is not set")
)

// NewContainer registers every provider. Nothing is built until invoked.
func NewContainer(cfg *config.Config, log logger.Logger) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)

	// Catalog stores
	do.Provide(injector, ProvideLocalStore)
	do.Provide(injector, ProvideIndex)
	do.Provide(injector, ProvideRemote)

	// Auth layer
	do.Provide(injector, ProvideAuthContext)
	do.Provide(injector, ProvideAuthService)
	do.Provide(injector, ProvideLogins)

	// Tab signal
	do.Provide(injector, ProvideRedis)
	do.Provide(injector, ProvidePublisher)
	do.Provide(injector, ProvideDrafts)

	return injector
}

// ProvideLocalStore provides the bbolt-backed local catalog store. The file is
// opened lazily by the first operation; the injector closes it on shutdown.
func ProvideLocalStore(i do.Injector) (*local.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logger.Logger](i)

	return local.Open(local.Options{
		Path:        cfg.LocalDBPath(),
		Name:        cfg.LocalDBName,
		Version:     cfg.LocalDBVersion,
		OpenTimeout: cfg.LocalDBOpenTimeout,
	}, log.With(logger.String("component", "local"))), nil
}

// ProvideIndex provides the popup's in-memory view of the local catalogue.
func ProvideIndex(_ do.Injector) (*index.MemoryIndex, error) {
	return index.NewMemoryIndex(), nil
}

// ProvideAuthContext provides the process-wide auth context.
func ProvideAuthContext(_ do.Injector) (*auth.Context, error) {
	return auth.NewContext(), nil
}

// ProvideAuthService provides the sign-in glue. It does not restore the
// persisted session; callers do that once they need a user.
func ProvideAuthService(i do.Injector) (*auth.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logger.Logger](i)
	authCtx := do.MustInvoke[*auth.Context](i)

	return auth.NewService(auth.Options{
		BackendURL:     cfg.BackendURL,
		AnonKey:        cfg.BackendAnonKey,
		ClientID:       cfg.OAuthClientID,
		RedirectURL:    cfg.OAuthRedirectURL,
		Scopes:         cfg.OAuthScopes,
		KeyringService: cfg.KeyringService,
	}, authCtx, nil, log.With(logger.String("component", "auth"))), nil
}

// ProvideLogins provides the table of consent flows in progress.
func ProvideLogins(_ do.Injector) (*auth.Logins, error) {
	return auth.NewLogins(auth.DefaultLoginTTL), nil
}

// RemoteHandle wraps the Postgres pool and the store reading through it.
type RemoteHandle struct {
	Pool  *pgxpool.Pool
	Store *remote.Store
}

// Shutdown closes the pool.
func (h *RemoteHandle) Shutdown() error {
	if h.Pool != nil {
		h.Pool.Close()
	}
	return nil
}

// ProvideRemote connects to Postgres, applies the schema and scopes the store
// to the signed-in user.
func ProvideRemote(i do.Injector) (*RemoteHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logger.Logger](i)
	svc := do.MustInvoke[*auth.Service](i)

	if !cfg.RemoteEnabled() {
		return nil, ErrRemoteDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.RemoteDSN)
	if err != nil {
		return nil, fmt.Errorf("remote pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("remote ping: %w", err)
	}

	store := remote.New(pool, svc, log.With(logger.String("component", "remote")))
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("remote catalogue connected")
	return &RemoteHandle{Pool: pool, Store: store}, nil
}

// RedisHandle wraps the signal bus client.
type RedisHandle struct {
	Client *redis.Client
}

// Shutdown closes the client.
func (h *RedisHandle) Shutdown() error {
	if h.Client == nil {
		return nil
	}
	return h.Client.Close()
}

// ProvideRedis connects to the tab signal bus, retrying with backoff.
func ProvideRedis(i do.Injector) (*RedisHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logger.Logger](i)

	if !cfg.SignalEnabled() {
		return nil, ErrSignalDisabled
	}

	client, err := redisconn.Connect(context.Background(), redisconn.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	return &RedisHandle{Client: client}, nil
}

// ProvidePublisher provides the "save current tab" sender.
func ProvidePublisher(i do.Injector) (*tabsignal.Publisher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[logger.Logger](i)

	handle, err := do.Invoke[*RedisHandle](i)
	if err != nil {
		return nil, err
	}
	return tabsignal.NewPublisher(handle.Client, cfg.TabAckTimeout, log), nil
}

// ProvideDrafts provides the pending creation form filled from a tab.
func ProvideDrafts(_ do.Injector) (*tabsignal.Drafts, error) {
	return tabsignal.NewDrafts(), nil
}
