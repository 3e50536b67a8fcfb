package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/config"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/id"
	"github.com/MrSnakeDoc/sitesaver/internal/index"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/MrSnakeDoc/sitesaver/internal/scheduler"
	"github.com/MrSnakeDoc/sitesaver/internal/store/local"
	"github.com/MrSnakeDoc/sitesaver/internal/store/remote"
	"github.com/MrSnakeDoc/sitesaver/internal/tabsignal"
	"github.com/MrSnakeDoc/sitesaver/internal/version"
	"github.com/samber/do/v2"
)

const (
	// connectTimeout bounds the startup connection to Postgres
	connectTimeout = 10 * time.Second
	// sessionCheckInterval is how often serve checks the access token expiry
	sessionCheckInterval = 30 * time.Second
)

// App owns the container and the background workers of one process.
type App struct {
	cfg      *config.Config
	logger   logger.Logger
	injector *do.RootScope
}

// New wires the container. cfg and log come from the caller so the CLI can
// adjust them from flags.
func New(cfg *config.Config, log logger.Logger) *App {
	return &App{
		cfg:      cfg,
		logger:   log,
		injector: NewContainer(cfg, log),
	}
}

// NewLogger builds the process logger from the configuration.
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.NewWithFile(cfg.LogLevel, cfg.PrettyLog, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) Logger() logger.Logger  { return a.logger }

// Local returns the local catalog store.
func (a *App) Local() *local.Store {
	return do.MustInvoke[*local.Store](a.injector)
}

// Auth returns the sign-in service.
func (a *App) Auth() *auth.Service {
	return do.MustInvoke[*auth.Service](a.injector)
}

// Logins returns the pending consent flows.
func (a *App) Logins() *auth.Logins {
	return do.MustInvoke[*auth.Logins](a.injector)
}

// RestoreSession loads the persisted session into the auth context. A missing
// session is not an error.
func (a *App) RestoreSession(ctx context.Context) (auth.User, bool) {
	svc := a.Auth()
	if !a.cfg.AuthEnabled() {
		return auth.User{}, false
	}
	u, ok, err := svc.Restore(ctx)
	if err != nil {
		a.logger.Warn("failed to restore session", logger.Error(err))
		return auth.User{}, false
	}
	return u, ok
}

// Remote returns the cloud catalogue, connecting on first use.
func (a *App) Remote() (*remote.Store, error) {
	h, err := do.Invoke[*RemoteHandle](a.injector)
	if err != nil {
		return nil, err
	}
	return h.Store, nil
}

// Publisher returns the tab signal sender, connecting on first use.
func (a *App) Publisher() (*tabsignal.Publisher, error) {
	return do.Invoke[*tabsignal.Publisher](a.injector)
}

// Close shuts every built service down in reverse order.
func (a *App) Close() {
	report := a.injector.Shutdown()
	a.logger.Debug("container shut down", logger.String("report", fmt.Sprint(report)))
	_ = a.logger.Sync()
}

// Run serves the API until SIGINT/SIGTERM or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting %s v%s on %s", version.Name, version.Version, a.cfg.ListenAddr)
	a.logger.Infof("%s %s (commit=%s, built=%s, go=%s)",
		version.Name, version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := a.Local()
	if err := store.Ready(ctx); err != nil {
		// The API still starts; /readyz and every catalogue call report it.
		a.logger.Error("local store unavailable", logger.Error(err))
	}

	svc := a.Auth()
	cancelWatch := svc.Context().Subscribe(func(u auth.User, ok bool) {
		if ok {
			a.logger.Info("auth state changed: signed in", logger.String("user_id", u.ID))
		} else {
			a.logger.Info("auth state changed: signed out")
		}
	})
	defer cancelWatch()
	a.RestoreSession(ctx)

	var keeper *scheduler.SessionKeeper
	if a.cfg.AuthEnabled() {
		keeper = scheduler.NewSessionKeeper(svc, svc.Context().IsAuthenticated, a.logger, sessionCheckInterval)
		keeper.Start(ctx)
	}

	memIndex := do.MustInvoke[*index.MemoryIndex](a.injector)
	syncer := scheduler.NewIndexSyncer(store, memIndex, a.logger)
	if err := syncer.Sync(ctx); err != nil {
		a.logger.Warn("failed to load local catalogue into memory", logger.Error(err))
	}

	d := deps.Deps{
		Logger:         a.logger,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		NewID:          id.NewSiteID,
		AllowedHosts:   a.cfg.AllowedHosts,
		AllowedOrigins: a.cfg.AllowedOrigins,
		AllowedCIDRS:   a.cfg.AllowedCIDRS,
		TrustProxy:     a.cfg.TrustProxy,
		Local:          store,
		MemoryIndex:    memIndex,
		Logins:         a.Logins(),
		Drafts:         do.MustInvoke[*tabsignal.Drafts](a.injector),
	}
	if a.cfg.AuthEnabled() {
		d.Auth = svc
	}

	if a.cfg.RemoteEnabled() {
		if remoteStore, err := a.Remote(); err != nil {
			a.logger.Error("remote catalogue unavailable, cloud routes disabled", logger.Error(err))
		} else {
			d.Remote = remoteStore
		}
	}

	if a.cfg.SignalEnabled() {
		if err := a.startSignal(ctx, &d); err != nil {
			a.logger.Error("tab signal unavailable", logger.Error(err))
		}
	}

	var reloader *scheduler.ImportReloader
	if a.cfg.ImportFile != "" {
		d.ReloadTrigger = make(chan struct{}, 1)
		reloader = scheduler.NewImportReloader(
			a.cfg.ImportFile,
			store,
			syncer,
			func() string {
				u, _ := svc.CurrentUser()
				return u.ID
			},
			a.logger,
			a.cfg.ImportInterval,
			d.ReloadTrigger,
		)
		if err := reloader.Start(ctx); err != nil {
			if keeper != nil {
				keeper.Stop()
			}
			a.Close()
			return fmt.Errorf("failed to start import reloader: %w", err)
		}
		a.logger.Info("import reloader started",
			logger.String("file", a.cfg.ImportFile),
			logger.Duration("interval", a.cfg.ImportInterval))
	} else {
		a.logger.Info("import file not configured, reload disabled")
	}

	server := httpserver.New(a.cfg, a.logger, d)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if reloader != nil {
		reloader.Stop()
	}
	if keeper != nil {
		keeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.Close()
	if runErr == nil {
		a.logger.Infof("✅ %s stopped cleanly", version.Name)
	}
	return runErr
}

// startSignal connects the bus, wires the publisher into d and runs the
// listener that fills the draft form.
func (a *App) startSignal(ctx context.Context, d *deps.Deps) error {
	publisher, err := a.Publisher()
	if err != nil {
		return err
	}
	handle := do.MustInvoke[*RedisHandle](a.injector)

	listener := tabsignal.NewListener(handle.Client, a.logger)
	go func() {
		if err := listener.Run(ctx, d.Drafts.Handle); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("tab listener stopped", logger.Error(err))
		}
	}()

	d.Tabs = publisher
	d.RedisClient = handle.Client
	return nil
}
