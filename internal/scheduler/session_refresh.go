package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

// SessionRefresher renews the signed-in session when it is close to expiry
type SessionRefresher interface {
	Refresh(ctx context.Context) error
}

// SessionKeeper keeps the access token of a long-running process valid
type SessionKeeper struct {
	refresher SessionRefresher
	signedIn  func() bool
	logger    logger.Logger
	interval  time.Duration
	stopCh    chan struct{}
}

// NewSessionKeeper creates a new session keeper
func NewSessionKeeper(refresher SessionRefresher, signedIn func() bool, log logger.Logger, interval time.Duration) *SessionKeeper {
	return &SessionKeeper{
		refresher: refresher,
		signedIn:  signedIn,
		logger:    log,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start checks the session on every tick until Stop or ctx is done
func (k *SessionKeeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(k.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				k.check(ctx)
			case <-k.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the keeper
func (k *SessionKeeper) Stop() {
	close(k.stopCh)
}

func (k *SessionKeeper) check(ctx context.Context) {
	if !k.signedIn() {
		return
	}
	if err := k.refresher.Refresh(ctx); err != nil {
		k.logger.Warn("failed to refresh session", logger.Error(err))
	}
}
