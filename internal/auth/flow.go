package auth

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/id"
)

// DefaultLoginTTL bounds how long a consent flow may take
const DefaultLoginTTL = 10 * time.Minute

// PendingLogin is a consent flow waiting for its redirect.
type PendingLogin struct {
	State     string
	Nonce     string
	URL       string
	CreatedAt time.Time
}

// Logins remembers the state and nonce of consent flows in progress so the
// redirect can be checked against the request that started it.
type Logins struct {
	mu      sync.Mutex
	pending map[string]PendingLogin
	ttl     time.Duration
	now     func() time.Time
}

func NewLogins(ttl time.Duration) *Logins {
	if ttl <= 0 {
		ttl = DefaultLoginTTL
	}
	return &Logins{pending: make(map[string]PendingLogin), ttl: ttl, now: time.Now}
}

// ConsentSource builds consent URLs; *Service is one.
type ConsentSource interface {
	ConsentURL(state, nonce string) (string, error)
}

// Begin starts a consent flow and returns the URL to open.
func (l *Logins) Begin(s ConsentSource) (PendingLogin, error) {
	state, err := id.Generate("state")
	if err != nil {
		return PendingLogin{}, err
	}
	nonce, err := id.Generate("nonce")
	if err != nil {
		return PendingLogin{}, err
	}
	consent, err := s.ConsentURL(state, nonce)
	if err != nil {
		return PendingLogin{}, err
	}

	p := PendingLogin{State: state, Nonce: nonce, URL: consent, CreatedAt: l.now()}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
	l.pending[state] = p
	return p, nil
}

// Take returns and forgets the flow started with state.
func (l *Logins) Take(state string) (PendingLogin, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()

	p, ok := l.pending[state]
	if ok {
		delete(l.pending, state)
	}
	return p, ok
}

func (l *Logins) sweepLocked() {
	now := l.now()
	for state, p := range l.pending {
		if now.Sub(p.CreatedAt) > l.ttl {
			delete(l.pending, state)
		}
	}
}
