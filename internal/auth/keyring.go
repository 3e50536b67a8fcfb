package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// keyringUser is the account name of the session entry
	keyringUser = "session"

	// keyringTimeout is the timeout for keyring operations
	keyringTimeout = 5 * time.Second
)

// ErrNoSession is returned by Load when nothing was persisted.
var ErrNoSession = errors.New("no stored session")

// KeyringError represents an error during keyring operations
type KeyringError struct {
	Operation string
	Err       error
}

func (e *KeyringError) Error() string {
	return fmt.Sprintf("keyring %s failed: %v", e.Operation, e.Err)
}

func (e *KeyringError) Unwrap() error {
	return e.Err
}

// SessionStore persists the session across restarts.
type SessionStore interface {
	Load() (*Session, error)
	Save(s *Session) error
	Delete() error
}

// KeyringStore keeps the session as JSON in the OS keyring.
type KeyringStore struct {
	service string
}

func NewKeyringStore(service string) *KeyringStore {
	return &KeyringStore{service: service}
}

// withTimeout runs a keyring call that may block on a locked keychain
func withTimeout[T any](op string, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(context.Background(), keyringTimeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		v, err := fn()
		resultCh <- result{v: v, err: err}
	}()

	select {
	case r := <-resultCh:
		if r.err != nil {
			return r.v, &KeyringError{Operation: op, Err: r.err}
		}
		return r.v, nil
	case <-ctx.Done():
		var zero T
		return zero, &KeyringError{Operation: op, Err: ctx.Err()}
	}
}

func (k *KeyringStore) Load() (*Session, error) {
	raw, err := withTimeout("get", func() (string, error) {
		return keyring.Get(k.service, keyringUser)
	})
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode stored session: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = withTimeout("set", func() (struct{}, error) {
		return struct{}{}, keyring.Set(k.service, keyringUser, string(data))
	})
	return err
}

func (k *KeyringStore) Delete() error {
	_, err := withTimeout("delete", func() (struct{}, error) {
		return struct{}{}, keyring.Delete(k.service, keyringUser)
	})
	// Ignore "not found" errors when deleting
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
