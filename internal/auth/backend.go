package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/version"
)

// Backend talks to the hosted auth API (GoTrue-compatible endpoints).
type Backend struct {
	baseURL string
	anonKey string
	client  *http.Client
	now     func() time.Time
}

func NewBackend(baseURL, anonKey string, client *http.Client) *Backend {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Backend{baseURL: baseURL, anonKey: anonKey, client: client, now: time.Now}
}

// errorPayload covers the shapes the backend uses for failures
type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p errorPayload) text() string {
	for _, s := range []string{p.ErrorDescription, p.Msg, p.Message, p.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// StatusError is the cause of a remote error answered with a failure status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("backend status %d", e.Code) }

// SignInWithIDToken exchanges an identity-provider id_token for a session.
func (b *Backend) SignInWithIDToken(ctx context.Context, provider, idToken, nonce string) (*Session, error) {
	body := map[string]string{"provider": provider, "id_token": idToken}
	if nonce != "" {
		body["nonce"] = nonce
	}
	var s Session
	if err := b.do(ctx, "auth.signIn", http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"id_token"}}, "", body, &s); err != nil {
		return nil, err
	}
	return b.stamp(&s)
}

// Refresh trades a refresh token for a new session.
func (b *Backend) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	body := map[string]string{"refresh_token": refreshToken}
	if err := b.do(ctx, "auth.refresh", http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"refresh_token"}}, "", body, &s); err != nil {
		return nil, err
	}
	return b.stamp(&s)
}

// Logout revokes the session on this device only.
func (b *Backend) Logout(ctx context.Context, accessToken string) error {
	return b.do(ctx, "auth.signOut", http.MethodPost, "/auth/v1/logout", url.Values{"scope": {"local"}}, accessToken, nil, nil)
}

// User returns the user an access token belongs to.
func (b *Backend) User(ctx context.Context, accessToken string) (User, error) {
	var u User
	err := b.do(ctx, "auth.user", http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &u)
	return u, err
}

func (b *Backend) stamp(s *Session) (*Session, error) {
	if s.User.ID == "" {
		if sub, ok := tokenSubject(s.AccessToken); ok {
			s.User.ID = sub
		}
	}
	if s.User.ID == "" {
		return nil, domain.Remote("auth.session", "No user data received", nil)
	}
	s.ObtainedAt = b.now().UTC()
	return s, nil
}

func (b *Backend) do(ctx context.Context, op, method, path string, query url.Values, bearer string, in, out any) error {
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", b.anonKey)
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return domain.Remote(op, "Authentication failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Remote(op, "Authentication failed", err)
	}

	if resp.StatusCode >= 300 {
		var p errorPayload
		_ = json.Unmarshal(data, &p)
		msg := p.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return domain.Remote(op, msg, &StatusError{Code: resp.StatusCode})
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.Remote(op, "Authentication failed", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
