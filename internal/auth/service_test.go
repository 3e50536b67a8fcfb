package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func signedToken(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// fakeBackend serves the token and logout endpoints.
type fakeBackend struct {
	t         *testing.T
	srv       *httptest.Server
	refreshes atomic.Int32
	logouts   atomic.Int32
	reject    bool
	revoked   atomic.Value // bearer token of the last logout
}

func newFakeBackend(t *testing.T) *fakeBackend {
	fb := &fakeBackend{t: t}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.srv.Close)
	return fb
}

func (fb *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != "anon" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "id_token":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["provider"] != "google" || body["id_token"] == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid id token"}`))
			return
		}
		fb.writeSession(w, "user-1")
	case r.URL.Path == "/auth/v1/token" && r.URL.Query().Get("grant_type") == "refresh_token":
		fb.refreshes.Add(1)
		if fb.reject {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"msg":"Invalid Refresh Token"}`))
			return
		}
		fb.writeSession(w, "user-1")
	case r.URL.Path == "/auth/v1/logout" && r.URL.Query().Get("scope") == "local":
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fb.logouts.Add(1)
		fb.revoked.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (fb *fakeBackend) writeSession(w http.ResponseWriter, userID string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token":  signedToken(fb.t, userID, time.Now().Add(time.Hour)),
		"refresh_token": "refresh-2",
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]string{"id": userID, "email": "me@example.com"},
	})
}

func newTestService(t *testing.T, fb *fakeBackend) *Service {
	t.Helper()
	keyring.MockInit()
	return NewService(Options{
		BackendURL:     fb.srv.URL,
		AnonKey:        "anon",
		ClientID:       "client-123",
		RedirectURL:    "https://ext.example/callback",
		Scopes:         []string{"openid", "email"},
		KeyringService: "sitesaver-test",
	}, NewContext(), nil, logger.Nop())
}

func TestConsentURL(t *testing.T) {
	svc := newTestService(t, newFakeBackend(t))

	raw, err := svc.ConsentURL("state-1", "nonce-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "id_token", q.Get("response_type"))
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "https://ext.example/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "nonce-1", q.Get("nonce"))
}

func TestConsentURLRequiresClientID(t *testing.T) {
	svc := NewService(Options{}, NewContext(), nil, logger.Nop())
	_, err := svc.ConsentURL("s", "")
	assert.ErrorIs(t, err, domain.ErrInvalid)
	assert.False(t, svc.Configured())
}

func TestParseRedirect(t *testing.T) {
	p, err := ParseRedirect("https://ext.example/callback#id_token=abc&state=s1")
	require.NoError(t, err)
	assert.Equal(t, "abc", p.IDToken)
	assert.Equal(t, "s1", p.State)

	_, err = ParseRedirect("https://ext.example/callback#state=s1")
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = ParseRedirect("https://ext.example/callback#error=access_denied")
	assert.ErrorIs(t, err, domain.ErrRemote)
}

func TestCompleteSignsInPersistsAndNotifies(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)

	var notified []string
	svc.Context().Subscribe(func(u User, ok bool) {
		if ok {
			notified = append(notified, u.ID)
		}
	})

	u, err := svc.Complete(context.Background(), "https://ext.example/callback#id_token=good&state=s1", "s1", "")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, []string{"user-1"}, notified)

	cur, ok := svc.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "me@example.com", cur.Email)

	stored, err := NewKeyringStore("sitesaver-test").Load()
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.User.ID)
}

func TestCompleteStateMismatch(t *testing.T) {
	svc := newTestService(t, newFakeBackend(t))

	_, err := svc.Complete(context.Background(), "https://x/cb#id_token=good&state=other", "s1", "")
	assert.ErrorIs(t, err, domain.ErrInvalid)
	assert.False(t, svc.Context().IsAuthenticated())
}

func TestCompleteBackendRejection(t *testing.T) {
	svc := newTestService(t, newFakeBackend(t))

	_, err := svc.SignInWithIDToken(context.Background(), "bad", "")
	require.Error(t, err)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Invalid id token", de.Message)
	assert.False(t, svc.Context().IsAuthenticated())
}

func TestRestoreWithoutSession(t *testing.T) {
	svc := newTestService(t, newFakeBackend(t))

	_, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRestoreValidSessionSkipsRefresh(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)

	require.NoError(t, NewKeyringStore("sitesaver-test").Save(&Session{
		AccessToken:  signedToken(t, "user-9", time.Now().Add(time.Hour)),
		RefreshToken: "r",
		User:         User{ID: "user-9"},
	}))

	u, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-9", u.ID)
	assert.Zero(t, fb.refreshes.Load())
}

func TestRestoreExpiredSessionRefreshes(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)

	require.NoError(t, NewKeyringStore("sitesaver-test").Save(&Session{
		AccessToken:  signedToken(t, "user-1", time.Now().Add(-time.Minute)),
		RefreshToken: "refresh-1",
		User:         User{ID: "user-1"},
	}))

	u, ok, err := svc.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, int32(1), fb.refreshes.Load())

	stored, err := NewKeyringStore("sitesaver-test").Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
}

func TestRestoreRejectedRefreshForgetsSession(t *testing.T) {
	fb := newFakeBackend(t)
	fb.reject = true
	svc := newTestService(t, fb)

	require.NoError(t, NewKeyringStore("sitesaver-test").Save(&Session{
		AccessToken:  signedToken(t, "user-1", time.Now().Add(-time.Minute)),
		RefreshToken: "dead",
		User:         User{ID: "user-1"},
	}))

	_, ok, err := svc.Restore(context.Background())
	require.Error(t, err)
	assert.False(t, ok)

	_, err = NewKeyringStore("sitesaver-test").Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSignOutClearsEverything(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)

	_, err := svc.SignInWithIDToken(context.Background(), "good", "")
	require.NoError(t, err)

	signedOut := false
	svc.Context().Subscribe(func(_ User, ok bool) { signedOut = !ok })

	require.NoError(t, svc.SignOut(context.Background()))
	assert.True(t, signedOut)
	assert.Equal(t, int32(1), fb.logouts.Load())
	assert.False(t, svc.Context().IsAuthenticated())

	_, err = NewKeyringStore("sitesaver-test").Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSignOutRefreshesExpiredToken(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)

	expired := signedToken(t, "user-1", time.Now().Add(-time.Minute))
	svc.Context().Set(&Session{AccessToken: expired, RefreshToken: "refresh-1", User: User{ID: "user-1"}})

	require.NoError(t, svc.SignOut(context.Background()))
	assert.Equal(t, int32(1), fb.refreshes.Load())
	assert.Equal(t, int32(1), fb.logouts.Load())
	assert.NotEqual(t, "Bearer "+expired, fb.revoked.Load())
	assert.False(t, svc.Context().IsAuthenticated())
}

func TestRefresh(t *testing.T) {
	fb := newFakeBackend(t)
	svc := newTestService(t, fb)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Refresh(ctx), domain.ErrAuthRequired)

	fresh := signedToken(t, "user-1", time.Now().Add(time.Hour))
	svc.Context().Set(&Session{AccessToken: fresh, RefreshToken: "refresh-1", User: User{ID: "user-1"}})
	require.NoError(t, svc.Refresh(ctx))
	assert.Zero(t, fb.refreshes.Load())

	svc.Context().Set(&Session{AccessToken: signedToken(t, "user-1", time.Now().Add(30*time.Second)), RefreshToken: "refresh-1", User: User{ID: "user-1"}})
	require.NoError(t, svc.Refresh(ctx))
	assert.Equal(t, int32(1), fb.refreshes.Load())
	assert.Equal(t, "refresh-2", svc.Context().Session().RefreshToken)
}

func TestSessionExpiry(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute).Truncate(time.Second)
	s := &Session{AccessToken: signedToken(t, "u", exp)}
	assert.True(t, s.Expiry().Equal(exp))
	assert.False(t, s.Expired(time.Now(), time.Minute))
	assert.True(t, s.Expired(time.Now(), 11*time.Minute))

	opaque := &Session{AccessToken: "not-a-jwt", ExpiresAt: exp.Unix()}
	assert.True(t, opaque.Expiry().Equal(exp))

	unknown := &Session{AccessToken: "not-a-jwt"}
	assert.False(t, unknown.Expired(time.Now(), time.Hour))
}
