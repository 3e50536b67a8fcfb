package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"golang.org/x/oauth2"
)

// GoogleAuthURL is the consent endpoint of the identity provider.
const GoogleAuthURL = "https://accounts.google.com/o/oauth2/auth"

// refreshLeeway refreshes access tokens this long before they expire
const refreshLeeway = 60 * time.Second

// Options configure the sign-in glue.
type Options struct {
	BackendURL     string
	AnonKey        string
	ClientID       string
	RedirectURL    string
	Scopes         []string
	KeyringService string
	HTTPClient     *http.Client
}

// Service drives sign-in, restore and sign-out, and publishes the result
// through the Context.
type Service struct {
	ctx      *Context
	oauth    *oauth2.Config
	backend  *Backend
	sessions SessionStore
	log      logger.Logger
	now      func() time.Time
}

func NewService(opts Options, authCtx *Context, sessions SessionStore, log logger.Logger) *Service {
	if sessions == nil {
		sessions = NewKeyringStore(opts.KeyringService)
	}
	return &Service{
		ctx: authCtx,
		oauth: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURL,
			Scopes:      opts.Scopes,
			Endpoint:    oauth2.Endpoint{AuthURL: GoogleAuthURL},
		},
		backend:  NewBackend(opts.BackendURL, opts.AnonKey, opts.HTTPClient),
		sessions: sessions,
		log:      log,
		now:      time.Now,
	}
}

// Context returns the auth context this service updates.
func (s *Service) Context() *Context { return s.ctx }

// Configured reports whether a consent flow can be started.
func (s *Service) Configured() bool {
	return s.oauth.ClientID != "" && s.backend.baseURL != ""
}

// ConsentURL builds the identity provider URL returning an id_token in the
// redirect fragment.
func (s *Service) ConsentURL(state, nonce string) (string, error) {
	if s.oauth.ClientID == "" {
		return "", domain.Invalid("OAuth2 configuration is missing", map[string]string{"clientId": "is required"})
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("response_type", "id_token"),
		oauth2.AccessTypeOffline,
	}
	if nonce != "" {
		opts = append(opts, oauth2.SetAuthURLParam("nonce", nonce))
	}
	return s.oauth.AuthCodeURL(state, opts...), nil
}

// RedirectParams are the parameters returned in the redirect fragment.
type RedirectParams struct {
	IDToken string
	State   string
}

// ParseRedirect reads the id_token (and state) from the fragment of the URL
// the provider redirected to.
func ParseRedirect(redirectedTo string) (RedirectParams, error) {
	u, err := url.Parse(strings.TrimSpace(redirectedTo))
	if err != nil {
		return RedirectParams{}, domain.Invalid("invalid redirect URL", map[string]string{"url": err.Error()})
	}
	frag, err := url.ParseQuery(u.Fragment)
	if err != nil {
		return RedirectParams{}, domain.Invalid("invalid redirect URL", map[string]string{"url": err.Error()})
	}
	if e := frag.Get("error"); e != "" {
		return RedirectParams{}, domain.Remote("auth.redirect", "Authentication failed", errors.New(e))
	}
	token := frag.Get("id_token")
	if token == "" {
		return RedirectParams{}, domain.Invalid("ID token not found in redirect URL", nil)
	}
	return RedirectParams{IDToken: token, State: frag.Get("state")}, nil
}

// Complete finishes sign-in from the redirect URL: the id_token is exchanged
// with the backend, the session persisted and published.
func (s *Service) Complete(ctx context.Context, redirectedTo, wantState, nonce string) (User, error) {
	params, err := ParseRedirect(redirectedTo)
	if err != nil {
		return User{}, err
	}
	if wantState != "" && params.State != wantState {
		return User{}, domain.Invalid("state mismatch", map[string]string{"state": "does not match the login request"})
	}
	return s.SignInWithIDToken(ctx, params.IDToken, nonce)
}

// SignInWithIDToken exchanges an id_token obtained elsewhere (the popup's
// platform identity API) for a session.
func (s *Service) SignInWithIDToken(ctx context.Context, idToken, nonce string) (User, error) {
	sess, err := s.backend.SignInWithIDToken(ctx, "google", idToken, nonce)
	if err != nil {
		s.log.Error("sign in failed", logger.Error(err))
		return User{}, err
	}
	s.persist(sess)
	s.ctx.Set(sess)
	s.log.Info("signed in", logger.String("user_id", sess.User.ID))
	return sess.User, nil
}

// Restore loads the persisted session, refreshing it when expired. A missing
// session is not an error.
func (s *Service) Restore(ctx context.Context) (User, bool, error) {
	sess, err := s.sessions.Load()
	if errors.Is(err, ErrNoSession) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("load session: %w", err)
	}

	if sess.Expired(s.now(), refreshLeeway) {
		if sess.RefreshToken == "" {
			_ = s.sessions.Delete()
			return User{}, false, nil
		}
		fresh, err := s.backend.Refresh(ctx, sess.RefreshToken)
		if err != nil {
			s.log.Warn("session refresh failed", logger.Error(err))
			if isClientRejection(err) {
				_ = s.sessions.Delete()
			}
			return User{}, false, err
		}
		sess = fresh
		s.persist(sess)
	}

	s.ctx.Set(sess)
	return sess.User, true, nil
}

// Refresh renews the current session if it is about to expire.
func (s *Service) Refresh(ctx context.Context) error {
	sess := s.ctx.Session()
	if sess == nil {
		return domain.AuthRequired("auth.refresh")
	}
	if !sess.Expired(s.now(), refreshLeeway) {
		return nil
	}
	fresh, err := s.backend.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return err
	}
	s.persist(fresh)
	s.ctx.Set(fresh)
	return nil
}

// SignOut revokes the session on this device, forgets it and clears the
// context. Local state is cleared even when the backend call fails.
func (s *Service) SignOut(ctx context.Context) error {
	// The backend only revokes a session presented with a live access token
	if sess := s.ctx.Session(); sess != nil && sess.RefreshToken != "" {
		if err := s.Refresh(ctx); err != nil {
			s.log.Warn("session refresh before sign out failed", logger.Error(err))
		}
	}

	sess := s.ctx.Session()
	var remoteErr error
	if sess != nil && sess.AccessToken != "" {
		remoteErr = s.backend.Logout(ctx, sess.AccessToken)
		if remoteErr != nil {
			s.log.Error("sign out error", logger.Error(remoteErr))
		}
	}
	if err := s.sessions.Delete(); err != nil {
		s.log.Warn("failed to delete stored session", logger.Error(err))
	}
	s.ctx.Set(nil)
	return remoteErr
}

// CurrentUser is the accessor the remote store reads.
func (s *Service) CurrentUser() (User, bool) { return s.ctx.CurrentUser() }

func (s *Service) persist(sess *Session) {
	if err := s.sessions.Save(sess); err != nil {
		s.log.Warn("failed to persist session", logger.Error(err))
	}
}

// isClientRejection reports a 4xx answer, meaning the refresh token is dead
func isClientRejection(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}
