package handlers

import (
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/sitesaver/internal/auth"
	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

var errAuthDisabled = domain.Remote("auth", "OAuth2 configuration is missing", nil)

type loginResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type sessionRequest struct {
	// RedirectURL is the URL the identity provider redirected to, with the
	// id_token in its fragment.
	RedirectURL string `json:"redirect_url,omitempty"`
	// IDToken and Nonce come from the platform identity API instead.
	IDToken string `json:"id_token,omitempty"`
	Nonce   string `json:"nonce,omitempty"`
}

type meResponse struct {
	Authenticated bool      `json:"authenticated"`
	User          auth.User `json:"user"`
}

func authEnabled(d deps.Deps, w http.ResponseWriter) bool {
	if d.Auth == nil || !d.Auth.Configured() {
		fail(w, d, errAuthDisabled)
		return false
	}
	return true
}

// Login starts a consent flow and returns the URL to open.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authEnabled(d, w) {
			return
		}
		p, err := d.Logins.Begin(d.Auth)
		if err != nil {
			fail(w, d, err)
			return
		}
		respond(w, d, http.StatusOK, loginResponse{URL: p.URL, State: p.State}, nil)
	}
}

// Session completes sign-in from a redirect URL or a raw id_token.
func Session(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !authEnabled(d, w) {
			return
		}
		var req sessionRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, d, err)
			return
		}

		var (
			user auth.User
			err  error
		)
		switch {
		case strings.TrimSpace(req.RedirectURL) != "":
			user, err = completeRedirect(d, r, req.RedirectURL)
		case req.IDToken != "":
			user, err = d.Auth.SignInWithIDToken(r.Context(), req.IDToken, req.Nonce)
		default:
			err = domain.Invalid("redirect_url or id_token is required", nil)
		}
		respond(w, d, http.StatusOK, user, err)
	}
}

func completeRedirect(d deps.Deps, r *http.Request, redirectURL string) (auth.User, error) {
	params, err := auth.ParseRedirect(redirectURL)
	if err != nil {
		return auth.User{}, err
	}
	pending, ok := d.Logins.Take(params.State)
	if !ok {
		d.Logger.Warn("redirect for unknown login flow")
		return auth.User{}, domain.Invalid("state mismatch", map[string]string{"state": "does not match a login request"})
	}
	return d.Auth.Complete(r.Context(), redirectURL, pending.State, pending.Nonce)
}

// Logout signs out. Local state is cleared even when the backend call fails.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			respond[any](w, d, http.StatusOK, nil, nil)
			return
		}
		if err := d.Auth.SignOut(r.Context()); err != nil {
			d.Logger.Warn("backend sign out failed", logger.Error(err))
		}
		respond[any](w, d, http.StatusOK, nil, nil)
	}
}

// Me returns the signed-in user.
func Me(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var res meResponse
		if d.Auth != nil {
			res.User, res.Authenticated = d.Auth.CurrentUser()
		}
		respond(w, d, http.StatusOK, res, nil)
	}
}
