package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/auth/me", handlers.Me(d))

	limited := g.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             10,
		RefillPerIPPerMin: 10,
		MaxEntries:        1024,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	}))
	limited.Get("/api/auth/login", handlers.Login(d))
	limited.Post("/api/auth/session", handlers.Session(d))
	limited.Post("/api/auth/logout", handlers.Logout(d))
}
