package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	cidr := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	cidr.Get("/readyz", handlers.Readyz(d))
	cidr.Get("/api/infra", handlers.Infra(d))
}
