package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/handlers"
)

func init() { Register(registerSites) }

func registerSites(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Get("/api/sites", handlers.ListSites(d))
	g.Post("/api/sites", handlers.CreateSite(d))
	g.Get("/api/sites/{id}", handlers.GetSite(d))
	g.Delete("/api/sites", handlers.DeleteSite(d))
	g.Post("/api/reload", handlers.Reload(d))
}
