package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/handlers"
)

func init() { Register(registerCloud) }

func registerCloud(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Route("/api/cloud/sites", func(cr chi.Router) {
		cr.Get("/", handlers.ListCloudSites(d))
		cr.Post("/", handlers.CreateCloudSite(d))
		cr.Get("/{id}", handlers.GetCloudSite(d))
		cr.Patch("/{id}", handlers.UpdateCloudSite(d))
		cr.Delete("/{id}", handlers.DeleteCloudSite(d))
	})
}
