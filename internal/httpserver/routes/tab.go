package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/handlers"
)

func init() { Register(registerTab) }

func registerTab(r chi.Router, d deps.Deps) {
	g := guarded(r, d)
	g.Post("/api/tab", handlers.SendTab(d))
	g.Get("/api/tab/draft", handlers.TakeDraft(d))
}
