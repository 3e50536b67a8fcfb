package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool `json:"ready"`
}

// Readyz reports whether the local store opened. Optional components do not
// affect readiness; see Infra for their state.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		err := d.Local.Ready(ctx)
		if err != nil {
			res := domain.Capture(readyzResponse{Ready: false}, err)
			res.Data = readyzResponse{Ready: false}
			writeResult(w, d, http.StatusServiceUnavailable, res)
			return
		}
		respond(w, d, http.StatusOK, readyzResponse{Ready: true}, nil)
	}
}
