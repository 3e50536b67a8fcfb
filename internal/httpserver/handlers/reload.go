package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

type reloadResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// Reload triggers a manual import of the configured Homepage file
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.ReloadTrigger == nil {
			fail(w, d, domain.Invalid("no import file configured", nil))
			return
		}

		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual import triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			respond(w, d, http.StatusAccepted, reloadResponse{Triggered: true, Message: "Reload triggered"}, nil)
		default:
			d.Logger.Warn("import already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			respond(w, d, http.StatusTooManyRequests, reloadResponse{Triggered: false, Message: "Reload already in progress, please wait"}, nil)
		}
	}
}
