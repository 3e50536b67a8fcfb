package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Enabled    bool   `json:"enabled"`
	Records    *int   `json:"records,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	User       string `json:"user,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each component.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"local":  checkLocal(ctx, d),
			"remote": checkRemote(ctx, d),
			"auth":   checkAuth(d),
			"redis":  checkRedis(ctx, d),
		}

		respond(w, d, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}, nil)
	}
}

// determineMode: "offline" when the local store is down, "local" when no
// optional component works, "connected" otherwise.
func determineMode(components map[string]componentStatus) string {
	if local, ok := components["local"]; !ok || !local.OK {
		return "offline"
	}
	for name, c := range components {
		if name != "local" && c.Enabled && c.OK {
			return "connected"
		}
	}
	return "local"
}

func checkLocal(ctx context.Context, d deps.Deps) componentStatus {
	count, err := d.Local.Count(ctx)
	if err != nil {
		return componentStatus{Enabled: true, Error: err.Error()}
	}
	lastReload := "never"
	if t := d.MemoryIndex.LastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}
	return componentStatus{OK: true, Enabled: true, Records: &count, LastReload: lastReload}
}

func checkRemote(ctx context.Context, d deps.Deps) componentStatus {
	if d.Remote == nil {
		return componentStatus{}
	}
	if err := d.Remote.Ping(ctx); err != nil {
		return componentStatus{Enabled: true, Error: "unreachable"}
	}
	return componentStatus{OK: true, Enabled: true}
}

func checkAuth(d deps.Deps) componentStatus {
	if d.Auth == nil || !d.Auth.Configured() {
		return componentStatus{}
	}
	u, ok := d.Auth.CurrentUser()
	if !ok {
		return componentStatus{Enabled: true, Error: "signed out"}
	}
	return componentStatus{OK: true, Enabled: true, User: u.Email}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{}
	}
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{Enabled: true, Error: "timeout"}
	}
	return componentStatus{OK: true, Enabled: true}
}
