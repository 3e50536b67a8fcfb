package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
)

var errCloudDisabled = domain.Remote("cloud", "Cloud catalogue is not configured", nil)

// cloud wraps a handler that needs the remote store.
func cloud(d deps.Deps, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Remote == nil {
			fail(w, d, errCloudDisabled)
			return
		}
		h(w, r)
	}
}

// ListCloudSites returns the signed-in user's rows: ?q= searches name and
// URL, ?category= filters by category, neither lists everything.
func ListCloudSites(d deps.Deps) http.HandlerFunc {
	return cloud(d, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case strings.TrimSpace(q.Get("q")) != "":
			sites, err := d.Remote.Search(r.Context(), strings.TrimSpace(q.Get("q")))
			respond(w, d, http.StatusOK, sites, err)
		case q.Get("category") != "":
			c, ok := domain.ParseCategory(q.Get("category"))
			if !ok {
				fail(w, d, domain.Invalid("unknown category", map[string]string{"category": domain.MsgCategoryRequired}))
				return
			}
			sites, err := d.Remote.GetByCategory(r.Context(), c)
			respond(w, d, http.StatusOK, sites, err)
		default:
			sites, err := d.Remote.GetAll(r.Context())
			respond(w, d, http.StatusOK, sites, err)
		}
	})
}

// createCloudRequest is either a full insert with "categories" or the
// popup's creation form with a single "category".
type createCloudRequest struct {
	domain.NewWebsite
	Category domain.Category `json:"category"`
}

// CreateCloudSite inserts a row for the signed-in user. A creation form is
// validated like a local one before it is converted.
func CreateCloudSite(d deps.Deps) http.HandlerFunc {
	return cloud(d, func(w http.ResponseWriter, r *http.Request) {
		var req createCloudRequest
		if err := decode(w, r, &req); err != nil {
			fail(w, d, err)
			return
		}

		in := req.NewWebsite
		if len(in.Categories) == 0 && req.Category != "" {
			form, err := domain.Form{Name: in.Name, URL: in.URL, Category: req.Category}.Validate()
			if err != nil {
				fail(w, d, err)
				return
			}
			in = form.ToNewWebsite()
			if req.Status != "" {
				in.Status = req.Status
			}
		}

		site, err := d.Remote.Insert(r.Context(), in)
		respond(w, d, http.StatusCreated, site, err)
	})
}

// GetCloudSite returns one row.
func GetCloudSite(d deps.Deps) http.HandlerFunc {
	return cloud(d, func(w http.ResponseWriter, r *http.Request) {
		site, err := d.Remote.GetByID(r.Context(), chi.URLParam(r, "id"))
		respond(w, d, http.StatusOK, site, err)
	})
}

// UpdateCloudSite applies a partial update.
func UpdateCloudSite(d deps.Deps) http.HandlerFunc {
	return cloud(d, func(w http.ResponseWriter, r *http.Request) {
		var p domain.Patch
		if err := decode(w, r, &p); err != nil {
			fail(w, d, err)
			return
		}
		if p.Empty() {
			fail(w, d, domain.Invalid("nothing to update", map[string]string{"patch": "set at least one field"}))
			return
		}
		site, err := d.Remote.Update(r.Context(), chi.URLParam(r, "id"), p)
		respond(w, d, http.StatusOK, site, err)
	})
}

// DeleteCloudSite removes one row.
func DeleteCloudSite(d deps.Deps) http.HandlerFunc {
	return cloud(d, func(w http.ResponseWriter, r *http.Request) {
		err := d.Remote.Delete(r.Context(), chi.URLParam(r, "id"))
		respond[any](w, d, http.StatusOK, nil, err)
	})
}
