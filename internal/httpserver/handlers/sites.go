package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

// ListSites returns the local records, filtered by ?q= over name, URL and
// category. ?name= is an exact name lookup served by the store's index.
func ListSites(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if name := r.URL.Query().Get("name"); name != "" {
			records, err := d.Local.FindByName(r.Context(), name)
			respond(w, d, http.StatusOK, records, err)
			return
		}
		if err := d.Local.Ready(r.Context()); err != nil {
			fail(w, d, err)
			return
		}
		records := d.MemoryIndex.Filter(r.URL.Query().Get("q"))
		respond(w, d, http.StatusOK, records, nil)
	}
}

// GetSite returns one local record by id.
func GetSite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := d.Local.Get(r.Context(), chi.URLParam(r, "id"))
		respond(w, d, http.StatusOK, rec, err)
	}
}

// CreateSite validates the creation form and stores a new local record
// owned by the signed-in user, if any.
func CreateSite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form domain.Form
		if err := decode(w, r, &form); err != nil {
			fail(w, d, err)
			return
		}
		form, err := form.Validate()
		if err != nil {
			fail(w, d, err)
			return
		}

		recordID, err := d.NewID()
		if err != nil {
			fail(w, d, domain.Storage("local.insert", err))
			return
		}

		owner := ""
		if d.Auth != nil {
			if u, ok := d.Auth.CurrentUser(); ok {
				owner = u.ID
			}
		}

		stored, err := d.Local.Insert(r.Context(), form.ToRecord(owner, recordID, d.Now()))
		if err != nil {
			d.Logger.Error("failed to save website", logger.Error(err))
			fail(w, d, err)
			return
		}
		d.MemoryIndex.Put(stored)

		d.Logger.Info("website saved",
			logger.String("record_id", stored.RecordID),
			logger.String("url", stored.TargetURL))
		respond(w, d, http.StatusCreated, stored, nil)
	}
}

// DeleteSite removes the first local record whose URL equals ?url= exactly,
// after the same scheme normalisation applied on insert.
func DeleteSite(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := domain.NormalizeURL(r.URL.Query().Get("url"))
		if target == "" {
			fail(w, d, domain.Invalid("url is required", map[string]string{"url": domain.MsgURLRequired}))
			return
		}

		deleted, err := d.Local.Delete(r.Context(), target)
		if err != nil {
			fail(w, d, err)
			return
		}
		d.MemoryIndex.Remove(deleted.RecordID)

		d.Logger.Info("website deleted",
			logger.String("record_id", deleted.RecordID),
			logger.String("url", deleted.TargetURL))
		respond(w, d, http.StatusOK, deleted, nil)
	}
}
