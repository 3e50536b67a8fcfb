package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/tabsignal"
)

type sendTabResponse struct {
	Delivered bool `json:"delivered"`
	// Badge is set when nobody received the request; the extension shows it
	// on its icon so the user knows to open the popup.
	Badge string `json:"badge,omitempty"`
}

type draftResponse struct {
	Pending bool        `json:"pending"`
	Form    domain.Form `json:"form"`
}

// SendTab publishes a "save current tab" request to the popup.
func SendTab(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Tabs == nil {
			fail(w, d, domain.Remote("tab", "Tab signal bus is not configured", nil))
			return
		}
		var tab tabsignal.Tab
		if err := decode(w, r, &tab); err != nil {
			fail(w, d, err)
			return
		}

		_, err := d.Tabs.Send(r.Context(), tab)
		switch {
		case errors.Is(err, tabsignal.ErrNoListener), errors.Is(err, tabsignal.ErrAckTimeout):
			respond(w, d, http.StatusAccepted, sendTabResponse{Delivered: false, Badge: "!"}, nil)
		case err != nil:
			fail(w, d, domain.Remote("tab.send", "Failed to send tab", err))
		default:
			respond(w, d, http.StatusOK, sendTabResponse{Delivered: true}, nil)
		}
	}
}

// TakeDraft returns and clears the form pre-filled from the last tab request.
// Without a pending draft an empty form with the default category is returned.
func TakeDraft(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, ok := d.Drafts.Take()
		if !ok {
			form = domain.NewForm()
		}
		respond(w, d, http.StatusOK, draftResponse{Pending: ok, Form: form}, nil)
	}
}
