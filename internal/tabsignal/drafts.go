package tabsignal

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
)

// Drafts holds the creation form pre-filled from the last tab message until
// the popup picks it up.
type Drafts struct {
	mu      sync.Mutex
	pending *domain.Form
}

func NewDrafts() *Drafts { return &Drafts{} }

// Handle is the Handler storing a draft: name from the tab title, URL from
// the tab, default category.
func (d *Drafts) Handle(_ context.Context, tab Tab) error {
	form := domain.DraftFromTab(tab.Title, tab.URL)
	d.mu.Lock()
	d.pending = &form
	d.mu.Unlock()
	return nil
}

// Take returns and clears the pending draft.
func (d *Drafts) Take() (domain.Form, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return domain.Form{}, false
	}
	form := *d.pending
	d.pending = nil
	return form, true
}
