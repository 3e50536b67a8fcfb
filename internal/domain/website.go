package domain

import (
	"strings"
	"time"
)

// Status of a cloud row.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// MsgStatusInvalid is reported for a status outside active/archived.
const MsgStatusInvalid = "must be one of: active archived"

// Valid reports whether s is a known row status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusArchived
}

// Website is one row of the owner-scoped cloud catalogue.
type Website struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Categories []Category `json:"categories"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// NewWebsite is an insert; the owner, id and timestamps are assigned on write.
type NewWebsite struct {
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	Categories []Category `json:"categories"`
	Status     Status     `json:"status,omitempty"`
}

// Normalize trims the insert, adds a URL scheme, defaults the status and
// rejects empty or unknown fields.
func (w NewWebsite) Normalize() (NewWebsite, error) {
	w.Name = strings.TrimSpace(w.Name)
	w.URL = NormalizeURL(w.URL)
	if w.Status == "" {
		w.Status = StatusActive
	}

	details := map[string]string{}
	if w.Name == "" {
		details["name"] = MsgNameRequired
	}
	if w.URL == "" {
		details["url"] = MsgURLRequired
	}
	if msg := checkCategories(w.Categories); msg != "" {
		details["categories"] = msg
	}
	if !w.Status.Valid() {
		details["status"] = MsgStatusInvalid
	}
	if len(details) > 0 {
		return NewWebsite{}, Invalid("invalid website", details)
	}
	return w, nil
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Name       *string     `json:"name,omitempty"`
	URL        *string     `json:"url,omitempty"`
	Categories *[]Category `json:"categories,omitempty"`
	Status     *Status     `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.URL == nil && p.Categories == nil && p.Status == nil
}

// Normalize applies the same rules as NewWebsite to the fields present.
func (p Patch) Normalize() (Patch, error) {
	details := map[string]string{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			details["name"] = MsgNameRequired
		}
		p.Name = &name
	}
	if p.URL != nil {
		u := NormalizeURL(*p.URL)
		if u == "" {
			details["url"] = MsgURLRequired
		}
		p.URL = &u
	}
	if p.Categories != nil {
		if msg := checkCategories(*p.Categories); msg != "" {
			details["categories"] = msg
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		details["status"] = MsgStatusInvalid
	}
	if len(details) > 0 {
		return Patch{}, Invalid("invalid update", details)
	}
	return p, nil
}

func checkCategories(cs []Category) string {
	if len(cs) == 0 {
		return MsgCategoryRequired
	}
	for _, c := range cs {
		if !c.Valid() {
			return MsgCategoryRequired
		}
	}
	return ""
}

// CategoryStrings converts for storage in a text[] column.
func CategoryStrings(cs []Category) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}

// CategoriesFromStrings is the inverse of CategoryStrings. Unknown values
// are kept as-is so a row written by another client still round-trips.
func CategoriesFromStrings(ss []string) []Category {
	out := make([]Category, len(ss))
	for i, s := range ss {
		out[i] = Category(s)
	}
	return out
}
