package domain

import "time"

// Record is one saved website in the local catalogue.
//
// RecordID is the primary key of the local store. It is generated by the
// writer at creation time; writing a second record with the same RecordID
// overwrites the first.
type Record struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// OwnerID is the user who created the record.
	// Empty when no authenticated session existed at write time.
	OwnerID string `json:"ownerId,omitempty"`

	// RecordID is the globally unique identifier (primary key).
	RecordID string `json:"recordId"`

	// ─────────────────────────────
	// User-supplied fields
	// ─────────────────────────────

	// DisplayName is the non-empty label shown in the list.
	DisplayName string `json:"displayName"`

	// TargetURL is absolute and always carries a scheme once persisted.
	TargetURL string `json:"targetUrl"`

	// Category is one of Categories.
	Category Category `json:"category"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// AddedAt is set by the writer; zero for records imported without a date.
	AddedAt time.Time `json:"addedAt"`
}

// Normalize returns a copy with trimmed fields and a schemed URL, or an
// invalid error naming the offending fields.
func (r Record) Normalize() (Record, error) {
	r.DisplayName = trimSpace(r.DisplayName)
	r.RecordID = trimSpace(r.RecordID)
	r.TargetURL = NormalizeURL(r.TargetURL)

	details := map[string]string{}
	if r.RecordID == "" {
		details["recordId"] = "is required"
	}
	if r.DisplayName == "" {
		details["displayName"] = MsgNameRequired
	}
	if r.TargetURL == "" {
		details["targetUrl"] = MsgURLRequired
	}
	if !r.Category.Valid() {
		details["category"] = MsgCategoryRequired
	}
	if len(details) > 0 {
		return Record{}, Invalid("invalid record", details)
	}
	return r, nil
}
