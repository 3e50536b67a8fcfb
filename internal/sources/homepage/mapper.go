package homepage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
)

// recordIDPrefix marks records that came from an import
const recordIDPrefix = "hp-"

// Mapper converts Homepage configs to catalogue records. Group names become
// categories when they name one, Other otherwise.
type Mapper struct {
	now func() time.Time
}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapBookmarks converts BookmarksConfig to records owned by ownerID
func (m *Mapper) MapBookmarks(config BookmarksConfig, ownerID string) ([]domain.Record, error) {
	var records []domain.Record
	now := m.now().UTC()

	for _, group := range config {
		for groupName, bookmarkList := range group {
			for _, bookmarkMap := range bookmarkList {
				for bookmarkName, entries := range bookmarkMap {
					// Each bookmark has a list with a single entry
					if len(entries) == 0 {
						continue
					}
					entry := entries[0]

					name := strings.TrimSpace(bookmarkName)
					if name == "" {
						name = entry.Abbr
					}
					if rec, ok := newRecord(ownerID, name, entry.Href, groupName, now); ok {
						records = append(records, rec)
					}
				}
			}
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}
	sortRecords(records)
	return records, nil
}

// MapServices converts ServicesConfig to records owned by ownerID
func (m *Mapper) MapServices(config ServicesConfig, ownerID string) ([]domain.Record, error) {
	var records []domain.Record
	now := m.now().UTC()

	for _, group := range config {
		for groupName, servicesList := range group {
			for _, serviceMap := range servicesList {
				for serviceName, props := range serviceMap {
					if rec, ok := newRecord(ownerID, serviceName, props.Href, groupName, now); ok {
						records = append(records, rec)
					}
				}
			}
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no valid services found in homepage config")
	}
	sortRecords(records)
	return records, nil
}

func newRecord(ownerID, name, href, group string, now time.Time) (domain.Record, bool) {
	name = strings.TrimSpace(name)
	target := domain.NormalizeURL(href)
	if name == "" || !validHref(target) {
		return domain.Record{}, false
	}
	return domain.Record{
		OwnerID:     ownerID,
		RecordID:    generateRecordID(target),
		DisplayName: name,
		TargetURL:   target,
		Category:    domain.CategoryOrOther(group),
		AddedAt:     now,
	}, true
}

// validHref accepts URLs with a dotted host or an explicit port
func validHref(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return strings.Contains(host, ".") || (host != "" && u.Port() != "")
}

// generateRecordID derives a stable id from the URL, so importing the same
// file twice overwrites instead of duplicating.
func generateRecordID(target string) string {
	hash := sha256.Sum256([]byte(target))
	return recordIDPrefix + hex.EncodeToString(hash[:])[:16]
}

// sortRecords makes the output independent of map iteration order
func sortRecords(records []domain.Record) {
	sort.Slice(records, func(i, j int) bool { return records[i].RecordID < records[j].RecordID })
}
