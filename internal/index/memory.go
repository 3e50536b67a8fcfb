package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
)

// MemoryIndex mirrors the local catalogue for the popup: it is loaded from the
// store at startup and after imports, and updated in place after each write.
// Records are kept by RecordID and listed in RecordID order, like the store.
type MemoryIndex struct {
	mu         sync.RWMutex
	records    map[string]domain.Record // RecordID -> Record
	lastReload time.Time
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{records: make(map[string]domain.Record)}
}

// Replace swaps the whole snapshot
func (idx *MemoryIndex) Replace(records []domain.Record) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records = make(map[string]domain.Record, len(records))
	for _, rec := range records {
		idx.records[rec.RecordID] = rec
	}
	idx.lastReload = time.Now()
}

// Put adds or overwrites one record
func (idx *MemoryIndex) Put(rec domain.Record) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.records[rec.RecordID] = rec
}

// Remove drops a record by id
func (idx *MemoryIndex) Remove(recordID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.records, recordID)
}

// Get returns a record by id
func (idx *MemoryIndex) Get(recordID string) (domain.Record, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rec, ok := idx.records[recordID]
	return rec, ok
}

// All returns a copy of every record in RecordID order
func (idx *MemoryIndex) All() []domain.Record {
	idx.mu.RLock()
	out := make([]domain.Record, 0, len(idx.records))
	for _, rec := range idx.records {
		out = append(out, rec)
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// Filter returns the records matching term over name, URL and category.
// An empty term returns everything.
func (idx *MemoryIndex) Filter(term string) []domain.Record {
	return domain.FilterRecords(term, idx.All())
}

// Count returns the number of records
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.records)
}

// LastReload returns the time of the last Replace
func (idx *MemoryIndex) LastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
