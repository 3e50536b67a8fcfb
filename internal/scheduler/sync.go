package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/index"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

// RecordStore is the part of the local store the scheduler writes through
type RecordStore interface {
	Insert(ctx context.Context, rec domain.Record) (domain.Record, error)
	GetAll(ctx context.Context) ([]domain.Record, error)
}

// IndexSyncer loads the local store into the memory index
type IndexSyncer struct {
	store  RecordStore
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewIndexSyncer creates a new syncer
func NewIndexSyncer(store RecordStore, idx *index.MemoryIndex, log logger.Logger) *IndexSyncer {
	return &IndexSyncer{store: store, index: idx, logger: log}
}

// Sync replaces the index snapshot with the store contents
func (s *IndexSyncer) Sync(ctx context.Context) error {
	start := time.Now()

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return err
	}
	s.index.Replace(records)

	s.logger.Debug("memory index synced",
		logger.Int("count", len(records)),
		logger.Duration("took", time.Since(start)))
	return nil
}
