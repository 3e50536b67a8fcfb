package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"github.com/MrSnakeDoc/sitesaver/internal/sources/homepage"
)

// ErrNoImportFile is returned when a reload is requested without a file
var ErrNoImportFile = errors.New("no import file configured")

// OwnerFunc returns the id of the signed-in user, or "" when there is none
type OwnerFunc func() string

// ImportReloader periodically imports a Homepage YAML file into the local
// store. Records get stable ids derived from their URL, so a reload
// overwrites what the previous one wrote.
type ImportReloader struct {
	file          string
	kind          homepage.Kind
	loader        *homepage.Loader
	mapper        *homepage.Mapper
	store         RecordStore
	syncer        *IndexSyncer
	owner         OwnerFunc
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewImportReloader creates a new import reloader
func NewImportReloader(
	file string,
	store RecordStore,
	syncer *IndexSyncer,
	owner OwnerFunc,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *ImportReloader {
	if owner == nil {
		owner = func() string { return "" }
	}
	return &ImportReloader{
		file:          file,
		kind:          homepage.DetectKind(file),
		loader:        homepage.NewLoader(file),
		mapper:        homepage.NewMapper(),
		store:         store,
		syncer:        syncer,
		owner:         owner,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start imports once and then on every tick or manual trigger
func (r *ImportReloader) Start(ctx context.Context) error {
	if _, err := r.Reload(ctx); err != nil {
		return fmt.Errorf("initial import failed: %w", err)
	}

	if r.interval <= 0 {
		r.logger.Info("periodic import disabled, manual triggers only")
	}

	go func() {
		// A nil tick channel leaves only manual triggers
		var tick <-chan time.Time
		if r.interval > 0 {
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-tick:
				if _, err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload import file", logger.Error(err))
				}
			case <-r.manualTrigger:
				r.logger.Info("manual import triggered")
				if _, err := r.Reload(ctx); err != nil {
					r.logger.Error("failed to reload import file", logger.Error(err))
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the reloader
func (r *ImportReloader) Stop() {
	close(r.stopCh)
}

// Reload imports the file and refreshes the memory index. It returns the
// number of records written.
func (r *ImportReloader) Reload(ctx context.Context) (int, error) {
	if r.file == "" {
		return 0, ErrNoImportFile
	}
	r.logger.Info("importing homepage file",
		logger.String("file", r.file),
		logger.String("kind", string(r.kind)))

	records, err := r.load()
	if err != nil {
		return 0, err
	}

	written, err := Apply(ctx, r.store, records, r.logger)
	if err != nil {
		return written, err
	}

	if r.syncer != nil {
		if err := r.syncer.Sync(ctx); err != nil {
			r.logger.Warn("failed to refresh memory index after import", logger.Error(err))
		}
	}
	return written, nil
}

func (r *ImportReloader) load() ([]domain.Record, error) {
	owner := r.owner()

	switch r.kind {
	case homepage.KindServices:
		config, err := r.loader.LoadServices()
		if err != nil {
			return nil, fmt.Errorf("failed to load services: %w", err)
		}
		return r.mapper.MapServices(config, owner)
	default:
		config, err := r.loader.LoadBookmarks()
		if err != nil {
			return nil, fmt.Errorf("failed to load bookmarks: %w", err)
		}
		return r.mapper.MapBookmarks(config, owner)
	}
}

// Apply writes records to the store one by one. Invalid records are skipped
// and logged; a storage failure stops the import.
func Apply(ctx context.Context, store RecordStore, records []domain.Record, log logger.Logger) (int, error) {
	written := 0
	for _, rec := range records {
		if _, err := store.Insert(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrInvalid) {
				log.Warn("skipping invalid record",
					logger.String("name", rec.DisplayName),
					logger.String("url", rec.TargetURL),
					logger.Error(err))
				continue
			}
			return written, fmt.Errorf("failed to import %s: %w", rec.TargetURL, err)
		}
		written++
	}

	log.Info("import complete",
		logger.Int("written", written),
		logger.Int("total", len(records)))
	return written, nil
}
