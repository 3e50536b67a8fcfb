package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
	"go.etcd.io/bbolt"
)

var errClosed = errors.New("store closed")

// Options locate and version the on-device catalogue.
type Options struct {
	Path        string        // bbolt file
	Name        string        // container name
	Version     int           // schema version; a change recreates the container
	OpenTimeout time.Duration // file lock timeout
}

// Store is the local catalog store. The bbolt file is opened by the first
// operation, not by Open; concurrent first callers share that initialisation.
type Store struct {
	opts Options
	log  logger.Logger

	once    sync.Once
	mu      sync.RWMutex // held for reading by every operation, for writing by Close
	db      *bbolt.DB
	initErr error
	closed  bool
}

// Open records the options. Nothing touches the disk until the first call.
func Open(opts Options, log logger.Logger) *Store {
	if opts.Name == "" {
		opts.Name = "SitesDatabase"
	}
	if opts.Version <= 0 {
		opts.Version = 1
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Second
	}
	return &Store{opts: opts, log: log}
}

// Ready waits for the store to be usable and reports the initialisation error,
// if any. Failed initialisations are not retried.
func (s *Store) Ready(ctx context.Context) error {
	return s.view(ctx, "local.ready", func(*bbolt.Tx) error { return nil })
}

// Close releases the file. Later operations fail with an uninitialized error.
func (s *Store) Close() error {
	// Mark initialisation done so a store closed before first use never opens the file
	s.once.Do(func() {})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Shutdown lets the store be torn down by the composition root.
func (s *Store) Shutdown() error { return s.Close() }

func (s *Store) init() {
	path := s.opts.Path
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			s.initErr = domain.Storage("local.open", fmt.Errorf("create data dir: %w", err))
			return
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: s.opts.OpenTimeout})
	if err != nil {
		s.initErr = domain.Storage("local.open", fmt.Errorf("open %s: %w", path, err))
		return
	}

	if err := db.Update(s.ensureContainer); err != nil {
		_ = db.Close()
		s.initErr = domain.Storage("local.open", fmt.Errorf("prepare container %s: %w", s.opts.Name, err))
		return
	}

	s.db = db
	s.log.Debug("local store ready",
		logger.String("path", path),
		logger.String("container", s.opts.Name),
		logger.Int("version", s.opts.Version),
	)
}

// ensureContainer creates the container and its indexes. On a version change
// the previous container is dropped and its records are not carried over.
func (s *Store) ensureContainer(tx *bbolt.Tx) error {
	meta, err := tx.CreateBucketIfNotExists([]byte(BucketMeta))
	if err != nil {
		return err
	}

	want := strconv.Itoa(s.opts.Version)
	if stored := meta.Get(VersionKey(s.opts.Name)); stored != nil && string(stored) != want {
		discarded := 0
		if b := tx.Bucket(ContainerBucket(s.opts.Name)); b != nil {
			discarded = b.Stats().KeyN
		}
		for _, name := range s.bucketNames() {
			if err := tx.DeleteBucket(name); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
				return err
			}
		}
		s.log.Warn("local schema version changed, container recreated",
			logger.String("container", s.opts.Name),
			logger.String("from", string(stored)),
			logger.String("to", want),
			logger.Int("discarded", discarded),
		)
	}

	for _, name := range s.bucketNames() {
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return err
		}
	}
	return meta.Put(VersionKey(s.opts.Name), []byte(want))
}

func (s *Store) bucketNames() [][]byte {
	names := [][]byte{ContainerBucket(s.opts.Name)}
	for _, field := range IndexedFields {
		names = append(names, IndexBucket(s.opts.Name, field))
	}
	return names
}

// acquire waits for readiness and returns the handle with the read lock held.
func (s *Store) acquire(ctx context.Context, op string) (*bbolt.DB, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, domain.Storage(op, err)
	}

	s.once.Do(s.init)

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, domain.Uninitialized(op, errClosed)
	}
	if s.initErr != nil {
		s.mu.RUnlock()
		return nil, nil, s.initErr
	}
	return s.db, s.mu.RUnlock, nil
}

func (s *Store) view(ctx context.Context, op string, fn func(tx *bbolt.Tx) error) error {
	db, release, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer release()
	return db.View(fn)
}

func (s *Store) update(ctx context.Context, op string, fn func(tx *bbolt.Tx) error) error {
	db, release, err := s.acquire(ctx, op)
	if err != nil {
		return err
	}
	defer release()
	return db.Update(fn)
}

// Insert writes rec, overwriting any record with the same RecordID. The URL
// gains a scheme when missing. The stored record is returned.
//
// A store that failed to initialise reports that failure before the record is
// validated.
func (s *Store) Insert(ctx context.Context, rec domain.Record) (domain.Record, error) {
	err := s.update(ctx, "local.insert", func(tx *bbolt.Tx) error {
		var err error
		if rec, err = rec.Normalize(); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}

		container := tx.Bucket(ContainerBucket(s.opts.Name))

		if prev := container.Get([]byte(rec.RecordID)); prev != nil {
			var old domain.Record
			if err := json.Unmarshal(prev, &old); err == nil {
				if err := s.unindex(tx, old); err != nil {
					return err
				}
			}
		}

		if err := container.Put([]byte(rec.RecordID), data); err != nil {
			return err
		}
		return s.index(tx, rec)
	})
	if err != nil {
		return domain.Record{}, asStorage("local.insert", err)
	}
	return rec, nil
}

// GetAll returns every record in recordId order.
func (s *Store) GetAll(ctx context.Context) ([]domain.Record, error) {
	out := []domain.Record{}
	err := s.view(ctx, "local.getAll", func(tx *bbolt.Tx) error {
		return tx.Bucket(ContainerBucket(s.opts.Name)).ForEach(func(k, v []byte) error {
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, asStorage("local.getAll", err)
	}
	return out, nil
}

// Delete removes the first record, in recordId order, whose TargetURL equals
// targetURL exactly, and returns it. The lookup is a linear scan over the
// container; lookup and delete share one write transaction.
func (s *Store) Delete(ctx context.Context, targetURL string) (domain.Record, error) {
	var deleted domain.Record
	err := s.update(ctx, "local.delete", func(tx *bbolt.Tx) error {
		container := tx.Bucket(ContainerBucket(s.opts.Name))

		c := container.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %s: %w", k, err)
			}
			if rec.TargetURL != targetURL {
				continue
			}
			if err := container.Delete(k); err != nil {
				return err
			}
			if err := s.unindex(tx, rec); err != nil {
				return err
			}
			deleted = rec
			return nil
		}
		return domain.NotFound("local.delete", "no record with url "+targetURL)
	})
	if err != nil {
		return domain.Record{}, asStorage("local.delete", err)
	}
	return deleted, nil
}

// FindByName returns the records whose DisplayName equals name, served from
// the displayName index.
func (s *Store) FindByName(ctx context.Context, name string) ([]domain.Record, error) {
	out := []domain.Record{}
	err := s.view(ctx, "local.findByName", func(tx *bbolt.Tx) error {
		container := tx.Bucket(ContainerBucket(s.opts.Name))
		idx := tx.Bucket(IndexBucket(s.opts.Name, "displayName"))

		prefix := IndexPrefix(name)
		c := idx.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			id, ok := RecordIDFromIndexKey(k)
			if !ok {
				continue
			}
			v := container.Get([]byte(id))
			if v == nil {
				continue
			}
			var rec domain.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode record %s: %w", id, err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, asStorage("local.findByName", err)
	}
	return out, nil
}

// Get returns the record stored under recordID.
func (s *Store) Get(ctx context.Context, recordID string) (domain.Record, error) {
	var rec domain.Record
	err := s.view(ctx, "local.get", func(tx *bbolt.Tx) error {
		// Resolve through the recordId index so a stale container entry is never served
		idx := tx.Bucket(IndexBucket(s.opts.Name, "recordId"))
		if idx.Get(IndexKey(recordID, recordID)) == nil {
			return domain.NotFound("local.get", "no record with id "+recordID)
		}
		v := tx.Bucket(ContainerBucket(s.opts.Name)).Get([]byte(recordID))
		if v == nil {
			return domain.NotFound("local.get", "no record with id "+recordID)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return domain.Record{}, asStorage("local.get", err)
	}
	return rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.view(ctx, "local.count", func(tx *bbolt.Tx) error {
		n = tx.Bucket(ContainerBucket(s.opts.Name)).Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, asStorage("local.count", err)
	}
	return n, nil
}

func (s *Store) index(tx *bbolt.Tx, rec domain.Record) error {
	if err := tx.Bucket(IndexBucket(s.opts.Name, "recordId")).Put(IndexKey(rec.RecordID, rec.RecordID), []byte(rec.RecordID)); err != nil {
		return err
	}
	return tx.Bucket(IndexBucket(s.opts.Name, "displayName")).Put(IndexKey(rec.DisplayName, rec.RecordID), []byte(rec.RecordID))
}

func (s *Store) unindex(tx *bbolt.Tx, rec domain.Record) error {
	if err := tx.Bucket(IndexBucket(s.opts.Name, "recordId")).Delete(IndexKey(rec.RecordID, rec.RecordID)); err != nil {
		return err
	}
	return tx.Bucket(IndexBucket(s.opts.Name, "displayName")).Delete(IndexKey(rec.DisplayName, rec.RecordID))
}

// asStorage keeps catalogue errors as they are and wraps anything else.
func asStorage(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.Storage(op, err)
}
