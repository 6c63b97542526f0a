package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"prodledger/internal/fileutil"
	"prodledger/internal/logging"
)

// Options tune persistence behaviour.
type Options struct {
	// Indent pretty-prints the document.
	Indent bool
	// LockFiles takes an advisory lock on <path>.lock around every operation.
	LockFiles bool
	Logger    *slog.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// UpsertResult describes one applied upsert.
type UpsertResult struct {
	ID       int    `json:"id"`
	Key      string `json:"key"`
	Inserted bool   `json:"inserted"`
	Changes  int    `json:"changes"`
}

// BatchResult summarizes an UpsertBatch call. Results holds one entry per
// applied record, aligned with Indexes.
type BatchResult struct {
	Inserted int            `json:"inserted"`
	Updated  int            `json:"updated"`
	Errors   []RecordError  `json:"errors"`
	Results  []UpsertResult `json:"-"`
	Indexes  []int          `json:"-"`
}

// DeleteResult reports the outcome of a delete.
type DeleteResult struct {
	Deleted   int `json:"deleted"`
	Remaining int `json:"remaining"`
}

// Store is a single-document JSON collection.
type Store[R any] struct {
	path   string
	schema Schema[R]
	opts   Options
	logger *slog.Logger
	lock   *fileLock

	mu sync.Mutex
}

// New creates a store backed by path. The file is created lazily on first
// access.
func New[R any](path string, schema Schema[R], opts Options) (*Store[R], error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := schema.check(); err != nil {
		return nil, err
	}
	if schema.Name == "" {
		schema.Name = schema.Collection
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.NewComponentLogger(opts.Logger, "store").With(logging.Store(schema.Name))
	return &Store[R]{
		path:   path,
		schema: schema,
		opts:   opts,
		logger: logger,
		lock:   newFileLock(path, opts.LockFiles),
	}, nil
}

// Path returns the backing file.
func (s *Store[R]) Path() string { return s.path }

// Schema returns the schema the store was built with.
func (s *Store[R]) Schema() Schema[R] { return s.schema }

// Load returns the document metadata and records in schema order.
func (s *Store[R]) Load() (Metadata, []R, error) {
	var (
		meta    Metadata
		records []R
	)
	err := s.read(func(a *Arena[R], m Metadata) {
		meta = m
		records = a.Sorted()
	})
	return meta, records, err
}

// All returns every record in schema order.
func (s *Store[R]) All() ([]R, error) {
	var records []R
	err := s.read(func(a *Arena[R], _ Metadata) {
		records = a.Sorted()
	})
	return records, err
}

// Filter returns the records matching pred in schema order.
func (s *Store[R]) Filter(pred func(*R) bool) ([]R, error) {
	var records []R
	err := s.read(func(a *Arena[R], _ Metadata) {
		for _, r := range a.Sorted() {
			if pred(&r) {
				records = append(records, r)
			}
		}
	})
	return records, err
}

// Count returns the number of stored records.
func (s *Store[R]) Count() (int, error) {
	var n int
	err := s.read(func(a *Arena[R], _ Metadata) { n = a.Len() })
	return n, err
}

// Upsert inserts or replaces one record and writes the document.
func (s *Store[R]) Upsert(r R) (UpsertResult, error) {
	var res UpsertResult
	err := s.Mutate(func(a *Arena[R]) error {
		var err error
		res, err = a.Upsert(r)
		if err != nil {
			return &RecordError{Index: 0, Key: res.Key, Err: err}
		}
		return nil
	})
	return res, err
}

// UpsertBatch applies every record against one loaded document and writes
// once. Records that fail are reported in Errors and skipped.
func (s *Store[R]) UpsertBatch(records []R) (BatchResult, error) {
	var res BatchResult
	err := s.Mutate(func(a *Arena[R]) error {
		res = ApplyBatch(a, records)
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}
	if len(res.Errors) > 0 {
		logging.WarnWithContext(s.logger, "batch upsert had record failures", "batch_record_errors",
			logging.Int("failed", len(res.Errors)),
			logging.Int("applied", res.Inserted+res.Updated),
			logging.String(logging.FieldImpact, "failed records were not stored"),
			logging.String(logging.FieldErrorHint, "fix the listed records and import again"))
	}
	return res, nil
}

// ApplyBatch upserts records into a loaded arena, collecting per-record
// failures instead of stopping.
func ApplyBatch[R any](a *Arena[R], records []R) BatchResult {
	res := BatchResult{Errors: []RecordError{}}
	for i, r := range records {
		ur, err := a.Upsert(r)
		if err != nil {
			res.Errors = append(res.Errors, RecordError{Index: i, Key: ur.Key, Err: err})
			continue
		}
		if ur.Inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
		res.Results = append(res.Results, ur)
		res.Indexes = append(res.Indexes, i)
	}
	return res
}

// Delete removes every record matching pred.
func (s *Store[R]) Delete(pred func(*R) bool) (DeleteResult, error) {
	var res DeleteResult
	err := s.Mutate(func(a *Arena[R]) error {
		res.Deleted = a.Remove(pred)
		res.Remaining = a.Len()
		return nil
	})
	return res, err
}

// DeleteAll empties the collection.
func (s *Store[R]) DeleteAll() (DeleteResult, error) {
	var res DeleteResult
	err := s.Mutate(func(a *Arena[R]) error {
		res.Deleted = a.Len()
		a.Reset()
		return nil
	})
	return res, err
}

// Replace stores exactly records, deduplicated by key with the last one
// winning, and returns the resulting count.
func (s *Store[R]) Replace(records []R) (int, error) {
	var n int
	err := s.Mutate(func(a *Arena[R]) error {
		a.Reset()
		for _, r := range records {
			a.Put(r)
		}
		n = a.Len()
		return nil
	})
	return n, err
}

// Mutate loads the document, hands it to fn and writes it back when fn
// returns nil. An error from fn aborts without writing.
func (s *Store[R]) Mutate(fn func(*Arena[R]) error) error {
	return s.Update(func(a *Arena[R]) (bool, error) {
		return true, fn(a)
	})
}

// Update is Mutate with a choice: the document is written only when fn
// reports a change.
func (s *Store[R]) Update(fn func(*Arena[R]) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.lock.acquire(true)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer release()

	now := s.opts.Now().UTC()
	arena, meta, state := s.load(now)
	changed, err := fn(arena)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(arena, meta, state, now)
}

func (s *Store[R]) read(fn func(*Arena[R], Metadata)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now().UTC()
	release, err := s.lock.acquire(false)
	if err != nil {
		logging.ErrorWithContext(s.logger, "failed to lock document for reading", "store_lock_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the lock file next to the data file"))
		fn(newArena(&s.schema, now), Metadata{CreatedAt: now, UpdatedAt: now, Version: DocumentVersion})
		return nil
	}
	defer release()

	arena, meta, state := s.load(now)
	if state == stateMissing {
		if err := s.save(arena, meta, state, now); err != nil {
			logging.ErrorWithContext(s.logger, "failed to create empty document", "store_init_failed",
				logging.String("path", s.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the data directory"))
		}
	}
	fn(arena, meta)
	return nil
}

type loadState int

const (
	stateLoaded loadState = iota
	stateMissing
	stateCorrupt
)

// load never fails: a missing file yields a fresh document and an unreadable
// one yields an empty document plus an error log.
func (s *Store[R]) load(now time.Time) (*Arena[R], Metadata, loadState) {
	arena := newArena(&s.schema, now)
	fresh := Metadata{CreatedAt: now, UpdatedAt: now, Version: DocumentVersion}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return arena, fresh, stateMissing
		}
		s.logLoadFailure(err)
		return arena, fresh, stateCorrupt
	}

	records, meta, err := decodeDocument[R](data, s.schema.Collection)
	if err != nil {
		s.logLoadFailure(err)
		return arena, fresh, stateCorrupt
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = now
	}
	if meta.Version == "" {
		meta.Version = DocumentVersion
	}

	lastID := meta.LastID
	if s.schema.hasID() {
		for i := range records {
			if id := s.schema.ID(&records[i]); id > lastID {
				lastID = id
			}
		}
	}
	arena.fill(records, lastID)

	s.logger.Debug("loaded document",
		logging.String("path", s.path),
		logging.Int("record_count", arena.Len()))
	return arena, meta, stateLoaded
}

func (s *Store[R]) logLoadFailure(err error) {
	logging.ErrorWithContext(s.logger, "failed to load document", "store_load_failed",
		logging.String("path", s.path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "repair or remove the file; it is set aside on the next write"),
		logging.String(logging.FieldImpact, "reads return an empty collection"))
}

func (s *Store[R]) save(a *Arena[R], meta Metadata, state loadState, now time.Time) error {
	meta.UpdatedAt = now
	meta.Version = DocumentVersion
	if s.schema.hasID() {
		meta.LastID = a.lastID
	}

	data, err := encodeDocument(s.schema.Collection, a.items, meta, s.opts.Indent)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if state == stateCorrupt {
		s.setAside(now)
	}

	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	return nil
}

// setAside keeps an unreadable file next to the new one instead of
// overwriting it.
func (s *Store[R]) setAside(now time.Time) {
	info, err := os.Stat(s.path)
	if err != nil || info.IsDir() {
		return
	}
	target := fmt.Sprintf("%s.corrupt-%s", s.path, now.Format("20060102T150405"))
	if err := os.Rename(s.path, target); err != nil {
		logging.WarnWithContext(s.logger, "failed to set aside unreadable document", "store_set_aside_failed",
			logging.String("path", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "the unreadable file will be overwritten"))
		return
	}
	s.logger.Warn("unreadable document set aside",
		logging.String(logging.FieldEventType, "store_set_aside"),
		logging.String("path", filepath.Base(target)),
		logging.String(logging.FieldImpact, "previous contents are preserved in the set-aside file"),
		logging.String(logging.FieldErrorHint, "merge any needed records back by import"))
}
