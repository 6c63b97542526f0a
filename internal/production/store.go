package production

import (
	"log/slog"
	"time"

	"prodledger/internal/logging"
	"prodledger/internal/reconcile"
	"prodledger/internal/store"
)

// Collection is the JSON array key of the production document.
const Collection = "records"

// Store holds production records keyed by their natural key.
type Store struct {
	records *store.Store[Record]
	engines map[CompareMode]*reconcile.Engine[Record]
	logger  *slog.Logger
}

// Option customizes Open.
type Option func(*store.Schema[Record])

// WithValidator rejects records before they are stored. Without it missing
// key fields are stored as empty strings.
func WithValidator(fn func(*Record) error) Option {
	return func(s *store.Schema[Record]) { s.Validate = fn }
}

// Schema describes production records to the generic store.
func Schema() store.Schema[Record] {
	return store.Schema[Record]{
		Name:       "production",
		Collection: Collection,
		Key:        (*Record).Key,
		Less:       less,
		ID:         func(r *Record) int { return r.ID },
		SetID:      func(r *Record, id int) { r.ID = id },
		Stamp: func(r, prev *Record, now time.Time) {
			if prev != nil {
				r.CreatedAt = prev.CreatedAt
			} else {
				r.CreatedAt = now
			}
			r.UpdatedAt = now
		},
	}
}

// less orders by date descending, then machine and mold ascending.
func less(a, b *Record) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	if a.MachineNumber != b.MachineNumber {
		return a.MachineNumber < b.MachineNumber
	}
	return a.MoldNumber < b.MoldNumber
}

// Open returns a store backed by path.
func Open(path string, opts store.Options, options ...Option) (*Store, error) {
	schema := Schema()
	for _, opt := range options {
		opt(&schema)
	}
	records, err := store.New(path, schema, opts)
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "production")
	return &Store{
		records: records,
		engines: map[CompareMode]*reconcile.Engine[Record]{
			CompareRecord: reconcile.New[Record](records, RecordFields, opts.Logger),
			CompareBatch:  reconcile.New[Record](records, BatchFields, opts.Logger),
		},
		logger: logger,
	}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.records.Path() }

// GetAll returns every record, newest date first.
func (s *Store) GetAll() ([]Record, error) {
	return s.records.All()
}

// GetByDate returns the records of one date ordered by machine and mold.
func (s *Store) GetByDate(date string) ([]Record, error) {
	return s.records.Filter(func(r *Record) bool { return r.Date == date })
}

// GetGroupedByDate returns one summary per date, newest first.
func (s *Store) GetGroupedByDate() ([]store.DateSummary, error) {
	records, err := s.records.All()
	if err != nil {
		return nil, err
	}
	return store.GroupByDate(records,
		func(r *Record) string { return r.Date },
		func(r *Record) int { return r.Total }), nil
}

// Upsert inserts or replaces one record.
func (s *Store) Upsert(rec Record) (store.UpsertResult, error) {
	return s.records.Upsert(rec)
}

// UpsertBatch applies recs with one write.
func (s *Store) UpsertBatch(recs []Record) (store.BatchResult, error) {
	return s.records.UpsertBatch(recs)
}

// CompareAndUpdate reconciles recs using the field set of mode.
func (s *Store) CompareAndUpdate(recs []Record, mode CompareMode) (reconcile.Result[Record], error) {
	engine, ok := s.engines[mode]
	if !ok {
		engine = s.engines[CompareRecord]
	}
	return engine.CompareAndUpdate(recs)
}

// DeleteByID removes the record with id.
func (s *Store) DeleteByID(id int) (store.DeleteResult, error) {
	return s.DeleteByIDs([]int{id})
}

// DeleteByIDs removes every record whose id is listed.
func (s *Store) DeleteByIDs(ids []int) (store.DeleteResult, error) {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return s.delete("ids", func(r *Record) bool {
		_, ok := set[r.ID]
		return ok
	})
}

// DeleteByDate removes every record of date.
func (s *Store) DeleteByDate(date string) (store.DeleteResult, error) {
	return s.DeleteByDates([]string{date})
}

// DeleteByDates removes every record whose date is listed.
func (s *Store) DeleteByDates(dates []string) (store.DeleteResult, error) {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return s.delete("dates", func(r *Record) bool {
		_, ok := set[r.Date]
		return ok
	})
}

// DeleteByCondition removes records matching every field of cond.
func (s *Store) DeleteByCondition(cond Condition) (store.DeleteResult, error) {
	if err := cond.Validate(); err != nil {
		return store.DeleteResult{}, err
	}
	return s.delete(cond.String(), cond.Match)
}

// DeleteAll removes every record. Ids are not reused afterwards.
func (s *Store) DeleteAll() (store.DeleteResult, error) {
	res, err := s.records.DeleteAll()
	if err != nil {
		return res, err
	}
	s.logger.Info("production records cleared", logging.Int("deleted", res.Deleted))
	return res, nil
}

func (s *Store) delete(criterion string, pred func(*Record) bool) (store.DeleteResult, error) {
	res, err := s.records.Delete(pred)
	if err != nil {
		return res, err
	}
	s.logger.Info("production records deleted",
		logging.String("criterion", criterion),
		logging.Int("deleted", res.Deleted),
		logging.Int("remaining", res.Remaining))
	return res, nil
}
