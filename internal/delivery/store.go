package delivery

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"prodledger/internal/ingest"
	"prodledger/internal/logging"
	"prodledger/internal/reconcile"
	"prodledger/internal/store"
)

// Collection is the JSON array key of the delivery document.
const Collection = "delivery_data"

var (
	// ErrInvalidHour reports an hour outside 0..23.
	ErrInvalidHour = errors.New("hour must be between 0 and 23")
	// ErrInvalidDate reports a date that cannot be normalized.
	ErrInvalidDate = errors.New("invalid delivery date")
)

// Patch is a partial update of one day. Nil DayOfWeek keeps the stored
// label; Hours lists only the hours to change.
type Patch struct {
	DayOfWeek *string
	Hours     map[int]int
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Issues   []ingest.Issue `json:"issues,omitempty"`
}

// Store holds one Day per date.
type Store struct {
	days   *store.Store[Day]
	engine *reconcile.Engine[Day]
	labels []string
	logger *slog.Logger
}

// Schema describes delivery days to the generic store.
func Schema() store.Schema[Day] {
	return store.Schema[Day]{
		Name:       "delivery",
		Collection: Collection,
		Key:        func(d *Day) string { return d.Date },
		Less:       func(a, b *Day) bool { return a.Date > b.Date },
	}
}

// Open returns a store backed by path. labels name the weekdays from Sunday;
// an incomplete list falls back to English abbreviations.
func Open(path string, opts store.Options, labels []string) (*Store, error) {
	days, err := store.New(path, Schema(), opts)
	if err != nil {
		return nil, err
	}
	if len(labels) != 7 {
		labels = ingest.DefaultWeekdayLabels
	}
	return &Store{
		days:   days,
		engine: reconcile.New[Day](days, Fields, opts.Logger),
		labels: labels,
		logger: logging.NewComponentLogger(opts.Logger, "delivery"),
	}, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.days.Path() }

// GetAll returns every day, newest first.
func (s *Store) GetAll() ([]Day, error) {
	return s.days.All()
}

// GetRecentDays returns the n most recent days, newest first.
func (s *Store) GetRecentDays(n int) ([]Day, error) {
	all, err := s.days.All()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// GetByDate returns the day stored for date.
func (s *Store) GetByDate(date string) (Day, bool, error) {
	canonical, err := normalizeDate(date)
	if err != nil {
		return Day{}, false, err
	}
	found, err := s.days.Filter(func(d *Day) bool { return d.Date == canonical })
	if err != nil || len(found) == 0 {
		return Day{}, false, err
	}
	return found[0], true, nil
}

// GetGroupedByDate returns one summary per day with the day total.
func (s *Store) GetGroupedByDate() ([]store.DateSummary, error) {
	all, err := s.days.All()
	if err != nil {
		return nil, err
	}
	return store.GroupByDate(all,
		func(d *Day) string { return d.Date },
		func(d *Day) int { return d.Total }), nil
}

// Upsert merges patch into the stored day (or a new one) and recomputes the
// total.
func (s *Store) Upsert(date string, patch Patch) (Day, error) {
	canonical, err := normalizeDate(date)
	if err != nil {
		return Day{}, err
	}
	for h := range patch.Hours {
		if h < 0 || h >= HoursPerDay {
			return Day{}, &store.RecordError{Key: canonical, Err: fmt.Errorf("%w: %d", ErrInvalidHour, h)}
		}
	}

	var out Day
	err = s.days.Mutate(func(a *store.Arena[Day]) error {
		day, ok := a.Get(canonical)
		if !ok {
			day = Day{Date: canonical}
		}
		if patch.DayOfWeek != nil {
			day.DayOfWeek = *patch.DayOfWeek
		}
		for h, v := range patch.Hours {
			day.Hours[h] = v
		}
		out = s.finish(day)
		_, err := a.Upsert(out)
		return err
	})
	return out, err
}

// UpsertHourlyCumulative sets the listed hours of date and recomputes the
// total. Any hour outside 0..23 rejects the whole call.
func (s *Store) UpsertHourlyCumulative(date string, values []HourQuantity) (Day, error) {
	canonical, err := normalizeDate(date)
	if err != nil {
		return Day{}, err
	}
	hours := make(map[int]int, len(values))
	for i, v := range values {
		if v.Hour < 0 || v.Hour >= HoursPerDay {
			return Day{}, &store.RecordError{Index: i, Key: canonical, Err: fmt.Errorf("%w: %d", ErrInvalidHour, v.Hour)}
		}
		hours[v.Hour] = v.Quantity
	}
	return s.Upsert(canonical, Patch{Hours: hours})
}

// CompareAndUpdate reconciles days against the store, comparing hours and
// total. Totals are recomputed from the hours first. A day with a bad date
// is reported in Errors and the rest are still applied.
func (s *Store) CompareAndUpdate(days []Day) (reconcile.Result[Day], error) {
	incoming := make([]Day, 0, len(days))
	var rejected []reconcile.Failure[Day]
	for i, d := range days {
		canonical, err := normalizeDate(d.Date)
		if err != nil {
			rejected = append(rejected, reconcile.Failure[Day]{
				Record: d,
				Err:    &store.RecordError{Index: i, Key: d.Date, Err: err},
			})
			continue
		}
		d.Date = canonical
		incoming = append(incoming, s.finish(d))
	}

	res := reconcile.Result[Day]{
		Added:     []Day{},
		Updated:   []reconcile.Change[Day]{},
		Unchanged: []Day{},
		Errors:    []reconcile.Failure[Day]{},
	}
	if len(incoming) > 0 {
		var err error
		if res, err = s.engine.CompareAndUpdate(incoming); err != nil {
			return reconcile.Result[Day]{}, err
		}
	}
	if len(rejected) > 0 {
		logging.WarnWithContext(s.logger, "days with a bad date were not applied", "delivery_invalid_dates",
			logging.Int("rejected", len(rejected)),
			logging.String(logging.FieldImpact, "those days keep their previous stored values"))
		res.Errors = append(res.Errors, rejected...)
	}
	return res, nil
}

// ImportCSVFile imports a delivery CSV from disk.
func (s *Store) ImportCSVFile(path string, opts ingest.Options) (ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open delivery csv: %w", err)
	}
	defer f.Close()
	return s.ImportCSV(f, opts)
}

// ImportCSV overwrites each imported date with the parsed row. Hours and
// total are stored as given; rows with a bad date are skipped.
func (s *Store) ImportCSV(r io.Reader, opts ingest.Options) (ImportResult, error) {
	if len(opts.WeekdayLabels) != 7 {
		opts.WeekdayLabels = s.labels
	}
	if opts.Logger == nil {
		opts.Logger = s.logger
	}
	parsed, err := ingest.ParseDeliveryCSV(r, opts)
	if err != nil {
		return ImportResult{}, err
	}

	err = s.days.Mutate(func(a *store.Arena[Day]) error {
		for _, row := range parsed.Rows {
			a.Put(FromRow(row))
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Imported: len(parsed.Rows), Skipped: parsed.Skipped, Issues: parsed.Issues}
	s.logger.Info("delivery csv imported",
		logging.String(logging.FieldEventType, "delivery_import_complete"),
		logging.Int("imported", res.Imported),
		logging.Int("skipped", res.Skipped))
	return res, nil
}

// ReplaceAll stores exactly days, trusting their totals.
func (s *Store) ReplaceAll(days []Day) (int, error) {
	n, err := s.days.Replace(days)
	if err != nil {
		return 0, err
	}
	s.logger.Info("delivery data replaced", logging.Int("count", n))
	return n, nil
}

// DeleteByDate removes one day.
func (s *Store) DeleteByDate(date string) (store.DeleteResult, error) {
	return s.DeleteByDates([]string{date})
}

// DeleteByDates removes every listed day.
func (s *Store) DeleteByDates(dates []string) (store.DeleteResult, error) {
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if canonical, err := normalizeDate(d); err == nil {
			d = canonical
		}
		set[d] = struct{}{}
	}
	return s.days.Delete(func(d *Day) bool {
		_, ok := set[d.Date]
		return ok
	})
}

// DeleteAll removes every day.
func (s *Store) DeleteAll() (store.DeleteResult, error) {
	return s.days.DeleteAll()
}

// finish fills a blank weekday and recomputes the total.
func (s *Store) finish(d Day) Day {
	if d.DayOfWeek == "" {
		d.DayOfWeek = ingest.Weekday(d.Date, s.labels)
	}
	d.Total = DeriveTotal(d.Hours)
	return d
}

func normalizeDate(date string) (string, error) {
	canonical, err := ingest.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	return canonical, nil
}
