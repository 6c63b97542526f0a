package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind names what a run imported.
type Kind string

const (
	KindProductionWorkbook  Kind = "production_workbook"
	KindProductionSheet     Kind = "production_sheet"
	KindProductionCSV       Kind = "production_csv"
	KindProductionReconcile Kind = "production_reconcile"
	KindDeliveryCSV         Kind = "delivery_csv"
	KindDeliveryReplace     Kind = "delivery_replace"
)

// Status is the outcome of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Summary holds the counts a run produced.
type Summary struct {
	Added     int      `json:"added"`
	Updated   int      `json:"updated"`
	Unchanged int      `json:"unchanged"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Run is one journal entry.
type Run struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Source     string     `json:"source"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Summary    Summary    `json:"summary"`
	Error      string     `json:"error,omitempty"`
}

// Duration returns how long a finished run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Journal is the SQLite-backed run ledger.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path, now: time.Now}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file.
func (j *Journal) Path() string { return j.path }

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Begin records the start of a run and returns it with a fresh id.
func (j *Journal) Begin(ctx context.Context, kind Kind, source string) (Run, error) {
	ctx = ensureContext(ctx)
	run := Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Source:    source,
		Status:    StatusRunning,
		StartedAt: j.now().UTC(),
	}
	err := retryOnBusy(ctx, func() error {
		_, err := j.db.ExecContext(ctx,
			"INSERT INTO runs (id, kind, source, status, started_at) VALUES (?, ?, ?, ?, ?)",
			run.ID, string(run.Kind), run.Source, string(run.Status), formatTime(run.StartedAt))
		return err
	})
	if err != nil {
		return Run{}, fmt.Errorf("begin run: %w", err)
	}
	return run, nil
}

// Finish stores the outcome of run. A non-nil runErr marks it failed; record
// errors in summary mark it partial.
func (j *Journal) Finish(ctx context.Context, run Run, summary Summary, runErr error) (Run, error) {
	ctx = ensureContext(ctx)
	finished := j.now().UTC()
	run.FinishedAt = &finished
	run.Summary = summary
	switch {
	case runErr != nil:
		run.Status = StatusFailed
		run.Error = runErr.Error()
	case len(summary.Errors) > 0:
		run.Status = StatusPartial
	default:
		run.Status = StatusSucceeded
	}

	err := retryOnBusy(ctx, func() error {
		tx, err := j.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `UPDATE runs SET status = ?, finished_at = ?, added = ?, updated = ?,
			unchanged = ?, imported = ?, skipped = ?, error = ? WHERE id = ?`,
			string(run.Status), formatTime(finished), summary.Added, summary.Updated, summary.Unchanged,
			summary.Imported, summary.Skipped, nullableString(run.Error), run.ID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("run %s not found", run.ID)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM run_errors WHERE run_id = ?", run.ID); err != nil {
			return err
		}
		for i, msg := range summary.Errors {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO run_errors (run_id, position, message) VALUES (?, ?, ?)", run.ID, i, msg); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return run, fmt.Errorf("finish run %s: %w", run.ID, err)
	}
	return run, nil
}

// Recent returns up to n runs, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Run, error) {
	ctx = ensureContext(ctx)
	if n <= 0 {
		return []Run{}, nil
	}
	rows, err := j.db.QueryContext(ctx, `SELECT id, kind, source, status, started_at, finished_at,
		added, updated, unchanged, imported, skipped, error
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	index := map[string]int{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	ids := make([]any, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	errRows, err := j.db.QueryContext(ctx,
		"SELECT run_id, message FROM run_errors WHERE run_id IN ("+placeholders(len(ids))+") ORDER BY run_id, position", ids...)
	if err != nil {
		return nil, fmt.Errorf("query run errors: %w", err)
	}
	defer errRows.Close()
	for errRows.Next() {
		var id, msg string
		if err := errRows.Scan(&id, &msg); err != nil {
			return nil, fmt.Errorf("scan run error: %w", err)
		}
		if i, ok := index[id]; ok {
			runs[i].Summary.Errors = append(runs[i].Summary.Errors, msg)
		}
	}
	return runs, errRows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run      Run
		kind     string
		status   string
		started  string
		finished sql.NullString
		errText  sql.NullString
	)
	if err := scanner.Scan(&run.ID, &kind, &run.Source, &status, &started, &finished,
		&run.Summary.Added, &run.Summary.Updated, &run.Summary.Unchanged,
		&run.Summary.Imported, &run.Summary.Skipped, &errText); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Kind = Kind(kind)
	run.Status = Status(status)
	t, err := parseTime(started)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = t
	if finished.Valid {
		ft, err := parseTime(finished.String)
		if err != nil {
			return Run{}, err
		}
		run.FinishedAt = &ft
	}
	run.Error = errText.String
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func placeholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
