package api

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"prodledger/internal/ingest"
	"prodledger/internal/ingest/sheets"
	"prodledger/internal/journal"
	"prodledger/internal/logging"
	"prodledger/internal/production"
	"prodledger/internal/reconcile"
)

// ImportProductionWorkbook reconciles an xlsx workbook into the production
// store. An empty sheet falls back to import.workbook_sheet, then to the first
// sheet.
func (s *Service) ImportProductionWorkbook(ctx context.Context, path, sheet string) (ProductionImport, error) {
	if sheet == "" {
		sheet = s.cfg.Import.WorkbookSheet
	}
	return s.importProduction(ctx, journal.KindProductionWorkbook, path, func(opts ingest.Options) (ingest.ProductionParse, error) {
		grid, err := sheets.ReadWorkbook(path, sheet)
		if err != nil {
			return ingest.ProductionParse{}, err
		}
		return ingest.ParseProductionGrid(grid, s.layout, opts)
	})
}

// ImportProductionSheet reconciles the configured Google Sheets range. An
// empty sheetRange uses sheets.range.
func (s *Service) ImportProductionSheet(ctx context.Context, sheetRange string) (ProductionImport, error) {
	if sheetRange == "" {
		sheetRange = s.cfg.Sheets.Range
	}
	src, err := s.sheetSource(ctx)
	if err != nil {
		return ProductionImport{}, err
	}
	return s.importProduction(ctx, journal.KindProductionSheet, sheetRange, func(opts ingest.Options) (ingest.ProductionParse, error) {
		grid, err := src.ReadRange(ctx, sheetRange)
		if err != nil {
			return ingest.ProductionParse{}, err
		}
		return ingest.ParseProductionGrid(grid, s.layout, opts)
	})
}

// ImportProductionCSV reconciles a delimited text export into the production
// store.
func (s *Service) ImportProductionCSV(ctx context.Context, path string) (ProductionImport, error) {
	return s.importProduction(ctx, journal.KindProductionCSV, path, func(opts ingest.Options) (ingest.ProductionParse, error) {
		f, err := os.Open(path)
		if err != nil {
			return ingest.ProductionParse{}, fmt.Errorf("open production csv: %w", err)
		}
		defer f.Close()
		return ingest.ParseProductionCSV(f, s.layout, opts)
	})
}

// ImportDeliveryCSV overwrites delivery days from a CSV export.
func (s *Service) ImportDeliveryCSV(ctx context.Context, path string) (DeliveryImport, error) {
	ctx, run := s.beginRun(ctx, journal.KindDeliveryCSV, path)
	res, err := s.delivery.ImportCSVFile(path, s.ingestOptions(ctx))
	summary := journal.Summary{Imported: res.Imported, Skipped: res.Skipped}
	run.finish(ctx, summary, err)
	if err != nil {
		return DeliveryImport{}, err
	}
	return DeliveryImport{RunID: run.id, Source: path, ImportResult: res}, nil
}

func (s *Service) importProduction(ctx context.Context, kind journal.Kind, source string, parse func(ingest.Options) (ingest.ProductionParse, error)) (ProductionImport, error) {
	ctx, run := s.beginRun(ctx, kind, source)

	parsed, err := parse(s.ingestOptions(ctx))
	if err != nil {
		run.finish(ctx, journal.Summary{}, err)
		return ProductionImport{}, err
	}

	res, err := s.production.CompareAndUpdate(production.FromRows(parsed.Rows), s.compare)
	summary := reconcileSummary(res)
	summary.Skipped = parsed.Skipped
	run.finish(ctx, summary, err)
	if err != nil {
		return ProductionImport{}, err
	}

	logging.WithContext(ctx, s.logger).Info("production import complete",
		logging.String(logging.FieldEventType, "production_import_complete"),
		logging.Int("rows", len(parsed.Rows)),
		logging.Int("skipped", parsed.Skipped),
		logging.Int("added", len(res.Added)),
		logging.Int("updated", len(res.Updated)),
		logging.Int("unchanged", len(res.Unchanged)),
		logging.Int("errors", len(res.Errors)))

	return ProductionImport{
		RunID:   run.id,
		Source:  source,
		Rows:    len(parsed.Rows),
		Skipped: parsed.Skipped,
		Issues:  parsed.Issues,
		Result:  res,
	}, nil
}

func (s *Service) sheetSource(ctx context.Context) (RangeReader, error) {
	if s.sheets != nil {
		return s.sheets, nil
	}
	if !s.cfg.Sheets.Enabled {
		return nil, ErrSheetsDisabled
	}
	src, err := sheets.NewGoogleSource(ctx, s.cfg.Sheets, s.logger)
	if err != nil {
		return nil, err
	}
	s.sheets = src
	return src, nil
}

func (s *Service) ingestOptions(ctx context.Context) ingest.Options {
	opts := s.ingest
	opts.Logger = logging.WithContext(ctx, opts.Logger)
	return opts
}

// journalRun tracks one journaled operation. A zero journal entry means the
// journal is off or Begin failed; finish is then a no-op.
type journalRun struct {
	svc   *Service
	id    string
	entry *journal.Run
}

func (s *Service) beginRun(ctx context.Context, kind journal.Kind, source string) (context.Context, *journalRun) {
	run := &journalRun{svc: s}
	if s.journal != nil {
		entry, err := s.journal.Begin(ctx, kind, source)
		if err != nil {
			logging.WarnWithContext(s.logger, "journal begin failed", "journal_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run is not journaled"))
		} else {
			run.entry = &entry
			run.id = entry.ID
		}
	}
	if run.id == "" {
		run.id = uuid.NewString()
	}
	ctx = logging.WithRunID(ctx, run.id)
	ctx = logging.WithSource(ctx, source)
	return ctx, run
}

func (r *journalRun) finish(ctx context.Context, summary journal.Summary, runErr error) {
	if r.entry == nil {
		return
	}
	if _, err := r.svc.journal.Finish(ctx, *r.entry, summary, runErr); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.svc.logger), "journal finish failed", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the run stays marked as running in the journal"))
	}
}

func reconcileSummary[R any](res reconcile.Result[R]) journal.Summary {
	summary := journal.Summary{
		Added:     len(res.Added),
		Updated:   len(res.Updated),
		Unchanged: len(res.Unchanged),
	}
	for _, failure := range res.Errors {
		if failure.Err != nil {
			summary.Errors = append(summary.Errors, failure.Err.Error())
		}
	}
	return summary
}
