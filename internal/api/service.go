package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"prodledger/internal/config"
	"prodledger/internal/delivery"
	"prodledger/internal/ingest"
	"prodledger/internal/journal"
	"prodledger/internal/logging"
	"prodledger/internal/production"
	"prodledger/internal/store"
)

// ErrSheetsDisabled is returned when a Google Sheets import is requested
// while [sheets] is disabled.
var ErrSheetsDisabled = errors.New("google sheets source is disabled")

// RangeReader reads a rectangular range of cells as text.
type RangeReader interface {
	ReadRange(ctx context.Context, sheetRange string) ([][]string, error)
}

// Option customizes NewService.
type Option func(*Service)

// WithSheetSource replaces the Google Sheets client, typically in tests.
func WithSheetSource(src RangeReader) Option {
	return func(s *Service) { s.sheets = src }
}

// WithProductionValidator rejects production records before they are stored.
func WithProductionValidator(fn func(*production.Record) error) Option {
	return func(s *Service) { s.validator = fn }
}

// Service is the application facade over both stores and the journal.
type Service struct {
	cfg        *config.Config
	production *production.Store
	delivery   *delivery.Store
	journal    *journal.Journal
	sheets     RangeReader
	validator  func(*production.Record) error
	layout     ingest.ProductionLayout
	ingest     ingest.Options
	compare    production.CompareMode
	logger     *slog.Logger
}

// NewService opens the stores named by cfg. The journal is optional: when it
// cannot be opened the service logs a warning and runs without it.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("api: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &Service{
		cfg:     cfg,
		compare: production.CompareMode(cfg.Import.ProductionCompare),
		logger:  logging.NewComponentLogger(logger, "api"),
	}
	for _, opt := range opts {
		opt(svc)
	}

	ingestOpts, err := ingestOptions(cfg)
	if err != nil {
		return nil, err
	}
	ingestOpts.Logger = logger
	svc.ingest = ingestOpts

	svc.layout = ingest.DefaultProductionLayout()
	svc.layout.HeaderRows = cfg.Import.HeaderRows

	storeOpts := store.Options{
		Indent:    cfg.Store.Indent,
		LockFiles: cfg.Store.LockFiles,
		Logger:    logger,
	}
	var prodOpts []production.Option
	if svc.validator != nil {
		prodOpts = append(prodOpts, production.WithValidator(svc.validator))
	}
	svc.production, err = production.Open(cfg.ProductionPath(), storeOpts, prodOpts...)
	if err != nil {
		return nil, fmt.Errorf("open production store: %w", err)
	}
	svc.delivery, err = delivery.Open(cfg.DeliveryPath(), storeOpts, cfg.Delivery.WeekdayLabels)
	if err != nil {
		return nil, fmt.Errorf("open delivery store: %w", err)
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			logging.WarnWithContext(svc.logger, "journal unavailable", "journal_open_failed",
				logging.Error(err),
				logging.String("path", cfg.JournalPath()),
				logging.String(logging.FieldImpact, "imports run without a journal"),
				logging.String(logging.FieldErrorHint, "check the journal path or delete a journal from an older version"))
		} else {
			svc.journal = j
		}
	}
	return svc, nil
}

// Close releases the journal.
func (s *Service) Close() error {
	if s == nil || s.journal == nil {
		return nil
	}
	return s.journal.Close()
}

// Config returns the configuration the service was built from.
func (s *Service) Config() *config.Config { return s.cfg }

// JournalEnabled reports whether import runs are being journaled.
func (s *Service) JournalEnabled() bool { return s.journal != nil }

// RecentRuns returns up to n journal entries, newest first.
func (s *Service) RecentRuns(ctx context.Context, n int) ([]journal.Run, error) {
	if s.journal == nil {
		return []journal.Run{}, nil
	}
	return s.journal.Recent(ctx, n)
}

func ingestOptions(cfg *config.Config) (ingest.Options, error) {
	invalidDate, err := ingest.ParsePolicy(cfg.Import.InvalidDate)
	if err != nil {
		return ingest.Options{}, fmt.Errorf("import.invalid_date: %w", err)
	}
	invalidNumber, err := ingest.ParsePolicy(cfg.Import.InvalidNumber)
	if err != nil {
		return ingest.Options{}, fmt.Errorf("import.invalid_number: %w", err)
	}
	opts := ingest.Options{
		Encoding:      cfg.Import.Encoding,
		InvalidDate:   invalidDate,
		InvalidNumber: invalidNumber,
		WeekdayLabels: cfg.Delivery.WeekdayLabels,
	}
	if cfg.Import.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(cfg.Import.Delimiter)
	}
	return opts, nil
}
