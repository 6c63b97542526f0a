package testsupport

import (
	"path/filepath"
	"testing"

	"prodledger/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Store.Indent = true

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLockFiles enables advisory file locking on both stores.
func WithLockFiles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.LockFiles = true
	}
}

// WithoutJournal disables the import journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithImportPolicies sets the invalid date and invalid number policies.
func WithImportPolicies(invalidDate, invalidNumber string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.InvalidDate = invalidDate
		b.cfg.Import.InvalidNumber = invalidNumber
	}
}

// WithCompareMode selects the production reconciliation field set.
func WithCompareMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Import.ProductionCompare = mode
	}
}

// WithSheets enables the Google Sheets source with a dummy credentials path.
func WithSheets(spreadsheetID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sheets.Enabled = true
		b.cfg.Sheets.SpreadsheetID = spreadsheetID
		b.cfg.Sheets.CredentialsPath = filepath.Join(b.baseDir, "credentials.json")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
