package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data and log directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Store contains configuration for the flat-file record stores.
type Store struct {
	ProductionFile string `toml:"production_file"` // relative names resolve under data_dir
	DeliveryFile   string `toml:"delivery_file"`
	// LockFiles wraps every read-modify-write in an advisory lock so separate
	// processes sharing a data directory do not lose updates. Default: false.
	LockFiles bool `toml:"lock_files"`
	Indent    bool `toml:"indent"`
}

// Import contains configuration for text and spreadsheet ingestion.
type Import struct {
	Encoding          string `toml:"encoding"`           // "utf-8" or "shift_jis"
	Delimiter         string `toml:"delimiter"`          // empty = sniff from header
	InvalidDate       string `toml:"invalid_date"`       // "skip" or "reject"
	InvalidNumber     string `toml:"invalid_number"`     // "default" or "reject"
	HeaderRows        int    `toml:"header_rows"`        // spreadsheet rows to skip
	ProductionCompare string `toml:"production_compare"` // "record" or "batch"
	WorkbookSheet     string `toml:"workbook_sheet"`
}

// Delivery contains configuration for the delivery volume store.
type Delivery struct {
	WeekdayLabels []string `toml:"weekday_labels"` // Sunday first
	RecentDays    int      `toml:"recent_days"`
}

// Sheets contains configuration for reading production data from Google Sheets.
type Sheets struct {
	Enabled         bool   `toml:"enabled"`
	CredentialsPath string `toml:"credentials_path"`
	SpreadsheetID   string `toml:"spreadsheet_id"`
	Range           string `toml:"range"`
}

// Journal contains configuration for the import run ledger.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for prodledger.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Store: record store file names and write behaviour
//   - Import: encodings and invalid-input policies for ingestion
//   - Delivery: weekday labels and default window for recent days
//   - Sheets: Google Sheets production source
//   - Journal: SQLite ledger of import runs
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Store    Store    `toml:"store"`
	Import   Import   `toml:"import"`
	Delivery Delivery `toml:"delivery"`
	Sheets   Sheets   `toml:"sheets"`
	Journal  Journal  `toml:"journal"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("prodledger.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ProductionPath returns the absolute path of the production records file.
func (c *Config) ProductionPath() string {
	return c.resolveDataFile(c.Store.ProductionFile)
}

// DeliveryPath returns the absolute path of the delivery records file.
func (c *Config) DeliveryPath() string {
	return c.resolveDataFile(c.Store.DeliveryFile)
}

// JournalPath returns the absolute path of the import journal database.
func (c *Config) JournalPath() string {
	if strings.TrimSpace(c.Journal.Path) == "" {
		return filepath.Join(c.Paths.DataDir, defaultJournalFile)
	}
	return c.resolveDataFile(c.Journal.Path)
}

func (c *Config) resolveDataFile(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.DataDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
