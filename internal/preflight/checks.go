package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"prodledger/internal/config"
	"prodledger/internal/journal"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStoreFile verifies that a record store document is writable and parses.
// A missing file passes; the store creates it on first use.
func CheckStoreFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not created yet)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: read: %v)", path, err)}
	}
	if !json.Valid(data) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not valid JSON; it is set aside on the next write)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckJournal opens the import journal and reads the latest run.
func CheckJournal(ctx context.Context, path string) Result {
	const name = "Import journal"

	j, err := journal.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer j.Close()

	runs, err := j.Recent(ctx, 1)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if len(runs) == 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (no runs yet)", path)}
	}
	last := runs[0]
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (last run %s %s, %s)",
		path, last.Kind, last.StartedAt.Format("2006-01-02 15:04"), last.Status)}
}

// CheckSheetsCredentials verifies the Google Sheets settings without calling
// the API.
func CheckSheetsCredentials(cfg config.Sheets) Result {
	const name = "Google Sheets"

	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return Result{Name: name, Detail: "missing spreadsheet id"}
	}
	path := strings.TrimSpace(cfg.CredentialsPath)
	if path == "" {
		return Result{Name: name, Detail: "missing credentials path"}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: credentials not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("spreadsheet %s, range %s", cfg.SpreadsheetID, cfg.Range)}
}
