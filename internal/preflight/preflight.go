package preflight

import (
	"context"

	"prodledger/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results,
		CheckStoreFile("Production store", cfg.ProductionPath()),
		CheckStoreFile("Delivery store", cfg.DeliveryPath()),
	)

	if cfg.Journal.Enabled {
		results = append(results, CheckJournal(ctx, cfg.JournalPath()))
	}

	if cfg.Sheets.Enabled {
		results = append(results, CheckSheetsCredentials(cfg.Sheets))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
