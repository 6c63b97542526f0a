package api

import (
	"prodledger/internal/delivery"
	"prodledger/internal/ingest"
	"prodledger/internal/production"
	"prodledger/internal/reconcile"
)

// ProductionImport reports one production import run.
type ProductionImport struct {
	RunID   string                              `json:"runId"`
	Source  string                              `json:"source"`
	Rows    int                                 `json:"rows"`
	Skipped int                                 `json:"skipped"`
	Issues  []ingest.Issue                      `json:"issues,omitempty"`
	Result  reconcile.Result[production.Record] `json:"result"`
}

// DeliveryImport reports one delivery CSV import.
type DeliveryImport struct {
	RunID  string `json:"runId"`
	Source string `json:"source"`
	delivery.ImportResult
}

// ReplaceResult reports a full delivery replacement.
type ReplaceResult struct {
	Count int `json:"count"`
}
