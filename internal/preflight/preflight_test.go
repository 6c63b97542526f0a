package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prodledger/internal/config"
	"prodledger/internal/journal"
	"prodledger/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStoreFile(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		content string
		create  bool
		pass    bool
		detail  string
	}{
		{name: "missing", pass: true, detail: "not created yet"},
		{name: "valid", content: `{"records":[],"metadata":{}}`, create: true, pass: true, detail: "bytes"},
		{name: "corrupt", content: `{"records":[`, create: true, detail: "not valid JSON"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			if tc.create {
				testsupport.WriteFile(t, path, tc.content)
			}
			result := CheckStoreFile("store", path)
			if result.Passed != tc.pass {
				t.Fatalf("passed = %v, want %v (%s)", result.Passed, tc.pass, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.detail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tc.detail)
			}
		})
	}
}

func TestCheckJournalReportsLastRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	if result := CheckJournal(context.Background(), path); !result.Passed || !strings.Contains(result.Detail, "no runs yet") {
		t.Fatalf("unexpected empty journal result: %+v", result)
	}

	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	run, err := j.Begin(context.Background(), journal.KindDeliveryCSV, "d.csv")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := j.Finish(context.Background(), run, journal.Summary{Imported: 1}, nil); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	_ = j.Close()

	result := CheckJournal(context.Background(), path)
	if !result.Passed || !strings.Contains(result.Detail, string(journal.KindDeliveryCSV)) {
		t.Fatalf("unexpected journal result: %+v", result)
	}
}

func TestCheckSheetsCredentials(t *testing.T) {
	creds := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "creds.json"), "{}")
	cases := []struct {
		name string
		cfg  config.Sheets
		pass bool
	}{
		{"ok", config.Sheets{SpreadsheetID: "abc", CredentialsPath: creds, Range: "A:M"}, true},
		{"no id", config.Sheets{CredentialsPath: creds}, false},
		{"no credentials", config.Sheets{SpreadsheetID: "abc"}, false},
		{"unreadable", config.Sheets{SpreadsheetID: "abc", CredentialsPath: filepath.Join(t.TempDir(), "missing.json")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckSheetsCredentials(tc.cfg); got.Passed != tc.pass {
				t.Fatalf("passed = %v, want %v (%s)", got.Passed, tc.pass, got.Detail)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	results := RunAll(context.Background(), cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}

	cfg.Journal.Enabled = false
	cfg.Sheets.Enabled = true
	results = RunAll(context.Background(), cfg)
	if len(results) != 5 || results[4].Name != "Google Sheets" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !Failed(results) {
		t.Fatal("expected sheets check to fail without credentials")
	}

	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
