package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"prodledger/internal/ingest/sheets"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "production.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestReadWorkbookFirstSheet(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", [][]any{
		{"date", "machine", "mold"},
		{"2025/8/1", "M1", 7},
	})

	grid, err := sheets.ReadWorkbook(path, "")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(grid))
	}
	if strings.Join(grid[1], "|") != "2025/8/1|M1|7" {
		t.Fatalf("unexpected row: %q", grid[1])
	}
}

func TestReadWorkbookNamedSheet(t *testing.T) {
	path := writeWorkbook(t, "Production", [][]any{{"x"}, {"y"}})

	grid, err := sheets.ReadWorkbook(path, "Production")
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(grid) != 2 || grid[1][0] != "y" {
		t.Fatalf("unexpected grid: %q", grid)
	}

	if _, err := sheets.ReadWorkbook(path, "Missing"); err == nil {
		t.Fatal("expected error for missing sheet")
	}
	if _, err := sheets.ReadWorkbook(filepath.Join(t.TempDir(), "none.xlsx"), ""); err == nil {
		t.Fatal("expected error for missing workbook")
	}
}

func TestGoogleSourceReadRange(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "Production!A1:C2",
			"majorDimension": "ROWS",
			"values": [][]any{
				{"date", "machine", "total"},
				{"2025/8/1", "M1", 12},
			},
		})
	}))
	defer server.Close()

	src, err := sheets.NewGoogleSourceWithOptions(context.Background(), "sheet-1", nil,
		option.WithEndpoint(server.URL+"/"), option.WithoutAuthentication(), option.WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("NewGoogleSourceWithOptions: %v", err)
	}

	grid, err := src.ReadRange(context.Background(), "Production!A:C")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if !strings.Contains(gotPath, "sheet-1") {
		t.Fatalf("expected spreadsheet id in request path, got %q", gotPath)
	}
	if len(grid) != 2 || strings.Join(grid[1], "|") != "2025/8/1|M1|12" {
		t.Fatalf("unexpected grid: %q", grid)
	}

	if _, err := src.ReadRange(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty range")
	}
}

func TestGoogleSourceRequiresID(t *testing.T) {
	if _, err := sheets.NewGoogleSourceWithOptions(context.Background(), "", nil, option.WithoutAuthentication()); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}
