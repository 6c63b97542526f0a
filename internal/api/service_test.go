package api_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prodledger/internal/api"
	"prodledger/internal/delivery"
	"prodledger/internal/journal"
	"prodledger/internal/production"
	"prodledger/internal/testsupport"
)

var productionHeader = []any{"date", "machine", "mold", "product", "product (en)", "color", "unit",
	"qty", "unit qty", "total", "lot", "remarks", "reserved"}

func productionRows() [][]any {
	return [][]any{
		productionHeader,
		{"2025/03/01", "M1", "K-10", "ケース", "Case", "black", "pcs", 100, 4, 400, "L1", "", 0},
		{"2025/03/01", "M2", "K-11", "蓋", "Lid", "white", "pcs", 50, 2, 100, "L2", "", 0},
		{"not a date", "M3", "K-12", "x", "x", "red", "pcs", 1, 1, 1, "L3", "", 0},
	}
}

type fakeSheet struct {
	grid  [][]string
	err   error
	calls []string
}

func (f *fakeSheet) ReadRange(_ context.Context, sheetRange string) ([][]string, error) {
	f.calls = append(f.calls, sheetRange)
	return f.grid, f.err
}

func TestImportProductionWorkbookIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.MustOpenService(t, cfg)
	ctx := context.Background()
	path := testsupport.WriteWorkbook(t, filepath.Join(testsupport.BaseDir(cfg), "march.xlsx"), "Production", productionRows())

	first, err := svc.ImportProductionWorkbook(ctx, path, "")
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if first.Rows != 2 || first.Skipped != 1 || len(first.Result.Added) != 2 {
		t.Fatalf("unexpected first import: rows=%d skipped=%d added=%d", first.Rows, first.Skipped, len(first.Result.Added))
	}
	if first.RunID == "" {
		t.Fatal("expected run id")
	}

	before, err := os.ReadFile(cfg.ProductionPath())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}

	second, err := svc.ImportProductionWorkbook(ctx, path, "Production")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(second.Result.Added) != 0 || len(second.Result.Updated) != 0 || len(second.Result.Unchanged) != 2 {
		t.Fatalf("expected all unchanged, got %+v", second.Result)
	}
	after, err := os.ReadFile(cfg.ProductionPath())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if string(before) != string(after) {
		t.Fatal("re-importing identical data rewrote the store")
	}

	records, err := svc.GetDataByDate("2025-03-01")
	if err != nil {
		t.Fatalf("GetDataByDate: %v", err)
	}
	if len(records) != 2 || records[0].MachineNumber != "M1" {
		t.Fatalf("unexpected records: %+v", records)
	}

	runs, err := svc.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 journal runs, got %d", len(runs))
	}
	if runs[0].ID != second.RunID || runs[0].Summary.Unchanged != 2 || runs[0].Status != journal.StatusSucceeded {
		t.Fatalf("unexpected newest run: %+v", runs[0])
	}
	if runs[1].Summary.Added != 2 || runs[1].Summary.Skipped != 1 {
		t.Fatalf("unexpected first run summary: %+v", runs[1].Summary)
	}
}

func TestImportProductionWorkbookUpdatesChangedRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.MustOpenService(t, cfg)
	ctx := context.Background()
	dir := testsupport.BaseDir(cfg)

	rows := productionRows()
	path := testsupport.WriteWorkbook(t, filepath.Join(dir, "v1.xlsx"), "", rows)
	if _, err := svc.ImportProductionWorkbook(ctx, path, ""); err != nil {
		t.Fatalf("import v1: %v", err)
	}

	rows[1][9] = 480
	path = testsupport.WriteWorkbook(t, filepath.Join(dir, "v2.xlsx"), "", rows)
	res, err := svc.ImportProductionWorkbook(ctx, path, "")
	if err != nil {
		t.Fatalf("import v2: %v", err)
	}
	if len(res.Result.Updated) != 1 || len(res.Result.Unchanged) != 1 {
		t.Fatalf("expected one update, got %+v", res.Result)
	}
	change := res.Result.Updated[0]
	if change.Old.Total != 400 || change.New.Total != 480 || len(change.Fields) != 1 || change.Fields[0] != "total" {
		t.Fatalf("unexpected change: %+v", change)
	}
	if change.New.ID != change.Old.ID {
		t.Fatalf("update changed id: %d -> %d", change.Old.ID, change.New.ID)
	}
}

func TestImportProductionCSVRejectPolicy(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithImportPolicies("reject", "default"))
	svc := testsupport.MustOpenService(t, cfg)
	path := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "prod.csv"),
		"date,machine,mold,product,en,color,unit,qty,uq,total,lot,remarks,reserved\n"+
			"2025-03-02,M1,K1,P,P,red,pcs,1,1,1,L1,,0\n"+
			"someday,M1,K1,P,P,red,pcs,1,1,1,L2,,0\n")

	if _, err := svc.ImportProductionCSV(context.Background(), path); err == nil {
		t.Fatal("expected reject policy to fail the import")
	}
	all, err := svc.GetAllData()
	if err != nil {
		t.Fatalf("GetAllData: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected import must not store rows, got %d", len(all))
	}

	runs, err := svc.RecentRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != journal.StatusFailed || runs[0].Error == "" {
		t.Fatalf("expected failed run, got %+v", runs)
	}
}

func TestImportProductionSheet(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		svc := testsupport.MustOpenService(t, testsupport.NewConfig(t))
		if _, err := svc.ImportProductionSheet(context.Background(), ""); !errors.Is(err, api.ErrSheetsDisabled) {
			t.Fatalf("expected ErrSheetsDisabled, got %v", err)
		}
	})

	t.Run("configured range", func(t *testing.T) {
		cfg := testsupport.NewConfig(t, testsupport.WithCompareMode("batch"))
		src := &fakeSheet{grid: [][]string{
			{"date", "machine", "mold", "product", "en", "color", "unit", "qty", "uq", "total", "lot", "remarks", "reserved"},
			{"2025-03-03", "M4", "K4", "Tray", "Tray", "grey", "pcs", "10", "1", "10", "L9", "", "2"},
		}}
		svc := testsupport.MustOpenService(t, cfg, api.WithSheetSource(src))

		res, err := svc.ImportProductionSheet(context.Background(), "")
		if err != nil {
			t.Fatalf("ImportProductionSheet: %v", err)
		}
		if len(src.calls) != 1 || src.calls[0] != cfg.Sheets.Range {
			t.Fatalf("expected configured range, got %v", src.calls)
		}
		if len(res.Result.Added) != 1 || res.Result.Added[0].Reserved != 2 {
			t.Fatalf("unexpected result: %+v", res.Result)
		}
	})

	t.Run("source error", func(t *testing.T) {
		src := &fakeSheet{err: errors.New("quota exceeded")}
		svc := testsupport.MustOpenService(t, testsupport.NewConfig(t), api.WithSheetSource(src))
		if _, err := svc.ImportProductionSheet(context.Background(), "Other!A:M"); err == nil || !strings.Contains(err.Error(), "quota") {
			t.Fatalf("expected source error, got %v", err)
		}
	})
}

func TestCompareAndUpdatePartialFailureIsJournaled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.MustOpenService(t, cfg, api.WithProductionValidator(func(r *production.Record) error {
		if r.MachineNumber == "" {
			return errors.New("machine number is required")
		}
		return nil
	}))

	recs := []production.Record{
		{Date: "2025-03-01", MachineNumber: "M1", LotNumber: "A", Total: 1},
		{Date: "2025-03-01", LotNumber: "B", Total: 2},
		{Date: "2025-03-01", MachineNumber: "M3", LotNumber: "C", Total: 3},
	}
	res, err := svc.CompareAndUpdate(context.Background(), recs)
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if len(res.Added) != 2 || len(res.Errors) != 1 {
		t.Fatalf("expected 2 added and 1 error, got %+v", res)
	}

	runs, err := svc.RecentRuns(context.Background(), 1)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if runs[0].Status != journal.StatusPartial || len(runs[0].Summary.Errors) != 1 {
		t.Fatalf("expected partial run, got %+v", runs[0])
	}
}

func TestProductionCrudThroughService(t *testing.T) {
	svc := testsupport.MustOpenService(t, testsupport.NewConfig(t, testsupport.WithLockFiles()))

	up, err := svc.UpsertData(production.Record{Date: "2025-03-01", MachineNumber: "M1", Total: 5})
	if err != nil {
		t.Fatalf("UpsertData: %v", err)
	}
	if !up.Inserted || up.ID != 1 {
		t.Fatalf("unexpected upsert: %+v", up)
	}
	batch, err := svc.UpsertBatchData([]production.Record{
		{Date: "2025-03-01", MachineNumber: "M1", Total: 6},
		{Date: "2025-03-02", MachineNumber: "M2", Total: 7},
	})
	if err != nil {
		t.Fatalf("UpsertBatchData: %v", err)
	}
	if batch.Inserted != 1 || batch.Updated != 1 {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	groups, err := svc.GetGroupedByDate()
	if err != nil {
		t.Fatalf("GetGroupedByDate: %v", err)
	}
	if len(groups) != 2 || groups[0].Date != "2025-03-02" || groups[1].TotalQuantity != 6 {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	del, err := svc.DeleteByCondition(production.Condition{"machineNumber": {"M2"}})
	if err != nil {
		t.Fatalf("DeleteByCondition: %v", err)
	}
	if del.Deleted != 1 || del.Remaining != 1 {
		t.Fatalf("unexpected delete: %+v", del)
	}
	del, err = svc.DeleteByID(1)
	if err != nil || del.Deleted != 1 || del.Remaining != 0 {
		t.Fatalf("DeleteByID: %+v %v", del, err)
	}
	del, err = svc.DeleteAll()
	if err != nil || del.Deleted != 0 {
		t.Fatalf("DeleteAll on empty store: %+v %v", del, err)
	}
}

func TestDeliveryThroughService(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := testsupport.MustOpenService(t, cfg)
	ctx := context.Background()

	path := testsupport.WriteFile(t, filepath.Join(testsupport.BaseDir(cfg), "delivery.csv"),
		"date,dow,total,h0,h1\n2025/03/01,,30,10,20\nbad,,1,1\n2025/03/02,Sun,5,5\n")
	imp, err := svc.ImportDeliveryCSV(ctx, path)
	if err != nil {
		t.Fatalf("ImportDeliveryCSV: %v", err)
	}
	if imp.Imported != 2 || imp.Skipped != 1 || imp.RunID == "" {
		t.Fatalf("unexpected import: %+v", imp)
	}

	day, ok, err := svc.GetDeliveryByDate("2025-03-01")
	if err != nil || !ok {
		t.Fatalf("GetDeliveryByDate: ok=%v err=%v", ok, err)
	}
	if day.DayOfWeek != "Sat" || day.Hours[1] != 20 || day.Total != 30 {
		t.Fatalf("unexpected day: %+v", day)
	}

	day, err = svc.UpsertHourlyCumulative("2025-03-01", []delivery.HourQuantity{{Hour: 2, Quantity: 5}})
	if err != nil {
		t.Fatalf("UpsertHourlyCumulative: %v", err)
	}
	if day.Total != 35 {
		t.Fatalf("expected derived total 35, got %d", day.Total)
	}

	recent, err := svc.GetRecentDays(0)
	if err != nil {
		t.Fatalf("GetRecentDays: %v", err)
	}
	if len(recent) != 2 || recent[0].Date != "2025-03-02" {
		t.Fatalf("unexpected recent days: %+v", recent)
	}

	replaced, err := svc.ReplaceAll(ctx, []delivery.Day{{Date: "2025-04-01", DayOfWeek: "Tue", Total: 9}})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if replaced.Count != 1 {
		t.Fatalf("unexpected replace count: %d", replaced.Count)
	}
	all, err := svc.GetDeliveryData()
	if err != nil || len(all) != 1 || all[0].Date != "2025-04-01" {
		t.Fatalf("unexpected data after replace: %+v %v", all, err)
	}

	runs, err := svc.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].Kind != journal.KindDeliveryReplace || runs[1].Summary.Imported != 2 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestServiceWithoutJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutJournal())
	svc := testsupport.MustOpenService(t, cfg)
	if svc.JournalEnabled() {
		t.Fatal("journal should be disabled")
	}
	if _, err := svc.UpsertData(production.Record{Date: "2025-03-01"}); err != nil {
		t.Fatalf("UpsertData: %v", err)
	}
	runs, err := svc.RecentRuns(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Fatalf("expected no runs, got %v %v", runs, err)
	}
	if _, err := os.Stat(cfg.JournalPath()); !os.IsNotExist(err) {
		t.Fatalf("journal file should not exist: %v", err)
	}
}

func TestServiceSurvivesUnusableJournal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(filepath.Join(cfg.JournalPath(), "nested"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	svc := testsupport.MustOpenService(t, cfg)
	if svc.JournalEnabled() {
		t.Fatal("journal should be unavailable when its path is a directory")
	}
	path := testsupport.WriteWorkbook(t, filepath.Join(testsupport.BaseDir(cfg), "p.xlsx"), "", productionRows())
	if _, err := svc.ImportProductionWorkbook(context.Background(), path, ""); err != nil {
		t.Fatalf("import without journal: %v", err)
	}
}

func TestNewServiceRequiresConfig(t *testing.T) {
	if _, err := api.NewService(nil, nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
