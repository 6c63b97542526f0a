package delivery_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prodledger/internal/delivery"
	"prodledger/internal/ingest"
	"prodledger/internal/store"
)

func openStore(t *testing.T) *delivery.Store {
	t.Helper()
	s, err := delivery.Open(filepath.Join(t.TempDir(), "delivery_data.json"), store.Options{}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestDeriveTotal(t *testing.T) {
	var hours [delivery.HoursPerDay]int
	if got := delivery.DeriveTotal(hours); got != 0 {
		t.Fatalf("all-zero hours should total 0, got %d", got)
	}
	hours[5] = 10
	hours[22] = 40
	if got := delivery.DeriveTotal(hours); got != 40 {
		t.Fatalf("expected last non-zero hour 40, got %d", got)
	}
	hours[23] = 41
	if got := delivery.DeriveTotal(hours); got != 41 {
		t.Fatalf("expected hour_23 value, got %d", got)
	}
}

func TestDayJSONLayout(t *testing.T) {
	day := delivery.Day{Date: "2025-08-01", DayOfWeek: "Fri", Total: 7}
	day.Hours[9] = 7

	data, err := json.Marshal(day)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, `{"date":"2025-08-01","dayOfWeek":"Fri","hour_00":0`) {
		t.Fatalf("unexpected layout: %s", text)
	}
	if !strings.Contains(text, `"hour_09":7`) || !strings.HasSuffix(text, `"hour_23":0,"total":7}`) {
		t.Fatalf("unexpected layout: %s", text)
	}

	var back delivery.Day
	if err := json.Unmarshal([]byte(`{"date":"2025-08-02","hour_03":"1,200","total":1200.0}`), &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Hours[3] != 1200 || back.Total != 1200 || back.Date != "2025-08-02" {
		t.Fatalf("unexpected decoded day: %+v", back)
	}
}

func TestUpsertMergesAndDerives(t *testing.T) {
	s := openStore(t)

	day, err := s.Upsert("2025/8/1", delivery.Patch{Hours: map[int]int{8: 10, 9: 25}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if day.Date != "2025-08-01" || day.DayOfWeek != "Fri" || day.Total != 25 {
		t.Fatalf("unexpected day: %+v", day)
	}

	label := "金曜"
	day, err = s.Upsert("2025-08-01", delivery.Patch{DayOfWeek: &label, Hours: map[int]int{22: 40}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if day.Hours[8] != 10 || day.Hours[22] != 40 || day.Total != 40 || day.DayOfWeek != "金曜" {
		t.Fatalf("patch should merge, got %+v", day)
	}

	stored, ok, err := s.GetByDate("2025-08-01")
	if err != nil || !ok {
		t.Fatalf("GetByDate: ok=%v err=%v", ok, err)
	}
	if stored.Total != 40 {
		t.Fatalf("unexpected stored day: %+v", stored)
	}

	if _, err := s.Upsert("someday", delivery.Patch{}); !errors.Is(err, delivery.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestUpsertHourlyCumulative(t *testing.T) {
	s := openStore(t)

	day, err := s.UpsertHourlyCumulative("2025-08-01", []delivery.HourQuantity{{Hour: 7, Quantity: 5}, {Hour: 10, Quantity: 30}})
	if err != nil {
		t.Fatalf("UpsertHourlyCumulative: %v", err)
	}
	if day.Total != 30 {
		t.Fatalf("expected total 30, got %+v", day)
	}

	_, err = s.UpsertHourlyCumulative("2025-08-01", []delivery.HourQuantity{{Hour: 11, Quantity: 40}, {Hour: 24, Quantity: 1}})
	var recErr *store.RecordError
	if !errors.As(err, &recErr) || !errors.Is(err, delivery.ErrInvalidHour) || recErr.Index != 1 {
		t.Fatalf("expected invalid hour record error at index 1, got %v", err)
	}

	stored, _, err := s.GetByDate("2025-08-01")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Hours[11] != 0 {
		t.Fatalf("rejected call must not write, got %+v", stored)
	}
}

func TestImportCSVOverwritesAndTrustsTotal(t *testing.T) {
	s := openStore(t)
	if _, err := s.Upsert("2025-08-01", delivery.Patch{Hours: map[int]int{1: 99, 2: 100}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	input := strings.Join([]string{
		"date;dow;total;h0;h1",
		"2025.8.1;;5;2",
		"bogus;;1",
		"2025.8.2;Sat;9;9;9",
	}, "\n")
	res, err := s.ImportCSV(strings.NewReader(input), ingest.Options{})
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 1 {
		t.Fatalf("unexpected import result: %+v", res)
	}

	day, ok, err := s.GetByDate("2025-08-01")
	if err != nil || !ok {
		t.Fatalf("GetByDate: ok=%v err=%v", ok, err)
	}
	if day.Hours[1] != 0 || day.Hours[2] != 0 || day.Hours[0] != 2 {
		t.Fatalf("import should overwrite the whole day, got %+v", day.Hours)
	}
	if day.Total != 5 {
		t.Fatalf("import should trust the given total, got %d", day.Total)
	}
	if day.DayOfWeek != "Fri" {
		t.Fatalf("blank day of week should be derived, got %q", day.DayOfWeek)
	}
}

func TestImportCSVFile(t *testing.T) {
	s := openStore(t)
	path := filepath.Join(t.TempDir(), "delivery.csv")
	if err := os.WriteFile(path, []byte("date,dow,total\n8/3/25,,4,4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := s.ImportCSVFile(path, ingest.Options{})
	if err != nil {
		t.Fatalf("ImportCSVFile: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := s.ImportCSVFile(filepath.Join(t.TempDir(), "missing.csv"), ingest.Options{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRecentGroupedReplaceDelete(t *testing.T) {
	s := openStore(t)
	days := []delivery.Day{
		{Date: "2025-08-01", Total: 10},
		{Date: "2025-08-03", Total: 30},
		{Date: "2025-08-02", Total: 20},
		{Date: "2025-08-02", Total: 21},
	}
	n, err := s.ReplaceAll(days)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 days after dedupe, got %d", n)
	}

	recent, err := s.GetRecentDays(2)
	if err != nil {
		t.Fatalf("GetRecentDays: %v", err)
	}
	if len(recent) != 2 || recent[0].Date != "2025-08-03" || recent[1].Date != "2025-08-02" || recent[1].Total != 21 {
		t.Fatalf("unexpected recent days: %+v", recent)
	}

	groups, err := s.GetGroupedByDate()
	if err != nil {
		t.Fatalf("GetGroupedByDate: %v", err)
	}
	if len(groups) != 3 || groups[0].Count != 1 || groups[0].TotalQuantity != 30 {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	res, err := s.DeleteByDate("2025/8/3")
	if err != nil {
		t.Fatalf("DeleteByDate: %v", err)
	}
	if res.Deleted != 1 || res.Remaining != 2 {
		t.Fatalf("unexpected delete: %+v", res)
	}
	res, err = s.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if res.Deleted != 2 || res.Remaining != 0 {
		t.Fatalf("unexpected delete all: %+v", res)
	}
}

func TestCompareAndUpdateDays(t *testing.T) {
	s := openStore(t)
	day := delivery.Day{Date: "2025-08-01"}
	day.Hours[8] = 5

	first, err := s.CompareAndUpdate([]delivery.Day{day})
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if len(first.Added) != 1 || first.Added[0].Total != 5 {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := s.CompareAndUpdate([]delivery.Day{day})
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if len(second.Unchanged) != 1 {
		t.Fatalf("expected unchanged, got %+v", second)
	}

	day.Hours[9] = 8
	third, err := s.CompareAndUpdate([]delivery.Day{day})
	if err != nil {
		t.Fatalf("CompareAndUpdate: %v", err)
	}
	if len(third.Updated) != 1 || third.Updated[0].Fields[0] != "hour_09" {
		t.Fatalf("expected hour_09 update, got %+v", third)
	}
}

func TestCompareAndUpdateKeepsGoodDaysWhenDatesAreBad(t *testing.T) {
	good := delivery.Day{Date: "2025/8/1"}
	good.Hours[3] = 5
	bad := delivery.Day{Date: "not-a-date"}
	bad.Hours[4] = 2

	cases := []struct {
		name      string
		days      []delivery.Day
		wantAdded int
		wantBad   int
	}{
		{"mixed", []delivery.Day{good, bad}, 1, 1},
		{"bad first", []delivery.Day{bad, good}, 1, 1},
		{"only bad", []delivery.Day{bad}, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := openStore(t)
			res, err := s.CompareAndUpdate(tc.days)
			if err != nil {
				t.Fatalf("CompareAndUpdate: %v", err)
			}
			if len(res.Added) != tc.wantAdded || len(res.Errors) != tc.wantBad {
				t.Fatalf("expected %d added and %d errors, got %+v", tc.wantAdded, tc.wantBad, res)
			}
			for _, f := range res.Errors {
				if f.Record.Date != "not-a-date" || !errors.Is(f.Err, delivery.ErrInvalidDate) {
					t.Fatalf("unexpected failure: %+v", f)
				}
			}

			all, err := s.GetAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != tc.wantAdded {
				t.Fatalf("expected %d stored days, got %+v", tc.wantAdded, all)
			}
			if tc.wantAdded == 1 && (all[0].Date != "2025-08-01" || all[0].Total != 5) {
				t.Fatalf("unexpected stored day: %+v", all[0])
			}
		})
	}
}

func TestConfiguredWeekdayLabels(t *testing.T) {
	labels := []string{"日", "月", "火", "水", "木", "金", "土"}
	s, err := delivery.Open(filepath.Join(t.TempDir(), "d.json"), store.Options{}, labels)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	day, err := s.Upsert("2025-08-02", delivery.Patch{})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if day.DayOfWeek != "土" {
		t.Fatalf("expected configured label, got %q", day.DayOfWeek)
	}
}
