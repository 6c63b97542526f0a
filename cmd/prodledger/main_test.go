package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"prodledger/internal/config"
	"prodledger/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", base)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestProductionUpsertListAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"production", "upsert", "--date", "2025/3/1", "--machine", "M1",
		"--product", "Case", "--lot", "L1", "--total", "40"}, env.configPath)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	requireContains(t, out, "Inserted record 1")

	out, _, err = runCLI(t, []string{"production", "upsert", "--date", "2025-03-01", "--machine", "M1",
		"--product", "Case", "--lot", "L1", "--total", "45"}, env.configPath)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	requireContains(t, out, "Updated record 1")

	out, _, err = runCLI(t, []string{"production", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "2025-03-01")
	requireContains(t, out, "45")

	out, _, err = runCLI(t, []string{"--json", "production", "summary"}, env.configPath)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var groups []map[string]any
	if err := json.Unmarshal([]byte(out), &groups); err != nil {
		t.Fatalf("decode summary: %v (%q)", err, out)
	}
	if len(groups) != 1 || groups[0]["totalQuantity"] != float64(45) {
		t.Fatalf("unexpected summary: %v", groups)
	}

	out, _, err = runCLI(t, []string{"production", "delete", "--where", "machineNumber=M1"}, env.configPath)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Deleted 1, 0 remaining")
}

func TestProductionDeleteNeedsOneSelector(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"production", "delete"}, env.configPath); err == nil {
		t.Fatal("expected error without a selector")
	}
	if _, _, err := runCLI(t, []string{"production", "delete", "--all", "--id", "1"}, env.configPath); err == nil {
		t.Fatal("expected error with two selectors")
	}
}

func TestProductionImportWorkbookAndJournal(t *testing.T) {
	env := setupCLITestEnv(t)
	path := testsupport.WriteWorkbook(t, filepath.Join(env.baseDir, "prod.xlsx"), "", [][]any{
		{"date", "machine", "mold", "product", "en", "color", "unit", "qty", "uq", "total", "lot", "remarks", "reserved"},
		{"2025-03-01", "M1", "K1", "Case", "Case", "black", "pcs", 10, 1, 10, "L1", "", 0},
	})

	out, _, err := runCLI(t, []string{"production", "import", path}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "added 1, updated 0, unchanged 0")

	out, _, err = runCLI(t, []string{"production", "import", path}, env.configPath)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	requireContains(t, out, "added 0, updated 0, unchanged 1")

	out, _, err = runCLI(t, []string{"journal", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("journal list: %v", err)
	}
	requireContains(t, out, "production_workbook")
	requireContains(t, out, "succeeded")
}

func TestProductionSheetDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"production", "sheet"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Fatalf("expected sheets disabled error, got %v", err)
	}
}

func TestDeliveryCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	csvPath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "delivery.csv"),
		"date,dow,total,h0,h1\n2025/03/01,,30,10,20\n")

	out, _, err := runCLI(t, []string{"delivery", "import", csvPath}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 1 days")

	out, _, err = runCLI(t, []string{"delivery", "hourly", "2025-03-01", "2=5", "3=1"}, env.configPath)
	if err != nil {
		t.Fatalf("hourly: %v", err)
	}
	requireContains(t, out, "total 36")

	if _, _, err := runCLI(t, []string{"delivery", "hourly", "2025-03-01", "24=5"}, env.configPath); err == nil {
		t.Fatal("expected hour 24 to be rejected")
	}

	out, _, err = runCLI(t, []string{"delivery", "set", "2025-03-02", "0=7", "--dow", "Sunday"}, env.configPath)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	requireContains(t, out, "2025-03-02 (Sunday) total 7")

	out, _, err = runCLI(t, []string{"--json", "delivery", "recent", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	var days []map[string]any
	if err := json.Unmarshal([]byte(out), &days); err != nil {
		t.Fatalf("decode recent: %v (%q)", err, out)
	}
	if len(days) != 1 || days[0]["date"] != "2025-03-02" || days[0]["hour_00"] != float64(7) {
		t.Fatalf("unexpected recent days: %v", days)
	}

	replacePath := testsupport.WriteFile(t, filepath.Join(env.baseDir, "replace.json"),
		`{"delivery_data":[{"date":"2025-04-01","dayOfWeek":"Tue","total":"12"}]}`)
	out, _, err = runCLI(t, []string{"delivery", "replace", replacePath}, env.configPath)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	requireContains(t, out, "Stored 1 days")

	out, _, err = runCLI(t, []string{"delivery", "show", "2025/4/1"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "2025-04-01 (Tue) total 12")

	out, _, err = runCLI(t, []string{"delivery", "delete", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, "Deleted 1, 0 remaining")
}

func TestConfigInitAndValidate(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	target := filepath.Join(base, "cfg", "prodledger.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, target)
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v (%s)", err, out)
	}
	requireContains(t, out, "[OK  ] Data directory")

	corrupt := env.cfg.ProductionPath()
	testsupport.WriteFile(t, corrupt, "{not json")
	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail for a corrupt store")
	}
	requireContains(t, out, "[FAIL] Production store")
}

func TestInvalidConfigFails(t *testing.T) {
	base := t.TempDir()
	t.Setenv("HOME", base)
	path := testsupport.WriteFile(t, filepath.Join(base, "bad.toml"), "[import]\nencoding = \"latin1\"\n")
	if _, _, err := runCLI(t, []string{"production", "list"}, path); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}
