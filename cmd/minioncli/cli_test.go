package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/explorer"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	rows := []minion.Result{
		{ID: 1, Minion: "Sheep", MinionLevel: 11, Fuel: minion.NewText("Catalyst"), Seconds: 86400,
			ProfitInstantBZ: 50_000, ProfitOnlyHopper: 40_000, CostTotal: 1_500_000},
		{ID: 2, Minion: "Slime", MinionLevel: 11, Fuel: minion.NewText("Plasma Bucket"), Seconds: 604800,
			ProfitInstantBZ: 70_000, ProfitOnlyHopper: 10_000, CostTotal: 900_000},
	}
	data, err := json.Marshal(rows)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	p := filepath.Join(t.TempDir(), "minions.json")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCLI()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertThenInfo(t *testing.T) {
	src := writeDataset(t)
	dst := filepath.Join(t.TempDir(), "minions.db")

	out, err := run(t, "convert", src, dst)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "2 rows written") {
		t.Errorf("convert output = %q", out)
	}
	if _, err := run(t, "convert", src, dst); err == nil {
		t.Error("convert must not overwrite an existing file")
	}

	out, err = run(t, "info", "--dataset", dst)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"Type:     sqlite", "Rows:     2", "[Sheep Slime]"} {
		if !strings.Contains(out, want) {
			t.Errorf("info missing %q:\n%s", want, out)
		}
	}
}

func TestQuery(t *testing.T) {
	p := writeDataset(t)

	out, err := run(t, "query", "-d", p, "--seconds", "86400")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !strings.Contains(out, "Sheep") || strings.Contains(out, "Slime") {
		t.Errorf("table output:\n%s", out)
	}
	if !strings.Contains(out, "Page 1 of 1, 1 rows") {
		t.Errorf("missing pager line:\n%s", out)
	}

	out, err = run(t, "query", "-d", p, "--json", "--sort", "minion_cost_total", "--asc")
	if err != nil {
		t.Fatalf("query --json: %v", err)
	}
	var page explorer.Page
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if page.Pager.Total != 2 || page.Results[0].Minion != "Slime" {
		t.Errorf("page = %+v", page)
	}

	if _, err := run(t, "query", "-d", p, "--sort", "bogus"); err == nil {
		t.Error("expected error for unknown sort column")
	}
}

func TestBestAndExport(t *testing.T) {
	p := writeDataset(t)

	out, err := run(t, "best", "-d", p)
	if err != nil {
		t.Fatalf("best: %v", err)
	}
	if !strings.Contains(out, "T11 Sheep Minion $50.0K/day") || !strings.Contains(out, "T11 Slime Minion $70.0K/day") {
		t.Errorf("best output:\n%s", out)
	}

	xlsxPath := filepath.Join(t.TempDir(), "out.xlsx")
	out, err = run(t, "export", "-d", p, "-l", "upgrades", "-o", xlsxPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "2 rows written") {
		t.Errorf("export output = %q", out)
	}
	f, err := excelize.OpenFile(xlsxPath)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("upgrades")
	if err != nil || len(rows) != 3 {
		t.Errorf("rows = %d, %v", len(rows), err)
	}
}
