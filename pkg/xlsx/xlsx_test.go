package xlsx

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/ruslano69/minionview/pkg/core/minion"
)

func TestWrite(t *testing.T) {
	layout, err := minion.LayoutByName("table")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	results := []minion.Result{
		{
			ID: 1, Minion: "Sheep", MinionLevel: 11, Fuel: minion.NewText("None"),
			Postcard: true, BeaconBoostPercent: 11, Seconds: 86400,
			CostTotal: 1_500_000,
		},
	}

	var buf bytes.Buffer
	if err := Write(&buf, layout, results); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	if name := f.GetSheetName(0); name != "table" {
		t.Errorf("sheet = %q, want table", name)
	}
	rows, err := f.GetRows("table", excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}

	header := map[string]int{}
	for i, h := range rows[0] {
		header[h] = i
	}
	cell := func(label string) string {
		i, ok := header[label]
		if !ok {
			t.Fatalf("missing column %q in %v", label, rows[0])
		}
		if i >= len(rows[1]) {
			return ""
		}
		return rows[1][i]
	}

	tests := []struct {
		label, want string
	}{
		{"Minion", "Sheep"},
		{"Level", "11"},
		{"Fuel", ""},
		{"PC.", "T"},
		{"MI.", ""},
		{"Beacon", "11"},
		{"Time", "1d"},
		{"Cost", "1500000"},
	}
	for _, tt := range tests {
		if got := cell(tt.label); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.label, got, tt.want)
		}
	}

	// Деньги остаются числом с форматом $#,##0
	axis := columnName(header["Cost"]+1) + "2"
	styleID, err := f.GetCellStyle("table", axis)
	if err != nil {
		t.Fatalf("GetCellStyle: %v", err)
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		t.Fatalf("GetStyle: %v", err)
	}
	if style.CustomNumFmt == nil || *style.CustomNumFmt != moneyFormat {
		t.Errorf("money cell format = %v, want %s", style.CustomNumFmt, moneyFormat)
	}
}

func TestWrite_Empty(t *testing.T) {
	layout, _ := minion.LayoutByName("upgrades")
	var buf bytes.Buffer
	if err := Write(&buf, layout, nil); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("upgrades")
	if len(rows) != 1 || len(rows[0]) != len(layout.Columns) {
		t.Errorf("Expected header only, got %v", rows)
	}
}

func TestColumnName(t *testing.T) {
	tests := map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 53: "BA"}
	for in, want := range tests {
		if got := columnName(in); got != want {
			t.Errorf("columnName(%d) = %q, want %q", in, got, want)
		}
	}
}
