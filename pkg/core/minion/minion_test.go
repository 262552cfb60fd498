package minion

import (
	"encoding/json"
	"testing"
)

func TestText_Blank(t *testing.T) {
	tests := []struct {
		name string
		in   Text
		want string
	}{
		{"null", Text{}, ""},
		{"none literal", NewText("None"), ""},
		{"empty", NewText(""), ""},
		{"value", NewText("Enchanted Lava Bucket"), "Enchanted Lava Bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestText_JSON(t *testing.T) {
	var r struct {
		Fuel Text `json:"fuel"`
		Item Text `json:"item"`
	}
	if err := json.Unmarshal([]byte(`{"fuel":"Catalyst","item":null}`), &r); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if r.Fuel.Display() != "Catalyst" {
		t.Errorf("fuel = %q", r.Fuel.Display())
	}
	if !r.Item.Blank() {
		t.Errorf("item should be blank")
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"fuel":"Catalyst","item":null}` {
		t.Errorf("Marshal = %s", out)
	}
}

func TestResult_Value(t *testing.T) {
	r := Result{Minion: "Sheep", MinionLevel: 11, Fuel: NewText("Catalyst"), CostTotal: 1234}

	v, ok := r.Value("minion_level")
	if !ok || v.(int) != 11 {
		t.Errorf("Value(minion_level) = %v, %v", v, ok)
	}
	v, ok = r.Value("fuel")
	if !ok || v.(Text).Display() != "Catalyst" {
		t.Errorf("Value(fuel) = %v, %v", v, ok)
	}
	v, ok = r.Value("minion_cost_total")
	if !ok || v.(float64) != 1234 {
		t.Errorf("Value(minion_cost_total) = %v, %v", v, ok)
	}
	if _, ok := r.Value("no_such_column"); ok {
		t.Error("Value(no_such_column) should not be found")
	}
}

// Каталог колонок и структура Result должны совпадать по именам.
func TestCatalogueMatchesResult(t *testing.T) {
	names := ColumnNames()
	if len(names) != len(Columns()) {
		t.Fatalf("result has %d columns, catalogue %d", len(names), len(Columns()))
	}
	for i, c := range Columns() {
		if names[i] != c.Name {
			t.Errorf("column %d: result %q, catalogue %q", i, names[i], c.Name)
		}
	}
}

func TestLayouts_ResolveEveryColumn(t *testing.T) {
	for _, name := range Layouts() {
		l, err := LayoutByName(name)
		if err != nil {
			t.Fatalf("LayoutByName(%q): %v", name, err)
		}
		if got := len(l.ColumnDefs()); got != len(l.Columns) {
			t.Errorf("layout %q: %d of %d columns resolved", name, got, len(l.Columns))
		}
		if !IsSortable(l.DefaultSort) {
			t.Errorf("layout %q: default sort %q is not sortable", name, l.DefaultSort)
		}
	}
	if _, err := LayoutByName("nope"); err == nil {
		t.Error("expected error for unknown layout")
	}
}

func TestNewBest_Strategy(t *testing.T) {
	tests := []struct {
		name     string
		instant  float64
		ehopper  float64
		want     Strategy
		wantDays float64
	}{
		{"ehopper wins", 100_000, 100_000, StrategyEhopper, 10},
		{"within margin keeps ehopper", 110_000, 100_000, StrategyEhopper, 10},
		{"bazaar beats margin", 120_000, 100_000, StrategyBazaar, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Result{ProfitInstantBZ: tt.instant, ProfitOnlyHopper: tt.ehopper, CostTotal: 1_000_000}
			b := NewBest(5_000_000, 604800, r)
			if b.Strategy != tt.want {
				t.Errorf("Strategy = %q, want %q", b.Strategy, tt.want)
			}
			if b.PaybackDays != tt.wantDays {
				t.Errorf("PaybackDays = %v, want %v", b.PaybackDays, tt.wantDays)
			}
		})
	}
}

func TestBest_Display(t *testing.T) {
	r := Result{
		Minion:             "Sheep",
		MinionLevel:        11,
		StorageType:        NewText("Large"),
		MithrilInfusion:    true,
		Postcard:           true,
		BeaconBoostPercent: 11,
		Item1:              NewText("Diamond Spreading"),
		Item2:              NewText("None"),
	}
	b := NewBest(2_000_000, 86400, r)

	if got := b.Title(); got != "T11 Sheep Minion" {
		t.Errorf("Title() = %q", got)
	}
	if got := b.Upgrades(); got != "Large storage, infused, postcard, beacon: 11%" {
		t.Errorf("Upgrades() = %q", got)
	}
	if got := b.Result.Items(); got != "Diamond Spreading" {
		t.Errorf("Items() = %q", got)
	}
	if got := b.CellID(); got != "2m-1d" {
		t.Errorf("CellID() = %q", got)
	}
	if got := b.Color(); got != "#f0e68c" {
		t.Errorf("Color() = %q", got)
	}
	if got := ColorOf("Cobblestone"); got != DefaultColor {
		t.Errorf("ColorOf(unknown) = %q", got)
	}
}
