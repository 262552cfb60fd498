package minion

import (
	"fmt"
	"sort"
)

// Layout is an ordered set of columns shown by one explorer page together with
// the filter controls that page offers.
type Layout struct {
	Name    string
	Title   string
	Columns []string

	// DefaultSort is applied when the request carries no sort column.
	DefaultSort string

	// Controls switched on for this page.
	Timescales   bool
	Upgrades     bool
	Fuels        bool
	Storages     bool
	Items        bool
	CostRange    bool
	GroupToggles bool
}

var layouts = map[string]Layout{
	"table": {
		Name:  "table",
		Title: "Minion combinations",
		Columns: []string{
			"minion", "minion_level", "fuel", "hopper", "item_1", "item_2", "storagetype",
			"mithril_infusion", "free_will", "postcard", "beacon_boost_percent",
			"seconds", "percentage_boost",
			"hopper_coins", "cost_of_fuel",
			"coins_if_inventory_sell_order_to_bz", "coins_if_inventory_instant_sold_to_bz",
			"coins_if_inventory_sold_to_npc", "coins_if_inventory_sold_optimally",
			"profit_24h_if_inventory_sell_order_to_bz", "profit_24h_if_inventory_instant_sold_to_bz",
			"profit_24h_if_inventory_sold_to_npc", "profit_24h_if_inventory_sold_optimally",
			"profit_24h_only_hopper",
			"inventory_full", "fuel_empty", "minion_cost_total",
		},
		DefaultSort: "profit_24h_if_inventory_sold_optimally",
		Timescales:  true,
	},
	"upgrades": {
		Name:  "upgrades",
		Title: "Upgrades and costs",
		Columns: []string{
			"minion", "minion_level", "fuel", "item_1", "item_2", "storagetype",
			"mithril_infusion", "free_will", "postcard", "beacon_boost_percent",
			"seconds", "percentage_boost",
			"raw_item_drops", "in_inventory", "sold_to_hopper",
			"hopper_coins", "cost_of_fuel", "coins_if_inventory_sold_optimally",
			"profit_24h_if_inventory_instant_sold_to_bz", "profit_24h_only_hopper",
			"APR_if_inventory_sell_order_to_bz", "APR_only_hopper",
			"minion_cost_total", "minion_cost_recoverable", "minion_cost_non_recoverable",
		},
		DefaultSort:  "profit_24h_only_hopper",
		Timescales:   true,
		Upgrades:     true,
		Fuels:        true,
		Storages:     true,
		Items:        true,
		CostRange:    true,
		GroupToggles: true,
	},
}

// LayoutByName returns a registered layout.
func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q", name)
	}
	return l, nil
}

// Layouts lists registered layout names in sorted order.
func Layouts() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ColumnDefs resolves the layout's column names against the catalogue.
// Unknown names are skipped.
func (l Layout) ColumnDefs() []Column {
	out := make([]Column, 0, len(l.Columns))
	for _, name := range l.Columns {
		if c, ok := Lookup(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// SortColumns returns the sortable columns of the layout.
func (l Layout) SortColumns() []Column {
	var out []Column
	for _, c := range l.ColumnDefs() {
		if c.Sortable {
			out = append(out, c)
		}
	}
	return out
}
