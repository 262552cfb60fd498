package minion

import "fmt"

// Kind selects how a column is displayed.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFlag     // boolean rendered as "T" or blank
	KindPercent  // blank on zero, "%" suffix otherwise
	KindMoney    // $, K, M, B abbreviation
	KindDuration // s, m, h, d abbreviation
	KindBlob     // JSON item maps, rendered small
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFlag:
		return "flag"
	case KindPercent:
		return "percent"
	case KindMoney:
		return "money"
	case KindDuration:
		return "duration"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Group is a toggleable set of columns.
type Group string

const (
	GroupNone        Group = ""
	GroupCalculation Group = "calculation"
	GroupProfit      Group = "profit"
)

// Column describes one dataset column for display, sorting and export.
type Column struct {
	Name     string
	Label    string
	Kind     Kind
	Group    Group
	Sortable bool
}

var catalogue = []Column{
	{Name: "id", Label: "#", Kind: KindInt},
	{Name: "minion", Label: "Minion", Kind: KindText, Sortable: true},
	{Name: "minion_level", Label: "Level", Kind: KindInt, Sortable: true},
	{Name: "fuel", Label: "Fuel", Kind: KindText, Sortable: true},
	{Name: "hopper", Label: "Hopper", Kind: KindText},
	{Name: "item_1", Label: "Item 1", Kind: KindText, Sortable: true},
	{Name: "item_2", Label: "Item 2", Kind: KindText, Sortable: true},
	{Name: "storagetype", Label: "Storage", Kind: KindText, Sortable: true},
	{Name: "mithril_infusion", Label: "MI.", Kind: KindFlag},
	{Name: "free_will", Label: "FW.", Kind: KindFlag},
	{Name: "postcard", Label: "PC.", Kind: KindFlag},
	{Name: "beacon_boost_percent", Label: "Beacon", Kind: KindPercent, Sortable: true},
	{Name: "pet_bonus_percent", Label: "Pet", Kind: KindPercent},
	{Name: "crystal_bonus_percent", Label: "Crystal", Kind: KindPercent},
	{Name: "seconds", Label: "Time", Kind: KindDuration, Sortable: true},
	{Name: "percentage_boost", Label: "Speed", Kind: KindPercent, Sortable: true},
	{Name: "raw_item_drops", Label: "Drops", Kind: KindBlob, Group: GroupCalculation},
	{Name: "in_inventory", Label: "In inventory", Kind: KindBlob, Group: GroupCalculation},
	{Name: "sold_to_hopper", Label: "Sold to hopper", Kind: KindBlob, Group: GroupCalculation},
	{Name: "hopper_coins", Label: "Hopper $", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "cost_of_fuel", Label: "Fuel $", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "coins_if_inventory_sell_order_to_bz", Label: "Inv. $ (bz order)", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "coins_if_inventory_instant_sold_to_bz", Label: "Inv. $ (bz instant)", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "coins_if_inventory_sold_to_npc", Label: "Inv. $ (npc)", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "coins_if_inventory_sold_optimally", Label: "Inv. $ (optimal)", Kind: KindMoney, Group: GroupCalculation, Sortable: true},
	{Name: "profit_24h_if_inventory_sell_order_to_bz", Label: "$/day (bz order)", Kind: KindMoney, Group: GroupProfit, Sortable: true},
	{Name: "profit_24h_if_inventory_instant_sold_to_bz", Label: "$/day (bz instant)", Kind: KindMoney, Group: GroupProfit, Sortable: true},
	{Name: "profit_24h_if_inventory_sold_to_npc", Label: "$/day (npc)", Kind: KindMoney, Group: GroupProfit, Sortable: true},
	{Name: "profit_24h_if_inventory_sold_optimally", Label: "$/day (optimal)", Kind: KindMoney, Group: GroupProfit, Sortable: true},
	{Name: "profit_24h_only_hopper", Label: "$/day (ehopper)", Kind: KindMoney, Group: GroupProfit, Sortable: true},
	{Name: "APR_if_inventory_sell_order_to_bz", Label: "APR (bz order)", Kind: KindPercent, Group: GroupProfit, Sortable: true},
	{Name: "APR_only_hopper", Label: "APR (ehopper)", Kind: KindPercent, Group: GroupProfit, Sortable: true},
	{Name: "inventory_full", Label: "Full", Kind: KindFlag},
	{Name: "fuel_empty", Label: "No fuel", Kind: KindFlag},
	{Name: "minion_cost_total", Label: "Cost", Kind: KindMoney, Sortable: true},
	{Name: "minion_cost_recoverable", Label: "Cost (recoverable)", Kind: KindMoney, Sortable: true},
	{Name: "minion_cost_non_recoverable", Label: "Cost (sunk)", Kind: KindMoney, Sortable: true},
}

var byName = func() map[string]Column {
	m := make(map[string]Column, len(catalogue))
	for _, c := range catalogue {
		m[c.Name] = c
	}
	return m
}()

// Columns returns the full catalogue in table order.
func Columns() []Column {
	out := make([]Column, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup finds a column by name.
func Lookup(name string) (Column, bool) {
	c, ok := byName[name]
	return c, ok
}

// IsSortable reports whether name may appear in ORDER BY.
func IsSortable(name string) bool {
	c, ok := byName[name]
	return ok && c.Sortable
}
