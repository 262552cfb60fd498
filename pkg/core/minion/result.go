// Package minion describes one row of the precomputed minion simulation dataset
// and the column catalogue every view renders from.
package minion

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Table is the dataset table produced by the simulator.
const Table = "MinionSimulationResult"

// Schema is the SQLite DDL of Table as the simulator creates it.
const Schema = `CREATE TABLE IF NOT EXISTS MinionSimulationResult (
	id INTEGER NOT NULL PRIMARY KEY,
	minion VARCHAR NOT NULL,
	minion_level INTEGER NOT NULL,
	fuel VARCHAR,
	hopper VARCHAR,
	item_1 VARCHAR,
	item_2 VARCHAR,
	storagetype VARCHAR,
	mithril_infusion BOOLEAN NOT NULL,
	free_will BOOLEAN NOT NULL,
	postcard BOOLEAN NOT NULL,
	beacon_boost_percent INTEGER NOT NULL,
	pet_bonus_percent INTEGER NOT NULL,
	crystal_bonus_percent INTEGER NOT NULL,
	seconds INTEGER NOT NULL,
	percentage_boost INTEGER NOT NULL,
	raw_item_drops VARCHAR NOT NULL,
	in_inventory VARCHAR NOT NULL,
	sold_to_hopper VARCHAR NOT NULL,
	hopper_coins INTEGER NOT NULL,
	cost_of_fuel INTEGER NOT NULL,
	coins_if_inventory_sell_order_to_bz INTEGER NOT NULL,
	coins_if_inventory_instant_sold_to_bz INTEGER NOT NULL,
	coins_if_inventory_sold_to_npc INTEGER NOT NULL,
	coins_if_inventory_sold_optimally INTEGER NOT NULL,
	profit_24h_if_inventory_sell_order_to_bz INTEGER NOT NULL,
	profit_24h_if_inventory_instant_sold_to_bz INTEGER NOT NULL,
	profit_24h_if_inventory_sold_to_npc INTEGER NOT NULL,
	profit_24h_if_inventory_sold_optimally INTEGER NOT NULL,
	profit_24h_only_hopper INTEGER NOT NULL,
	APR_if_inventory_sell_order_to_bz INTEGER NOT NULL,
	APR_only_hopper INTEGER NOT NULL,
	inventory_full BOOLEAN NOT NULL,
	fuel_empty BOOLEAN NOT NULL,
	minion_cost_total INTEGER NOT NULL,
	minion_cost_recoverable INTEGER NOT NULL,
	minion_cost_non_recoverable INTEGER NOT NULL
)`

// Text is a nullable text column. The simulator writes the literal "None" for
// missing fuels, items and storages, so both NULL and "None" read as empty.
type Text struct {
	sql.NullString
}

// NewText returns a valid Text holding s.
func NewText(s string) Text {
	return Text{sql.NullString{String: s, Valid: true}}
}

// Blank reports whether the value renders as an empty cell.
func (t Text) Blank() bool {
	return !t.Valid || t.String == "" || t.String == "None"
}

// Display returns the value or "" when blank.
func (t Text) Display() string {
	if t.Blank() {
		return ""
	}
	return t.String
}

// Value implements driver.Valuer.
func (t Text) Value() (driver.Value, error) {
	return t.NullString.Value()
}

// MarshalJSON writes null for blank values and a plain string otherwise.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.Blank() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String)
}

// UnmarshalJSON accepts null or a string.
func (t *Text) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Text{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = NewText(s)
	return nil
}

// Result is one simulated combination of minion, level, fuel, hopper, items,
// storage, upgrades and timescale.
type Result struct {
	ID          int64  `db:"id" json:"id"`
	Minion      string `db:"minion" json:"minion"`
	MinionLevel int    `db:"minion_level" json:"minion_level"`

	Fuel        Text `db:"fuel" json:"fuel"`
	Hopper      Text `db:"hopper" json:"hopper"`
	Item1       Text `db:"item_1" json:"item_1"`
	Item2       Text `db:"item_2" json:"item_2"`
	StorageType Text `db:"storagetype" json:"storagetype"`

	MithrilInfusion     bool    `db:"mithril_infusion" json:"mithril_infusion"`
	FreeWill            bool    `db:"free_will" json:"free_will"`
	Postcard            bool    `db:"postcard" json:"postcard"`
	BeaconBoostPercent  float64 `db:"beacon_boost_percent" json:"beacon_boost_percent"`
	PetBonusPercent     float64 `db:"pet_bonus_percent" json:"pet_bonus_percent"`
	CrystalBonusPercent float64 `db:"crystal_bonus_percent" json:"crystal_bonus_percent"`

	Seconds         int     `db:"seconds" json:"seconds"`
	PercentageBoost float64 `db:"percentage_boost" json:"percentage_boost"`

	// JSON-encoded item maps as stored by the simulator.
	RawItemDrops string `db:"raw_item_drops" json:"raw_item_drops"`
	InInventory  string `db:"in_inventory" json:"in_inventory"`
	SoldToHopper string `db:"sold_to_hopper" json:"sold_to_hopper"`

	HopperCoins float64 `db:"hopper_coins" json:"hopper_coins"`
	CostOfFuel  float64 `db:"cost_of_fuel" json:"cost_of_fuel"`

	CoinsSellOrderBZ  float64 `db:"coins_if_inventory_sell_order_to_bz" json:"coins_if_inventory_sell_order_to_bz"`
	CoinsInstantBZ    float64 `db:"coins_if_inventory_instant_sold_to_bz" json:"coins_if_inventory_instant_sold_to_bz"`
	CoinsNPC          float64 `db:"coins_if_inventory_sold_to_npc" json:"coins_if_inventory_sold_to_npc"`
	CoinsOptimal      float64 `db:"coins_if_inventory_sold_optimally" json:"coins_if_inventory_sold_optimally"`
	ProfitSellOrderBZ float64 `db:"profit_24h_if_inventory_sell_order_to_bz" json:"profit_24h_if_inventory_sell_order_to_bz"`
	ProfitInstantBZ   float64 `db:"profit_24h_if_inventory_instant_sold_to_bz" json:"profit_24h_if_inventory_instant_sold_to_bz"`
	ProfitNPC         float64 `db:"profit_24h_if_inventory_sold_to_npc" json:"profit_24h_if_inventory_sold_to_npc"`
	ProfitOptimal     float64 `db:"profit_24h_if_inventory_sold_optimally" json:"profit_24h_if_inventory_sold_optimally"`
	ProfitOnlyHopper  float64 `db:"profit_24h_only_hopper" json:"profit_24h_only_hopper"`

	APRSellOrderBZ float64 `db:"APR_if_inventory_sell_order_to_bz" json:"APR_if_inventory_sell_order_to_bz"`
	APROnlyHopper  float64 `db:"APR_only_hopper" json:"APR_only_hopper"`

	InventoryFull bool `db:"inventory_full" json:"inventory_full"`
	FuelEmpty     bool `db:"fuel_empty" json:"fuel_empty"`

	CostTotal          float64 `db:"minion_cost_total" json:"minion_cost_total"`
	CostRecoverable    float64 `db:"minion_cost_recoverable" json:"minion_cost_recoverable"`
	CostNonRecoverable float64 `db:"minion_cost_non_recoverable" json:"minion_cost_non_recoverable"`
}

var (
	fieldsOnce  sync.Once
	fieldIndex  map[string]int
	columnOrder []string
)

func indexFields() {
	t := reflect.TypeOf(Result{})
	fieldIndex = make(map[string]int, t.NumField())
	columnOrder = make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fieldIndex[tag] = i
		columnOrder = append(columnOrder, tag)
	}
}

// ColumnNames returns all dataset columns in table order.
func ColumnNames() []string {
	fieldsOnce.Do(indexFields)
	out := make([]string, len(columnOrder))
	copy(out, columnOrder)
	return out
}

// Value returns the value of the named column, or nil and false when the
// column does not exist. Text columns are returned as Text.
func (r *Result) Value(column string) (any, bool) {
	fieldsOnce.Do(indexFields)
	i, ok := fieldIndex[column]
	if !ok {
		return nil, false
	}
	return reflect.ValueOf(r).Elem().Field(i).Interface(), true
}

// Values returns every column value in table order, ready to be bound as
// INSERT arguments.
func (r *Result) Values() []any {
	fieldsOnce.Do(indexFields)
	v := reflect.ValueOf(r).Elem()
	out := make([]any, len(columnOrder))
	for i, name := range columnOrder {
		out[i] = v.Field(fieldIndex[name]).Interface()
	}
	return out
}

// Items returns the non-blank items joined by ", ".
func (r *Result) Items() string {
	var items []string
	for _, it := range []Text{r.Item1, r.Item2} {
		if !it.Blank() {
			items = append(items, it.String)
		}
	}
	return strings.Join(items, ", ")
}
