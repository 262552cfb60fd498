package minion

import (
	"fmt"
	"math"
	"strings"
)

// EhopperMargin is how much more instant selling to the bazaar must earn than
// the enchanted hopper before it is recommended.
const EhopperMargin = 1.11

// Strategy is the recommended way to cash a minion's output.
type Strategy string

const (
	StrategyBazaar  Strategy = "sell to bz"
	StrategyEhopper Strategy = "ehopper"
)

// Best summarises the winning combination of one grid cell.
type Best struct {
	Budget    int64
	Frequency int
	Result    Result

	Strategy    Strategy
	DailyProfit float64
	PaybackDays float64
}

// NewBest derives the grid view of r.
func NewBest(budget int64, frequency int, r Result) Best {
	b := Best{Budget: budget, Frequency: frequency, Result: r}
	instant := r.ProfitInstantBZ
	ehopper := r.ProfitOnlyHopper
	if instant > ehopper*EhopperMargin {
		b.Strategy, b.DailyProfit = StrategyBazaar, instant
	} else {
		b.Strategy, b.DailyProfit = StrategyEhopper, ehopper
	}
	if b.DailyProfit > 0 {
		b.PaybackDays = math.Round(r.CostTotal / b.DailyProfit)
	}
	return b
}

// CellID is the grid cell identifier, e.g. "5m-7d".
func (b Best) CellID() string {
	return CellID(b.Budget, b.Frequency)
}

// CellID builds the identifier of the cell at budget and frequency.
func CellID(budget int64, frequency int) string {
	return fmt.Sprintf("%gm-%s", float64(budget)/1_000_000, FrequencyLabel(frequency))
}

// Title reads like "T11 Sheep Minion".
func (b Best) Title() string {
	return fmt.Sprintf("T%d %s Minion", b.Result.MinionLevel, b.Result.Minion)
}

// Upgrades lists storage, upgrade flags and beacon in display form.
func (b Best) Upgrades() string {
	r := b.Result
	var parts []string
	if !r.StorageType.Blank() {
		parts = append(parts, r.StorageType.String+" storage")
	}
	if r.MithrilInfusion {
		parts = append(parts, "infused")
	}
	if r.FreeWill {
		parts = append(parts, "free will")
	}
	if r.Postcard {
		parts = append(parts, "postcard")
	}
	if r.BeaconBoostPercent != 0 {
		parts = append(parts, fmt.Sprintf("beacon: %g%%", r.BeaconBoostPercent))
	}
	return strings.Join(parts, ", ")
}

// Color is the cell background for the winning minion.
func (b Best) Color() string {
	return ColorOf(b.Result.Minion)
}
