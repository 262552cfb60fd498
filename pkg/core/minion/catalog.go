package minion

// Timescale is one simulation horizon offered as a checkbox.
type Timescale struct {
	Seconds int
	Label   string
}

// Timescales lists every horizon the simulator has produced.
var Timescales = []Timescale{
	{300, "5m"},
	{3600, "1h"},
	{21600, "6h"},
	{43200, "12h"},
	{86400, "1d"},
	{172800, "2d"},
	{604800, "7d"},
	{1209600, "14d"},
	{2592000, "30d"},
	{10713600, "124d"},
	{31536000, "365d"},
}

// UpgradeFlags are the boolean upgrade columns. An upgrade that is not
// selected restricts results to rows without it.
var UpgradeFlags = []Column{
	{Name: "mithril_infusion", Label: "Mithril infusion", Kind: KindFlag},
	{Name: "free_will", Label: "Free will", Kind: KindFlag},
	{Name: "postcard", Label: "Postcard", Kind: KindFlag},
}

// IsUpgradeFlag reports whether name is one of UpgradeFlags.
func IsUpgradeFlag(name string) bool {
	for _, u := range UpgradeFlags {
		if u.Name == name {
			return true
		}
	}
	return false
}

// Budgets are the grid rows of the best-combination view, in coins.
var Budgets = []int64{2_000_000, 5_000_000, 10_000_000, 25_000_000, 50_000_000, 500_000_000}

// Frequencies are the grid columns of the best-combination view.
var Frequencies = []Timescale{
	{86400, "1d"},
	{172800, "2d"},
	{604800, "7d"},
	{1209600, "14d"},
	{10713600, "124d"},
}

// FrequencyLabel returns the grid label for seconds, or "" when seconds is not
// a grid frequency.
func FrequencyLabel(seconds int) string {
	for _, f := range Frequencies {
		if f.Seconds == seconds {
			return f.Label
		}
	}
	return ""
}

// DefaultColor is the cell background for minions without an entry in Colors.
const DefaultColor = "#ffffff"

// Colors maps a minion to its grid background.
var Colors = map[string]string{
	"Sheep":      "#f0e68c",
	"Slime":      "#bdffbd",
	"Tarantula":  "#dda0dd",
	"Clay":       "#d3d3d3",
	"Oak":        "#deb887",
	"Magma Cube": "#ffc5c2",
}

// ColorOf returns the grid background for a minion.
func ColorOf(minion string) string {
	if c, ok := Colors[minion]; ok {
		return c
	}
	return DefaultColor
}

// GridTypes are the minion type choices of the best-combination view. A
// "-t<level>" suffix pins the level.
var GridTypes = []string{"all", "Sheep", "Sheep-t11", "Sheep-t12", "Slime", "Tarantula", "Clay", "Oak", "Magma Cube"}
