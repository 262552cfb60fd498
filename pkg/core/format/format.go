// Package format renders dataset values for table cells.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ruslano69/minionview/pkg/core/minion"
)

// Money abbreviates coins: 100 -> $100, 2500 -> $2.5K, 2500000 -> $2.5M.
// Negative amounts keep the sign in front of the dollar.
func Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v < 1_000:
		return sign + "$" + strconv.FormatFloat(v, 'f', -1, 64)
	case v < 1_000_000:
		return fmt.Sprintf("%s$%.1fK", sign, v/1_000)
	case v < 1_000_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, v/1_000_000)
	default:
		return fmt.Sprintf("%s$%.1fB", sign, v/1_000_000_000)
	}
}

var durationUnits = []struct {
	suffix  string
	seconds float64
}{
	{"d", 86400},
	{"h", 3600},
	{"m", 60},
}

// Duration abbreviates seconds to the largest unit that fits: 120 -> 2m,
// 5400 -> 1.5h, 172800 -> 2d.
func Duration(seconds float64) string {
	abs := math.Abs(seconds)
	for _, u := range durationUnits {
		if abs >= u.seconds {
			return trimZero(seconds/u.seconds) + u.suffix
		}
	}
	return trimZero(seconds) + "s"
}

// trimZero prints v with at most one decimal and drops a trailing ".0".
func trimZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// Percent is blank on zero.
func Percent(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

// Flag renders true as "T".
func Flag(b bool) string {
	if b {
		return "T"
	}
	return ""
}

// Text renders NULL and "None" as blank.
func Text(t minion.Text) string {
	return t.Display()
}

// Cell formats a value read from a column of the given kind.
func Cell(kind minion.Kind, value any) string {
	switch kind {
	case minion.KindMoney:
		if f, ok := toFloat(value); ok {
			return Money(f)
		}
	case minion.KindDuration:
		if f, ok := toFloat(value); ok {
			return Duration(f)
		}
	case minion.KindPercent:
		if f, ok := toFloat(value); ok {
			return Percent(f)
		}
	case minion.KindFlag:
		switch b := value.(type) {
		case bool:
			return Flag(b)
		default:
			if f, ok := toFloat(value); ok {
				return Flag(f != 0)
			}
		}
	}

	switch v := value.(type) {
	case nil:
		return ""
	case minion.Text:
		return Text(v)
	case string:
		if v == "None" {
			return ""
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return Flag(v)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}
