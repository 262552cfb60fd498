// Package filter collects explorer form state into a Filter.
//
// Multi-select controls distinguish "not on the page" (nil) from "on the page
// with nothing selected" (empty, non-nil). The first kind adds no clause; the
// second matches no rows.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/pager"
	"github.com/ruslano69/minionview/pkg/core/slider"
)

var (
	// ErrUnknownColumn is returned for a sort column outside the catalogue.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrInvalidValue is returned for malformed numbers and unknown choices.
	ErrInvalidValue = errors.New("invalid filter value")
)

// Form parameter names.
const (
	ParamMinion     = "minion"
	ParamSortColumn = "sort-column"
	ParamSortOrder  = "sort-order"
	ParamSeconds    = "seconds"
	ParamUpgrade    = "upgrade"
	ParamFuel       = "fuel"
	ParamStorage    = "storage"
	ParamExclude    = "exclude-item"
	ParamMinionType = "minion-type"
	ParamMinCost    = "min-cost"
	ParamMaxCost    = "max-cost"
	ParamPage       = "page"
	ParamPageSize   = "page-size"
	ParamBudget     = "budget"
	ParamFrequency  = "frequency"

	// ParamSubmitted marks a submitted form. Without it, checkbox groups are
	// treated as untouched instead of as "nothing selected".
	ParamSubmitted = "filtered"
)

// MaxPageSize bounds the page-size parameter.
const MaxPageSize = 500

// AllMinions is the minion text value meaning no restriction.
const AllMinions = "All"

// Order is a normalised sort direction.
type Order string

const (
	Asc  Order = "ASC"
	Desc Order = "DESC"
)

// Sort is the single ORDER BY of a query.
type Sort struct {
	Column string `json:"column"`
	Order  Order  `json:"order"`
}

// Range is an inclusive numeric range with From <= To.
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Filter is the structured form state of one explorer request.
type Filter struct {
	Layout    string `json:"layout"`
	Submitted bool   `json:"submitted"`

	Minion string `json:"minion,omitempty"`
	Sort   Sort   `json:"sort"`

	Timescales      []int    `json:"timescales"`
	Upgrades        []string `json:"upgrades"`
	Fuels           []string `json:"fuels"`
	Storages        []string `json:"storages"`
	UnselectedItems []string `json:"unselected_items"`
	MinionTypes     []string `json:"minion_types"`
	Cost            *Range   `json:"cost,omitempty"`

	Budget    int64 `json:"budget,omitempty"`
	Frequency int   `json:"frequency,omitempty"`

	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Defaults carries the page-level settings Collect falls back to.
type Defaults struct {
	Layout   minion.Layout
	PageSize int

	// Track of the cost slider.
	CostMin float64
	CostMax float64
}

// Collect reads form values into a Filter for the page described by d.
// Controls the layout does not offer are ignored.
func Collect(values url.Values, d Defaults) (Filter, error) {
	l := d.Layout
	f := Filter{
		Layout:    l.Name,
		Submitted: values.Has(ParamSubmitted),
		Page:      1,
		PageSize:  d.PageSize,
	}
	if f.PageSize <= 0 {
		f.PageSize = pager.DefaultPageSize
	}

	f.Minion = strings.TrimSpace(values.Get(ParamMinion))
	if strings.EqualFold(f.Minion, AllMinions) {
		f.Minion = ""
	}

	var err error
	if f.Sort, err = collectSort(values, l.DefaultSort); err != nil {
		return Filter{}, err
	}

	if l.Timescales {
		if f.Timescales, err = collectTimescales(values, f.Submitted); err != nil {
			return Filter{}, err
		}
	}
	if l.Upgrades {
		f.Upgrades = collectStrings(values, ParamUpgrade, f.Submitted)
		for _, u := range f.Upgrades {
			if !minion.IsUpgradeFlag(u) {
				return Filter{}, fmt.Errorf("%w: upgrade %q", ErrInvalidValue, u)
			}
		}
	}
	if l.Fuels {
		f.Fuels = collectStrings(values, ParamFuel, f.Submitted)
	}
	if l.Storages {
		f.Storages = collectStrings(values, ParamStorage, f.Submitted)
	}
	if l.Items {
		// Nothing excluded is a valid state, never fail closed.
		f.UnselectedItems = collectStrings(values, ParamExclude, false)
	}
	if l.CostRange && (values.Has(ParamMinCost) || values.Has(ParamMaxCost)) {
		if f.Cost, err = collectCost(values, d.CostMin, d.CostMax); err != nil {
			return Filter{}, err
		}
	}

	f.MinionTypes = collectMinionTypes(values)
	for _, t := range f.MinionTypes {
		if _, _, err := ParseMinionType(t); err != nil {
			return Filter{}, err
		}
	}

	if v := values.Get(ParamBudget); v != "" {
		if f.Budget, err = strconv.ParseInt(v, 10, 64); err != nil || f.Budget <= 0 {
			return Filter{}, fmt.Errorf("%w: budget %q", ErrInvalidValue, v)
		}
	}
	if v := values.Get(ParamFrequency); v != "" {
		if f.Frequency, err = strconv.Atoi(v); err != nil || f.Frequency <= 0 {
			return Filter{}, fmt.Errorf("%w: frequency %q", ErrInvalidValue, v)
		}
	}

	if p, err := strconv.Atoi(values.Get(ParamPage)); err == nil && p > 1 {
		f.Page = p
	}
	if n, err := strconv.Atoi(values.Get(ParamPageSize)); err == nil && n > 0 {
		f.PageSize = min(n, MaxPageSize)
	}

	return f, nil
}

func collectSort(values url.Values, defaultColumn string) (Sort, error) {
	s := Sort{Column: values.Get(ParamSortColumn), Order: Desc}
	if s.Column == "" {
		s.Column = defaultColumn
	}
	if !minion.IsSortable(s.Column) {
		return Sort{}, fmt.Errorf("%w: %q", ErrUnknownColumn, s.Column)
	}
	if strings.EqualFold(strings.TrimSpace(values.Get(ParamSortOrder)), "asc") {
		s.Order = Asc
	}
	return s, nil
}

// collectTimescales accepts repeated "seconds" values and "seconds-<n>"
// checkbox names.
func collectTimescales(values url.Values, submitted bool) ([]int, error) {
	var raw []string
	raw = append(raw, values[ParamSeconds]...)
	for key := range values {
		if n, ok := strings.CutPrefix(key, ParamSeconds+"-"); ok {
			raw = append(raw, n)
		}
	}
	if len(raw) == 0 {
		if submitted {
			return []int{}, nil
		}
		return nil, nil
	}

	seen := make(map[int]bool, len(raw))
	out := make([]int, 0, len(raw))
	for _, r := range raw {
		n, err := strconv.Atoi(strings.TrimSpace(r))
		if err != nil || !knownTimescale(n) {
			return nil, fmt.Errorf("%w: timescale %q", ErrInvalidValue, r)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

func knownTimescale(n int) bool {
	for _, ts := range minion.Timescales {
		if ts.Seconds == n {
			return true
		}
	}
	return false
}

func collectStrings(values url.Values, key string, submitted bool) []string {
	raw, ok := values[key]
	if !ok {
		if submitted {
			return []string{}
		}
		return nil
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// collectMinionTypes returns nil when "all" is chosen or nothing is given.
func collectMinionTypes(values url.Values) []string {
	types := collectStrings(values, ParamMinionType, false)
	for _, t := range types {
		if strings.EqualFold(t, "all") {
			return nil
		}
	}
	if len(types) == 0 {
		return nil
	}
	return types
}

// collectCost feeds both bounds through the slider so From <= To holds even
// for crossed or out-of-track input.
func collectCost(values url.Values, lo, hi float64) (*Range, error) {
	s := slider.New(lo, hi)
	from, to := s.Min, s.Max
	if v := values.Get(ParamMinCost); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: min-cost %q", ErrInvalidValue, v)
		}
		from = n
	}
	if v := values.Get(ParamMaxCost); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: max-cost %q", ErrInvalidValue, v)
		}
		to = n
	}
	s.Set(from, to)
	return &Range{From: s.From, To: s.To}, nil
}

// ParseMinionType splits "Sheep-t11" into ("Sheep", 11). A type without a
// level suffix returns level 0.
func ParseMinionType(t string) (name string, level int, err error) {
	i := strings.LastIndex(t, "-t")
	if i <= 0 {
		return t, 0, nil
	}
	level, err = strconv.Atoi(t[i+2:])
	if err != nil || level <= 0 {
		return "", 0, fmt.Errorf("%w: minion type %q", ErrInvalidValue, t)
	}
	return t[:i], level, nil
}

// Values encodes the filter back into form values. Collect(f.Values(), d)
// yields f again.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Submitted {
		v.Set(ParamSubmitted, "1")
	}
	if f.Minion != "" {
		v.Set(ParamMinion, f.Minion)
	}
	if f.Sort.Column != "" {
		v.Set(ParamSortColumn, f.Sort.Column)
		v.Set(ParamSortOrder, strings.ToLower(string(f.Sort.Order)))
	}
	for _, ts := range f.Timescales {
		v.Add(ParamSeconds, strconv.Itoa(ts))
	}
	for key, list := range map[string][]string{
		ParamUpgrade:    f.Upgrades,
		ParamFuel:       f.Fuels,
		ParamStorage:    f.Storages,
		ParamExclude:    f.UnselectedItems,
		ParamMinionType: f.MinionTypes,
	} {
		for _, s := range list {
			v.Add(key, s)
		}
	}
	if f.Cost != nil {
		v.Set(ParamMinCost, strconv.FormatFloat(f.Cost.From, 'f', -1, 64))
		v.Set(ParamMaxCost, strconv.FormatFloat(f.Cost.To, 'f', -1, 64))
	}
	if f.Budget > 0 {
		v.Set(ParamBudget, strconv.FormatInt(f.Budget, 10))
	}
	if f.Frequency > 0 {
		v.Set(ParamFrequency, strconv.Itoa(f.Frequency))
	}
	if f.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		v.Set(ParamPageSize, strconv.Itoa(f.PageSize))
	}
	return v
}

// WithPage returns a copy of f pointing at page.
func (f Filter) WithPage(page int) Filter {
	f.Page = page
	return f
}

// Key is a stable identifier of the filter for caching. It ignores the page.
func (f Filter) Key() string {
	v := f.Values()
	v.Del(ParamPage)
	v.Set("layout", f.Layout)
	return v.Encode()
}

// Selected reports whether value is in list, treating a nil list (control
// untouched) as everything selected.
func Selected(list []string, value string) bool {
	if list == nil {
		return true
	}
	for _, s := range list {
		if s == value {
			return true
		}
	}
	return false
}

// SelectedTimescale is Selected for timescales.
func SelectedTimescale(list []int, seconds int) bool {
	if list == nil {
		return true
	}
	for _, s := range list {
		if s == seconds {
			return true
		}
	}
	return false
}
