package render

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
	"github.com/ruslano69/minionview/pkg/core/pager"
	"github.com/ruslano69/minionview/pkg/core/slider"
)

// Group toggle parameters of the explorer form.
const (
	ParamShowCalculation = "show-calculation"
	ParamShowProfit      = "show-profit"

	// ParamLayout picks the layout of exports and API calls.
	ParamLayout = "layout"
)

const (
	sliderTrack = "#334155"
	sliderFill  = "#3b82f6"
)

// VisibilityFrom reads the group toggles. Before the form is first submitted
// every group is visible, and so is every group of a layout without toggles.
func VisibilityFrom(layout minion.Layout, values url.Values) Visibility {
	if !layout.GroupToggles || !values.Has(filter.ParamSubmitted) {
		return AllVisible
	}
	return Visibility{
		Calculation: values.Has(ParamShowCalculation),
		Profit:      values.Has(ParamShowProfit),
	}
}

// Options are the choices offered by the filter bar, read from the dataset.
type Options struct {
	Fuels    []string
	Storages []string
	Items    []string

	// Cost slider track
	CostMin float64
	CostMax float64
}

// Explorer is one filterable, paginated table page.
type Explorer struct {
	Chrome     Chrome
	Path       string // form action and link base
	ExportPath string // "" hides the export button
	Layout     minion.Layout
	Filter     filter.Filter
	Options    Options
	Results    []minion.Result
	Pager      pager.Pager
	Visibility Visibility
	Error      string
}

// Render writes the full page.
func (e *Explorer) Render(w io.Writer) error {
	var b strings.Builder
	beginPage(&b, e.Chrome, e.Layout.Title, tableCSS+sliderCSS)

	e.writeFilterBar(&b)
	writeErrorBar(&b, e.Error)

	b.WriteString(`<div class="card">`)
	fmt.Fprintf(&b, `<div class="card-header">%s <span class="pill">%d rows</span></div>`,
		html.EscapeString(e.Layout.Title), e.Pager.Total)
	writeTable(&b, e.Layout, e.Results, e.Visibility, e.sortHref)
	e.writePager(&b)
	b.WriteString(`</div>`)

	endPage(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// href links to the page for f, keeping the group toggles.
func (e *Explorer) href(base string, f filter.Filter) string {
	v := f.Values()
	if f.Submitted {
		if e.Visibility.Calculation {
			v.Set(ParamShowCalculation, "on")
		}
		if e.Visibility.Profit {
			v.Set(ParamShowProfit, "on")
		}
	}
	if enc := v.Encode(); enc != "" {
		return base + "?" + enc
	}
	return base
}

// exportHref links to the spreadsheet of every row matching the filter.
func (e *Explorer) exportHref() string {
	v := e.Filter.WithPage(1).Values()
	v.Set(ParamLayout, e.Layout.Name)
	return e.ExportPath + "?" + v.Encode()
}

func (e *Explorer) sortHref(c minion.Column) string {
	f := e.Filter.WithPage(1)
	order := filter.Desc
	if f.Sort.Column == c.Name && f.Sort.Order == filter.Desc {
		order = filter.Asc
	}
	f.Sort = filter.Sort{Column: c.Name, Order: order}
	return e.href(e.Path, f)
}

func (e *Explorer) writeFilterBar(b *strings.Builder) {
	l, f := e.Layout, e.Filter

	b.WriteString(`<form method="GET" action="` + html.EscapeString(e.Path) + `" class="filter-bar">`)
	b.WriteString(`<input type="hidden" name="` + filter.ParamSubmitted + `" value="1">`)

	b.WriteString(`<div class="filter-group"><label class="filter-label">Minion</label>`)
	b.WriteString(`<input class="filter-input" name="` + filter.ParamMinion + `" placeholder="All" value="` + html.EscapeString(f.Minion) + `">`)
	b.WriteString(`</div>`)

	b.WriteString(`<div class="filter-group"><label class="filter-label">Sort by</label>`)
	b.WriteString(`<select class="filter-input" name="` + filter.ParamSortColumn + `">`)
	for _, c := range l.SortColumns() {
		writeOption(b, c.Name, c.Label, c.Name == f.Sort.Column)
	}
	b.WriteString(`</select><select class="filter-input" name="` + filter.ParamSortOrder + `">`)
	writeOption(b, "desc", "Descending", f.Sort.Order != filter.Asc)
	writeOption(b, "asc", "Ascending", f.Sort.Order == filter.Asc)
	b.WriteString(`</select></div>`)

	if l.Timescales {
		b.WriteString(`<div class="filter-group"><label class="filter-label">Time</label><div class="checks">`)
		for _, ts := range minion.Timescales {
			writeCheck(b, filter.ParamSeconds, strconv.Itoa(ts.Seconds), ts.Label, filter.SelectedTimescale(f.Timescales, ts.Seconds))
		}
		b.WriteString(`</div></div>`)
	}
	if l.Upgrades {
		b.WriteString(`<div class="filter-group"><label class="filter-label">Upgrades</label><div class="checks">`)
		for _, u := range minion.UpgradeFlags {
			writeCheck(b, filter.ParamUpgrade, u.Name, u.Label, filter.Selected(f.Upgrades, u.Name))
		}
		b.WriteString(`</div></div>`)
	}
	if l.Fuels {
		writeCheckGroup(b, "Fuel", filter.ParamFuel, e.Options.Fuels, func(v string) bool { return filter.Selected(f.Fuels, v) })
	}
	if l.Storages {
		writeCheckGroup(b, "Storage", filter.ParamStorage, e.Options.Storages, func(v string) bool { return filter.Selected(f.Storages, v) })
	}
	if l.Items {
		writeCheckGroup(b, "Exclude items", filter.ParamExclude, e.Options.Items, func(v string) bool {
			return f.UnselectedItems != nil && filter.Selected(f.UnselectedItems, v)
		})
	}
	if l.CostRange && e.Options.CostMax > e.Options.CostMin {
		s := slider.New(e.Options.CostMin, e.Options.CostMax)
		if f.Cost != nil {
			s.Set(f.Cost.From, f.Cost.To)
		}
		writeSlider(b, "Cost", filter.ParamMinCost, filter.ParamMaxCost, s)
	}
	if l.GroupToggles {
		b.WriteString(`<div class="filter-group"><label class="filter-label">Columns</label><div class="checks">`)
		writeCheck(b, ParamShowCalculation, "on", "Calculation", e.Visibility.Calculation)
		writeCheck(b, ParamShowProfit, "on", "Profit", e.Visibility.Profit)
		b.WriteString(`</div></div>`)
	}

	b.WriteString(`<div style="display:flex;gap:8px;align-self:flex-end;">`)
	b.WriteString(`<button class="btn btn-primary" type="submit">Filter</button>`)
	b.WriteString(`<a class="btn btn-ghost" href="` + html.EscapeString(e.Path) + `">Clear</a>`)
	if e.ExportPath != "" {
		b.WriteString(`<a class="btn btn-ghost" href="` + html.EscapeString(e.exportHref()) + `">XLSX</a>`)
	}
	b.WriteString(`</div></form>`)
}

func (e *Explorer) writePager(b *strings.Builder) {
	p := e.Pager
	b.WriteString(`<div class="pager">`)
	writePagerButton(b, "Previous", e.href(e.Path, e.Filter.WithPage(p.Prev())), p.HasPrev())
	b.WriteString(`<span class="pager-label">` + html.EscapeString(p.Label()) + `</span>`)
	writePagerButton(b, "Next", e.href(e.Path, e.Filter.WithPage(p.Next())), p.HasNext())
	b.WriteString(`</div>`)
}

func writePagerButton(b *strings.Builder, label, href string, enabled bool) {
	if !enabled {
		b.WriteString(`<a class="btn btn-ghost" aria-disabled="true">` + label + `</a>`)
		return
	}
	b.WriteString(`<a class="btn btn-ghost" href="` + html.EscapeString(href) + `">` + label + `</a>`)
}

func writeOption(b *strings.Builder, value, label string, selected bool) {
	sel := ""
	if selected {
		sel = " selected"
	}
	fmt.Fprintf(b, `<option value="%s"%s>%s</option>`, html.EscapeString(value), sel, html.EscapeString(label))
}

func writeCheck(b *strings.Builder, name, value, label string, checked bool) {
	chk := ""
	if checked {
		chk = " checked"
	}
	fmt.Fprintf(b, `<label class="check"><input type="checkbox" name="%s" value="%s"%s>%s</label>`,
		html.EscapeString(name), html.EscapeString(value), chk, html.EscapeString(label))
}

func writeCheckGroup(b *strings.Builder, title, name string, values []string, checked func(string) bool) {
	if len(values) == 0 {
		return
	}
	b.WriteString(`<div class="filter-group"><label class="filter-label">` + html.EscapeString(title) + `</label><div class="checks">`)
	for _, v := range values {
		writeCheck(b, name, v, v, checked(v))
	}
	b.WriteString(`</div></div>`)
}

func writeSlider(b *strings.Builder, title, fromName, toName string, s *slider.Slider) {
	zFrom, zTo := s.ZIndex()
	num := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	b.WriteString(`<div class="filter-group slider"><label class="filter-label">` + html.EscapeString(title) + `</label>`)
	fmt.Fprintf(b, `<div class="range" style="background:%s">`, s.Gradient(sliderTrack, sliderFill))
	for _, h := range []struct {
		name  string
		value float64
		z     int
	}{{fromName, s.From, zFrom}, {toName, s.To, zTo}} {
		fmt.Fprintf(b, `<input type="range" name="%s" min="%s" max="%s" step="%s" value="%s" style="z-index:%d">`,
			h.name, num(s.Min), num(s.Max), num(s.Step), num(h.value), h.z)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(b, `<span class="range-label">%s - %s</span>`, format.Money(s.From), format.Money(s.To))
	b.WriteString(`</div>`)
}

const sliderCSS = `
  .slider { min-width:260px; }
  .range { position:relative; height:6px; border-radius:3px; margin:10px 0; }
  .range input[type=range] {
    position:absolute; width:100%; top:-6px; height:18px;
    background:none; pointer-events:none; -webkit-appearance:none; appearance:none;
  }
  .range input[type=range]::-webkit-slider-thumb { pointer-events:all; }
  .range input[type=range]::-moz-range-thumb { pointer-events:all; }
  .range-label { font-size:12px; color:#94a3b8; font-family:monospace; }
  .pager { display:flex; gap:12px; align-items:center; justify-content:center; padding:12px 20px; background:#0f172a; border-top:1px solid #334155; }
  .pager-label { font-size:12px; color:#94a3b8; }
`
