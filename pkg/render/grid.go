package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ruslano69/minionview/pkg/core/filter"
	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
)

// Grid writes the best-combination table. cells is keyed by minion.CellID; a
// missing or nil entry leaves the cell blank.
func Grid(w io.Writer, cells map[string]*minion.Best) error {
	var b strings.Builder
	writeGrid(&b, cells)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeGrid(b *strings.Builder, cells map[string]*minion.Best) {
	b.WriteString(`<div class="data-wrapper"><table class="data-table grid"><thead><tr><th>Budget</th>`)
	for _, f := range minion.Frequencies {
		b.WriteString(`<th>` + html.EscapeString(f.Label) + `</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)

	for _, budget := range minion.Budgets {
		b.WriteString(`<tr><th>` + format.Money(float64(budget)) + `</th>`)
		for _, f := range minion.Frequencies {
			id := minion.CellID(budget, f.Seconds)
			best := cells[id]
			if best == nil {
				fmt.Fprintf(b, `<td id="%s"></td>`, html.EscapeString(id))
				continue
			}
			fmt.Fprintf(b, `<td id="%s" style="background:%s">`, html.EscapeString(id), best.Color())
			writeBest(b, best)
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
}

func writeBest(b *strings.Builder, best *minion.Best) {
	r := best.Result
	b.WriteString(`<div class="best-title">` + html.EscapeString(best.Title()) + `</div>`)
	if up := best.Upgrades(); up != "" {
		b.WriteString(`<div>` + html.EscapeString(up) + `</div>`)
	}
	if fuel := r.Fuel.Display(); fuel != "" {
		b.WriteString(`<div>fuel: ` + html.EscapeString(fuel) + `</div>`)
	}
	if items := r.Items(); items != "" {
		b.WriteString(`<div>` + html.EscapeString(items) + `</div>`)
	}
	fmt.Fprintf(b, `<div>%s/day (%s)</div>`, format.Money(best.DailyProfit), html.EscapeString(string(best.Strategy)))
	fmt.Fprintf(b, `<div>cost %s</div>`, format.Money(r.CostTotal))
	if best.PaybackDays > 0 {
		fmt.Fprintf(b, `<div>payback %gd</div>`, best.PaybackDays)
	}
}

// GridPage is the best-combination view with its minion type picker.
type GridPage struct {
	Chrome Chrome
	Path   string
	Types  []string // selected minion types
	Cells  map[string]*minion.Best
	Error  string
}

// Render writes the full page.
func (g *GridPage) Render(w io.Writer) error {
	var b strings.Builder
	beginPage(&b, g.Chrome, "Best combinations", tableCSS+gridCSS)

	b.WriteString(`<form method="GET" action="` + html.EscapeString(g.Path) + `" class="filter-bar">`)
	b.WriteString(`<div class="filter-group"><label class="filter-label">Minion type</label><div class="checks">`)
	for _, t := range minion.GridTypes {
		writeCheck(&b, filter.ParamMinionType, t, t, selectedType(g.Types, t))
	}
	b.WriteString(`</div></div>`)
	b.WriteString(`<div style="display:flex;gap:8px;align-self:flex-end;">`)
	b.WriteString(`<button class="btn btn-primary" type="submit">Show</button>`)
	b.WriteString(`</div></form>`)

	writeErrorBar(&b, g.Error)

	b.WriteString(`<div class="card"><div class="card-header">Best combination per budget and frequency</div>`)
	writeGrid(&b, g.Cells)
	b.WriteString(`</div>`)

	endPage(&b)
	_, err := io.WriteString(w, b.String())
	return err
}

// An empty selection means "all".
func selectedType(types []string, t string) bool {
	if len(types) == 0 {
		return t == "all"
	}
	for _, s := range types {
		if s == t {
			return true
		}
	}
	return false
}

const gridCSS = `
  .data-table.grid td { font-family:inherit; white-space:normal; color:#0f172a; vertical-align:top; min-width:150px; font-size:12px; }
  .data-table.grid td:empty { background:#1e293b; }
  .grid th { text-align:left; }
  .best-title { font-weight:700; margin-bottom:4px; }
`
