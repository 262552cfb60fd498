package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/ruslano69/minionview/pkg/core/format"
	"github.com/ruslano69/minionview/pkg/core/minion"
)

// Visibility switches the toggleable column groups.
type Visibility struct {
	Calculation bool
	Profit      bool
}

// AllVisible shows every group.
var AllVisible = Visibility{Calculation: true, Profit: true}

func (v Visibility) hidden(g minion.Group) bool {
	switch g {
	case minion.GroupCalculation:
		return !v.Calculation
	case minion.GroupProfit:
		return !v.Profit
	default:
		return false
	}
}

// Table writes the result rows of layout as an HTML table.
func Table(w io.Writer, layout minion.Layout, results []minion.Result, vis Visibility) error {
	var b strings.Builder
	writeTable(&b, layout, results, vis, nil)
	_, err := io.WriteString(w, b.String())
	return err
}

// sortLink returns the header href for a sortable column, or "" for none.
type sortLink func(c minion.Column) string

func writeTable(b *strings.Builder, layout minion.Layout, results []minion.Result, vis Visibility, sortHref sortLink) {
	columns := layout.ColumnDefs()

	b.WriteString(`<div class="data-wrapper"><table class="data-table"><thead><tr>`)
	for _, c := range columns {
		label := html.EscapeString(c.Label)
		if sortHref != nil && c.Sortable {
			if href := sortHref(c); href != "" {
				label = `<a href="` + html.EscapeString(href) + `">` + label + `</a>`
			}
		}
		fmt.Fprintf(b, `<th data-column="%s"%s>%s</th>`, html.EscapeString(c.Name), classAttr(c, vis), label)
	}
	b.WriteString(`</tr></thead><tbody>`)

	if len(results) == 0 {
		fmt.Fprintf(b, `<tr><td class="empty" colspan="%d">No matching combinations</td></tr>`, len(columns))
	}
	for i := range results {
		r := &results[i]
		b.WriteString(`<tr>`)
		for _, c := range columns {
			value, _ := r.Value(c.Name)
			fmt.Fprintf(b, `<td%s>%s</td>`, classAttr(c, vis), html.EscapeString(format.Cell(c.Kind, value)))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)
}

// classAttr builds the class list of a cell: kind, group and hidden.
func classAttr(c minion.Column, vis Visibility) string {
	classes := []string{c.Kind.String()}
	if c.Group != minion.GroupNone {
		classes = append(classes, string(c.Group))
		if vis.hidden(c.Group) {
			classes = append(classes, "hidden")
		}
	}
	return ` class="` + strings.Join(classes, " ") + `"`
}

const tableCSS = `
  .data-wrapper { overflow-x:auto; }
  .data-table { width:100%; border-collapse:collapse; font-size:13px; }
  .data-table th {
    padding:10px 12px; text-align:left;
    font-size:11px; font-weight:600; color:#475569;
    text-transform:uppercase; letter-spacing:.04em;
    border-bottom:2px solid #334155; background:#0f172a;
    white-space:nowrap; position:sticky; top:0; z-index:10;
  }
  .data-table th a { color:inherit; text-decoration:none; }
  .data-table td {
    padding:8px 12px; border-bottom:1px solid #1e293b;
    font-family:monospace; color:#cbd5e1; white-space:nowrap;
  }
  .data-table tr:nth-child(even) td { background:#18222f; }
  .data-table tr:hover td { background:#1e2d42; }
  .data-table td.money, .data-table td.int, .data-table td.percent { color:#60a5fa; text-align:right; }
  .data-table td.flag { color:#34d399; text-align:center; }
  .data-table td.blob { font-size:10px; max-width:240px; overflow:hidden; text-overflow:ellipsis; }
  .data-table td.empty { color:#475569; font-style:italic; text-align:center; }
  .hidden { display:none; }
`
