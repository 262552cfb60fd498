// Package render writes the HTML pages of the explorer.
package render

import (
	"fmt"
	"html"
	"strings"
)

// Link is one navbar entry.
type Link struct {
	Href  string
	Label string
}

// Chrome is the frame shared by every page.
type Chrome struct {
	Name   string // shown in the navbar
	Links  []Link
	Active string // Href of the current page
	Meta   []Meta // stats row under the navbar
}

// Meta is a label/value pair of the stats row.
type Meta struct {
	Label string
	Value string
}

func beginPage(b *strings.Builder, c Chrome, title, css string) {
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>` + html.EscapeString(title) + ` | ` + html.EscapeString(c.Name) + `</title>
` + commonCSS())
	if css != "" {
		b.WriteString("\n<style>" + css + "</style>")
	}
	b.WriteString(`
</head>
<body>
<div class="container">
`)
	writeNavbar(b, c)
	if len(c.Meta) > 0 {
		b.WriteString(`<div class="meta-grid" style="margin-bottom:20px;">`)
		for _, m := range c.Meta {
			writeMetaItem(b, m.Label, m.Value)
		}
		b.WriteString(`</div>`)
	}
}

func endPage(b *strings.Builder) {
	b.WriteString(`<div class="footer">minionview</div>`)
	b.WriteString(`</div></body></html>`)
}

func writeErrorBar(b *strings.Builder, msg string) {
	if msg == "" {
		return
	}
	b.WriteString(`<div class="error-bar">` + html.EscapeString(msg) + `</div>`)
}

func commonCSS() string {
	return `<style>
  * { box-sizing:border-box; margin:0; padding:0; }
  body { font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif; background:#0f1117; color:#e2e8f0; min-height:100vh; padding:24px; }
  .container { max-width:1800px; margin:0 auto; }
  .navbar {
    display:flex; align-items:center; gap:16px; margin-bottom:24px;
    padding-bottom:16px; border-bottom:1px solid #1e293b;
  }
  .nav-title { font-size:18px; font-weight:700; color:#f1f5f9; text-decoration:none; }
  .nav-link  { color:#94a3b8; text-decoration:none; font-weight:500; }
  .nav-link:hover, .nav-link.active { color:#60a5fa; }
  .meta-grid   { display:grid; grid-template-columns:repeat(auto-fill,minmax(180px,1fr)); gap:12px; }
  .meta-item   { display:flex; flex-direction:column; gap:2px; }
  .meta-label  { font-size:11px; font-weight:600; color:#64748b; text-transform:uppercase; letter-spacing:.05em; }
  .meta-value  { font-size:13px; color:#cbd5e1; font-family:monospace; word-break:break-all; }
  .card        { background:#1e293b; border:1px solid #334155; border-radius:12px; margin-bottom:20px; overflow:hidden; }
  .card-header { padding:14px 20px; border-bottom:1px solid #334155; font-size:14px; font-weight:600; color:#94a3b8; display:flex; align-items:center; gap:10px; background:#0f172a; }
  .pill        { background:#334155; color:#94a3b8; padding:2px 8px; border-radius:10px; font-size:11px; font-weight:600; }
  .error-bar   { background:#3a1a1a; border:1px solid #f87171; border-radius:8px; padding:10px 16px; margin-bottom:16px; color:#f87171; font-size:13px; }
  .footer      { text-align:center; padding:20px; font-size:11px; color:#334155; }
  .filter-bar {
    background:#1e293b; border:1px solid #334155; border-radius:12px;
    padding:16px 20px; margin-bottom:20px;
    display:flex; gap:16px; flex-wrap:wrap; align-items:flex-start;
  }
  .filter-group { display:flex; flex-direction:column; gap:4px; min-width:160px; }
  .filter-label { font-size:11px; font-weight:600; color:#64748b; text-transform:uppercase; letter-spacing:.05em; }
  .filter-input {
    background:#0f172a; border:1px solid #334155; border-radius:6px;
    color:#e2e8f0; padding:7px 10px; font-size:13px; outline:none;
  }
  .filter-input:focus { border-color:#3b82f6; }
  .check { font-size:12px; color:#cbd5e1; display:flex; gap:6px; align-items:center; }
  .checks { display:flex; flex-wrap:wrap; gap:4px 12px; max-width:520px; }
  .btn { padding:8px 18px; border-radius:6px; font-size:13px; font-weight:600; cursor:pointer; border:none; text-decoration:none; display:inline-block; }
  .btn-primary { background:#2563eb; color:#fff; }
  .btn-ghost   { background:#1e293b; color:#94a3b8; border:1px solid #334155; }
  .btn[aria-disabled="true"] { opacity:.4; pointer-events:none; }
</style>`
}

func writeNavbar(b *strings.Builder, c Chrome) {
	b.WriteString(`<div class="navbar">`)
	b.WriteString(`<a class="nav-title" href="/">` + html.EscapeString(c.Name) + `</a>`)
	for _, l := range c.Links {
		cls := "nav-link"
		if l.Href == c.Active {
			cls += " active"
		}
		fmt.Fprintf(b, `<a class="%s" href="%s">%s</a>`, cls, html.EscapeString(l.Href), html.EscapeString(l.Label))
	}
	b.WriteString(`</div>`)
}

func writeMetaItem(b *strings.Builder, label, value string) {
	b.WriteString(`<div class="meta-item">`)
	b.WriteString(`<span class="meta-label">` + html.EscapeString(label) + `</span>`)
	b.WriteString(`<span class="meta-value">` + html.EscapeString(value) + `</span>`)
	b.WriteString(`</div>`)
}
