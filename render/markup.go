package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"billworks/compose"
)

// The page CSS pins the physical size and disables every auto-layout that
// would change font metrics between screen and print: table-layout is fixed,
// so overflowing cells wrap instead of shrinking the table.
const documentHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <style>
    @page {
      size: {{.PageWidthMM}}mm {{.PageHeightMM}}mm;
      margin: {{.MarginMM}}mm;
    }
    * { box-sizing: border-box; }
    html, body {
      margin: 0;
      padding: 0;
      font-family: "Liberation Serif", "Times New Roman", serif;
      font-size: 11pt;
      color: #111111;
      background: #ffffff;
    }
    .page {
      width: {{.ContentWidthMM}}mm;
      margin: 0 auto;
    }
    h1 {
      font-size: 15pt;
      text-align: center;
      margin: 0 0 2mm 0;
    }
    .subtitle {
      text-align: center;
      font-size: 11pt;
      margin-bottom: 5mm;
    }
    h2 {
      font-size: 12pt;
      margin: 5mm 0 2mm 0;
    }
    p { margin: 1.5mm 0; }
    table {
      width: 100%;
      table-layout: fixed;
      border-collapse: collapse;
      font-size: 9pt;
      margin: 2mm 0;
    }
    th, td {
      border: 0.3mm solid #444444;
      padding: 1.2mm 1.5mm;
      vertical-align: top;
      overflow-wrap: break-word;
    }
    th {
      background: #212529;
      color: #ffffff;
      font-weight: bold;
      text-align: center;
    }
    tr.bold td { font-weight: bold; }
    tr.part-rate td { background: #fdf2e3; }
    tfoot td { font-weight: bold; background: #f0f0f0; }
    .align-left { text-align: left; }
    .align-center { text-align: center; }
    .align-right { text-align: right; }
  </style>
</head>
<body>
  <div class="page">
    <h1>{{.Title}}</h1>
    {{if .Subtitle}}<div class="subtitle">{{.Subtitle}}</div>{{end}}
    {{range .Blocks}}
    {{if .Heading}}<h2>{{.Heading}}</h2>{{end}}
    {{if .Text}}<p>{{.Text}}</p>{{end}}
    {{if .Table}}
    <table>
      <colgroup>
        {{range .Table.Columns}}<col style="width: {{.WidthPct}}" />{{end}}
      </colgroup>
      <thead>
        <tr>{{range .Table.Columns}}<th>{{.Header}}</th>{{end}}</tr>
      </thead>
      <tbody>
        {{range .Table.Rows}}
        <tr{{if .Class}} class="{{.Class}}"{{end}}>
          {{range .Cells}}<td class="align-{{.Align}}"{{if .PadLeftMM}} style="padding-left: {{.PadLeftMM}}mm"{{end}}>{{.Text}}</td>{{end}}
        </tr>
        {{end}}
      </tbody>
      {{if .Table.Footer}}
      <tfoot>
        {{range .Table.Footer}}
        <tr>
          {{range .Cells}}<td class="align-{{.Align}}">{{.Text}}</td>{{end}}
        </tr>
        {{end}}
      </tfoot>
      {{end}}
    </table>
    {{end}}
    {{end}}
  </div>
</body>
</html>
`

type cellView struct {
	Text      string
	Align     compose.Align
	PadLeftMM float64
}

type rowView struct {
	Class string
	Cells []cellView
}

type tableView struct {
	Columns []columnView
	Rows    []rowView
	Footer  []rowView
}

type columnView struct {
	Header   string
	WidthPct string
}

type blockView struct {
	Heading string
	Text    string
	Table   *tableView
}

type pageView struct {
	Title          string
	Subtitle       string
	Blocks         []blockView
	PageWidthMM    float64
	PageHeightMM   float64
	MarginMM       float64
	ContentWidthMM float64
}

// Markup serializes composed documents to standalone HTML pages sized for
// the configured geometry.
type Markup struct {
	tpl *template.Template
	geo PageGeometry
}

// NewMarkup builds the markup renderer for a page geometry.
func NewMarkup(geo PageGeometry) *Markup {
	return &Markup{
		tpl: template.Must(template.New("document").Parse(documentHTMLTemplate)),
		geo: geo,
	}
}

// Render serializes one document. Returns ErrInvalidDocument for a nil or
// empty document.
func (m *Markup) Render(doc *compose.Document) (string, error) {
	if err := validateDocument(doc); err != nil {
		return "", err
	}

	view := pageView{
		Title:          doc.Title,
		Subtitle:       doc.Subtitle,
		PageWidthMM:    m.geo.WidthMM,
		PageHeightMM:   m.geo.HeightMM,
		MarginMM:       m.geo.MarginMM,
		ContentWidthMM: m.geo.WidthMM - 2*m.geo.MarginMM,
	}
	for _, b := range doc.Blocks {
		bv := blockView{Heading: b.Heading, Text: b.Text}
		if b.Table != nil {
			bv.Table = buildTableView(b.Table)
		}
		view.Blocks = append(view.Blocks, bv)
	}

	var buf bytes.Buffer
	if err := m.tpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("execute document template: %w", err)
	}
	return buf.String(), nil
}

func buildTableView(t *compose.Table) *tableView {
	tv := &tableView{}
	gridUnits := 0
	for _, c := range t.Columns {
		gridUnits += c.Width
	}
	if gridUnits == 0 {
		gridUnits = 12
	}
	for _, c := range t.Columns {
		tv.Columns = append(tv.Columns, columnView{
			Header:   c.Header,
			WidthPct: fmt.Sprintf("%.3f%%", float64(c.Width)/float64(gridUnits)*100),
		})
	}
	tv.Rows = buildRowViews(t.Rows, t.Columns)
	tv.Footer = buildRowViews(t.Footer, t.Columns)
	return tv
}

func buildRowViews(rows []compose.TableRow, cols []compose.Column) []rowView {
	var out []rowView
	for _, r := range rows {
		var classes []string
		if r.Bold {
			classes = append(classes, "bold")
		}
		if r.PartRate {
			classes = append(classes, "part-rate")
		}
		rv := rowView{Class: strings.Join(classes, " ")}
		for i, cell := range r.Cells {
			align := compose.AlignLeft
			if i < len(cols) {
				align = cols[i].Align
			}
			cv := cellView{Text: cell, Align: align}
			// Indent the description column only.
			if i == 1 && r.Level > 0 {
				cv.PadLeftMM = float64(r.Level) * 3
			}
			rv.Cells = append(rv.Cells, cv)
		}
		out = append(out, rv)
	}
	return out
}
