package render

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"billworks/compose"
)

// MarotoEngine is the in-process fallback: pure Go, always available, last
// in the default chain. It lays the document out natively instead of going
// through HTML, using the same 12-unit grid the composer's tables declare.
type MarotoEngine struct {
	geo PageGeometry
}

func NewMarotoEngine(geo PageGeometry) *MarotoEngine {
	return &MarotoEngine{geo: geo}
}

func (e *MarotoEngine) Name() string { return "maroto" }

// Probe always succeeds; the engine has no external runtime.
func (e *MarotoEngine) Probe() error { return nil }

func (e *MarotoEngine) Render(ctx context.Context, doc *compose.Document) ([]byte, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(e.geo.MarginMM).
		WithTopMargin(e.geo.MarginMM).
		WithRightMargin(e.geo.MarginMM).
		Build()

	m := maroto.New(cfg)

	addDocumentHeader(m, doc)
	for _, b := range doc.Blocks {
		switch {
		case b.Heading != "":
			addHeadingRow(m, b.Heading)
		case b.Text != "":
			addTextRow(m, b.Text)
		case b.Table != nil:
			addTable(m, b.Table)
		}
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("maroto generate: %w", err)
	}
	return out.GetBytes(), nil
}

func addDocumentHeader(m core.Maroto, doc *compose.Document) {
	m.AddRows(
		row.New(10).Add(
			col.New(12).Add(
				text.New(doc.Title, props.Text{
					Size:  14,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)
	if doc.Subtitle != "" {
		m.AddRows(
			row.New(7).Add(
				col.New(12).Add(
					text.New(doc.Subtitle, props.Text{
						Size:  10,
						Align: align.Center,
					}),
				),
			),
		)
	}
	m.AddRows(row.New(3))
}

func addHeadingRow(m core.Maroto, heading string) {
	m.AddRows(
		row.New(8).Add(
			col.New(12).Add(
				text.New(heading, props.Text{
					Size:  11,
					Style: fontstyle.Bold,
					Align: align.Left,
				}),
			),
		),
	)
}

func addTextRow(m core.Maroto, body string) {
	m.AddRows(
		row.New(textRowHeight(body)).Add(
			col.New(12).Add(
				text.New(body, props.Text{
					Size:  9,
					Align: align.Left,
				}),
			),
		),
	)
}

// textRowHeight grows the row with the paragraph so long certificate bodies
// do not overlap the next block.
func textRowHeight(body string) float64 {
	const charsPerLine = 110
	lines := len(body)/charsPerLine + 1
	return float64(lines)*4 + 2
}

func addTable(m core.Maroto, t *compose.Table) {
	addTableHeader(m, t.Columns)
	for _, r := range t.Rows {
		addTableRow(m, t.Columns, r, false)
	}
	for _, r := range t.Footer {
		addTableRow(m, t.Columns, r, true)
	}
	m.AddRows(row.New(3))
}

func addTableHeader(m core.Maroto, cols []compose.Column) {
	headerBg := &props.Color{Red: 33, Green: 37, Blue: 41}
	headerCell := props.Cell{BackgroundColor: headerBg}

	cells := make([]core.Col, 0, len(cols))
	for _, c := range cols {
		cells = append(cells, col.New(c.Width).Add(
			text.New(c.Header, props.Text{
				Size:  8,
				Style: fontstyle.Bold,
				Align: align.Center,
				Color: &props.Color{Red: 255, Green: 255, Blue: 255},
			}),
		).WithStyle(&headerCell))
	}
	m.AddRows(row.New(8).Add(cells...))
}

func addTableRow(m core.Maroto, cols []compose.Column, r compose.TableRow, footer bool) {
	var cellStyle *props.Cell
	switch {
	case footer:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	case r.PartRate:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 253, Green: 242, Blue: 227}}
	case r.Level == 1:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
	case r.Level >= 2:
		cellStyle = &props.Cell{BackgroundColor: &props.Color{Red: 235, Green: 235, Blue: 235}}
	}

	style := fontstyle.Normal
	if r.Bold || footer {
		style = fontstyle.Bold
	}

	height := 6.0
	cells := make([]core.Col, 0, len(r.Cells))
	for i, cellText := range r.Cells {
		width := 1
		cellAlign := align.Left
		if i < len(cols) {
			width = cols[i].Width
			cellAlign = marotoAlign(cols[i].Align)
		}
		if i == 1 && r.Level > 0 {
			cellText = indentPrefix(r.Level) + cellText
		}
		if h := cellHeight(cellText, width); h > height {
			height = h
		}
		c := col.New(width).Add(text.New(cellText, props.Text{
			Size:  7,
			Style: style,
			Align: cellAlign,
		}))
		if cellStyle != nil {
			c = c.WithStyle(cellStyle)
		}
		cells = append(cells, c)
	}
	m.AddRows(row.New(height).Add(cells...))
}

// cellHeight estimates wrapped height from the column's grid share; the
// fixed layout wraps text rather than shrinking it.
func cellHeight(s string, width int) float64 {
	if width < 1 {
		width = 1
	}
	charsPerLine := width * 9
	lines := len(s)/charsPerLine + 1
	return float64(lines)*3 + 3
}

func indentPrefix(level int) string {
	out := ""
	for i := 0; i < level; i++ {
		out += "  "
	}
	return out
}

func marotoAlign(a compose.Align) align.Type {
	switch a {
	case compose.AlignCenter:
		return align.Center
	case compose.AlignRight:
		return align.Right
	default:
		return align.Left
	}
}
