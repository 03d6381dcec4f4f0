package render

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"billworks/compose"
)

// docxTableTwips is the table width on an A4 page with 10mm margins,
// in twentieths of a point.
const docxTableTwips = 10770

// WriteDOCX serializes a composed document as a word-processor file. This
// path is fully independent of the PDF chain: it never sees HTML markup and
// no PDF code path derives from it.
func WriteDOCX(doc *compose.Document, w io.Writer) error {
	if err := validateDocument(doc); err != nil {
		return err
	}

	d := docx.New().WithDefaultTheme()

	title := d.AddParagraph().Justification("center")
	title.AddText(doc.Title).Size("28").Bold()
	if doc.Subtitle != "" {
		sub := d.AddParagraph().Justification("center")
		sub.AddText(doc.Subtitle).Size("22")
	}
	d.AddParagraph()

	for _, b := range doc.Blocks {
		switch {
		case b.Heading != "":
			h := d.AddParagraph()
			h.AddText(b.Heading).Size("24").Bold()
		case b.Text != "":
			d.AddParagraph().AddText(b.Text)
		case b.Table != nil:
			if err := addDocxTable(d, b.Table); err != nil {
				return err
			}
			d.AddParagraph()
		}
	}

	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addDocxTable(d *docx.Docx, t *compose.Table) error {
	rows := 1 + len(t.Rows) + len(t.Footer)
	cols := len(t.Columns)
	if cols == 0 {
		return fmt.Errorf("%w: table without columns", ErrInvalidDocument)
	}

	tbl := d.AddTable(rows, cols, docxTableTwips, nil)

	for i, c := range t.Columns {
		p := tbl.TableRows[0].TableCells[i].AddParagraph().Justification("center")
		p.AddText(c.Header).Bold()
	}

	fill := func(rowIdx int, r compose.TableRow, bold bool) {
		for i, cellText := range r.Cells {
			if i >= cols {
				break
			}
			if i == 1 && r.Level > 0 {
				cellText = indentPrefix(r.Level) + cellText
			}
			p := tbl.TableRows[rowIdx].TableCells[i].AddParagraph()
			if i < len(t.Columns) {
				p.Justification(string(t.Columns[i].Align))
			}
			run := p.AddText(cellText)
			if bold {
				run.Bold()
			}
		}
	}

	for i, r := range t.Rows {
		fill(1+i, r, r.Bold)
	}
	for i, r := range t.Footer {
		fill(1+len(t.Rows)+i, r, true)
	}
	return nil
}
