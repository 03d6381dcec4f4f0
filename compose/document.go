// Package compose turns a filtered bill package into the fixed set of named
// logical documents. Every derived value (part-rate marks, delay penalty,
// deduction stack, amount in words) is computed here; rendering only lays
// content out.
package compose

import "billworks/bill"

// Kind names a logical document. The names are contract: callers and the
// batch report refer to documents by Kind.
type Kind string

const (
	KindSummary               Kind = "Summary"
	KindDeviationStatement    Kind = "DeviationStatement"
	KindScrutinySheet         Kind = "ScrutinySheet"
	KindCertificateCompletion Kind = "CertificateCompletion"
	KindCertificateQuality    Kind = "CertificateQuality"
	KindExtraItemsSlip        Kind = "ExtraItemsSlip"
)

// Align is a column text alignment.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Column describes one table column. Width is a share of the 12-unit grid
// used by both the HTML and the native PDF layouts.
type Column struct {
	Header string
	Width  int
	Align  Align
}

// TableRow is one body or footer row. Level indents the first cell; Bold
// marks roll-up and total rows; PartRate marks a reduced-rate payment row.
type TableRow struct {
	Cells    []string
	Level    int
	Bold     bool
	PartRate bool
}

// Table is a fixed-layout table. Renderers must not auto-size columns.
type Table struct {
	Columns []Column
	Rows    []TableRow
	Footer  []TableRow
}

// Block is one content block of a document: a heading, a paragraph, or a
// table. Exactly one field is set.
type Block struct {
	Heading string
	Text    string
	Table   *Table
}

// Document is one composed logical document, ready for any render path.
type Document struct {
	Kind     Kind
	Title    string
	Subtitle string
	Meta     bill.TitleData

	Blocks []Block

	// SinglePage constrains the rendered artifact to one page; the render
	// chain verifies it after generation.
	SinglePage bool
}

// Filename returns the artifact base name (extension added per format).
func (d *Document) Filename() string {
	return string(d.Kind)
}
