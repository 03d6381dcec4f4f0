package render

import (
	"errors"
	"strings"
	"testing"

	"billworks/compose"
)

func sampleDocument() *compose.Document {
	return &compose.Document{
		Kind:     compose.KindSummary,
		Title:    "Bill Summary",
		Subtitle: "Construction of Approach Road",
		Blocks: []compose.Block{
			{Heading: "Items as Executed"},
			{Table: &compose.Table{
				Columns: []compose.Column{
					{Header: "Item", Width: 2, Align: compose.AlignCenter},
					{Header: "Description", Width: 6, Align: compose.AlignLeft},
					{Header: "Amount", Width: 4, Align: compose.AlignRight},
				},
				Rows: []compose.TableRow{
					{Cells: []string{"1", "Earthwork", "₹5,000.00"}, Bold: true},
					{Cells: []string{"1.1", "Excavation [PART RATE: paid @ ₹495.00 against ₹500.00]", "₹4,950.00"}, Level: 1, PartRate: true},
				},
				Footer: []compose.TableRow{
					{Cells: []string{"", "Total", "₹9,950.00"}, Bold: true},
				},
			}},
			{Text: "Net payable: Rupees Nine Thousand Only"},
		},
	}
}

func TestMarkupRender_FixedLayoutAndGeometry(t *testing.T) {
	m := NewMarkup(A4Geometry())
	html, err := m.Render(sampleDocument())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	for _, want := range []string{
		"size: 210mm 297mm",
		"table-layout: fixed",
		`class="part-rate"`,
		`class="align-right"`,
		"Items as Executed",
		"PART RATE",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("markup missing %q", want)
		}
	}
}

func TestMarkupRender_ColumnWidthsFromGrid(t *testing.T) {
	m := NewMarkup(A4Geometry())
	html, err := m.Render(sampleDocument())
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	// 6 of 12 grid units → 50%.
	if !strings.Contains(html, "width: 50.000%") {
		t.Error("description column width not derived from the grid")
	}
}

func TestMarkupRender_InvalidDocument(t *testing.T) {
	m := NewMarkup(A4Geometry())

	if _, err := m.Render(nil); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Render(nil) error = %v, want ErrInvalidDocument", err)
	}
	if _, err := m.Render(&compose.Document{Title: "empty"}); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("Render(empty) error = %v, want ErrInvalidDocument", err)
	}
}

func TestMarkupRender_EscapesContent(t *testing.T) {
	m := NewMarkup(A4Geometry())
	doc := &compose.Document{
		Kind:   compose.KindSummary,
		Title:  "Bill <script>alert(1)</script>",
		Blocks: []compose.Block{{Text: "a < b"}},
	}
	html, err := m.Render(doc)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(html, "<script>alert") {
		t.Error("title not escaped")
	}
}
