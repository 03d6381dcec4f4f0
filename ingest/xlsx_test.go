package ingest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/shopspring/decimal"
)

func writeWorkbook(t *testing.T, withExtras bool) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetTitle)
	titleRows := [][]any{
		{"Name of Work", "Culvert Repair"},
		{"Bill Type", "Final"},
		{"Contracted Days", "100"},
		{"Actual Days", "105"},
	}
	for i, row := range titleRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetTitle, cell, &row); err != nil {
			t.Fatal(err)
		}
	}

	writeItems := func(sheet string, rows [][]any) {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatal(err)
		}
		header := []any{"Item", "Description", "Unit", "Quantity", "Rate"}
		_ = f.SetSheetRow(sheet, "A1", &header)
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	writeItems(sheetWorkOrder, [][]any{
		{"1", "Dismantling", "cum", "20", "80"},
		{"2", "Masonry", "cum", "15", "1,200.50"},
	})
	writeItems(sheetBillQuantity, [][]any{
		{"1", "Dismantling", "cum", "20", "80"},
	})
	if withExtras {
		writeItems(sheetExtraItems, [][]any{
			{"E1", "Extra railing", "m", "4", "350"},
		})
	}

	path := filepath.Join(t.TempDir(), "culvert-final.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestXLSXSource_Load(t *testing.T) {
	path := writeWorkbook(t, true)

	p, err := XLSXSource{}.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.InputID != "culvert-final" {
		t.Errorf("InputID = %q", p.InputID)
	}
	if !p.Final || p.ContractedDays != 100 || p.ActualDays != 105 {
		t.Errorf("special title keys not parsed: %+v", p)
	}
	if len(p.WorkOrder) != 2 {
		t.Fatalf("work-order roots = %d, want 2", len(p.WorkOrder))
	}
	if !p.WorkOrder[1].Rate.Equal(decimal.RequireFromString("1200.50")) {
		t.Errorf("comma-grouped rate parsed as %s, want 1200.50", p.WorkOrder[1].Rate)
	}
	if len(p.ExtraItems) != 1 {
		t.Errorf("extra items = %d, want 1", len(p.ExtraItems))
	}
}

func TestXLSXSource_OptionalExtrasSheetMissing(t *testing.T) {
	path := writeWorkbook(t, false)
	p, err := XLSXSource{}.Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(p.ExtraItems) != 0 {
		t.Error("missing extras sheet should yield an empty forest")
	}
}

func TestXLSXSource_BadNumberCell(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheetTitle)
	_, _ = f.NewSheet(sheetWorkOrder)
	header := []any{"Item", "Description", "Unit", "Quantity", "Rate"}
	_ = f.SetSheetRow(sheetWorkOrder, "A1", &header)
	bad := []any{"1", "Earthwork", "cum", "ten", "50"}
	_ = f.SetSheetRow(sheetWorkOrder, "A2", &bad)
	_, _ = f.NewSheet(sheetBillQuantity)
	_ = f.SetSheetRow(sheetBillQuantity, "A1", &header)

	path := filepath.Join(t.TempDir(), "bad.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err := XLSXSource{}.Load(path)
	var de *DataError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DataError", err)
	}
	if de.Field != "quantity" {
		t.Errorf("DataError.Field = %q, want quantity", de.Field)
	}
}
