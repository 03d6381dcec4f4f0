package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"billworks/bill"
)

// Sheet names of the normalized workbook the upstream layer produces.
const (
	sheetTitle        = "Title"
	sheetWorkOrder    = "Work Order"
	sheetBillQuantity = "Bill Quantity"
	sheetExtraItems   = "Extra Items"
)

// Title keys with special meaning to the adapter. The rest of the title
// sheet passes through as document metadata untouched.
const (
	titleKeyBillType       = "Bill Type"
	titleKeyContractedDays = "Contracted Days"
	titleKeyActualDays     = "Actual Days"
)

// XLSXSource loads bill tables from a normalized workbook: a Title sheet of
// key/value pairs and one sheet per row table, each with a header row
// followed by id/description/unit/quantity/rate columns.
type XLSXSource struct{}

func (XLSXSource) Load(path string) (*bill.Package, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	t := Tables{}

	titleRows, err := f.GetRows(sheetTitle)
	if err != nil {
		return nil, &DataError{Table: sheetTitle, Field: "-", Reason: "title sheet missing"}
	}
	for _, row := range titleRows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		key := strings.TrimSpace(row[0])
		value := ""
		if len(row) > 1 {
			value = strings.TrimSpace(row[1])
		}
		switch key {
		case titleKeyBillType:
			t.Final = strings.EqualFold(value, "final")
		case titleKeyContractedDays:
			t.ContractedDays, _ = strconv.Atoi(value)
		case titleKeyActualDays:
			t.ActualDays, _ = strconv.Atoi(value)
		}
		t.Title = append(t.Title, TitleEntry{Key: key, Value: value})
	}

	if t.WorkOrder, err = readRowSheet(f, sheetWorkOrder, true); err != nil {
		return nil, err
	}
	if t.BillQuantity, err = readRowSheet(f, sheetBillQuantity, true); err != nil {
		return nil, err
	}
	if t.ExtraItems, err = readRowSheet(f, sheetExtraItems, false); err != nil {
		return nil, err
	}

	return BuildPackage(inputStem(path), t)
}

func readRowSheet(f *excelize.File, sheet string, required bool) ([]TableRow, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		if required {
			return nil, &DataError{Table: sheet, Field: "-", Reason: "sheet missing"}
		}
		return nil, nil
	}

	var out []TableRow
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		r := TableRow{ID: strings.TrimSpace(row[0])}
		if len(row) > 1 {
			r.Description = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			r.Unit = strings.TrimSpace(row[2])
		}
		if r.Quantity, err = cellDecimal(row, 3); err != nil {
			return nil, &DataError{Table: sheet, ID: r.ID, Field: "quantity", Reason: err.Error()}
		}
		if r.Rate, err = cellDecimal(row, 4); err != nil {
			return nil, &DataError{Table: sheet, ID: r.ID, Field: "rate", Reason: err.Error()}
		}
		out = append(out, r)
	}
	return out, nil
}

func cellDecimal(row []string, idx int) (decimal.Decimal, error) {
	if idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[idx]), ",", ""))
}
