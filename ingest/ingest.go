// Package ingest implements the input contract of the external ingestion
// layer: three typed tables (title metadata, work-order rows, bill-quantity
// rows) plus an optional extra-items table. Column-name normalization and
// spreadsheet cleanup stay upstream; the adapters here only read already
// shaped tables and build bill packages from them.
package ingest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"billworks/bill"
)

// TableRow is the minimal row shape every table carries.
type TableRow struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// TitleEntry is one ordered key/value pair of the title metadata table.
type TitleEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tables is one bill's worth of input. ExtraItems may be empty; a missing
// optional table is an empty forest, never an error.
type Tables struct {
	Title        []TitleEntry `json:"title"`
	WorkOrder    []TableRow   `json:"workOrder"`
	BillQuantity []TableRow   `json:"billQuantity"`
	ExtraItems   []TableRow   `json:"extraItems,omitempty"`

	Final          bool `json:"final"`
	ContractedDays int  `json:"contractedDays"`
	ActualDays     int  `json:"actualDays"`
}

// DataError reports a malformed or missing required row field. It aborts
// the bill it belongs to, never the whole batch.
type DataError struct {
	Table  string
	ID     string
	Field  string
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("bad input in table %s, row %q, field %s: %s", e.Table, e.ID, e.Field, e.Reason)
}

// Source yields bill packages from some storage. Implementations: JSON
// files, XLSX workbooks.
type Source interface {
	Load(path string) (*bill.Package, error)
}

// BuildPackage validates the tables and assembles a package. Negative
// quantities and rates are rejected here so they never reach the filter.
func BuildPackage(inputID string, t Tables) (*bill.Package, error) {
	wo, err := buildForest("workOrder", t.WorkOrder)
	if err != nil {
		return nil, err
	}
	bq, err := buildForest("billQuantity", t.BillQuantity)
	if err != nil {
		return nil, err
	}
	ex, err := buildForest("extraItems", t.ExtraItems)
	if err != nil {
		return nil, err
	}

	title := make(bill.TitleData, 0, len(t.Title))
	for _, e := range t.Title {
		title = append(title, bill.TitleField{Key: e.Key, Value: e.Value})
	}

	return &bill.Package{
		InputID:        inputID,
		Title:          title,
		WorkOrder:      wo,
		BillQuantity:   bq,
		ExtraItems:     ex,
		Final:          t.Final,
		ContractedDays: t.ContractedDays,
		ActualDays:     t.ActualDays,
	}, nil
}

func buildForest(table string, rows []TableRow) ([]*bill.LineItem, error) {
	out := make([]bill.Row, 0, len(rows))
	for _, r := range rows {
		if r.ID == "" {
			return nil, &DataError{Table: table, Field: "id", Reason: "empty id"}
		}
		if r.Quantity.Sign() < 0 {
			return nil, &DataError{Table: table, ID: r.ID, Field: "quantity", Reason: "negative quantity"}
		}
		if r.Rate.Sign() < 0 {
			return nil, &DataError{Table: table, ID: r.ID, Field: "rate", Reason: "negative rate"}
		}
		out = append(out, bill.Row{
			ID:          r.ID,
			Description: r.Description,
			Unit:        r.Unit,
			Quantity:    r.Quantity,
			Rate:        r.Rate,
		})
	}
	return bill.BuildForest(out), nil
}
