package bill

import "github.com/shopspring/decimal"

// TitleField is one entry of the free-form title metadata block.
type TitleField struct {
	Key   string
	Value string
}

// TitleData preserves the order the ingestion layer delivered the fields in.
type TitleData []TitleField

// Get returns the value for key and whether it was present.
func (t TitleData) Get(key string) (string, bool) {
	for _, f := range t {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Package is the unit of work for one document-generation run. It is
// constructed once by ingestion and treated as read-only from then on; the
// composer works on filtered copies and never mutates the source forests.
type Package struct {
	// InputID identifies the originating input (file stem or session name);
	// it seeds the output directory name.
	InputID string

	Title        TitleData
	WorkOrder    []*LineItem
	BillQuantity []*LineItem
	ExtraItems   []*LineItem

	// Final distinguishes a final bill (deviation statement emitted) from a
	// running/interim one.
	Final bool

	// Contract timing, used by the delay-penalty computation.
	ContractedDays int
	ActualDays     int
}

// Totals is the derived aggregate over a package.
type Totals struct {
	WorkOrderAmount decimal.Decimal
	BilledAmount    decimal.Decimal
	ExtraAmount     decimal.Decimal
}

// ForestAmount sums Quantity×Rate over every node of the forest.
func ForestAmount(forest []*LineItem) decimal.Decimal {
	total := decimal.Zero
	Walk(forest, func(it *LineItem, _ int) {
		total = total.Add(it.Amount())
	})
	return total
}

// ComputeTotals derives the package aggregate from the raw (unfiltered)
// forests. Zero-quantity rows contribute nothing, so filtering first does not
// change the result.
func ComputeTotals(p *Package) Totals {
	return Totals{
		WorkOrderAmount: ForestAmount(p.WorkOrder),
		BilledAmount:    ForestAmount(p.BillQuantity),
		ExtraAmount:     ForestAmount(p.ExtraItems),
	}
}

// PercentComplete returns billed amount as a fraction of the work-order
// amount, in [0, 1]. A zero work order counts as fully complete.
func (t Totals) PercentComplete() decimal.Decimal {
	if t.WorkOrderAmount.Sign() <= 0 {
		return decimal.NewFromInt(1)
	}
	frac := t.BilledAmount.Div(t.WorkOrderAmount)
	one := decimal.NewFromInt(1)
	if frac.GreaterThan(one) {
		return one
	}
	return frac
}
