package compose

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"billworks/bill"
)

// ErrNoBillableRows is returned when every bill-quantity row filtered out.
// The orchestrator surfaces it per bill; it never aborts a batch.
var ErrNoBillableRows = errors.New("no billable rows after filtering")

// Config controls derived-value computation. An empty penalty schedule and
// placeholder fall back to the departmental defaults; zero deduction rates
// are taken literally, since a no-deduction bill is a valid configuration.
type Config struct {
	Deductions  DeductionRates
	Penalty     PenaltySchedule
	Placeholder string
}

// DefaultConfig returns the composer defaults.
func DefaultConfig() Config {
	return Config{
		Deductions:  DefaultDeductionRates(),
		Penalty:     DefaultPenaltySchedule(),
		Placeholder: "__________",
	}
}

// Composer builds the document set for one bill package. A single Composer
// is safe for concurrent use; it holds configuration only.
type Composer struct {
	cfg Config
}

// New returns a Composer, filling unset config with defaults.
func New(cfg Config) *Composer {
	if len(cfg.Penalty.Bands) == 0 {
		cfg.Penalty = DefaultPenaltySchedule()
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = DefaultConfig().Placeholder
	}
	return &Composer{cfg: cfg}
}

// PartRateItem records a billed row paid below its ordered rate.
type PartRateItem struct {
	ID          string
	OrderedRate decimal.Decimal
	BilledRate  decimal.Decimal
	Quantity    decimal.Decimal
	// Savings is (ordered − billed rate) × billed quantity.
	Savings decimal.Decimal
}

// Summary is the aggregate structure every caller of Compose receives next
// to the documents. All derived values live here; rendering adds none.
type Summary struct {
	Totals          bill.Totals
	PercentComplete decimal.Decimal
	Penalty         decimal.Decimal
	Deductions      []Deduction
	NetPayable      decimal.Decimal
	NetPayableWords string
	PartRates       []PartRateItem
}

// Output bundles the composed documents with the aggregate summary.
type Output struct {
	Documents []*Document
	Summary   Summary
}

// Compose filters the package forests, derives all amounts, and produces the
// named documents: Summary, DeviationStatement (final bills only),
// ScrutinySheet, both certificates, and ExtraItemsSlip (when extras remain
// after filtering).
func (c *Composer) Compose(p *bill.Package) (*Output, error) {
	workOrder, err := bill.FilterStrict(p.WorkOrder)
	if err != nil {
		return nil, fmt.Errorf("work order: %w", err)
	}
	billed, err := bill.FilterStrict(p.BillQuantity)
	if err != nil {
		return nil, fmt.Errorf("bill quantity: %w", err)
	}
	extras, err := bill.FilterStrict(p.ExtraItems)
	if err != nil {
		return nil, fmt.Errorf("extra items: %w", err)
	}
	if len(billed) == 0 {
		return nil, fmt.Errorf("bill %q: %w", p.InputID, ErrNoBillableRows)
	}

	totals := bill.ComputeTotals(p)
	orderedRates := bill.Index(p.WorkOrder)
	pct := totals.PercentComplete()
	penalty := ComputeDelayPenalty(totals.WorkOrderAmount, p.ContractedDays, p.ActualDays, pct, c.cfg.Penalty)
	deductions := ComputeDeductions(totals.BilledAmount, c.cfg.Deductions, penalty)
	net := totals.BilledAmount.Sub(SumDeductions(deductions)).Round(2)

	sum := Summary{
		Totals:          totals,
		PercentComplete: pct,
		Penalty:         penalty,
		Deductions:      deductions,
		NetPayable:      net,
		NetPayableWords: AmountInWords(net),
		PartRates:       detectPartRates(billed, orderedRates),
	}

	docs := []*Document{
		c.summaryDocument(p, billed, orderedRates, sum),
	}
	if p.Final {
		docs = append(docs, c.deviationDocument(p, workOrder, billed))
	}
	docs = append(docs,
		c.scrutinyDocument(p, sum),
		c.certificate(p, KindCertificateCompletion),
		c.certificate(p, KindCertificateQuality),
	)
	if len(extras) > 0 {
		docs = append(docs, c.extraItemsDocument(p, extras))
	}

	return &Output{Documents: docs, Summary: sum}, nil
}

// detectPartRates walks the billed forest and flags every row whose rate is
// strictly below the ordered rate for the same id.
func detectPartRates(billed []*bill.LineItem, ordered map[string]*bill.LineItem) []PartRateItem {
	var out []PartRateItem
	bill.Walk(billed, func(it *bill.LineItem, _ int) {
		wo, ok := ordered[it.ID]
		if !ok {
			return
		}
		if it.Rate.LessThan(wo.Rate) {
			out = append(out, PartRateItem{
				ID:          it.ID,
				OrderedRate: wo.Rate,
				BilledRate:  it.Rate,
				Quantity:    it.Quantity,
				Savings:     wo.Rate.Sub(it.Rate).Mul(it.Quantity),
			})
		}
	})
	return out
}

func (c *Composer) titleValue(p *bill.Package, key string) string {
	if v, ok := p.Title.Get(key); ok && v != "" {
		return v
	}
	return c.cfg.Placeholder
}

// formatQty renders whole quantities without decimals, fractional ones with
// two places.
func formatQty(q decimal.Decimal) string {
	if q.IsInteger() {
		return q.StringFixed(0)
	}
	return q.StringFixed(2)
}

func itemColumns() []Column {
	return []Column{
		{Header: "Item", Width: 1, Align: AlignCenter},
		{Header: "Description", Width: 5, Align: AlignLeft},
		{Header: "Unit", Width: 1, Align: AlignCenter},
		{Header: "Qty", Width: 1, Align: AlignRight},
		{Header: "Rate", Width: 2, Align: AlignRight},
		{Header: "Amount", Width: 2, Align: AlignRight},
	}
}

// itemTable lays out a filtered forest. When ordered rates are supplied,
// reduced-rate rows get the part-rate mark spliced into the description so
// the reviewer sees it inline rather than in a side column.
func itemTable(forest []*bill.LineItem, ordered map[string]*bill.LineItem) *Table {
	t := &Table{Columns: itemColumns()}
	bill.Walk(forest, func(it *bill.LineItem, level int) {
		desc := it.Description
		partRate := false
		if ordered != nil {
			if wo, ok := ordered[it.ID]; ok && it.Rate.LessThan(wo.Rate) {
				partRate = true
				desc = fmt.Sprintf("%s [PART RATE: paid @ %s against %s]",
					desc, FormatINR(it.Rate), FormatINR(wo.Rate))
			}
		}
		t.Rows = append(t.Rows, TableRow{
			Cells: []string{
				it.ID,
				desc,
				it.Unit,
				formatQty(it.Quantity),
				FormatINR(it.Rate),
				FormatINR(it.Amount()),
			},
			Level:    level,
			Bold:     level == 0,
			PartRate: partRate,
		})
	})
	return t
}

func (c *Composer) metaBlocks(p *bill.Package) []Block {
	blocks := make([]Block, 0, len(p.Title))
	for _, f := range p.Title {
		v := f.Value
		if v == "" {
			v = c.cfg.Placeholder
		}
		blocks = append(blocks, Block{Text: f.Key + ": " + v})
	}
	return blocks
}

func (c *Composer) summaryDocument(p *bill.Package, billed []*bill.LineItem, ordered map[string]*bill.LineItem, sum Summary) *Document {
	table := itemTable(billed, ordered)
	table.Footer = []TableRow{
		{
			Cells: []string{"", "Billed Amount", "", "", "", FormatINR(sum.Totals.BilledAmount)},
			Bold:  true,
		},
		{
			Cells: []string{"", "Net Payable", "", "", "", FormatINR(sum.NetPayable)},
			Bold:  true,
		},
	}

	doc := &Document{
		Kind:     KindSummary,
		Title:    "Bill Summary",
		Subtitle: c.titleValue(p, "Name of Work"),
		Meta:     p.Title,
	}
	doc.Blocks = append(doc.Blocks, c.metaBlocks(p)...)
	doc.Blocks = append(doc.Blocks,
		Block{Heading: "Items as Executed"},
		Block{Table: table},
		Block{Text: "Net payable: " + sum.NetPayableWords},
	)
	return doc
}

func (c *Composer) deviationDocument(p *bill.Package, workOrder, billed []*bill.LineItem) *Document {
	billedIdx := bill.Index(billed)

	t := &Table{
		Columns: []Column{
			{Header: "Item", Width: 1, Align: AlignCenter},
			{Header: "Description", Width: 3, Align: AlignLeft},
			{Header: "Unit", Width: 1, Align: AlignCenter},
			{Header: "Ordered Qty", Width: 1, Align: AlignRight},
			{Header: "Executed Qty", Width: 1, Align: AlignRight},
			{Header: "Ordered Rate", Width: 1, Align: AlignRight},
			{Header: "Paid Rate", Width: 1, Align: AlignRight},
			{Header: "Deviation", Width: 2, Align: AlignRight},
			{Header: "Remarks", Width: 1, Align: AlignLeft},
		},
	}

	totalDeviation := decimal.Zero
	bill.Walk(workOrder, func(wo *bill.LineItem, level int) {
		executedQty := decimal.Zero
		paidRate := wo.Rate
		remark := ""
		partRate := false
		if ex, ok := billedIdx[wo.ID]; ok {
			executedQty = ex.Quantity
			paidRate = ex.Rate
			if ex.Rate.LessThan(wo.Rate) {
				remark = "Part rate"
				partRate = true
			}
		}
		deviation := executedQty.Mul(paidRate).Sub(wo.Amount())
		totalDeviation = totalDeviation.Add(deviation)
		if remark == "" {
			switch deviation.Sign() {
			case 1:
				remark = "Excess"
			case -1:
				remark = "Saving"
			}
		}
		t.Rows = append(t.Rows, TableRow{
			Cells: []string{
				wo.ID,
				wo.Description,
				wo.Unit,
				formatQty(wo.Quantity),
				formatQty(executedQty),
				FormatINR(wo.Rate),
				FormatINR(paidRate),
				FormatINR(deviation),
				remark,
			},
			Level:    level,
			Bold:     level == 0,
			PartRate: partRate,
		})
	})
	t.Footer = []TableRow{{
		Cells: []string{"", "Net Deviation", "", "", "", "", "", FormatINR(totalDeviation), ""},
		Bold:  true,
	}}

	return &Document{
		Kind:     KindDeviationStatement,
		Title:    "Deviation Statement",
		Subtitle: c.titleValue(p, "Name of Work"),
		Meta:     p.Title,
		Blocks: []Block{
			{Text: "Agreement No.: " + c.titleValue(p, "Agreement No.")},
			{Table: t},
		},
	}
}

func (c *Composer) scrutinyDocument(p *bill.Package, sum Summary) *Document {
	overview := &Table{
		Columns: []Column{
			{Header: "Particulars", Width: 8, Align: AlignLeft},
			{Header: "Amount", Width: 4, Align: AlignRight},
		},
		Rows: []TableRow{
			{Cells: []string{"Work Order Amount", FormatINR(sum.Totals.WorkOrderAmount)}},
			{Cells: []string{"Amount of Work Billed", FormatINR(sum.Totals.BilledAmount)}},
			{Cells: []string{"Progress Achieved", sum.PercentComplete.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"}},
		},
	}

	stack := &Table{
		Columns: []Column{
			{Header: "Deduction", Width: 8, Align: AlignLeft},
			{Header: "Amount", Width: 4, Align: AlignRight},
		},
	}
	for _, d := range sum.Deductions {
		stack.Rows = append(stack.Rows, TableRow{Cells: []string{d.Name, FormatINR(d.Amount)}})
	}
	stack.Footer = []TableRow{
		{Cells: []string{"Total Deductions", FormatINR(SumDeductions(sum.Deductions))}, Bold: true},
		{Cells: []string{"Net Payable", FormatINR(sum.NetPayable)}, Bold: true},
	}

	return &Document{
		Kind:       KindScrutinySheet,
		Title:      "Bill Scrutiny Sheet",
		Subtitle:   c.titleValue(p, "Name of Contractor"),
		Meta:       p.Title,
		SinglePage: true,
		Blocks: []Block{
			{Table: overview},
			{Heading: "Deductions"},
			{Table: stack},
			{Text: "Net payable: " + sum.NetPayableWords},
		},
	}
}

func (c *Composer) certificate(p *bill.Package, kind Kind) *Document {
	contractor := c.titleValue(p, "Name of Contractor")
	work := c.titleValue(p, "Name of Work")
	agreement := c.titleValue(p, "Agreement No.")

	var title, body string
	switch kind {
	case KindCertificateCompletion:
		title = "Completion Certificate"
		body = fmt.Sprintf(
			"Certified that the work %q executed by %s under agreement no. %s "+
				"has been completed as per the sanctioned specifications, and that "+
				"the measurements on which this bill is based were duly recorded "+
				"in the measurement book.", work, contractor, agreement)
	default:
		title = "Quality Certificate"
		body = fmt.Sprintf(
			"Certified that the materials used and the workmanship of the work %q "+
				"executed by %s under agreement no. %s conform to the prescribed "+
				"standards, and that the work has been test-checked as required.",
			work, contractor, agreement)
	}

	return &Document{
		Kind:     kind,
		Title:    title,
		Subtitle: work,
		Meta:     p.Title,
		Blocks: []Block{
			{Text: body},
			{Text: "Date of Completion: " + c.titleValue(p, "Date of Completion")},
			{Text: "Signature of Engineer-in-Charge: " + c.cfg.Placeholder},
		},
	}
}

func (c *Composer) extraItemsDocument(p *bill.Package, extras []*bill.LineItem) *Document {
	table := itemTable(extras, nil)
	table.Footer = []TableRow{{
		Cells: []string{"", "Total of Extra Items", "", "", "", FormatINR(bill.ForestAmount(extras))},
		Bold:  true,
	}}
	return &Document{
		Kind:     KindExtraItemsSlip,
		Title:    "Extra Items Slip",
		Subtitle: c.titleValue(p, "Name of Work"),
		Meta:     p.Title,
		Blocks: []Block{
			{Text: "Items executed outside the original work order."},
			{Table: table},
		},
	}
}
