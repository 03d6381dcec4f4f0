package compose

import "github.com/shopspring/decimal"

// DeductionRates holds the configured percentages applied to the billed
// amount. All three apply to the same base; nothing compounds.
type DeductionRates struct {
	SecurityDeposit float64 `yaml:"securityDeposit"`
	IncomeTax       float64 `yaml:"incomeTax"`
	Tax             float64 `yaml:"tax"`
}

// DefaultDeductionRates returns the usual departmental percentages.
func DefaultDeductionRates() DeductionRates {
	return DeductionRates{SecurityDeposit: 10, IncomeTax: 2, Tax: 2}
}

// Deduction is one line of the scrutiny-sheet deduction stack.
type Deduction struct {
	Name   string
	Amount decimal.Decimal
}

// ComputeDeductions builds the deduction stack for a billed amount. Each
// percentage applies to the billed base independently; the delay penalty is
// appended as an absolute amount. Zero-valued penalty still appears so the
// sheet layout is stable across bills.
func ComputeDeductions(billed decimal.Decimal, rates DeductionRates, penalty decimal.Decimal) []Deduction {
	pct := func(rate float64) decimal.Decimal {
		return billed.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100)).Round(2)
	}
	return []Deduction{
		{Name: "Security Deposit", Amount: pct(rates.SecurityDeposit)},
		{Name: "Income Tax", Amount: pct(rates.IncomeTax)},
		{Name: "Tax", Amount: pct(rates.Tax)},
		{Name: "Compensation for Delay", Amount: penalty.Round(2)},
	}
}

// SumDeductions totals the stack.
func SumDeductions(ds []Deduction) decimal.Decimal {
	total := decimal.Zero
	for _, d := range ds {
		total = total.Add(d.Amount)
	}
	return total
}
