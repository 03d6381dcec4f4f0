package compose

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeDeductions_ParallelNotChained(t *testing.T) {
	billed := dec("10000")
	rates := DeductionRates{SecurityDeposit: 10, IncomeTax: 2, Tax: 2}
	penalty := dec("500")

	ds := ComputeDeductions(billed, rates, penalty)

	want := map[string]string{
		"Security Deposit":       "1000",
		"Income Tax":             "200",
		"Tax":                    "200",
		"Compensation for Delay": "500",
	}
	if len(ds) != len(want) {
		t.Fatalf("got %d deductions, want %d", len(ds), len(want))
	}
	for _, d := range ds {
		if !d.Amount.Equal(dec(want[d.Name])) {
			t.Errorf("%s = %s, want %s", d.Name, d.Amount, want[d.Name])
		}
	}
	if sum := SumDeductions(ds); !sum.Equal(dec("1900")) {
		t.Errorf("SumDeductions = %s, want 1900", sum)
	}
}

func TestComputeDeductions_NetPayableIdentity(t *testing.T) {
	// netPayable == billed − Σ deductions must hold for arbitrary rates,
	// including all-zero.
	cases := []DeductionRates{
		{},
		{SecurityDeposit: 10, IncomeTax: 2, Tax: 2},
		{SecurityDeposit: 5.5, IncomeTax: 1.25, Tax: 0},
	}
	billed := dec("123456.78")
	for _, rates := range cases {
		ds := ComputeDeductions(billed, rates, decimal.Zero)
		net := billed.Sub(SumDeductions(ds))
		if net.Add(SumDeductions(ds)).Cmp(billed) != 0 {
			t.Errorf("identity broken for rates %+v", rates)
		}
	}
}

func TestComputeDeductions_ZeroPenaltyStillListed(t *testing.T) {
	ds := ComputeDeductions(dec("1000"), DeductionRates{}, decimal.Zero)
	found := false
	for _, d := range ds {
		if d.Name == "Compensation for Delay" {
			found = true
			if !d.Amount.IsZero() {
				t.Errorf("zero penalty amount = %s", d.Amount)
			}
		}
	}
	if !found {
		t.Error("penalty line missing from deduction stack")
	}
}
