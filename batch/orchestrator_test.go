package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"billworks/bill"
	"billworks/compose"
	"billworks/config"
	"billworks/render"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		MaxWorkers:            2,
		MaxRetries:            1,
		RetryBaseDelaySeconds: 0.001,
		PerTaskTimeoutSeconds: 5,
		PerTaskMemoryBudgetMB: 64,
		OutputRoot:            t.TempDir(),
		DeductionRates:        compose.DefaultDeductionRates(),
		PenaltyBandSchedule:   compose.DefaultPenaltySchedule(),
	}
}

func validPackage(id string) *bill.Package {
	rows := []bill.Row{
		{ID: "1", Description: "Earthwork", Unit: "cum", Quantity: decimal.NewFromInt(100), Rate: decimal.NewFromInt(50)},
	}
	return &bill.Package{
		InputID:        id,
		Title:          bill.TitleData{{Key: "Name of Work", Value: "Test Work"}},
		WorkOrder:      bill.BuildForest(rows),
		BillQuantity:   bill.BuildForest(rows),
		ContractedDays: 100,
		ActualDays:     90,
	}
}

// invalidPackage violates a data invariant, so compose fails permanently.
func invalidPackage(id string) *bill.Package {
	p := validPackage(id)
	p.BillQuantity = bill.BuildForest([]bill.Row{
		{ID: "1", Description: "Earthwork", Quantity: decimal.NewFromInt(-5), Rate: decimal.NewFromInt(50)},
	})
	return p
}

type stubRenderer struct {
	calls atomic.Int64
	err   error
}

func (s *stubRenderer) RenderPDF(_ context.Context, doc *compose.Document) (*render.Result, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &render.Result{PDF: []byte("%PDF-stub"), Engine: "stub", Pages: 1}, nil
}

func TestRun_MixedOutcome(t *testing.T) {
	cfg := testConfig(t)
	o := newOrchestrator(cfg, nil, &stubRenderer{})

	pkgs := []*bill.Package{
		validPackage("bill-a"),
		invalidPackage("bill-b"),
		validPackage("bill-c"),
		validPackage("bill-d"),
	}

	report, err := o.Run(context.Background(), pkgs)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if report.Succeeded != 3 || report.Failed != 1 {
		t.Fatalf("succeeded=%d failed=%d, want 3/1", report.Succeeded, report.Failed)
	}
	if report.TotalTasks != 4 || len(report.Tasks) != 4 {
		t.Fatalf("report covers %d tasks, want 4", len(report.Tasks))
	}

	// Entries stay in submission order regardless of completion order.
	for i, p := range pkgs {
		if report.Tasks[i].InputID != p.InputID {
			t.Errorf("report[%d].InputID = %q, want %q", i, report.Tasks[i].InputID, p.InputID)
		}
	}

	seen := make(map[string]bool)
	for _, tr := range report.Tasks {
		if tr.InputID == "bill-b" {
			if tr.Status != StateFailed || tr.Error == "" {
				t.Errorf("bad bill reported %q with error %q", tr.Status, tr.Error)
			}
			continue
		}
		if tr.Status != StateSucceeded {
			t.Errorf("%s reported %q: %s", tr.InputID, tr.Status, tr.Error)
			continue
		}
		if tr.OutputDir == "" || seen[tr.OutputDir] {
			t.Errorf("%s output dir %q not distinct", tr.InputID, tr.OutputDir)
		}
		seen[tr.OutputDir] = true
		if tr.DocumentsGenerated == 0 {
			t.Errorf("%s generated no documents", tr.InputID)
		}
		if len(tr.EnginesUsed) != 1 || tr.EnginesUsed[0] != "stub" {
			t.Errorf("%s engines = %v", tr.InputID, tr.EnginesUsed)
		}
		for _, sub := range []string{"html", "pdf", "docx"} {
			entries, err := os.ReadDir(filepath.Join(tr.OutputDir, sub))
			if err != nil || len(entries) == 0 {
				t.Errorf("%s: %s artifacts missing (%v)", tr.InputID, sub, err)
			}
		}
	}
}

func TestRun_RetriesThenGivesUp(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRetries = 2
	rend := &stubRenderer{err: errors.New("engine crashed")}
	o := newOrchestrator(cfg, nil, rend)

	report, err := o.Run(context.Background(), []*bill.Package{validPackage("flaky")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}
	// One render call per attempt: the pdf of the first document fails and
	// aborts the attempt.
	if got := rend.calls.Load(); got != 3 {
		t.Errorf("render attempts = %d, want initial + 2 retries", got)
	}
}

func TestRun_PermanentFailureSkipsRetry(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxRetries = 5
	rend := &stubRenderer{}
	o := newOrchestrator(cfg, nil, rend)

	report, err := o.Run(context.Background(), []*bill.Package{invalidPackage("corrupt")})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}
	if got := rend.calls.Load(); got != 0 {
		t.Errorf("renderer called %d times for unfixable input", got)
	}
}

func TestRun_Canceled(t *testing.T) {
	cfg := testConfig(t)
	o := newOrchestrator(cfg, nil, &stubRenderer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pkgs := make([]*bill.Package, 5)
	for i := range pkgs {
		pkgs[i] = validPackage(fmt.Sprintf("bill-%d", i))
	}
	report, err := o.Run(ctx, pkgs)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.Succeeded != 0 || report.Failed != 5 {
		t.Errorf("succeeded=%d failed=%d after cancel, want 0/5", report.Succeeded, report.Failed)
	}
	for _, tr := range report.Tasks {
		if tr.Status != StateFailed || tr.Error == "" {
			t.Errorf("%s: status=%q error=%q", tr.InputID, tr.Status, tr.Error)
		}
	}
}

func TestMakeOutputDir_SameSecondCollision(t *testing.T) {
	cfg := testConfig(t)
	o := newOrchestrator(cfg, nil, &stubRenderer{})
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	first, err := o.makeOutputDir("abc")
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.makeOutputDir("abc")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(first) != "20260314_092653_abc" {
		t.Errorf("first dir = %q", first)
	}
	if filepath.Base(second) != "20260314_092653_abc_2" {
		t.Errorf("collision dir = %q", second)
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"first-rab", "first-rab"},
		{"a/b\\c:d e", "a-b-c-d-e"},
		{"", "bill"},
	}
	for _, tt := range tests {
		if got := sanitizeID(tt.in); got != tt.want {
			t.Errorf("sanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
