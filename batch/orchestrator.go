package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"billworks/bill"
	"billworks/compose"
	"billworks/config"
	"billworks/render"
)

// Renderer is the PDF side of the pipeline. render.Chain satisfies it; tests
// substitute failing implementations.
type Renderer interface {
	RenderPDF(ctx context.Context, doc *compose.Document) (*render.Result, error)
}

// Orchestrator drives compose and render for many bills inside a bounded
// worker pool. Template and engine-availability caches live inside the
// composer and chain it owns: initialized once per Orchestrator, reset only
// by building a new one.
type Orchestrator struct {
	cfg      config.Config
	log      *zap.Logger
	composer *compose.Composer
	markup   *render.Markup
	renderer Renderer
	now      func() time.Time

	queued    atomic.Int64
	running   atomic.Int64
	retrying  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// New builds an orchestrator with the default render chain for the
// configured engine priority.
func New(cfg config.Config, log *zap.Logger) *Orchestrator {
	chain := render.NewChain(log, render.A4Geometry(), cfg.EnginePriorityOrder)
	return newOrchestrator(cfg, log, chain)
}

func newOrchestrator(cfg config.Config, log *zap.Logger, r Renderer) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		cfg: cfg,
		log: log,
		composer: compose.New(compose.Config{
			Deductions: cfg.DeductionRates,
			Penalty:    cfg.PenaltyBandSchedule,
		}),
		markup:   render.NewMarkup(render.A4Geometry()),
		renderer: r,
		now:      time.Now,
	}
}

// Progress snapshots the live per-state task counts.
func (o *Orchestrator) Progress() Progress {
	return Progress{
		Queued:    o.queued.Load(),
		Running:   o.running.Load(),
		Retrying:  o.retrying.Load(),
		Succeeded: o.succeeded.Load(),
		Failed:    o.failed.Load(),
	}
}

// Run processes every package and always returns a complete report, even at
// 0% success; deciding whether that is fatal belongs to the caller. The only
// run-level errors are pool sizing failure and pre-intake cancellation.
// Cancelling ctx stops intake and further retries; in-flight attempts finish
// against their own timeout rather than being killed mid-write.
func (o *Orchestrator) Run(ctx context.Context, packages []*bill.Package) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()

	workers, err := o.poolSizeWithRetry(ctx)
	if err != nil {
		return nil, err
	}
	if workers > len(packages) && len(packages) > 0 {
		workers = len(packages)
	}

	o.queued.Store(int64(len(packages)))
	o.running.Store(0)
	o.retrying.Store(0)
	o.succeeded.Store(0)
	o.failed.Store(0)

	tasks := make([]*Task, len(packages))
	for i, p := range packages {
		tasks[i] = newTask(i, p, AllFormats())
	}
	results := make([]TaskReport, len(tasks))

	log := o.log.With(zap.String("run", runID))
	log.Info("batch started",
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", workers))

	queue := make(chan *Task)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				results[task.index] = o.process(ctx, task)
			}
		}()
	}

intake:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break intake
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	// Tasks cancelled before a worker picked them up.
	for i, task := range tasks {
		if results[i].InputID == "" {
			o.queued.Add(-1)
			o.failed.Add(1)
			task.setState(StateFailed)
			results[i] = TaskReport{
				InputID: task.pkg.InputID,
				Status:  StateFailed,
				Error:   "batch canceled before task started",
			}
		}
	}

	report := &Report{
		RunID:               runID,
		Tasks:               results,
		TotalTasks:          len(results),
		TotalElapsedSeconds: time.Since(start).Seconds(),
	}
	for _, r := range results {
		if r.Status == StateSucceeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	log.Info("batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Float64("elapsed_seconds", report.TotalElapsedSeconds))
	return report, nil
}

const sizingAttempts = 3

func (o *Orchestrator) poolSizeWithRetry(ctx context.Context) (int, error) {
	budget := uint64(o.cfg.PerTaskMemoryBudgetMB) * 1024 * 1024
	for attempt := 0; ; attempt++ {
		n, err := poolSize(budget, o.cfg.MaxWorkers)
		if err == nil {
			return n, nil
		}
		if attempt >= sizingAttempts-1 {
			return 0, err
		}
		o.log.Warn("memory cannot admit a task; pausing intake",
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(o.cfg.RetryBaseDelay()):
		}
	}
}

func (o *Orchestrator) process(ctx context.Context, task *Task) TaskReport {
	start := time.Now()
	o.queued.Add(-1)
	log := o.log.With(zap.String("bill", task.pkg.InputID))

	rep := TaskReport{InputID: task.pkg.InputID, EnginesUsed: []string{}}

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = fmt.Errorf("batch canceled: %w", err)
			break
		}

		task.setState(StateRunning)
		o.running.Add(1)
		docs, engines, err := o.attempt(ctx, task)
		o.running.Add(-1)
		rep.DocumentsGenerated = docs
		rep.EnginesUsed = engines

		if err == nil {
			task.setState(StateSucceeded)
			o.succeeded.Add(1)
			rep.Status = StateSucceeded
			rep.OutputDir = task.OutputDir()
			rep.ElapsedSeconds = time.Since(start).Seconds()
			log.Info("bill processed",
				zap.Int("documents", docs),
				zap.Strings("engines", engines),
				zap.Float64("elapsed_seconds", rep.ElapsedSeconds))
			return rep
		}
		lastErr = err

		if permanent(err) || attempt >= o.cfg.MaxRetries {
			break
		}

		task.setState(StateRetrying)
		o.retrying.Add(1)
		delay := backoff(attempt, o.cfg.RetryBaseDelay())
		log.Warn("task attempt failed; backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(err))
		canceled := false
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			canceled = true
		}
		o.retrying.Add(-1)
		if canceled {
			lastErr = fmt.Errorf("batch canceled during backoff: %w", err)
			break
		}
	}

	task.setState(StateFailed)
	o.failed.Add(1)
	rep.Status = StateFailed
	rep.OutputDir = task.OutputDir()
	rep.Error = lastErr.Error()
	rep.ElapsedSeconds = time.Since(start).Seconds()
	log.Error("bill failed", zap.Error(lastErr))
	return rep
}

// attempt runs one full compose+render pass. Partial artifacts from a failed
// attempt stay on disk; the bill is still reported failed overall.
func (o *Orchestrator) attempt(ctx context.Context, task *Task) (int, []string, error) {
	// Detached from the batch cancel on purpose: an in-flight attempt ends
	// by finishing or by hitting its own timeout, never mid-write.
	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.PerTaskTimeout())
	defer cancel()

	out, err := o.composer.Compose(task.pkg)
	if err != nil {
		return 0, nil, err
	}

	dir := task.OutputDir()
	if dir == "" {
		dir, err = o.makeOutputDir(task.pkg.InputID)
		if err != nil {
			return 0, nil, err
		}
		task.setOutputDir(dir)
	}

	engines := make(map[string]bool)
	generated := 0
	for _, doc := range out.Documents {
		if err := o.renderDocument(attemptCtx, dir, doc, task.formats, engines); err != nil {
			return generated, engineList(engines), fmt.Errorf("document %s: %w", doc.Kind, err)
		}
		generated++
	}
	return generated, engineList(engines), nil
}

func (o *Orchestrator) renderDocument(ctx context.Context, dir string, doc *compose.Document, formats []Format, engines map[string]bool) error {
	for _, f := range formats {
		sub := filepath.Join(dir, string(f))
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("create format dir: %w", err)
		}

		switch f {
		case FormatHTML:
			html, err := o.markup.Render(doc)
			if err != nil {
				return err
			}
			path := filepath.Join(sub, doc.Filename()+".html")
			if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write markup artifact: %w", err)
			}

		case FormatPDF:
			res, err := o.renderer.RenderPDF(ctx, doc)
			if err != nil {
				return err
			}
			engines[res.Engine] = true
			path := filepath.Join(sub, doc.Filename()+".pdf")
			if err := os.WriteFile(path, res.PDF, 0o644); err != nil {
				return fmt.Errorf("write pdf artifact: %w", err)
			}

		case FormatDOCX:
			path := filepath.Join(sub, doc.Filename()+".docx")
			file, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create docx artifact: %w", err)
			}
			if err := render.WriteDOCX(doc, file); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close docx artifact: %w", err)
			}
		}
	}
	return nil
}

// makeOutputDir builds {timestamp}_{inputID} under the output root. Distinct
// inputs never collide; re-running the same input in the same second gets a
// numeric suffix, so runs are additive, never destructive.
func (o *Orchestrator) makeOutputDir(inputID string) (string, error) {
	if err := os.MkdirAll(o.cfg.OutputRoot, 0o755); err != nil {
		return "", fmt.Errorf("create output root: %w", err)
	}

	ts := o.now().Format("20060102_150405")
	base := ts + "_" + sanitizeID(inputID)
	dir := filepath.Join(o.cfg.OutputRoot, base)
	for i := 2; ; i++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create output dir: %w", err)
		}
		dir = filepath.Join(o.cfg.OutputRoot, fmt.Sprintf("%s_%d", base, i))
	}
}

func sanitizeID(id string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, id)
	if mapped == "" {
		return "bill"
	}
	return mapped
}

func engineList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
