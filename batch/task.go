// Package batch fans the compose→render pipeline out over many independent
// bills: a bounded worker pool sized from available memory, per-task retry
// with backoff, isolated timestamped output directories, and a report that
// preserves submission order.
package batch

import (
	"sync"

	"billworks/bill"
)

// State is one step of the task lifecycle:
// Queued → Running → {Succeeded | Failed | Retrying} → Done.
// Retrying loops back to Running until the attempt bound is hit.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateRetrying  State = "retrying"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Format names one output artifact family.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// AllFormats is the default artifact set per document.
func AllFormats() []Format { return []Format{FormatHTML, FormatPDF, FormatDOCX} }

// Task wraps one bill package through the pipeline. Created at intake,
// discarded once its result is folded into the batch report.
type Task struct {
	mu sync.Mutex

	index   int
	pkg     *bill.Package
	formats []Format

	state     State
	attempts  int
	outputDir string
}

func newTask(index int, pkg *bill.Package, formats []Format) *Task {
	return &Task{index: index, pkg: pkg, formats: formats, state: StateQueued}
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
}

func (t *Task) setOutputDir(dir string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outputDir = dir
}

// OutputDir returns the task's output directory ("" until first start).
func (t *Task) OutputDir() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outputDir
}

// TaskReport is the per-task record of the batch report, the external
// contract consumed by CLI/UI callers.
type TaskReport struct {
	InputID            string   `json:"inputIdentifier"`
	Status             State    `json:"status"`
	OutputDir          string   `json:"outputDirectory"`
	DocumentsGenerated int      `json:"documentsGenerated"`
	EnginesUsed        []string `json:"enginesUsed"`
	ElapsedSeconds     float64  `json:"elapsedSeconds"`
	Error              string   `json:"error,omitempty"`
}

// Report aggregates a whole batch run. Tasks appear in submission order
// regardless of completion order.
type Report struct {
	RunID               string       `json:"runId"`
	Tasks               []TaskReport `json:"tasks"`
	TotalTasks          int          `json:"totalTasks"`
	Succeeded           int          `json:"succeeded"`
	Failed              int          `json:"failed"`
	TotalElapsedSeconds float64      `json:"totalElapsedSeconds"`
}

// Progress is a live snapshot of task counts per state.
type Progress struct {
	Queued    int64 `json:"queued"`
	Running   int64 `json:"running"`
	Retrying  int64 `json:"retrying"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
