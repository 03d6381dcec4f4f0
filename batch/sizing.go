package batch

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/mem"
)

// ErrResourceExhaustion means available memory cannot admit even one task at
// the configured budget. The orchestrator re-probes before giving up.
var ErrResourceExhaustion = errors.New("available memory cannot admit a single task")

const (
	// computedPoolCap bounds the memory-derived pool size; beyond this the
	// render subprocesses contend on CPU rather than gaining throughput.
	computedPoolCap = 16
)

// availableMemory is swapped out by tests.
var availableMemory = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("probe system memory: %w", err)
	}
	return vm.Available, nil
}

// poolSize computes the worker count for one batch invocation: available
// memory divided by the per-task budget, clamped to [1, computedPoolCap].
// maxWorkers, when set, overrides the computed size outright. Bill sizes
// vary widely, so this runs fresh per batch, never cached across runs.
func poolSize(budgetBytes uint64, maxWorkers int) (int, error) {
	if maxWorkers > 0 {
		return maxWorkers, nil
	}
	if budgetBytes == 0 {
		return minInt(runtime.NumCPU(), computedPoolCap), nil
	}

	avail, err := availableMemory()
	if err != nil {
		// Probe failure is not fatal; fall back to CPU-derived sizing.
		return minInt(runtime.NumCPU(), computedPoolCap), nil
	}

	n := int(avail / budgetBytes)
	if n < 1 {
		return 0, ErrResourceExhaustion
	}
	if n > computedPoolCap {
		n = computedPoolCap
	}
	return n, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
