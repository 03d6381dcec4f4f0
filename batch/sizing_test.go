package batch

import (
	"errors"
	"runtime"
	"testing"
)

func stubMemory(t *testing.T, avail uint64, err error) {
	t.Helper()
	prev := availableMemory
	availableMemory = func() (uint64, error) { return avail, err }
	t.Cleanup(func() { availableMemory = prev })
}

const mb = 1024 * 1024

func TestPoolSize(t *testing.T) {
	tests := []struct {
		name       string
		avail      uint64
		probeErr   error
		budget     uint64
		maxWorkers int
		want       int
		wantErr    error
	}{
		{name: "explicit override wins", avail: 512 * mb, budget: 256 * mb, maxWorkers: 3, want: 3},
		{name: "memory derived", avail: 1024 * mb, budget: 256 * mb, want: 4},
		{name: "clamped to cap", avail: 1 << 40, budget: mb, want: computedPoolCap},
		{name: "single task fits exactly", avail: 256 * mb, budget: 256 * mb, want: 1},
		{name: "budget exceeds memory", avail: 100 * mb, budget: 256 * mb, wantErr: ErrResourceExhaustion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubMemory(t, tt.avail, tt.probeErr)
			got, err := poolSize(tt.budget, tt.maxWorkers)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("poolSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPoolSize_ProbeFailureFallsBackToCPU(t *testing.T) {
	stubMemory(t, 0, errors.New("sysfs unreadable"))
	got, err := poolSize(256*mb, 0)
	if err != nil {
		t.Fatalf("poolSize() error: %v", err)
	}
	want := runtime.NumCPU()
	if want > computedPoolCap {
		want = computedPoolCap
	}
	if got != want {
		t.Errorf("poolSize() = %d, want cpu-derived %d", got, want)
	}
}

func TestPoolSize_ZeroBudgetUsesCPU(t *testing.T) {
	got, err := poolSize(0, 0)
	if err != nil {
		t.Fatalf("poolSize() error: %v", err)
	}
	if got < 1 || got > computedPoolCap {
		t.Errorf("poolSize() = %d, outside [1, %d]", got, computedPoolCap)
	}
}
