package stats

import (
	"sync"

	"imgbench/model"
)

// Recorder collects measurements from concurrent workers.
type Recorder struct {
	mu           sync.Mutex
	measurements []model.Measurement
	successCount int
}

func (r *Recorder) Add(m model.Measurement) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.measurements = append(r.measurements, m)

	if m.Succeeded {
		r.successCount++
	}
}

// Snapshot returns a copy of everything recorded so far, in arrival order.
func (r *Recorder) Snapshot() []model.Measurement {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Measurement, len(r.measurements))
	copy(out, r.measurements)

	return out
}

func (r *Recorder) Counts() (success, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.successCount, len(r.measurements)
}

func (r *Recorder) Get() Aggregate {
	return Compute(r.Snapshot())
}
