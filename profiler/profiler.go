// Package profiler - lightweight timing statistics for processing operations.
//
// The pipeline records one duration per operation kind per call; callers read
// a snapshot whenever they want to surface throughput numbers (a batch UI
// showing "avg 38ms/image", a benchmark harness, a soak test). The profiler
// is thread-safe and holds only aggregates, never per-call allocations.
package profiler

import (
	"sort"
	"sync"
	"time"
)

// TimeTracker accumulates timing statistics for one operation kind.
type TimeTracker struct {
	name      string
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats is an immutable snapshot of one tracker.
type OperationStats struct {
	// Name is the operation kind.
	Name string
	// Count is the number of recorded calls.
	Count int64
	// Total is the summed wall time.
	Total time.Duration
	// Min and Max bound the observed durations.
	Min time.Duration
	Max time.Duration
	// Avg is Total / Count.
	Avg time.Duration
}

// Profiler aggregates operation timings. The zero value is not usable;
// construct with New.
type Profiler struct {
	mu         sync.Mutex
	operations map[string]*TimeTracker
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{operations: make(map[string]*TimeTracker)}
}

// RecordOperation adds one observed duration for the named operation.
//
// Arguments:
//   - name: The operation kind (e.g. "resize", "removeBackground").
//   - d: The wall time the call took.
func (p *Profiler) RecordOperation(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.operations[name]
	if !ok {
		t = &TimeTracker{name: name, minTime: d, maxTime: d}
		p.operations[name] = t
	}
	t.count++
	t.totalTime += d
	if d < t.minTime {
		t.minTime = d
	}
	if d > t.maxTime {
		t.maxTime = d
	}
}

// Track runs fn and records its duration under name. Convenience wrapper for
// call sites that do not want to thread time.Now around.
func (p *Profiler) Track(name string, fn func()) {
	start := time.Now()
	fn()
	p.RecordOperation(name, time.Since(start))
}

// Snapshot returns the current statistics for every recorded operation,
// sorted by name for stable output.
func (p *Profiler) Snapshot() []OperationStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]OperationStats, 0, len(p.operations))
	for _, t := range p.operations {
		s := OperationStats{
			Name:  t.name,
			Count: t.count,
			Total: t.totalTime,
			Min:   t.minTime,
			Max:   t.maxTime,
		}
		if t.count > 0 {
			s.Avg = t.totalTime / time.Duration(t.count)
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Reset clears all recorded statistics.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.operations = make(map[string]*TimeTracker)
}
