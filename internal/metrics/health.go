package metrics

import (
	"sync"
	"time"
)

// HealthScore blends resource usage and pipeline latency into one [0, 1]
// score. cpu and memory are percentages, latency is milliseconds. Each term
// is clamped to [0, 1] before weighting, so a saturated input degrades its
// term to zero instead of driving the score negative.
func HealthScore(cpuUsage, memoryUsage, totalLatency float64) float64 {
	cpuTerm := clip(1-cpuUsage/100, 0, 1)
	memTerm := clip(1-memoryUsage/100, 0, 1)
	latencyTerm := clip(1-totalLatency/1000, 0, 1)
	return 0.3*cpuTerm + 0.2*memTerm + 0.5*latencyTerm
}

// LatencyTracker keeps a sliding window of per-stage latencies and exposes
// their combined rolling mean as the pipeline's total latency.
type LatencyTracker struct {
	mu     sync.Mutex
	window int
	stages map[string][]float64
}

// NewLatencyTracker creates a tracker averaging over the last window samples
// per stage.
func NewLatencyTracker(window int) *LatencyTracker {
	if window < 1 {
		window = 1
	}
	return &LatencyTracker{
		window: window,
		stages: make(map[string][]float64),
	}
}

// Record appends one latency sample for a pipeline stage
func (t *LatencyTracker) Record(stage string, d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)

	t.mu.Lock()
	defer t.mu.Unlock()

	samples := append(t.stages[stage], ms)
	if len(samples) > t.window {
		samples = samples[len(samples)-t.window:]
	}
	t.stages[stage] = samples
}

// StageLatency returns the rolling mean latency of one stage in milliseconds
func (t *LatencyTracker) StageLatency(stage string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return meanOf(t.stages[stage])
}

// TotalLatency sums the rolling mean latencies of all stages, giving the
// expected end-to-end cost of one pipeline pass in milliseconds.
func (t *LatencyTracker) TotalLatency() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0.0
	for _, samples := range t.stages {
		total += meanOf(samples)
	}
	return total
}

func meanOf(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
