package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/evoquant/dna-engine/internal/metrics"
)

var startTime = time.Now()

// HealthChecker tracks engine liveness and resource readings and serves them
// as a JSON health endpoint. The score blends CPU, memory, and pipeline
// latency per the fixed health formula.
type HealthChecker struct {
	mu             sync.RWMutex
	lastGeneration time.Time
	cpuUsage       float64
	memoryUsage    float64
	latency        *metrics.LatencyTracker
	errors         []string
}

type HealthStatus struct {
	Status         string    `json:"status"`
	Score          float64   `json:"score"`
	Timestamp      time.Time `json:"timestamp"`
	LastGeneration time.Time `json:"last_generation"`
	TotalLatencyMS float64   `json:"total_latency_ms"`
	Uptime         string    `json:"uptime"`
	Errors         []string  `json:"errors,omitempty"`
}

func NewHealthChecker(latency *metrics.LatencyTracker) *HealthChecker {
	if latency == nil {
		latency = metrics.NewLatencyTracker(100)
	}
	return &HealthChecker{
		latency: latency,
		errors:  make([]string, 0),
	}
}

// MarkGeneration records that a generation was just committed
func (h *HealthChecker) MarkGeneration() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastGeneration = time.Now()
}

// SetResourceUsage records the latest CPU and memory percentages
func (h *HealthChecker) SetResourceUsage(cpu, memory float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cpuUsage = cpu
	h.memoryUsage = memory
}

// RecordError appends a reported error to the health payload
func (h *HealthChecker) RecordError(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, message)
}

// Score returns the current blended health score in [0, 1]
func (h *HealthChecker) Score() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return metrics.HealthScore(h.cpuUsage, h.memoryUsage, h.latency.TotalLatency())
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	score := metrics.HealthScore(h.cpuUsage, h.memoryUsage, h.latency.TotalLatency())

	status := "healthy"
	code := http.StatusOK
	if score < 0.5 {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	if len(h.errors) > 0 {
		status = "unhealthy"
		code = http.StatusInternalServerError
	}

	health := HealthStatus{
		Status:         status,
		Score:          score,
		Timestamp:      time.Now(),
		LastGeneration: h.lastGeneration,
		TotalLatencyMS: h.latency.TotalLatency(),
		Uptime:         time.Since(startTime).String(),
		Errors:         h.errors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(health)
}
