package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Evolution metrics
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dna_engine_generations_total",
			Help: "Total number of committed generations",
		},
		[]string{"run"},
	)

	bestFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dna_engine_best_fitness",
			Help: "Best strategy fitness seen so far in the run",
		},
		[]string{"run"},
	)

	averageFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dna_engine_average_fitness",
			Help: "Average population fitness of the last committed generation",
		},
		[]string{"run"},
	)

	populationDiversity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dna_engine_population_diversity",
			Help: "Unique-genome fraction of the last committed generation",
		},
		[]string{"run"},
	)

	divergencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dna_engine_divergences_total",
			Help: "Total divergent fitness evaluations discarded and replaced",
		},
		[]string{"run"},
	)

	// Pattern catalogue metrics
	catalogueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dna_engine_pattern_catalogue_size",
			Help: "Occupied slots in the pattern catalogue",
		},
	)

	// Signal metrics
	compositeSignal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dna_engine_composite_signal",
			Help: "Latest composite signal value per symbol",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dna_engine_errors_total",
			Help: "Total number of errors by category",
		},
		[]string{"category"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(generationsTotal)
	prometheus.MustRegister(bestFitness)
	prometheus.MustRegister(averageFitness)
	prometheus.MustRegister(populationDiversity)
	prometheus.MustRegister(divergencesTotal)
	prometheus.MustRegister(catalogueSize)
	prometheus.MustRegister(compositeSignal)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordGeneration records one committed generation's summary
func RecordGeneration(run string, best, average, diversity float64) {
	generationsTotal.WithLabelValues(run).Inc()
	bestFitness.WithLabelValues(run).Set(best)
	averageFitness.WithLabelValues(run).Set(average)
	populationDiversity.WithLabelValues(run).Set(diversity)
}

// RecordDivergence records one discarded divergent evaluation
func RecordDivergence(run string) {
	divergencesTotal.WithLabelValues(run).Inc()
}

// UpdateCatalogueSize updates the pattern catalogue gauge
func UpdateCatalogueSize(size int) {
	catalogueSize.Set(float64(size))
}

// UpdateCompositeSignal updates the latest composite signal for a symbol
func UpdateCompositeSignal(symbol string, value float64) {
	compositeSignal.WithLabelValues(symbol).Set(value)
}

// RecordError records an error metric
func RecordError(category string) {
	errorsTotal.WithLabelValues(category).Inc()
}
