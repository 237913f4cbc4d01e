package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/i474232898/city-weather/internal/weather"
)

const namespace = "city_weather"

// Metrics holds the pipeline counters on a dedicated registry.
type Metrics struct {
	registry      *prometheus.Registry
	outcomes      *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
}

// New creates the counters and registers them together with the Go
// runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "City pipeline outcomes by status and failing stage",
		}, []string{"status", "stage"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Failed outbound calls by failure kind",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.outcomes,
		m.fetchFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveOutcome(o weather.Outcome) {
	m.outcomes.WithLabelValues(string(o.Status), string(o.Stage)).Inc()
}

func (m *Metrics) ObserveFetchFailure(kind weather.FetchKind) {
	m.fetchFailures.WithLabelValues(kind.String()).Inc()
}
