package kb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes used as metric labels and in LoadRecord.Outcome.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// storeMetrics holds Prometheus metrics for the accumulator.
type storeMetrics struct {
	loads        *prometheus.CounterVec   // by outcome
	parseErrors  *prometheus.CounterVec   // by kind
	loadDuration *prometheus.HistogramVec // by outcome
	triples      prometheus.Gauge
	depth        prometheus.Gauge
}

func newStoreMetrics(reg prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semkb",
			Subsystem: "kb",
			Name:      "loads_total",
			Help:      "Total number of load attempts by outcome",
		}, []string{"outcome"}),

		parseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semkb",
			Subsystem: "kb",
			Name:      "parse_errors_total",
			Help:      "Total number of failed loads by error kind",
		}, []string{"kind"}),

		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "semkb",
			Subsystem: "kb",
			Name:      "load_duration_seconds",
			Help:      "Duration of load attempts including fetch, parse and validation",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"outcome"}),

		triples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "semkb",
			Subsystem: "kb",
			Name:      "current_triples",
			Help:      "Distinct statements visible through the accumulation root",
		}),

		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "semkb",
			Subsystem: "kb",
			Name:      "accumulation_depth",
			Help:      "Longest sub-graph chain below the accumulation root",
		}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.loads, m.parseErrors, m.loadDuration, m.triples, m.depth} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *storeMetrics) recordLoad(outcome string, d time.Duration) {
	m.loads.WithLabelValues(outcome).Inc()
	m.loadDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *storeMetrics) recordParseError(kind string) {
	m.parseErrors.WithLabelValues(kind).Inc()
}

func (m *storeMetrics) recordAccumulation(triples, depth int) {
	m.triples.Set(float64(triples))
	m.depth.Set(float64(depth))
}
