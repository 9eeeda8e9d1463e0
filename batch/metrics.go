package batch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status labels of Metrics.Processed.
const (
	StatusOK       = "ok"
	StatusIOError  = "io_error"
	StatusInvalid  = "invalid"
	StatusCanceled = "canceled"
)

// Metrics collects Prometheus metrics of batch runs.
type Metrics struct {
	Processed      *prometheus.CounterVec
	Matches        prometheus.Counter
	Duplicates     prometheus.Counter
	DecodeDuration prometheus.Histogram
	SearchDuration prometheus.Histogram
}

// NewMetrics creates the metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schemsearch",
			Name:      "schematics_processed_total",
			Help:      "Schematics processed, by outcome",
		}, []string{"status"}),

		Matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schemsearch",
			Name:      "matches_total",
			Help:      "Pattern placements found",
		}),

		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "schemsearch",
			Name:      "duplicate_schematics_total",
			Help:      "Sources whose content was already searched",
		}),

		DecodeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schemsearch",
			Name:      "decode_duration_seconds",
			Help:      "Schematic decode duration",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),

		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "schemsearch",
			Name:      "search_duration_seconds",
			Help:      "Pattern search duration per schematic",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
	}

	reg.MustRegister(
		m.Processed, m.Matches, m.Duplicates,
		m.DecodeDuration, m.SearchDuration,
	)

	return m
}

func (m *Metrics) observe(status string, matches int) {
	if m == nil {
		return
	}
	m.Processed.WithLabelValues(status).Inc()
	m.Matches.Add(float64(matches))
}

func (m *Metrics) duplicate() {
	if m == nil {
		return
	}
	m.Duplicates.Inc()
}

func (m *Metrics) decodeSeconds(s float64) {
	if m == nil {
		return
	}
	m.DecodeDuration.Observe(s)
}

func (m *Metrics) searchSeconds(s float64) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(s)
}
