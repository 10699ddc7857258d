package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the tracker's Prometheus instruments. A nil receiver is valid
// and drops every observation, so one-shot runs skip registration entirely.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	records  *prometheus.GaugeVec
}

var (
	once   sync.Once
	shared *Metrics
)

// Init registers the tracker metrics once and returns the shared instance.
func Init() *Metrics {
	once.Do(func() {
		shared = &Metrics{
			runs: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tracker_runs_total",
				Help: "Collector runs by source and outcome.",
			}, []string{"source", "status"}),
			duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "tracker_run_duration_seconds",
				Help:    "Collector run duration by source.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
			}, []string{"source"}),
			records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "tracker_dataset_records",
				Help: "Records in each dataset after the latest run.",
			}, []string{"source", "dataset"}),
		}
		prometheus.MustRegister(shared.runs, shared.duration, shared.records)
	})
	return shared
}

// RunCompleted records one collector run and its outcome.
func (m *Metrics) RunCompleted(source string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runs.WithLabelValues(source, status).Inc()
	m.duration.WithLabelValues(source).Observe(seconds)
}

// DatasetSize records how many records a dataset holds after a run.
func (m *Metrics) DatasetSize(source, dataset string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(source, dataset).Set(float64(n))
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
