// Package metrics exposes Prometheus collectors for dataset loading and
// panel rendering.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pythiaevo_dataset_cache_lookups_total",
		Help: "Dataset cache lookups by model and result (hit, miss)",
	}, []string{"model", "result"})

	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pythiaevo_dataset_load_duration_seconds",
		Help:    "Time spent loading a model's dataset",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"model"})

	NeuronsLoaded = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pythiaevo_dataset_neurons",
		Help: "Neurons in the most recently loaded dataset per model",
	}, []string{"model"})

	LoadErrors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pythiaevo_dataset_load_errors",
		Help: "Series files skipped in the most recently loaded dataset per model",
	}, []string{"model"})

	PanelsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pythiaevo_panels_rendered_total",
		Help: "Checkpoint panels built, by surface and outcome",
	}, []string{"surface", "outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pythiaevo_http_requests_total",
		Help: "Dashboard HTTP requests by route and status code",
	}, []string{"route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pythiaevo_http_request_duration_seconds",
		Help:    "Dashboard HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// ObserveLoad records the outcome of one dataset load.
func ObserveLoad(model string, d time.Duration, neurons, loadErrors int) {
	LoadDuration.WithLabelValues(model).Observe(d.Seconds())
	NeuronsLoaded.WithLabelValues(model).Set(float64(neurons))
	LoadErrors.WithLabelValues(model).Set(float64(loadErrors))
}

// ObservePanel records one built panel. outcome is "ok" or a short error kind.
func ObservePanel(surface, outcome string) {
	PanelsRendered.WithLabelValues(surface, outcome).Inc()
}
