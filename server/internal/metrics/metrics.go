package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "creditlens"

// Failure stages.
const (
	StageValidation = "validation"
	StageScoring    = "scoring"
)

// Metrics holds the service collectors and the registry they live in.
type Metrics struct {
	registry    *prometheus.Registry
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
	modelInfo   *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by credit rating.",
		}, []string{"rating"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_failures_total",
			Help:      "Rejected or failed prediction requests by stage.",
		}, []string{"stage"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent handling prediction requests.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		modelInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_info",
			Help:      "Loaded classifier artifact.",
		}, []string{"kind", "name"}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.failures,
		m.duration,
		m.modelInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePrediction records one successful prediction.
func (m *Metrics) ObservePrediction(rating string, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(rating).Inc()
	m.duration.Observe(d.Seconds())
}

// ObserveFailure records one request that failed at stage.
func (m *Metrics) ObserveFailure(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
	m.duration.Observe(d.Seconds())
}

// SetModelInfo publishes the loaded artifact's identity.
func (m *Metrics) SetModelInfo(kind, name string) {
	if m == nil {
		return
	}
	m.modelInfo.Reset()
	m.modelInfo.WithLabelValues(kind, name).Set(1)
}
