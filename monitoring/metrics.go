package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeOK            = "ok"
	OutcomeInvalidInput  = "invalid_input"
	OutcomeModelError    = "model_error"
	OutcomeReloadSuccess = "success"
	OutcomeReloadFailure = "failure"
)

// Metrics 预测服务指标
type Metrics struct {
	registry *prometheus.Registry

	Predictions        *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	Recovered          *prometheus.CounterVec
	CacheHits          *prometheus.CounterVec
	Reloads            *prometheus.CounterVec
	BundleLoadedAt     prometheus.Gauge
	WSConnections      prometheus.Gauge
}

// NewMetrics 创建指标收集器. Each call owns its own registry so tests and
// the server never collide on the global one.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Predictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictions_total",
				Help: "Total number of predictions by workflow and outcome",
			},
			[]string{"workflow", "outcome"},
		),
		PredictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prediction_duration_seconds",
				Help:    "Duration of assembling and scoring one request",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"workflow"},
		),
		Recovered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coercions_recovered_total",
				Help: "Malformed numeric inputs replaced by their default",
			},
			[]string{"workflow"},
		),
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prediction_cache_hits_total",
				Help: "Predictions served from the result cache",
			},
			[]string{"workflow"},
		),
		Reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artifact_reloads_total",
				Help: "Artifact bundle reloads by outcome",
			},
			[]string{"outcome"},
		),
		BundleLoadedAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "artifact_bundle_loaded_timestamp_seconds",
			Help: "Unix time the serving bundle was loaded",
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections_active",
			Help: "Open live prediction websocket connections",
		}),
	}
}

// Registry exposes the collectors for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePrediction 记录一次预测
func (m *Metrics) ObservePrediction(workflow, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Predictions.WithLabelValues(workflow, outcome).Inc()
	m.PredictionDuration.WithLabelValues(workflow).Observe(elapsed.Seconds())
}

// ObserveRecovered counts features that fell back to their default.
func (m *Metrics) ObserveRecovered(workflow string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Recovered.WithLabelValues(workflow).Add(float64(n))
}

// ObserveCacheHit 缓存命中
func (m *Metrics) ObserveCacheHit(workflow string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(workflow).Inc()
}

// ObserveReload records a bundle reload attempt.
func (m *Metrics) ObserveReload(err error, loadedAt time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.Reloads.WithLabelValues(OutcomeReloadFailure).Inc()
		return
	}
	m.Reloads.WithLabelValues(OutcomeReloadSuccess).Inc()
	m.BundleLoadedAt.Set(float64(loadedAt.Unix()))
}
