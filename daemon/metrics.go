package daemon

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	proofs   *prometheus.CounterVec
	limited  prometheus.Counter
}

// newMetrics uses its own registry so several daemons can live in one process.
func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vrf",
			Subsystem: "daemon",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vrf",
			Subsystem: "daemon",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		proofs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vrf",
			Subsystem: "daemon",
			Name:      "proofs_total",
			Help:      "VRF proofs generated, by seed source.",
		}, []string{"source"}),
		limited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vrf",
			Subsystem: "daemon",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per client rate limiter.",
		}),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
