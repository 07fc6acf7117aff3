package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector implements Collector on a dedicated Prometheus registry.
type PrometheusCollector struct {
	registry *prometheus.Registry

	feedFetches  *prometheus.CounterVec
	resolutions  *prometheus.CounterVec
	calculations *prometheus.CounterVec
}

// NewPrometheusCollector creates a collector registered under the given
// namespace.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	pc := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		feedFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_fetches_total",
				Help:      "Total number of live-rate feed fetches by currency and result",
			},
			[]string{"currency", "result"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_resolutions_total",
				Help:      "Total number of bank-rate resolutions by rate source",
			},
			[]string{"source"},
		),
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "calculation_requests_total",
				Help:      "Total number of calculation-service requests by result",
			},
			[]string{"result"},
		),
	}

	pc.registry.MustRegister(pc.feedFetches, pc.resolutions, pc.calculations)
	return pc
}

// RecordFeedFetch records one feed fetch attempt.
func (pc *PrometheusCollector) RecordFeedFetch(currency string, err error) {
	pc.feedFetches.WithLabelValues(currency, resultLabel(err)).Inc()
}

// RecordResolution records one resolution by rate provenance.
func (pc *PrometheusCollector) RecordResolution(source string) {
	pc.resolutions.WithLabelValues(source).Inc()
}

// RecordCalculation records one calculation request.
func (pc *PrometheusCollector) RecordCalculation(err error) {
	pc.calculations.WithLabelValues(resultLabel(err)).Inc()
}

// Handler exposes the collector's registry over HTTP.
func (pc *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(pc.registry, promhttp.HandlerOpts{})
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
