// Package metrics defines the metrics collection interface for mortgage-sim
// and a Prometheus-backed implementation.
package metrics

// Collector receives operational metrics from the rate feed client, the
// resolver, and the calculation client.
type Collector interface {
	// RecordFeedFetch records one live-rate fetch attempt and its outcome.
	RecordFeedFetch(currency string, err error)

	// RecordResolution records one bank resolution and the rate provenance
	// ("LIVE" or "STATIC").
	RecordResolution(source string)

	// RecordCalculation records one calculation-service request outcome.
	RecordCalculation(err error)
}

// NoOpCollector discards all metrics. Useful for tests and when metrics
// are disabled.
type NoOpCollector struct{}

func (NoOpCollector) RecordFeedFetch(string, error) {}
func (NoOpCollector) RecordResolution(string)       {}
func (NoOpCollector) RecordCalculation(error)       {}
