// Package prometheus bridges the geth-style metrics registry the
// orchestrator records into (see github.com/luxfi/geth/metrics) onto the
// standard prometheus.Gatherer interface, so the orchestrator's optional
// --metrics-addr HTTP server can be scraped by a normal Prometheus setup.
package prometheus

import "github.com/luxfi/geth/metrics"

var _ Registry = (*metrics.StandardRegistry)(nil)

// Registry is the subset of metrics.Registry the Gatherer needs.
type Registry interface {
	// Each calls the given function for every registered metric.
	Each(func(string, any))
	// Get returns the metric registered under name, or nil.
	Get(string) any
}
