// Package metrics collects and exposes Prometheus metrics for the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records operation outcomes. The service layer reports every mutating
// operation by name so capacity rejections and cascade deletes are visible
// without log scraping.
type Collector struct {
	operations  *prometheus.CounterVec
	signupsFull prometheus.Counter
}

// NewCollector registers the collector's metrics on the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "volunteerconnect_operations_total",
			Help: "Domain operations by name and outcome.",
		}, []string{"op", "status"}),
		signupsFull: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "volunteerconnect_signups_rejected_full_total",
			Help: "Event signups rejected because the event reached capacity.",
		}),
	}

	reg.MustRegister(c.operations, c.signupsFull)
	return c
}

// RecordOperation records one completed operation with its outcome status.
func (c *Collector) RecordOperation(op, status string) {
	c.operations.WithLabelValues(op, status).Inc()
}

// RecordSignupFull records a signup rejected by the capacity check.
func (c *Collector) RecordSignupFull() {
	c.signupsFull.Inc()
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
