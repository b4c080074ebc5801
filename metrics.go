package rolewatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector exports a Service's dispatch counters to Prometheus.
//
// Example:
//
//	prometheus.MustRegister(rolewatch.NewMetricsCollector(service, "myapp"))
type MetricsCollector struct {
	service *Service

	dispatched *prometheus.Desc
	propagated *prometheus.Desc
	suppressed *prometheus.Desc
	deferred   *prometheus.Desc
	failed     *prometheus.Desc
}

// NewMetricsCollector creates a collector reading from service.
func NewMetricsCollector(service *Service, namespace string) *MetricsCollector {
	name := func(metric string) string {
		return prometheus.BuildFQName(namespace, "rolewatch", metric)
	}
	return &MetricsCollector{
		service:    service,
		dispatched: prometheus.NewDesc(name("events_dispatched_total"), "Events handed to the sink.", nil, nil),
		propagated: prometheus.NewDesc(name("events_propagated_total"), "Derived events handed to the sink.", nil, nil),
		suppressed: prometheus.NewDesc(name("events_suppressed_total"), "Events dropped by a firing gate.", nil, nil),
		deferred:   prometheus.NewDesc(name("events_deferred_total"), "Mutations deferred until their holder is saved.", nil, nil),
		failed:     prometheus.NewDesc(name("delivery_failures_total"), "Reported event delivery failures.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.dispatched
	ch <- c.propagated
	ch <- c.suppressed
	ch <- c.deferred
	ch <- c.failed
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.service.DispatchMetrics()
	ch <- prometheus.MustNewConstMetric(c.dispatched, prometheus.CounterValue, float64(m.DispatchedEvents))
	ch <- prometheus.MustNewConstMetric(c.propagated, prometheus.CounterValue, float64(m.PropagatedEvents))
	ch <- prometheus.MustNewConstMetric(c.suppressed, prometheus.CounterValue, float64(m.SuppressedEvents))
	ch <- prometheus.MustNewConstMetric(c.deferred, prometheus.CounterValue, float64(m.DeferredEvents))
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(m.FailedDeliveries))
}
