// Package metrics holds the Prometheus collectors for Feedly calls and sync progress.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements feedly.Observer and counts synced entries.
type Collector struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesSynced   *prometheus.CounterVec
	tasks           *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fdly_api_requests_total",
			Help: "Feedly API requests by operation and HTTP status (0 = transport error).",
		}, []string{"operation", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fdly_api_request_duration_seconds",
			Help:    "Feedly API round trip latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		entriesSynced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fdly_entries_synced_total",
			Help: "Entries fetched from Feedly and stored, by category.",
		}, []string{"category"}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fdly_tasks_total",
			Help: "Queue tasks handled by kind and result.",
		}, []string{"kind", "result"}),
	}

	c.registry.MustRegister(
		c.requests,
		c.requestDuration,
		c.entriesSynced,
		c.tasks,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRequest uses the client's "METHOD /path" string as the operation label.
func (c *Collector) ObserveRequest(operation string, status int, duration time.Duration) {
	c.requests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *Collector) EntriesSynced(category string, n int) {
	c.entriesSynced.WithLabelValues(category).Add(float64(n))
}

// TaskHandled records a queue task outcome; err == nil counts as "ok".
func (c *Collector) TaskHandled(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.tasks.WithLabelValues(kind, result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
