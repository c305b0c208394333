// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. Build one with New and share it;
// collectors are registered on the Registerer passed to New.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	searchResults *prometheus.CounterVec
	notifications prometheus.Counter
	published     *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		searchResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_results_total",
				Help: "Rows returned by list and search endpoints",
			},
			[]string{"resource"},
		),
		notifications: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "notifications_created_total",
				Help: "Notifications written by the queue consumer",
			},
		),
		published: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_messages_published_total",
				Help: "Messages published to the broker by queue and status",
			},
			[]string{"queue", "status"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.searchResults, m.notifications, m.published)
	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(took.Seconds())
}

// SearchResults counts rows returned for resource (events, teachers, ...).
func (m *Metrics) SearchResults(resource string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.searchResults.WithLabelValues(resource).Add(float64(n))
}

func (m *Metrics) NotificationsCreated(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.Add(float64(n))
}

// Published counts a publish attempt on queue.
func (m *Metrics) Published(queue string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.published.WithLabelValues(queue, status).Inc()
}
