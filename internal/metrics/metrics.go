// Package metrics holds the Prometheus collectors of the reservation
// service.  Collectors are registered on the default registry and served
// by promhttp on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Reservations committed",
	})

	ReservationsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservations_cancelled_total",
		Help: "Reservations cancelled",
	})

	ReservationConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_conflicts_total",
		Help: "Create attempts rejected because the window was taken",
	})

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Notifications that could not be rendered or delivered",
		},
		[]string{"kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)
)
