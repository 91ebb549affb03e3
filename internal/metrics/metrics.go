// Package metrics holds the Prometheus collectors of the reservation engine.
// They register with the default registry and are served at /metrics.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pkordes/rv-park/backend/internal/domain"
	"github.com/pkordes/rv-park/backend/internal/lock"
)

// ─── Booking admission ──────────────────────────────────────────────────────

// BookingsAdmitted counts reservations created in PENDING.
var BookingsAdmitted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "booking",
	Name:      "admitted_total",
	Help:      "Total booking attempts admitted as pending reservations.",
})

// BookingsRejected counts refused booking attempts by reason.
var BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "booking",
	Name:      "rejected_total",
	Help:      "Total booking attempts rejected, by reason.",
}, []string{"reason"})

// AdmissionLatency times the admission critical section, lock wait included.
var AdmissionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "rvpark",
	Subsystem: "booking",
	Name:      "admission_seconds",
	Help:      "Time spent admitting a booking, including the wait for the site lock.",
	Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
})

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// Transitions counts lifecycle transitions by target status.
var Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "reservation",
	Name:      "transitions_total",
	Help:      "Total reservation status transitions, by target status.",
}, []string{"to"})

// ConfirmationCollisions counts generated codes already taken by another reservation.
var ConfirmationCollisions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "reservation",
	Name:      "confirmation_collisions_total",
	Help:      "Total confirmation numbers regenerated after a uniqueness violation.",
})

// NotificationFailures counts confirmation notifications that could not be delivered.
var NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "notify",
	Name:      "failures_total",
	Help:      "Total reservation-confirmed notifications that failed to send.",
})

// Reject reasons.
const (
	ReasonUnavailable = "unavailable"
	ReasonValidation  = "validation"
	ReasonNotFound    = "not_found"
	ReasonLock        = "lock"
	ReasonInternal    = "internal"
)

// RejectReason maps a booking error onto a low-cardinality label value.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrResourceUnavailable):
		return ReasonUnavailable
	case errors.Is(err, domain.ErrValidation):
		return ReasonValidation
	case errors.Is(err, domain.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, lock.ErrNotAcquired):
		return ReasonLock
	default:
		return ReasonInternal
	}
}

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts served requests by method, route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rvpark",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests, by method, route and status code.",
}, []string{"method", "route", "status"})

// HTTPDuration times requests by method and route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "rvpark",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency, by method and route.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})
