package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ReasonValidation   = "validation"
	ReasonNotFound     = "not_found"
	ReasonConflict     = "conflict"
	ReasonInsufficient = "insufficient_funds"
	ReasonStore        = "store"
)

var (
	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total confirmed bookings created",
		},
	)

	bookingRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_rejections_total",
			Help: "Booking create attempts rejected, by reason",
		},
		[]string{"reason"},
	)

	bookingsCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_cancelled_total",
			Help: "Total bookings moved to cancelled",
		},
	)

	ledgerEntries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_entries_total",
			Help: "Balance ledger entries appended, by kind",
		},
		[]string{"kind"},
	)

	refundTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refund_tasks_total",
			Help: "Compensating refund task transitions, by status",
		},
		[]string{"status"},
	)

	bookingCreateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_create_duration_seconds",
			Help:    "Duration of the booking create workflow",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func BookingCreated(started time.Time) {
	bookingsCreated.Inc()
	bookingCreateDuration.Observe(time.Since(started).Seconds())
}

func BookingRejected(reason string) {
	bookingRejections.WithLabelValues(reason).Inc()
}

func BookingCancelled() {
	bookingsCancelled.Inc()
}

func LedgerEntry(kind string) {
	ledgerEntries.WithLabelValues(kind).Inc()
}

func RefundTask(status string) {
	refundTasks.WithLabelValues(status).Inc()
}
