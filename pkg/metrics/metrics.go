package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Scheduling
	AppointmentsBooked *prometheus.CounterVec
	BookingConflicts   prometheus.Counter
	SlotsGenerated     prometheus.Histogram

	// Alerts
	AlertsCreated    *prometheus.CounterVec
	AlertTransitions *prometheus.CounterVec

	// Notifications
	NotificationsPublished *prometheus.CounterVec
	NotificationsFailed    *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics on reg.
// Pass prometheus.DefaultRegisterer in production.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AppointmentsBooked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "appointments_booked_total",
			Help:      "Total number of booked appointments by initial status",
		}, []string{"status"}),
		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected for overlapping an existing appointment",
		}),
		SlotsGenerated: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "slots_generated",
			Help:      "Number of free slots returned per query",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		AlertsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "created_total",
			Help:      "Total number of alerts created by source",
		}, []string{"source"}),
		AlertTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "transitions_total",
			Help:      "Total number of alert status transitions by target status",
		}, []string{"status"}),
		NotificationsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "published_total",
			Help:      "Total number of notifications published",
		}, []string{"event"}),
		NotificationsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "failed_total",
			Help:      "Total number of notifications that could not be published",
		}, []string{"event"}),
		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) Booked(status string) {
	if m == nil {
		return
	}
	m.AppointmentsBooked.WithLabelValues(status).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.BookingConflicts.Inc()
}

func (m *Metrics) Slots(n int) {
	if m == nil {
		return
	}
	m.SlotsGenerated.Observe(float64(n))
}

func (m *Metrics) AlertCreated(source string) {
	if m == nil {
		return
	}
	m.AlertsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) AlertTransition(status string) {
	if m == nil {
		return
	}
	m.AlertTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Notification(event string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.NotificationsFailed.WithLabelValues(event).Inc()
		return
	}
	m.NotificationsPublished.WithLabelValues(event).Inc()
}

// ObserveDB records the outcome and latency of a database call.
func (m *Metrics) ObserveDB(operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DatabaseOperations.WithLabelValues(operation, status).Inc()
	m.DatabaseLatency.WithLabelValues(operation).Observe(seconds)
}
