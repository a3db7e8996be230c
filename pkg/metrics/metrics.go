package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling metrics
	AppointmentsBooked    prometheus.Counter
	BookingConflicts      *prometheus.CounterVec
	AppointmentTransition *prometheus.CounterVec
	ScheduleChanges       *prometheus.CounterVec

	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

var (
	registered   = map[string]*Metrics{}
	registeredMu sync.Mutex
)

// NewMetrics creates and registers all application metrics. Calling it twice
// with the same namespace and subsystem returns the already registered set.
func NewMetrics(namespace, subsystem string) *Metrics {
	registeredMu.Lock()
	defer registeredMu.Unlock()

	key := namespace + "/" + subsystem
	if m, ok := registered[key]; ok {
		return m
	}
	m := newMetrics(promauto.With(prometheus.DefaultRegisterer), namespace, subsystem)
	registered[key] = m
	return m
}

// NewUnregistered builds a metric set that is not attached to any registry.
func NewUnregistered() *Metrics {
	return newMetrics(promauto.With(nil), "test", "")
}

func newMetrics(f promauto.Factory, namespace, subsystem string) *Metrics {
	return &Metrics{
		AppointmentsBooked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointments_booked_total",
			Help:      "Total number of appointments successfully booked",
		}),
		BookingConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "booking_conflicts_total",
			Help:      "Total number of bookings rejected because the room slot was taken",
		}, []string{"source"}),
		AppointmentTransition: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "appointment_transitions_total",
			Help:      "Appointment status transitions by target status and outcome",
		}, []string{"to", "outcome"}),
		ScheduleChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "weekly_schedule_changes_total",
			Help:      "Weekly schedule writes by operation",
		}, []string{"operation"}),

		// Outbox metrics
		OutboxEventsProcessed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		// Database metrics
		DatabaseOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
