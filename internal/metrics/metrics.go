package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the scheduling core. Exposed on /metrics via promhttp.
var (
	StudentsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_students_registered_total",
		Help: "Students registered successfully.",
	})
	DuplicatesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_duplicate_registrations_rejected_total",
		Help: "Registrations rejected by the duplicate pre-check.",
	})
	DuplicatesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_duplicate_students_merged_total",
		Help: "Historical duplicate students merged by bulk resolution.",
	})
	CompactionRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_id_compaction_runs_total",
		Help: "Student id compaction runs.",
	})
	AppointmentsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_appointments_booked_total",
		Help: "Appointments created.",
	})
	CapacityRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenda_capacity_rejections_total",
		Help: "Bookings or reschedules rejected by the daily capacity guard.",
	})
)
