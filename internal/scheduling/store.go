package scheduling

import "context"

// Store is the persistence surface the scheduling service needs. The Postgres
// Repository implements it for production; tests use an in-memory version.
//
// Multi-statement operations (DeleteStudent's cascade, MergeStudents,
// Renumber) must be atomic: a reader never observes an appointment whose
// student id does not resolve.
type Store interface {
	// ListStudents returns all students ordered by ascending id.
	ListStudents(ctx context.Context) ([]Student, error)
	// GetStudent returns ErrStudentNotFound when the id does not resolve.
	GetStudent(ctx context.Context, id int) (Student, error)
	// InsertStudent persists a new student and returns its assigned id.
	InsertStudent(ctx context.Context, s Student) (int, error)
	// DeleteStudent removes a student and all referencing appointments.
	DeleteStudent(ctx context.Context, id int) error
	// MergeStudents reassigns every appointment of dupID to keeperID and
	// deletes the duplicate student, as one atomic step.
	MergeStudents(ctx context.Context, keeperID, dupID int) error
	// Renumber applies a compaction plan and resets the student id generator
	// so the next insert receives nextID, as one atomic step.
	Renumber(ctx context.Context, changes []IDChange, nextID int) error

	// GetAppointment returns ErrAppointmentNotFound when the id does not resolve.
	GetAppointment(ctx context.Context, id int) (Appointment, error)
	// InsertAppointment persists a new appointment and returns it with its id.
	InsertAppointment(ctx context.Context, a Appointment) (Appointment, error)
	// UpdateAppointment rewrites all mutable fields of an existing appointment.
	UpdateAppointment(ctx context.Context, a Appointment) error
	// DeleteAppointment returns ErrAppointmentNotFound when the id does not resolve.
	DeleteAppointment(ctx context.Context, id int) error
	// ListAppointments returns all appointments, most recent date first.
	ListAppointments(ctx context.Context) ([]Appointment, error)
	// ListAppointmentsByDate returns a day's appointments in any status,
	// ordered by time ascending with creation time as tiebreak.
	ListAppointmentsByDate(ctx context.Context, d Date) ([]Appointment, error)
	// CountScheduled counts scheduled appointments on a date, skipping
	// excludeID when it is non-zero.
	CountScheduled(ctx context.Context, d Date, excludeID int) (int, error)
}
