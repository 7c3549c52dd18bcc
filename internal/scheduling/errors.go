package scheduling

import (
	"errors"
	"fmt"
)

var (
	// ErrStudentNotFound is returned when a student id does not resolve.
	ErrStudentNotFound = errors.New("student not found")
	// ErrAppointmentNotFound is returned when an appointment id does not resolve.
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrPastDate rejects booking or rescheduling into an elapsed date.
	ErrPastDate = errors.New("date is in the past")
	// ErrInvalidTransition rejects complete/cancel on an appointment that is
	// already completed or cancelled.
	ErrInvalidTransition = errors.New("appointment is already completed or cancelled")
)

// DuplicateStudentError rejects a registration whose normalized name pair
// matches an existing student.
type DuplicateStudentError struct {
	ExistingID int
	FirstName  string
	LastName   string
}

func (e *DuplicateStudentError) Error() string {
	return fmt.Sprintf("%s %s is already registered (id %d)", e.FirstName, e.LastName, e.ExistingID)
}

// CapacityError rejects a booking or reschedule into a full day. It carries
// the day's scheduled count and the limit in force at check time.
type CapacityError struct {
	Date  Date
	Count int
	Max   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s already has %d of %d scheduled appointments", e.Date, e.Count, e.Max)
}
