package scheduling

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Service exposes the scheduling operations: student registration with
// duplicate rejection, the appointment lifecycle behind the capacity guard,
// bulk duplicate resolution and id compaction.
//
// Every write operation runs its read-check-write sequence under one mutex,
// so a capacity check and the insert it guards cannot interleave with another
// caller, and compaction never races a concurrent registration.
type Service struct {
	store  Store
	limits *Limits
	guard  *Guard

	mu sync.Mutex
}

// NewService creates a service over the given store and limits.
func NewService(store Store, limits *Limits) *Service {
	return &Service{
		store:  store,
		limits: limits,
		guard:  NewGuard(store, limits),
	}
}

// Guard exposes the capacity guard, for callers that only need availability
// checks.
func (s *Service) Guard() *Guard { return s.guard }

// NewStudent carries the fields of a registration request.
type NewStudent struct {
	FirstName string
	LastName  string
	Gender    Gender
	Phone     *string
	Program   string
	Photo     *string
}

// RegisterStudent validates and persists a new student. A candidate whose
// normalized (first, last) name pair matches an existing student is rejected
// with DuplicateStudentError before anything is written.
func (s *Service) RegisterStudent(ctx context.Context, n NewStudent) (Student, error) {
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Program = strings.TrimSpace(n.Program)
	if n.FirstName == "" || n.LastName == "" || n.Program == "" {
		return Student{}, errors.New("first name, last name and program are required")
	}
	if _, err := ParseGender(string(n.Gender)); err != nil {
		return Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListStudents(ctx)
	if err != nil {
		return Student{}, err
	}
	if dup, found := FindDuplicateKey(n.FirstName, n.LastName, existing); found {
		return Student{}, &DuplicateStudentError{
			ExistingID: dup.ID,
			FirstName:  n.FirstName,
			LastName:   n.LastName,
		}
	}

	student := Student{
		FirstName:    n.FirstName,
		LastName:     n.LastName,
		Gender:       n.Gender,
		Phone:        n.Phone,
		Program:      n.Program,
		Photo:        n.Photo,
		RegisteredAt: time.Now().UTC(),
	}
	id, err := s.store.InsertStudent(ctx, student)
	if err != nil {
		return Student{}, err
	}
	student.ID = id
	return student, nil
}

// ListStudents returns all students ordered by ascending id.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	return s.store.ListStudents(ctx)
}

// GetStudent returns one student by id.
func (s *Service) GetStudent(ctx context.Context, id int) (Student, error) {
	return s.store.GetStudent(ctx, id)
}

// DeleteStudent removes a student together with all their appointments, then
// compacts the remaining ids back to a dense 1..N sequence.
func (s *Service) DeleteStudent(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteStudent(ctx, id); err != nil {
		return err
	}
	return s.compactLocked(ctx)
}

// ResolveDuplicates merges every student whose normalized name pair repeats
// onto the earliest-registered instance: the duplicate's appointments move to
// the keeper and the duplicate record is deleted. Ids are compacted
// afterwards. The reported pairs use the ids in effect before compaction.
// Running it again on clean data merges nothing.
func (s *Service) ResolveDuplicates(ctx context.Context) (DedupeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return DedupeReport{}, err
	}

	merges := planMerges(students)
	for _, m := range merges {
		if err := s.store.MergeStudents(ctx, m.KeptID, m.RemovedID); err != nil {
			return DedupeReport{}, err
		}
	}

	if err := s.compactLocked(ctx); err != nil {
		return DedupeReport{}, err
	}
	return DedupeReport{
		Merged:      merges,
		TotalUnique: len(students) - len(merges),
	}, nil
}

// CompactStudentIDs renumbers students to a dense 1..N sequence, preserving
// registration order, and resets the id generator to N+1.
func (s *Service) CompactStudentIDs(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactLocked(ctx)
}

func (s *Service) compactLocked(ctx context.Context) error {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return err
	}
	return s.store.Renumber(ctx, PlanCompaction(students), len(students)+1)
}

// CreateAppointment books a scheduled appointment. It fails with
// ErrStudentNotFound, ErrPastDate or CapacityError before any write.
func (s *Service) CreateAppointment(ctx context.Context, studentID int, date Date, at TimeOfDay) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetStudent(ctx, studentID); err != nil {
		return Appointment{}, err
	}
	if date.Before(DateOf(time.Now())) {
		return Appointment{}, ErrPastDate
	}
	if err := s.guard.AssertCapacity(ctx, date, 0); err != nil {
		return Appointment{}, err
	}

	return s.store.InsertAppointment(ctx, Appointment{
		StudentID: studentID,
		Date:      date,
		Time:      at,
		Status:    StatusScheduled,
		CreatedAt: time.Now().UTC(),
	})
}

// EditAppointment carries the fields of an appointment update. A nil Status
// keeps the current one.
type EditAppointment struct {
	StudentID int
	Date      Date
	Time      TimeOfDay
	Status    *Status
}

// UpdateAppointment edits an existing appointment, including reassigning it
// to another student. A date change is re-checked against the capacity guard
// when the resulting status is scheduled, always excluding the appointment
// itself from the count, so moving only the time within a full day passes.
func (s *Service) UpdateAppointment(ctx context.Context, id int, edit EditAppointment) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if _, err := s.store.GetStudent(ctx, edit.StudentID); err != nil {
		return Appointment{}, err
	}

	status := appt.Status
	if edit.Status != nil {
		status = *edit.Status
	}
	if !edit.Date.Equal(appt.Date) {
		if edit.Date.Before(DateOf(time.Now())) {
			return Appointment{}, ErrPastDate
		}
		if status == StatusScheduled {
			if err := s.guard.AssertCapacity(ctx, edit.Date, id); err != nil {
				return Appointment{}, err
			}
		}
	}

	appt.StudentID = edit.StudentID
	appt.Date = edit.Date
	appt.Time = edit.Time
	appt.Status = status
	if err := s.store.UpdateAppointment(ctx, appt); err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

// CompleteAppointment marks a scheduled appointment completed and records the
// completion time. Completed and cancelled are terminal: acting on either
// fails with ErrInvalidTransition.
func (s *Service) CompleteAppointment(ctx context.Context, id int) (Appointment, error) {
	return s.transition(ctx, id, StatusCompleted)
}

// CancelAppointment marks a scheduled appointment cancelled.
func (s *Service) CancelAppointment(ctx context.Context, id int) (Appointment, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id int, to Status) (Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if appt.Status.Terminal() {
		return Appointment{}, ErrInvalidTransition
	}

	appt.Status = to
	if to == StatusCompleted {
		now := time.Now().UTC()
		appt.CompletedAt = &now
	}
	if err := s.store.UpdateAppointment(ctx, appt); err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

// DeleteAppointment removes an appointment in any state.
func (s *Service) DeleteAppointment(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteAppointment(ctx, id)
}

// ListAppointments returns all appointments, most recent date first.
func (s *Service) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return s.store.ListAppointments(ctx)
}

// ListForDate returns a day's appointments in any status, ordered by time
// ascending; appointments sharing a time keep creation order.
func (s *Service) ListForDate(ctx context.Context, date Date) ([]Appointment, error) {
	return s.store.ListAppointmentsByDate(ctx, date)
}
