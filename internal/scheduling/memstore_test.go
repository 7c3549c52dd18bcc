package scheduling

import (
	"context"
	"sort"
	"sync"
)

// memStore is an in-memory Store used by the tests. It mirrors the Postgres
// repository's semantics: ascending-id listings, cascading student deletes
// and atomic merge/renumber steps.
type memStore struct {
	mu            sync.Mutex
	students      map[int]Student
	appointments  map[int]Appointment
	nextStudentID int
	nextApptID    int
}

func newMemStore() *memStore {
	return &memStore{
		students:      make(map[int]Student),
		appointments:  make(map[int]Appointment),
		nextStudentID: 1,
		nextApptID:    1,
	}
}

func (m *memStore) ListStudents(ctx context.Context) ([]Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]Student, 0, len(m.students))
	for _, s := range m.students {
		res = append(res, s)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *memStore) GetStudent(ctx context.Context, id int) (Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return s, nil
}

func (m *memStore) InsertStudent(ctx context.Context, s Student) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextStudentID
	m.nextStudentID++
	m.students[s.ID] = s
	return s.ID, nil
}

func (m *memStore) DeleteStudent(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[id]; !ok {
		return ErrStudentNotFound
	}
	delete(m.students, id)
	for apptID, a := range m.appointments {
		if a.StudentID == id {
			delete(m.appointments, apptID)
		}
	}
	return nil
}

func (m *memStore) MergeStudents(ctx context.Context, keeperID, dupID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[dupID]; !ok {
		return ErrStudentNotFound
	}
	for apptID, a := range m.appointments {
		if a.StudentID == dupID {
			a.StudentID = keeperID
			m.appointments[apptID] = a
		}
	}
	delete(m.students, dupID)
	return nil
}

func (m *memStore) Renumber(ctx context.Context, changes []IDChange, nextID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range changes {
		for apptID, a := range m.appointments {
			if a.StudentID == ch.Old {
				a.StudentID = ch.New
				m.appointments[apptID] = a
			}
		}
		s := m.students[ch.Old]
		s.ID = ch.New
		delete(m.students, ch.Old)
		m.students[ch.New] = s
	}
	m.nextStudentID = nextID
	return nil
}

func (m *memStore) GetAppointment(ctx context.Context, id int) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return Appointment{}, ErrAppointmentNotFound
	}
	return a, nil
}

func (m *memStore) InsertAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextApptID
	m.nextApptID++
	m.appointments[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateAppointment(ctx context.Context, a Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return ErrAppointmentNotFound
	}
	m.appointments[a.ID] = a
	return nil
}

func (m *memStore) DeleteAppointment(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(m.appointments, id)
	return nil
}

func (m *memStore) ListAppointments(ctx context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[j].Date.Before(res[i].Date)
		}
		if res[i].Time.Minutes() != res[j].Time.Minutes() {
			return res[j].Time.Minutes() < res[i].Time.Minutes()
		}
		return res[j].ID < res[i].ID
	})
	return res, nil
}

func (m *memStore) ListAppointmentsByDate(ctx context.Context, d Date) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Appointment
	for _, a := range m.appointments {
		if a.Date.Equal(d) {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Time.Minutes() != res[j].Time.Minutes() {
			return res[i].Time.Minutes() < res[j].Time.Minutes()
		}
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (m *memStore) CountScheduled(ctx context.Context, d Date, excludeID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, a := range m.appointments {
		if a.Status == StatusScheduled && a.Date.Equal(d) && a.ID != excludeID {
			count++
		}
	}
	return count, nil
}
