package scheduling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists scheduling data in Postgres. It implements Store.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the tables when they do not exist yet. The foreign key
// from appointments to students is deferrable so the compactor can renumber
// both tables inside one transaction, and cascading so a student deletion
// removes their appointments in the same statement.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id            integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		first_name    text NOT NULL,
		last_name     text NOT NULL,
		gender        text NOT NULL,
		phone         text,
		program       text NOT NULL,
		photo         text,
		registered_at timestamptz NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS appointments (
		id           integer GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
		student_id   integer NOT NULL REFERENCES students(id)
		             ON DELETE CASCADE DEFERRABLE INITIALLY IMMEDIATE,
		date         date NOT NULL,
		time         time NOT NULL,
		status       text NOT NULL DEFAULT 'scheduled',
		completed_at timestamptz,
		created_at   timestamptz NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_appointments_date_status ON appointments(date, status);
	CREATE INDEX IF NOT EXISTS idx_appointments_student     ON appointments(student_id);
	`
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// ListStudents returns all students ordered by ascending id.
func (r *Repository) ListStudents(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, gender, phone, program, photo, registered_at
		FROM students
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Gender, &s.Phone, &s.Program, &s.Photo, &s.RegisteredAt); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// GetStudent returns a single student by id.
func (r *Repository) GetStudent(ctx context.Context, id int) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, gender, phone, program, photo, registered_at
		FROM students WHERE id = $1
	`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Gender, &s.Phone, &s.Program, &s.Photo, &s.RegisteredAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrStudentNotFound
		}
		return Student{}, err
	}
	return s, nil
}

// InsertStudent writes a new student and returns its assigned id.
func (r *Repository) InsertStudent(ctx context.Context, s Student) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (first_name, last_name, gender, phone, program, photo, registered_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id
	`, s.FirstName, s.LastName, s.Gender, s.Phone, s.Program, s.Photo, s.RegisteredAt)
	var id int
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// DeleteStudent removes a student; the foreign key cascade removes their
// appointments in the same statement.
func (r *Repository) DeleteStudent(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// MergeStudents moves every appointment of dupID onto keeperID and deletes
// the duplicate, in one transaction.
func (r *Repository) MergeStudents(ctx context.Context, keeperID, dupID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE appointments SET student_id = $1 WHERE student_id = $2
	`, keeperID, dupID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, dupID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrStudentNotFound
	}
	return tx.Commit()
}

// Renumber applies a compaction plan in one transaction and resets the
// student id generator so the next insert receives nextID. Constraint checks
// are deferred to commit because appointments are repointed at their
// student's new id before the student row moves there.
func (r *Repository) Renumber(ctx context.Context, changes []IDChange, nextID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SET CONSTRAINTS ALL DEFERRED`); err != nil {
		return err
	}
	for _, ch := range changes {
		if _, err := tx.ExecContext(ctx, `
			UPDATE appointments SET student_id = $1 WHERE student_id = $2
		`, ch.New, ch.Old); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE students SET id = $1 WHERE id = $2
		`, ch.New, ch.Old); err != nil {
			return err
		}
	}

	if nextID <= 1 {
		// Empty table: park the generator before 1 without consuming it.
		_, err = tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('students','id'), 1, false)`)
	} else {
		_, err = tx.ExecContext(ctx,
			`SELECT setval(pg_get_serial_sequence('students','id'), $1, true)`, nextID-1)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

const appointmentColumns = `id, student_id, date, time, status, completed_at, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.StudentID, &a.Date, &a.Time, &a.Status, &a.CompletedAt, &a.CreatedAt)
	return a, err
}

// GetAppointment returns a single appointment by id.
func (r *Repository) GetAppointment(ctx context.Context, id int) (Appointment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Appointment{}, ErrAppointmentNotFound
	}
	return a, err
}

// InsertAppointment writes a new appointment and returns it with its id.
func (r *Repository) InsertAppointment(ctx context.Context, a Appointment) (Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO appointments (student_id, date, time, status, completed_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, a.StudentID, a.Date, a.Time, a.Status, a.CompletedAt, a.CreatedAt)
	if err := row.Scan(&a.ID); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// UpdateAppointment rewrites all mutable fields of an appointment.
func (r *Repository) UpdateAppointment(ctx context.Context, a Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET student_id = $2, date = $3, time = $4, status = $5, completed_at = $6
		WHERE id = $1
	`, a.ID, a.StudentID, a.Date, a.Time, a.Status, a.CompletedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// DeleteAppointment removes an appointment in any state.
func (r *Repository) DeleteAppointment(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ListAppointments returns every appointment, most recent date first.
func (r *Repository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments ORDER BY date DESC, time DESC, id DESC`)
}

// ListAppointmentsByDate returns a day's appointments ordered by time, with
// creation time then id as stable tiebreaks.
func (r *Repository) ListAppointmentsByDate(ctx context.Context, d Date) ([]Appointment, error) {
	return r.queryAppointments(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE date = $1 ORDER BY time, created_at, id`, d)
}

func (r *Repository) queryAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// CountScheduled counts scheduled appointments on a date. excludeID skips one
// appointment from the count; 0 matches nothing since ids start at 1.
func (r *Repository) CountScheduled(ctx context.Context, d Date, excludeID int) (int, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE date = $1 AND status = $2 AND id <> $3
	`, d, StatusScheduled, excludeID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count scheduled for %s: %w", d, err)
	}
	return count, nil
}
