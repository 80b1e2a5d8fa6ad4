package postgres

import (
	"context"
	"database/sql"
	"strings"

	"care-coordination/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, date, time,
			symptoms, status, rejection_reason,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Time,
		a.Symptoms, string(a.Status), a.RejectionReason,
		a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET
			date = $2,
			time = $3,
			symptoms = $4,
			status = $5,
			rejection_reason = $6,
			updated_at = $7
		WHERE id = $1
	`,
		a.ID, a.Date, a.Time, a.Symptoms,
		string(a.Status), a.RejectionReason, a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return appointments.Appointment{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, patient_id, doctor_id, date, time,
		       symptoms, status, rejection_reason,
		       created_at, updated_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *AppointmentsRepo) ListByPatient(ctx context.Context, patientID string, status appointments.Status) ([]appointments.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date, time,
		       symptoms, status, rejection_reason,
		       created_at, updated_at
		FROM appointments
		WHERE patient_id = $1`
	args := []any{patientID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY date DESC, time DESC`
	return r.list(ctx, query, args...)
}

func (r *AppointmentsRepo) ListByDoctor(ctx context.Context, doctorID string, status appointments.Status, date string) ([]appointments.Appointment, error) {
	query := `
		SELECT id, patient_id, doctor_id, date, time,
		       symptoms, status, rejection_reason,
		       created_at, updated_at
		FROM appointments
		WHERE doctor_id = $1`
	args := []any{doctorID}
	if status != "" {
		args = append(args, string(status))
		query += ` AND status = $2`
	}
	if date != "" {
		args = append(args, date)
		if len(args) == 2 {
			query += ` AND date = $2`
		} else {
			query += ` AND date = $3`
		}
	}
	query += ` ORDER BY date, time`
	return r.list(ctx, query, args...)
}

func (r *AppointmentsRepo) BookedTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT time
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *AppointmentsRepo) StatsByDoctor(ctx context.Context, doctorID, today string) (appointments.Stats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE date = $2),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved')
		FROM appointments
		WHERE doctor_id = $1
	`, doctorID, today)

	var stats appointments.Stats
	if err := row.Scan(&stats.Total, &stats.Today, &stats.Pending, &stats.Approved); err != nil {
		return appointments.Stats{}, err
	}
	return stats, nil
}

func (r *AppointmentsRepo) list(ctx context.Context, query string, args ...any) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var status string

	err := row.Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Time,
		&a.Symptoms, &status, &a.RejectionReason,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return appointments.Appointment{}, ErrNotFound
		}
		return appointments.Appointment{}, err
	}
	a.Status = appointments.Status(status)
	return a, nil
}
