package postgres

import (
	"context"
	"database/sql"

	"care-coordination/internal/domain/prescriptions"
)

type PrescriptionsRepo struct {
	db *sql.DB
}

func NewPrescriptionsRepo(db *sql.DB) *PrescriptionsRepo {
	return &PrescriptionsRepo{db: db}
}

func (r *PrescriptionsRepo) Create(ctx context.Context, p prescriptions.Prescription) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO prescriptions (id, doctor_id, patient_id, type, content, diagnosis, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.DoctorID, p.PatientID, string(p.Type), p.Content, p.Diagnosis, p.Notes, p.CreatedAt)
	return err
}

func (r *PrescriptionsRepo) ListByDoctor(ctx context.Context, doctorID, patientID string) ([]prescriptions.Prescription, error) {
	query := `
		SELECT id, doctor_id, patient_id, type, content, diagnosis, notes, created_at
		FROM prescriptions
		WHERE doctor_id = $1`
	args := []any{doctorID}
	if patientID != "" {
		args = append(args, patientID)
		query += ` AND patient_id = $2`
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *PrescriptionsRepo) ListByPatient(ctx context.Context, patientID, doctorID string) ([]prescriptions.Prescription, error) {
	query := `
		SELECT id, doctor_id, patient_id, type, content, diagnosis, notes, created_at
		FROM prescriptions
		WHERE patient_id = $1`
	args := []any{patientID}
	if doctorID != "" {
		args = append(args, doctorID)
		query += ` AND doctor_id = $2`
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *PrescriptionsRepo) list(ctx context.Context, query string, args ...any) ([]prescriptions.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]prescriptions.Prescription, 0)
	for rows.Next() {
		var p prescriptions.Prescription
		var typ string
		if err := rows.Scan(&p.ID, &p.DoctorID, &p.PatientID, &typ, &p.Content, &p.Diagnosis, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Type = prescriptions.Type(typ)
		out = append(out, p)
	}
	return out, rows.Err()
}
