package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"care-coordination/internal/domain/medicines"
)

type MedicinesRepo struct {
	db *sql.DB
}

func NewMedicinesRepo(db *sql.DB) *MedicinesRepo {
	return &MedicinesRepo{db: db}
}

func (r *MedicinesRepo) Create(ctx context.Context, m medicines.Medicine) error {
	doses, err := json.Marshal(m.Doses)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medicines (
			id, user_id, name, dosage,
			start_date, end_date, notes, active, doses,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID, m.UserID, m.Name, m.Dosage,
		toNullTime(m.StartDate), toNullTime(m.EndDate),
		m.Notes, m.Active, doses,
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *MedicinesRepo) Update(ctx context.Context, m medicines.Medicine) error {
	doses, err := json.Marshal(m.Doses)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medicines
		SET
			name = $2,
			dosage = $3,
			start_date = $4,
			end_date = $5,
			notes = $6,
			active = $7,
			doses = $8,
			updated_at = $9
		WHERE id = $1
	`,
		m.ID, m.Name, m.Dosage,
		toNullTime(m.StartDate), toNullTime(m.EndDate),
		m.Notes, m.Active, doses, m.UpdatedAt,
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

func (r *MedicinesRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medicines.Medicine{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, dosage,
		       start_date, end_date, notes, active, doses,
		       created_at, updated_at
		FROM medicines
		WHERE id = $1
	`, id)

	m, err := scanMedicine(row)
	if err != nil {
		return medicines.Medicine{}, err
	}
	if err := r.loadTaken(ctx, &m); err != nil {
		return medicines.Medicine{}, err
	}
	return m, nil
}

func (r *MedicinesRepo) ListActiveByUser(ctx context.Context, userID string) ([]medicines.Medicine, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, dosage,
		       start_date, end_date, notes, active, doses,
		       created_at, updated_at
		FROM medicines
		WHERE user_id = $1 AND active
		ORDER BY created_at
	`, userID)
}

func (r *MedicinesRepo) ListActiveAll(ctx context.Context, notEndedBefore time.Time) ([]medicines.Medicine, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, dosage,
		       start_date, end_date, notes, active, doses,
		       created_at, updated_at
		FROM medicines
		WHERE active AND (end_date IS NULL OR end_date >= $1)
		ORDER BY created_at
	`, notEndedBefore)
}

func (r *MedicinesRepo) AppendTaken(ctx context.Context, medicineID string, rec medicines.TakenRecord) error {
	// el PK (medicine_id, date, time) garantiza una marca por ocurrencia
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO medicine_taken (medicine_id, date, time, marked_at)
		VALUES ($1,$2,$3,$4)
	`, medicineID, rec.Date, rec.Time, rec.MarkedAt)
	return err
}

func (r *MedicinesRepo) RemoveTaken(ctx context.Context, medicineID, date, tod string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM medicine_taken
		WHERE medicine_id = $1 AND date = $2 AND time = $3
	`, medicineID, date, tod)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MedicinesRepo) list(ctx context.Context, query string, args ...any) ([]medicines.Medicine, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medicines.Medicine, 0)
	for rows.Next() {
		m, err := scanMedicine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadTaken(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *MedicinesRepo) loadTaken(ctx context.Context, m *medicines.Medicine) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, time, marked_at
		FROM medicine_taken
		WHERE medicine_id = $1
		ORDER BY date, time
	`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rec medicines.TakenRecord
		if err := rows.Scan(&rec.Date, &rec.Time, &rec.MarkedAt); err != nil {
			return err
		}
		m.Taken = append(m.Taken, rec)
	}
	return rows.Err()
}

func scanMedicine(row rowScanner) (medicines.Medicine, error) {
	var m medicines.Medicine
	var start, end sql.NullTime
	var doses []byte

	err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Dosage,
		&start, &end, &m.Notes, &m.Active, &doses,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return medicines.Medicine{}, ErrNotFound
		}
		return medicines.Medicine{}, err
	}

	if start.Valid {
		t := start.Time
		m.StartDate = &t
	}
	if end.Valid {
		t := end.Time
		m.EndDate = &t
	}
	if len(doses) > 0 {
		if err := json.Unmarshal(doses, &m.Doses); err != nil {
			return medicines.Medicine{}, err
		}
	}
	return m, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
