package postgres

import (
	"context"
	"database/sql"

	"care-coordination/internal/domain/ratings"
)

type RatingsRepo struct {
	db *sql.DB
}

func NewRatingsRepo(db *sql.DB) *RatingsRepo {
	return &RatingsRepo{db: db}
}

func (r *RatingsRepo) Create(ctx context.Context, rt ratings.Rating) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratings (
			id, target_user_id, rated_by_id, appointment_id,
			value, review, service_type, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		rt.ID, rt.TargetUserID, rt.RatedByID, rt.AppointmentID,
		rt.Value, rt.Review, string(rt.ServiceType), rt.CreatedAt, rt.UpdatedAt,
	)
	return err
}

func (r *RatingsRepo) Update(ctx context.Context, rt ratings.Rating) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ratings
		SET value = $2, review = $3, updated_at = $4
		WHERE id = $1
	`, rt.ID, rt.Value, rt.Review, rt.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RatingsRepo) Find(ctx context.Context, targetID, raterID, appointmentID string) (ratings.Rating, error) {
	query := `
		SELECT id, target_user_id, rated_by_id, appointment_id,
		       value, review, service_type, created_at, updated_at
		FROM ratings
		WHERE target_user_id = $1 AND rated_by_id = $2`
	args := []any{targetID, raterID}
	if appointmentID != "" {
		args = append(args, appointmentID)
		query += ` AND appointment_id = $3`
	}
	query += ` LIMIT 1`

	return scanRating(r.db.QueryRowContext(ctx, query, args...))
}

func (r *RatingsRepo) ListByTarget(ctx context.Context, targetID string, limit, offset int) ([]ratings.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, target_user_id, rated_by_id, appointment_id,
		       value, review, service_type, created_at, updated_at
		FROM ratings
		WHERE target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, targetID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ratings.Rating, 0)
	for rows.Next() {
		rt, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *RatingsRepo) Aggregate(ctx context.Context, targetID string) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(value), COUNT(*) FROM ratings WHERE target_user_id = $1
	`, targetID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}

func scanRating(row rowScanner) (ratings.Rating, error) {
	var rt ratings.Rating
	var serviceType string

	err := row.Scan(
		&rt.ID, &rt.TargetUserID, &rt.RatedByID, &rt.AppointmentID,
		&rt.Value, &rt.Review, &serviceType, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return ratings.Rating{}, ErrNotFound
		}
		return ratings.Rating{}, err
	}
	rt.ServiceType = ratings.ServiceType(serviceType)
	return rt, nil
}
