package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"care-coordination/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, full_name, email, phone, password_hash, role,
	fcm_token, device_tokens,
	specialization, clinic_name, clinic_address, availability,
	pharmacy_name, pharmacy_address,
	profile_complete, created_at, updated_at
`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	deviceTokens, err := json.Marshal(u.DeviceTokens)
	if err != nil {
		return err
	}
	availability, err := json.Marshal(u.Availability)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, full_name, email, phone, password_hash, role,
			fcm_token, device_tokens,
			specialization, clinic_name, clinic_address, availability,
			pharmacy_name, pharmacy_address,
			profile_complete, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		u.ID, u.FullName, u.Email, u.Phone, u.PasswordHash, string(u.Role),
		u.FCMToken, deviceTokens,
		u.Specialization, u.ClinicName, u.ClinicAddress, availability,
		u.PharmacyName, u.PharmacyAddress,
		u.ProfileComplete, u.CreatedAt, u.UpdatedAt,
	)
	return err
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	deviceTokens, err := json.Marshal(u.DeviceTokens)
	if err != nil {
		return err
	}
	availability, err := json.Marshal(u.Availability)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			full_name = $2,
			email = $3,
			phone = $4,
			password_hash = $5,
			role = $6,
			fcm_token = $7,
			device_tokens = $8,
			specialization = $9,
			clinic_name = $10,
			clinic_address = $11,
			availability = $12,
			pharmacy_name = $13,
			pharmacy_address = $14,
			profile_complete = $15,
			updated_at = $16
		WHERE id = $1
	`,
		u.ID, u.FullName, u.Email, u.Phone, u.PasswordHash, string(u.Role),
		u.FCMToken, deviceTokens,
		u.Specialization, u.ClinicName, u.ClinicAddress, availability,
		u.PharmacyName, u.PharmacyAddress,
		u.ProfileComplete, u.UpdatedAt,
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

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UsersRepo) ListByRole(ctx context.Context, role users.Role) ([]users.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = $1
		ORDER BY full_name
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (users.User, error) {
	var u users.User
	var role string
	var deviceTokens, availability []byte

	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &role,
		&u.FCMToken, &deviceTokens,
		&u.Specialization, &u.ClinicName, &u.ClinicAddress, &availability,
		&u.PharmacyName, &u.PharmacyAddress,
		&u.ProfileComplete, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return users.User{}, ErrNotFound
		}
		return users.User{}, err
	}

	u.Role = users.Role(role)
	if len(deviceTokens) > 0 {
		if err := json.Unmarshal(deviceTokens, &u.DeviceTokens); err != nil {
			return users.User{}, err
		}
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &u.Availability); err != nil {
			return users.User{}, err
		}
	}
	return u, nil
}
