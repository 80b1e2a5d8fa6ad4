package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"care-coordination/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, data, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, n.ID, n.UserID, n.Title, n.Message, string(n.Type), data, n.Read, n.CreatedAt)
	return err
}

func (r *NotificationsRepo) ListByUser(ctx context.Context, userID string, filter notifications.ListFilter) ([]notifications.Notification, error) {
	query := `
		SELECT id, user_id, title, message, type, data, read, created_at
		FROM notifications
		WHERE user_id = $1`
	args := []any{userID}
	if filter.Read != nil {
		args = append(args, *filter.Read)
		query += ` AND read = $2`
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		if len(args) == 2 {
			query += ` LIMIT $2`
		} else {
			query += ` LIMIT $3`
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		var n notifications.Notification
		var typ string
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &typ, &data, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = notifications.Type(typ)
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT read
	`, userID).Scan(&count)
	return count, err
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE user_id = $1 AND NOT read
	`, userID)
	return err
}

func (r *NotificationsRepo) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationsRepo) DeleteAll(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	return err
}

func (r *NotificationsRepo) Prune(ctx context.Context, userID string, cutoff time.Time, keep int) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE user_id = $1 AND created_at < $2
	`, userID, cutoff)
	if err != nil {
		return err
	}
	if keep <= 0 {
		return nil
	}

	// se quedan las keep más nuevas
	_, err = r.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`, userID, keep)
	return err
}
