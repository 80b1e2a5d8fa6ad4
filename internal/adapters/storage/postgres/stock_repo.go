package postgres

import (
	"context"
	"database/sql"
	"strings"

	"care-coordination/internal/domain/stock"
)

type StockRepo struct {
	db *sql.DB
}

func NewStockRepo(db *sql.DB) *StockRepo {
	return &StockRepo{db: db}
}

const stockColumns = `
	id, pharmacist_id, name, batch_number, expiry_date,
	quantity, price, manufacturer, category, low_stock_level,
	last_low_stock_alert, last_expiry_alert,
	created_at, updated_at
`

func (r *StockRepo) Create(ctx context.Context, item stock.Item) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_items (
			id, pharmacist_id, name, batch_number, expiry_date,
			quantity, price, manufacturer, category, low_stock_level,
			last_low_stock_alert, last_expiry_alert,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		item.ID, item.PharmacistID, item.Name, item.BatchNumber, item.ExpiryDate,
		item.Quantity, item.Price, item.Manufacturer, item.Category, item.LowStockLevel,
		toNullTime(item.LastLowStockAlert), toNullTime(item.LastExpiryAlert),
		item.CreatedAt, item.UpdatedAt,
	)
	return err
}

func (r *StockRepo) Update(ctx context.Context, item stock.Item) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE stock_items
		SET
			name = $2,
			batch_number = $3,
			expiry_date = $4,
			quantity = $5,
			price = $6,
			manufacturer = $7,
			category = $8,
			low_stock_level = $9,
			last_low_stock_alert = $10,
			last_expiry_alert = $11,
			updated_at = $12
		WHERE id = $1
	`,
		item.ID, item.Name, item.BatchNumber, item.ExpiryDate,
		item.Quantity, item.Price, item.Manufacturer, item.Category, item.LowStockLevel,
		toNullTime(item.LastLowStockAlert), toNullTime(item.LastExpiryAlert),
		item.UpdatedAt,
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

func (r *StockRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *StockRepo) GetByID(ctx context.Context, id string) (stock.Item, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return stock.Item{}, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+stockColumns+` FROM stock_items WHERE id = $1`, id)
	return scanStockItem(row)
}

func (r *StockRepo) ListByPharmacist(ctx context.Context, pharmacistID string) ([]stock.Item, error) {
	return r.list(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE pharmacist_id = $1
		ORDER BY name
	`, pharmacistID)
}

func (r *StockRepo) Search(ctx context.Context, pharmacistID, query string) ([]stock.Item, error) {
	pattern := "%" + query + "%"
	return r.list(ctx, `
		SELECT `+stockColumns+`
		FROM stock_items
		WHERE pharmacist_id = $1
		  AND (name ILIKE $2 OR manufacturer ILIKE $2 OR category ILIKE $2 OR batch_number ILIKE $2)
		ORDER BY name
	`, pharmacistID, pattern)
}

func (r *StockRepo) ListAll(ctx context.Context) ([]stock.Item, error) {
	return r.list(ctx, `SELECT `+stockColumns+` FROM stock_items ORDER BY name`)
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]stock.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]stock.Item, 0)
	for rows.Next() {
		item, err := scanStockItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanStockItem(row rowScanner) (stock.Item, error) {
	var item stock.Item
	var lowAlert, expAlert sql.NullTime

	err := row.Scan(
		&item.ID, &item.PharmacistID, &item.Name, &item.BatchNumber, &item.ExpiryDate,
		&item.Quantity, &item.Price, &item.Manufacturer, &item.Category, &item.LowStockLevel,
		&lowAlert, &expAlert,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return stock.Item{}, ErrNotFound
		}
		return stock.Item{}, err
	}

	if lowAlert.Valid {
		t := lowAlert.Time
		item.LastLowStockAlert = &t
	}
	if expAlert.Valid {
		t := expAlert.Time
		item.LastExpiryAlert = &t
	}
	return item, nil
}
