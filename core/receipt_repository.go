package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Receipt is a stored purchase record owned by a single user.
type Receipt struct {
	ID     string    `json:"id"`
	UserID string    `json:"user_id"`
	Store  string    `json:"store"`
	Total  float64   `json:"total"`
	Date   time.Time `json:"date"`
}

// ReceiptRepository defines persistence operations for receipts.
type ReceiptRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Receipt, error)
	Create(ctx context.Context, receipt *Receipt) error
}

// PgReceiptRepository implements ReceiptRepository using pgxpool.
type PgReceiptRepository struct {
	db *pgxpool.Pool
}

func NewPgReceiptRepository(db *pgxpool.Pool) *PgReceiptRepository {
	return &PgReceiptRepository{db: db}
}

func (r *PgReceiptRepository) ListByUser(ctx context.Context, userID string) ([]Receipt, error) {
	const q = `SELECT id, user_id, store, total, date FROM receipts WHERE user_id=$1 ORDER BY date DESC`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Receipt, 0)
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Store, &rec.Total, &rec.Date); err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *PgReceiptRepository) Create(ctx context.Context, receipt *Receipt) error {
	const q = `INSERT INTO receipts (id, user_id, store, total, date) VALUES ($1,$2,$3,$4,$5)`
	_, err := r.db.Exec(ctx, q, receipt.ID, receipt.UserID, receipt.Store, receipt.Total, receipt.Date)
	return err
}
