package payment

import (
	"context"
	"database/sql"
)

type HistoryRepository interface {
	CreateHistoryRecord(ctx context.Context, rec *HistoryRecord) error
	ListByOrderIncrementID(ctx context.Context, incrementID string) ([]*HistoryRecord, error)
}

type historyRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// CreateHistoryRecord appends one row and fills rec.ID and rec.CreatedAt.
func (r *historyRepository) CreateHistoryRecord(ctx context.Context, rec *HistoryRecord) error {
	const q = `
	INSERT INTO pagseguro_payment_history (
		order_id,
		order_increment_id,
		transaction_code,
		transaction_date
	)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at;
	`

	var orderID sql.NullInt64
	if rec.OrderID != nil {
		orderID = sql.NullInt64{Int64: int64(*rec.OrderID), Valid: true}
	}

	return r.db.QueryRowContext(
		ctx,
		q,
		orderID,
		rec.OrderIncrementID,
		rec.TransactionCode,
		rec.TransactionDate,
	).Scan(&rec.ID, &rec.CreatedAt)
}

func (r *historyRepository) ListByOrderIncrementID(ctx context.Context, incrementID string) ([]*HistoryRecord, error) {
	const q = `
	SELECT id, order_id, order_increment_id, transaction_code, transaction_date, created_at
	FROM pagseguro_payment_history
	WHERE order_increment_id = $1
	ORDER BY created_at, id;
	`

	rows, err := r.db.QueryContext(ctx, q, incrementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*HistoryRecord{}
	for rows.Next() {
		var (
			rec     HistoryRecord
			orderID sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID, &orderID, &rec.OrderIncrementID,
			&rec.TransactionCode, &rec.TransactionDate, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if orderID.Valid {
			id := uint(orderID.Int64)
			rec.OrderID = &id
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}
