package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyColumns = []string{
	"id", "order_id", "order_increment_id", "transaction_code", "transaction_date", "created_at",
}

func TestHistoryRepository_CreateHistoryRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewHistoryRepository(db)
	createdAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		orderID := uint(7)
		rec := &HistoryRecord{
			OrderID:          &orderID,
			OrderIncrementID: "100000042",
			TransactionCode:  validCode,
			TransactionDate:  "2024-01-01",
		}

		mock.ExpectQuery(`INSERT INTO pagseguro_payment_history`).
			WithArgs(int64(7), "100000042", validCode, "2024-01-01").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), createdAt))

		err := repo.CreateHistoryRecord(context.Background(), rec)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), rec.ID)
		assert.Equal(t, createdAt, rec.CreatedAt)
	})

	t.Run("QuoteWithoutOrder", func(t *testing.T) {
		rec := &HistoryRecord{
			OrderIncrementID: "100000043",
			TransactionCode:  validCode,
			TransactionDate:  "2024-01-02",
		}

		mock.ExpectQuery(`INSERT INTO pagseguro_payment_history`).
			WithArgs(nil, "100000043", validCode, "2024-01-02").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(2), createdAt))

		err := repo.CreateHistoryRecord(context.Background(), rec)
		assert.NoError(t, err)
		assert.Equal(t, int64(2), rec.ID)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO pagseguro_payment_history`).
			WillReturnError(errors.New("database error"))

		err := repo.CreateHistoryRecord(context.Background(), &HistoryRecord{OrderIncrementID: "1"})
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepository_ListByOrderIncrementID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewHistoryRepository(db)
	createdAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(historyColumns).
			AddRow(int64(1), nil, "100000042", validCode, "2024-01-01", createdAt).
			AddRow(int64(2), int64(7), "100000042", validCode, "2024-01-02", createdAt.Add(time.Hour))

		mock.ExpectQuery(`SELECT (.+) FROM pagseguro_payment_history WHERE order_increment_id = \$1 ORDER BY created_at, id`).
			WithArgs("100000042").
			WillReturnRows(rows)

		records, err := repo.ListByOrderIncrementID(context.Background(), "100000042")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Nil(t, records[0].OrderID)
		require.NotNil(t, records[1].OrderID)
		assert.Equal(t, uint(7), *records[1].OrderID)
		assert.Equal(t, "2024-01-02", records[1].TransactionDate)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM pagseguro_payment_history`).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(historyColumns))

		records, err := repo.ListByOrderIncrementID(context.Background(), "nope")
		assert.NoError(t, err)
		assert.Empty(t, records)
		assert.NotNil(t, records)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM pagseguro_payment_history`).
			WillReturnError(errors.New("db error"))

		_, err := repo.ListByOrderIncrementID(context.Background(), "x")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
