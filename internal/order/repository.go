package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pagseguro-checkout/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	LoadByIncrementID(ctx context.Context, incrementID string) (*Order, error)
	GetQuote(ctx context.Context, quoteID uint) (*Quote, error)
	// ReserveOrderID assigns the next order increment id to the quote unless
	// one is already reserved, and returns the quote's reserved id.
	ReserveOrderID(ctx context.Context, quoteID uint) (string, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// addressColumns scans the nullable shipping_* columns shared by orders and quotes.
type addressColumns struct {
	street, number, complement, district sql.NullString
	postalCode, city, state, country     sql.NullString
}

func (a *addressColumns) dest() []any {
	return []any{
		&a.street, &a.number, &a.complement, &a.district,
		&a.postalCode, &a.city, &a.state, &a.country,
	}
}

func (a *addressColumns) toAddress() *Address {
	if !a.street.Valid {
		return nil
	}
	return &Address{
		Street:     a.street.String,
		Number:     a.number.String,
		Complement: a.complement.String,
		District:   a.district.String,
		PostalCode: a.postalCode.String,
		City:       a.city.String,
		State:      a.state.String,
		Country:    a.country.String,
	}
}

func (r *repository) LoadByIncrementID(ctx context.Context, incrementID string) (*Order, error) {
	const q = `
		SELECT id, increment_id, quote_id,
			customer_name, customer_email, customer_area_code, customer_phone, customer_tax_number,
			shipping_street, shipping_number, shipping_complement, shipping_district,
			shipping_postal_code, shipping_city, shipping_state, shipping_country,
			shipping_amount, currency, grand_total, created_at
		FROM orders
		WHERE increment_id = $1
	`

	var (
		o       Order
		quoteID sql.NullInt64
		addr    addressColumns
	)

	dest := []any{
		&o.ID, &o.IncrementID, &quoteID,
		&o.Customer.Name, &o.Customer.Email, &o.Customer.AreaCode, &o.Customer.Phone, &o.Customer.TaxNumber,
	}
	dest = append(dest, addr.dest()...)
	dest = append(dest, &o.ShippingAmount, &o.Currency, &o.GrandTotal, &o.CreatedAt)

	err := r.db.QueryRowContext(ctx, q, incrementID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load order",
			zap.String("increment_id", incrementID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("load order %s: %w", incrementID, err)
	}

	if quoteID.Valid {
		id := uint(quoteID.Int64)
		o.QuoteID = &id
	}
	o.ShippingAddress = addr.toAddress()

	o.Items, err = r.fetchItems(ctx, `
		SELECT sku, name, quantity, unit_price, weight_grams
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("load order %s items: %w", incrementID, err)
	}

	return &o, nil
}

func (r *repository) GetQuote(ctx context.Context, quoteID uint) (*Quote, error) {
	const q = `
		SELECT id, reserved_order_id,
			customer_name, customer_email, customer_area_code, customer_phone, customer_tax_number,
			shipping_street, shipping_number, shipping_complement, shipping_district,
			shipping_postal_code, shipping_city, shipping_state, shipping_country,
			shipping_amount, currency, grand_total, updated_at
		FROM quotes
		WHERE id = $1
	`

	var (
		qt       Quote
		reserved sql.NullString
		addr     addressColumns
	)

	dest := []any{
		&qt.ID, &reserved,
		&qt.Customer.Name, &qt.Customer.Email, &qt.Customer.AreaCode, &qt.Customer.Phone, &qt.Customer.TaxNumber,
	}
	dest = append(dest, addr.dest()...)
	dest = append(dest, &qt.ShippingAmount, &qt.Currency, &qt.GrandTotal, &qt.UpdatedAt)

	err := r.db.QueryRowContext(ctx, q, quoteID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load quote", zap.Uint("quote_id", quoteID), zap.Error(err))
		return nil, fmt.Errorf("load quote %d: %w", quoteID, err)
	}

	qt.ReservedOrderID = reserved.String
	qt.ShippingAddress = addr.toAddress()

	qt.Items, err = r.fetchItems(ctx, `
		SELECT sku, name, quantity, unit_price, weight_grams
		FROM quote_items
		WHERE quote_id = $1
		ORDER BY id
	`, qt.ID)
	if err != nil {
		return nil, fmt.Errorf("load quote %d items: %w", quoteID, err)
	}

	return &qt, nil
}

func (r *repository) fetchItems(ctx context.Context, query string, ownerID uint) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.SKU, &it.Name, &it.Quantity, &it.UnitPrice, &it.WeightGrams); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *repository) ReserveOrderID(ctx context.Context, quoteID uint) (string, error) {
	// COALESCE does not evaluate nextval once an id is reserved, so repeated
	// calls never burn sequence values.
	const q = `
		UPDATE quotes
		SET reserved_order_id = COALESCE(
				reserved_order_id,
				'1' || lpad(nextval('order_increment_id_seq')::text, 8, '0')
			),
			updated_at = now()
		WHERE id = $1
		RETURNING reserved_order_id
	`

	var reserved string
	err := r.db.QueryRowContext(ctx, q, quoteID).Scan(&reserved)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrQuoteNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to reserve order id", zap.Uint("quote_id", quoteID), zap.Error(err))
		return "", fmt.Errorf("reserve order id for quote %d: %w", quoteID, err)
	}

	return reserved, nil
}
