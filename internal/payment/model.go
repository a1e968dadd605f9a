package payment

import (
	"time"

	"pagseguro-checkout/internal/order"
)

// TransactionCodeLength is the length of every code PagSeguro issues.
const TransactionCodeLength = 32

// IsValidTransactionCode is the only check applied to gateway codes.
func IsValidTransactionCode(code string) bool {
	return len(code) == TransactionCodeLength
}

// Purchase is what the request builder serializes, taken from either a
// placed order or a quote.
type Purchase struct {
	OrderID     *uint
	IncrementID string
	order.Basket
}

// GatewayResponse is a validated reply from the checkout endpoint.
type GatewayResponse struct {
	TransactionCode string
	TransactionDate string
	Raw             []byte
}

// RawResponse is what the gateway client hands back before validation.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// Authorization is the updated payment handle returned by Authorize.
type Authorization struct {
	OrderID          *uint  `json:"order_id,omitempty"`
	OrderIncrementID string `json:"order_increment_id"`
	TransactionCode  string `json:"transaction_code"`
	TransactionDate  string `json:"transaction_date"`
	Amount           int64  `json:"amount"`
}

type HistoryRecord struct {
	ID               int64     `json:"id"`
	OrderID          *uint     `json:"order_id,omitempty"`
	OrderIncrementID string    `json:"order_increment_id"`
	TransactionCode  string    `json:"transaction_code"`
	TransactionDate  string    `json:"transaction_date"`
	CreatedAt        time.Time `json:"created_at"`
}
