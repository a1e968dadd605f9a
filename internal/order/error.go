package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrQuoteNotFound = errors.New("quote not found")
)
