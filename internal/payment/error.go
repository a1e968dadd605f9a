package payment

import "errors"

var (
	// -- Capability & input --
	ErrAuthorizationNotAvailable = errors.New("authorize action is not available")
	ErrInvalidPaymentContext     = errors.New("payment context is neither an order nor a quote payment")
	ErrMissingCheckoutSession    = errors.New("checkout session id is required")

	// -- Gateway exchange --
	ErrGatewayUnreachable       = errors.New("pagseguro gateway unreachable")
	ErrMalformedGatewayResponse = errors.New("pagseguro returned a malformed response")
	ErrAuthorizationRejected    = errors.New("pagseguro rejected the authorization")

	// -- Local record keeping --
	ErrHistoryPersistenceFailed = errors.New("failed to persist pagseguro transaction history")
)

const (
	msgNotAvailable   = "Authorize action is not available."
	msgNotProcessable = "Your payment could not be processed by PagSeguro."
)

// UserMessage returns the customer-facing text for an authorize failure.
// Error details stay in the logs.
func UserMessage(err error) string {
	if errors.Is(err, ErrAuthorizationNotAvailable) {
		return msgNotAvailable
	}
	return msgNotProcessable
}
