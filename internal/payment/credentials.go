package payment

import "pagseguro-checkout/internal/logger"

type CredentialProvider interface {
	MerchantEmail() string
	MerchantToken() string
}

// StaticCredentials serves the account_email / account_token settings as-is.
// Empty values are not rejected here; the gateway refuses them.
type StaticCredentials struct {
	Email string
	Token string
}

func NewStaticCredentials(email, token string) StaticCredentials {
	if email == "" || token == "" {
		logger.L().Warn("PagSeguro account email or token is empty")
	}
	return StaticCredentials{Email: email, Token: token}
}

func (c StaticCredentials) MerchantEmail() string { return c.Email }
func (c StaticCredentials) MerchantToken() string { return c.Token }
