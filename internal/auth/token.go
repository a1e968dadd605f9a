package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const CheckoutCookieName = "checkout_token"

var (
	ErrSecretNotSet = errors.New("checkout token secret is not set")
	ErrInvalidToken = errors.New("invalid checkout token")
)

// CheckoutClaims identify one storefront checkout session and the quote it
// was opened for.
type CheckoutClaims struct {
	SessionID string `json:"sid"`
	QuoteID   uint   `json:"qid"`
	jwt.RegisteredClaims
}

type ctxKey string

const claimsKey ctxKey = "checkoutClaims"

func WithCheckoutClaims(ctx context.Context, claims *CheckoutClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func CheckoutClaimsFrom(ctx context.Context) (*CheckoutClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*CheckoutClaims)
	return c, ok && c != nil
}

func ExtractCheckoutToken(r *http.Request) string {
	// 1️⃣ Cookie (preferred)
	if cookie, err := r.Cookie(CheckoutCookieName); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	// 2️⃣ Authorization header (fallback)
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// IssueCheckoutToken starts a new checkout session for quoteID and returns
// its signed token together with the session id.
func IssueCheckoutToken(secret string, quoteID uint, ttl time.Duration) (string, string, error) {
	if secret == "" {
		return "", "", ErrSecretNotSet
	}
	if quoteID == 0 {
		return "", "", errors.New("checkout token needs a quote id")
	}

	sessionID := uuid.NewString()
	now := time.Now()
	claims := CheckoutClaims{
		SessionID: sessionID,
		QuoteID:   quoteID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

func ParseCheckoutToken(secret, tokenStr string) (*CheckoutClaims, error) {
	if secret == "" {
		return nil, ErrSecretNotSet
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&CheckoutClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		},
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CheckoutClaims)
	if !ok || !token.Valid || claims.SessionID == "" || claims.QuoteID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
