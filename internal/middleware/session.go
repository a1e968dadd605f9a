package middleware

import (
	"net/http"

	"pagseguro-checkout/internal/auth"
	"pagseguro-checkout/internal/logger"

	"go.uber.org/zap"
)

// CheckoutSession rejects requests without a valid checkout token and puts
// the token's claims into the request context.
func CheckoutSession(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractCheckoutToken(r)
			if tokenStr == "" {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseCheckoutToken(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected checkout token", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := logger.WithSessionID(r.Context(), claims.SessionID)
			ctx = auth.WithCheckoutClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
