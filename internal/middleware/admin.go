package middleware

import (
	"crypto/subtle"
	"net/http"

	"pagseguro-checkout/internal/logger"

	"go.uber.org/zap"
)

const AdminHeader = "X-Service-Auth"

// AdminOnly admits server-to-server callers presenting the shared admin
// secret. With no secret configured every request is refused.
func AdminOnly(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get(AdminHeader)
			if secret == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
				logger.FromCtx(r.Context()).Warn("rejected admin request",
					zap.String("path", r.URL.Path),
					zap.Bool("header_present", given != ""),
				)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
