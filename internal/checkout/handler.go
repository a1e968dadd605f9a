// Package checkout exposes payment authorization to the storefront over HTTP.
package checkout

import (
	"errors"
	"net/http"
	"time"

	"pagseguro-checkout/internal/auth"
	"pagseguro-checkout/internal/logger"
	"pagseguro-checkout/internal/middleware"
	"pagseguro-checkout/internal/order"
	"pagseguro-checkout/internal/payment"

	"github.com/go-chi/chi/v5"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const defaultSessionTTL = 2 * time.Hour

// Secrets holds the keys the API checks callers against.
type Secrets struct {
	// CheckoutToken signs the per-quote checkout sessions.
	CheckoutToken string
	// Admin is compared with the X-Service-Auth header on the storefront-only routes.
	Admin string
}

type API struct {
	payments   payment.Service
	orders     order.Repository
	limiter    *middleware.Limiter
	secrets    Secrets
	sessionTTL time.Duration
}

func NewAPI(payments payment.Service, orders order.Repository, limiter *middleware.Limiter, secrets Secrets) *API {
	return &API{
		payments:   payments,
		orders:     orders,
		limiter:    limiter,
		secrets:    secrets,
		sessionTTL: defaultSessionTTL,
	}
}

func (a *API) AppendRoutes(r chi.Router) {
	// Called by the storefront backend, never by the shopper's browser.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AdminOnly(a.secrets.Admin))

		r.Post("/checkout/session", a.startSession)
		r.Get("/orders/{incrementID}/pagseguro/history", a.history)
		r.Get("/metrics", a.metrics)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.CheckoutSession(a.secrets.CheckoutToken))
		r.Use(a.limiter.Middleware)

		r.Post("/checkout/authorize", a.authorize)
		r.Get("/checkout/redirect", a.redirect)
	})
}

type authorizeRequest struct {
	OrderIncrementID string `json:"order_increment_id"`
	QuoteID          uint   `json:"quote_id"`
	Amount           int64  `json:"amount"`
}

type startSessionRequest struct {
	QuoteID uint `json:"quote_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// startSession binds a new checkout session to one quote. Orders placed from
// that quote stay reachable through the same session.
func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuoteID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quote_id is required"})
		return
	}
	if _, err := a.orders.GetQuote(r.Context(), req.QuoteID); err != nil {
		a.writeLookupError(w, r, err)
		return
	}

	token, sessionID, err := auth.IssueCheckoutToken(a.secrets.CheckoutToken, req.QuoteID, a.sessionTTL)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to issue checkout token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CheckoutCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.sessionTTL),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	logger.FromCtx(r.Context()).Info("checkout session started",
		zap.String("checkout_session_id", sessionID),
		zap.Uint("quote_id", req.QuoteID),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (a *API) authorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "authorize"))

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if (req.OrderIncrementID == "") == (req.QuoteID == 0) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "exactly one of order_increment_id or quote_id is required"})
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "amount must be positive"})
		return
	}

	claims, ok := auth.CheckoutClaimsFrom(ctx)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: http.StatusText(http.StatusUnauthorized)})
		return
	}

	var pc payment.PaymentContext
	if req.OrderIncrementID != "" {
		o, err := a.orders.LoadByIncrementID(ctx, req.OrderIncrementID)
		if err != nil {
			a.writeLookupError(w, r, err)
			return
		}
		if o.QuoteID == nil || *o.QuoteID != claims.QuoteID {
			log.Warn("order outside checkout session", zap.String("order_increment_id", req.OrderIncrementID))
			a.writeLookupError(w, r, order.ErrOrderNotFound)
			return
		}
		pc = payment.OrderPayment{Order: o}
	} else {
		if req.QuoteID != claims.QuoteID {
			log.Warn("quote outside checkout session", zap.Uint("quote_id", req.QuoteID))
			a.writeLookupError(w, r, order.ErrQuoteNotFound)
			return
		}
		q, err := a.orders.GetQuote(ctx, req.QuoteID)
		if err != nil {
			a.writeLookupError(w, r, err)
			return
		}
		pc = payment.QuotePayment{Quote: q}
	}

	result, err := a.payments.Authorize(ctx, logger.SessionIDFrom(ctx), pc, req.Amount)
	if err != nil {
		status := authorizeStatus(err)
		log.Warn("authorize failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: payment.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *API) redirect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RedirectURL any `json:"redirect_url"`
	}

	url, ok := a.payments.OrderPlaceRedirectURL(r.Context(), logger.SessionIDFrom(r.Context()))
	if ok {
		body.RedirectURL = url
	} else {
		body.RedirectURL = false
	}

	writeJSON(w, http.StatusOK, body)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	incrementID := chi.URLParam(r, "incrementID")

	records, err := a.payments.History(r.Context(), incrementID)
	if err != nil {
		logger.FromCtx(r.Context()).Error("failed to list payment history",
			zap.String("order_increment_id", incrementID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (a *API) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.payments.Stats())
}

func (a *API) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, order.ErrOrderNotFound) || errors.Is(err, order.ErrQuoteNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	logger.FromCtx(r.Context()).Error("failed to load payment context", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: payment.UserMessage(err)})
}

func authorizeStatus(err error) int {
	switch {
	case errors.Is(err, payment.ErrAuthorizationNotAvailable):
		return http.StatusForbidden
	case errors.Is(err, payment.ErrInvalidPaymentContext),
		errors.Is(err, payment.ErrMissingCheckoutSession):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrGatewayUnreachable),
		errors.Is(err, payment.ErrMalformedGatewayResponse):
		return http.StatusBadGateway
	case errors.Is(err, payment.ErrAuthorizationRejected):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}
