package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"pagseguro-checkout/internal/logger"
	"pagseguro-checkout/internal/metrics"

	"go.uber.org/zap"
)

type Service interface {
	Authorize(
		ctx context.Context,
		sessionID string,
		pc PaymentContext,
		amount int64,
	) (*Authorization, error)
	// OrderPlaceRedirectURL returns where to send the customer after placing
	// the order. ok is false when there is nothing to redirect to yet.
	OrderPlaceRedirectURL(ctx context.Context, sessionID string) (redirectURL string, ok bool)
	History(ctx context.Context, incrementID string) ([]*HistoryRecord, error)
	Stats() map[string]uint64
}

// Settings are the payment method options read from the store configuration.
type Settings struct {
	AuthorizeEnabled bool
	OpenInOtherPage  bool
	RedirectURL      string
	SuccessURL       string
}

type Deps struct {
	Credentials CredentialProvider
	Orders      OrderStore
	Gateway     Gateway
	Pending     PendingStore
	History     HistoryRepository
	// Audit receives failed attempts with credentials and raw bodies.
	Audit *zap.Logger
}

type service struct {
	settings    Settings
	credentials CredentialProvider
	resolver    *OrderResolver
	gateway     Gateway
	pending     PendingStore
	history     HistoryRepository
	audit       *zap.Logger
	stats       *metrics.AuthorizeStats
}

func NewService(settings Settings, deps Deps) Service {
	audit := deps.Audit
	if audit == nil {
		audit = zap.NewNop()
	}

	return &service{
		settings:    settings,
		credentials: deps.Credentials,
		resolver:    NewOrderResolver(deps.Orders),
		gateway:     deps.Gateway,
		pending:     deps.Pending,
		history:     deps.History,
		audit:       audit,
		stats:       &metrics.AuthorizeStats{},
	}
}

func (s *service) Authorize(
	ctx context.Context,
	sessionID string,
	pc PaymentContext,
	amount int64,
) (*Authorization, error) {

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Authorize"),
		zap.Int64("amount", amount),
	)

	s.stats.Attempts.Inc()

	// 1. Capability gate
	if !s.settings.AuthorizeEnabled {
		s.stats.Unavailable.Inc()
		log.Warn("authorize called while disabled in configuration")
		return nil, ErrAuthorizationNotAvailable
	}

	if sessionID == "" {
		s.stats.OtherFailed.Inc()
		return nil, ErrMissingCheckoutSession
	}

	// 2. Resolve order and build the request
	purchase, err := s.resolver.ResolvePurchase(ctx, pc)
	if err != nil {
		s.stats.OtherFailed.Inc()
		log.Error("failed to resolve order for payment", zap.Error(err))
		return nil, err
	}

	log = log.With(zap.String("order_increment_id", purchase.IncrementID))

	doc := BuildCheckoutDocument(purchase, amount)

	// 3. Submit
	timer := metrics.StartTimer()
	raw, err := s.gateway.Submit(ctx, doc)
	s.stats.ObserveGateway(timer.Duration())
	if err != nil {
		if errors.Is(err, ErrGatewayUnreachable) {
			s.stats.Unreachable.Inc()
		} else {
			s.stats.OtherFailed.Inc()
		}
		log.Error("checkout request to PagSeguro failed", zap.Error(err))
		return nil, err
	}

	// 4. Validate
	resp, err := ParseGatewayResponse(raw.Body)
	if err != nil {
		if errors.Is(err, ErrMalformedGatewayResponse) {
			s.stats.Malformed.Inc()
			s.audit.Warn("authorization attempt got a non-XML result",
				zap.String("email", s.credentials.MerchantEmail()),
				zap.String("token", s.credentials.MerchantToken()),
				zap.String("order_increment_id", purchase.IncrementID),
				zap.Int("status", raw.StatusCode),
				zap.ByteString("body", raw.Body),
			)
		} else {
			s.stats.Rejected.Inc()
		}
		log.Error("PagSeguro did not authorize the payment",
			zap.Int("status", raw.StatusCode),
			zap.Error(err),
		)
		return nil, err
	}

	log = log.With(zap.String("transaction_code", resp.TransactionCode))

	// 5. Register pending code for this session only
	if err := s.pending.Put(ctx, sessionID, resp.TransactionCode); err != nil {
		log.Error("failed to register pending transaction code; redirect will be skipped", zap.Error(err))
	}

	// 6. Persist history
	rec := &HistoryRecord{
		OrderID:          purchase.OrderID,
		OrderIncrementID: purchase.IncrementID,
		TransactionCode:  resp.TransactionCode,
		TransactionDate:  resp.TransactionDate,
	}
	if err := s.history.CreateHistoryRecord(ctx, rec); err != nil {
		s.stats.HistoryFailed.Inc()
		log.Error("payment authorized at PagSeguro but history record was not saved",
			zap.String("transaction_date", resp.TransactionDate),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrHistoryPersistenceFailed, err)
	}

	s.stats.Authorized.Inc()
	log.Info("payment authorized", zap.Int64("history_id", rec.ID))

	return &Authorization{
		OrderID:          purchase.OrderID,
		OrderIncrementID: purchase.IncrementID,
		TransactionCode:  resp.TransactionCode,
		TransactionDate:  resp.TransactionDate,
		Amount:           amount,
	}, nil
}

func (s *service) OrderPlaceRedirectURL(ctx context.Context, sessionID string) (string, bool) {
	if s.settings.OpenInOtherPage {
		return s.settings.SuccessURL, true
	}

	code, ok, err := s.pending.Take(ctx, sessionID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to read pending transaction code", zap.Error(err))
		return "", false
	}
	if !ok || !IsValidTransactionCode(code) {
		return "", false
	}

	return fmt.Sprintf("%s?code=%s", s.settings.RedirectURL, url.QueryEscape(code)), true
}

func (s *service) History(ctx context.Context, incrementID string) ([]*HistoryRecord, error) {
	return s.history.ListByOrderIncrementID(ctx, incrementID)
}

func (s *service) Stats() map[string]uint64 {
	return s.stats.Snapshot()
}
