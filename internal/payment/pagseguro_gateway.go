package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pagseguro-checkout/internal/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	contentTypeLatin1XML = "application/xml; charset=ISO-8859-1"

	defaultGatewayTimeout = 30 * time.Second
	maxResponseBytes      = 1 << 20

	breakerTripAfter = 5
	breakerCooldown  = 30 * time.Second
)

type Gateway interface {
	// Submit posts the checkout document and returns the unvalidated reply.
	// Transport failures are reported as ErrGatewayUnreachable.
	Submit(ctx context.Context, doc *CheckoutDocument) (*RawResponse, error)
}

type pagseguroGateway struct {
	baseURL     string
	credentials CredentialProvider
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
}

// ----------------- Constructor -----------------

func NewPagSeguroGateway(baseURL string, credentials CredentialProvider, timeout time.Duration) Gateway {
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	return &pagseguroGateway{
		baseURL:     baseURL,
		credentials: credentials,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "pagseguro-checkout",
			Timeout: breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
			// cancelled callers are not gateway failures
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.L().Warn("PagSeguro circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

// ----------------- Submit -----------------

func (g *pagseguroGateway) Submit(ctx context.Context, doc *CheckoutDocument) (*RawResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("reference", doc.Reference))

	body, err := EncodeCheckoutDocument(doc)
	if err != nil {
		log.Error("Failed to encode checkout document", zap.Error(err))
		return nil, err
	}

	endpoint, err := g.endpoint()
	if err != nil {
		log.Error("Invalid PagSeguro API URL", zap.String("url", g.baseURL), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error("Failed creating request", zap.Error(g.redact(err)))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, g.redact(err))
	}
	req.Header.Set("Content-Type", contentTypeLatin1XML)

	log.Info("Sending checkout request to PagSeguro", zap.Int("items", len(doc.Items)))

	out, err := g.breaker.Execute(func() (interface{}, error) {
		resp, err := g.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read pagseguro response: %w", err)
		}
		return &RawResponse{StatusCode: resp.StatusCode, Body: b}, nil
	})
	if err != nil {
		err = g.redact(err)
		log.Error("PagSeguro request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnreachable, err)
	}

	raw := out.(*RawResponse)
	if raw.StatusCode < http.StatusOK || raw.StatusCode >= http.StatusMultipleChoices {
		log.Warn("PagSeguro returned non-success status",
			zap.Int("status", raw.StatusCode),
			zap.Int("body_bytes", len(raw.Body)),
		)
	}

	return raw, nil
}

// endpoint appends the merchant credentials to the configured URL. The
// checkout API only accepts them in the query string.
func (g *pagseguroGateway) endpoint() (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", g.baseURL)
	}

	q := u.Query()
	q.Set("email", g.credentials.MerchantEmail())
	q.Set("token", g.credentials.MerchantToken())
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// redact drops the request URL, and with it the token, from transport errors.
func (g *pagseguroGateway) redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s %s: %w", ue.Op, g.baseURL, ue.Err)
	}
	return err
}
