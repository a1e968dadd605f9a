package payment

import (
	"context"
	"errors"
	"fmt"

	"pagseguro-checkout/internal/logger"
	"pagseguro-checkout/internal/order"

	"go.uber.org/zap"
)

// PaymentContext is either an OrderPayment or a QuotePayment.
type PaymentContext interface {
	paymentContext()
}

// OrderPayment is a payment attached to an already placed order.
type OrderPayment struct {
	Order *order.Order
}

// QuotePayment is a payment attached to a cart still being checked out.
type QuotePayment struct {
	Quote *order.Quote
}

func (OrderPayment) paymentContext() {}
func (QuotePayment) paymentContext() {}

// OrderStore is the slice of the order collaborator the resolver needs.
type OrderStore interface {
	LoadByIncrementID(ctx context.Context, incrementID string) (*order.Order, error)
	ReserveOrderID(ctx context.Context, quoteID uint) (string, error)
}

type OrderResolver struct {
	orders OrderStore
}

func NewOrderResolver(orders OrderStore) *OrderResolver {
	return &OrderResolver{orders: orders}
}

// ResolveOrderIncrementID returns the increment id of a placed order, or
// reserves one on the quote the first time it is asked for.
func (r *OrderResolver) ResolveOrderIncrementID(ctx context.Context, pc PaymentContext) (string, error) {
	switch p := pc.(type) {
	case OrderPayment:
		if p.Order == nil {
			return "", ErrInvalidPaymentContext
		}
		return p.Order.IncrementID, nil

	case QuotePayment:
		if p.Quote == nil {
			return "", ErrInvalidPaymentContext
		}
		if p.Quote.ReservedOrderID == "" {
			reserved, err := r.orders.ReserveOrderID(ctx, p.Quote.ID)
			if err != nil {
				return "", fmt.Errorf("reserve order id: %w", err)
			}
			p.Quote.ReservedOrderID = reserved

			logger.FromCtx(ctx).Info("order id reserved on quote",
				zap.Uint("quote_id", p.Quote.ID),
				zap.String("reserved_order_id", reserved),
			)
		}
		return p.Quote.ReservedOrderID, nil

	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidPaymentContext, pc)
	}
}

// ResolvePurchase resolves the increment id and picks the content to send to
// the gateway. A quote whose order is not persisted yet is sent as-is and has
// no order id.
func (r *OrderResolver) ResolvePurchase(ctx context.Context, pc PaymentContext) (*Purchase, error) {
	incrementID, err := r.ResolveOrderIncrementID(ctx, pc)
	if err != nil {
		return nil, err
	}

	if p, ok := pc.(OrderPayment); ok {
		return purchaseFromOrder(p.Order), nil
	}

	placed, err := r.orders.LoadByIncrementID(ctx, incrementID)
	switch {
	case err == nil:
		return purchaseFromOrder(placed), nil
	case errors.Is(err, order.ErrOrderNotFound):
		q := pc.(QuotePayment).Quote
		return &Purchase{IncrementID: incrementID, Basket: q.Basket}, nil
	default:
		return nil, err
	}
}

func purchaseFromOrder(o *order.Order) *Purchase {
	id := o.ID
	return &Purchase{OrderID: &id, IncrementID: o.IncrementID, Basket: o.Basket}
}
