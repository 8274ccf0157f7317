package ordersvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/event"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// GetOrder returns the order with its items. identifier is an order id or an order number.
func (s *OrderService) GetOrder(ctx context.Context, identifier string) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	work := s.newUOW()

	o, err := findOrder(ctx, work.OrderRepository(), identifier, false)
	if err != nil {
		return order.Order{}, err
	}

	if err := attachItems(ctx, work.OrderItemRepository(), []*order.Order{&o}); err != nil {
		return order.Order{}, err
	}

	return o, nil
}

// ConfirmPayment records a verified payment. Repeating it with the same proof
// returns the stored order unchanged. A zero amount stands for the order total.
func (s *OrderService) ConfirmPayment(
	ctx context.Context,
	identifier string,
	method payment.Method,
	proof string,
	amount decimal.Decimal,
) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ConfirmPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.method", method.String()))

	o, err := s.mutate(ctx, identifier, event.TypeOrderPaymentConfirmed,
		func(o *order.Order, now time.Time) (bool, error) {
			return o.ConfirmPayment(method, proof, amount, now)
		})
	if err != nil {
		return order.Order{}, err
	}

	slog.Info("Payment confirmed", "order_number", o.Number, "method", method)

	return o, nil
}

// FailPayment marks the payment failed and cancels the order.
func (s *OrderService) FailPayment(ctx context.Context, identifier, reason string) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.FailPayment")
	defer span.End()

	o, err := s.mutate(ctx, identifier, event.TypeOrderCancelled,
		func(o *order.Order, now time.Time) (bool, error) {
			return o.FailPayment(reason, now)
		})
	if err != nil {
		return order.Order{}, err
	}

	slog.Info("Payment failed", "order_number", o.Number, "reason", reason)

	return o, nil
}

// RefundPayment records that a completed payment was returned to the customer.
func (s *OrderService) RefundPayment(ctx context.Context, identifier, reason string) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.RefundPayment")
	defer span.End()

	o, err := s.mutate(ctx, identifier, event.TypeOrderPaymentRefunded,
		func(o *order.Order, now time.Time) (bool, error) {
			return o.RefundPayment(reason, now)
		})
	if err != nil {
		return order.Order{}, err
	}

	slog.Info("Payment refunded", "order_number", o.Number, "reason", reason)

	return o, nil
}

// MarkPaymentProcessing records proof for a payment that still awaits
// confirmation and appends note to the order notes.
func (s *OrderService) MarkPaymentProcessing(
	ctx context.Context,
	identifier, proof, note string,
) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.MarkPaymentProcessing")
	defer span.End()

	return s.mutate(ctx, identifier, "", func(o *order.Order, now time.Time) (bool, error) {
		return o.MarkPaymentProcessing(proof, note, now)
	})
}

// UpdateStatus moves the order one step forward or cancels it.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	identifier string,
	status order.Status,
	trackingNumber string,
) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("order.status", status.String()))

	evt := event.TypeOrderStatusChanged
	if status == order.StatusCancelled {
		evt = event.TypeOrderCancelled
	}

	o, err := s.mutate(ctx, identifier, evt, func(o *order.Order, now time.Time) (bool, error) {
		return o.TransitionTo(status, trackingNumber, now)
	})
	if err != nil {
		return order.Order{}, err
	}

	slog.Info("Order status updated", "order_number", o.Number, "status", o.Status)

	return o, nil
}
