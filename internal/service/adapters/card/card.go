// Package card confirms card payments through a card processor.
package card

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/stripegw"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/charge"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

type gateway interface {
	Charge(ctx context.Context, req charge.Request) (charge.Charge, error)
}

type lifecycle interface {
	ConfirmPayment(
		ctx context.Context,
		identifier string,
		method payment.Method,
		proof string,
		amount decimal.Decimal,
	) (order.Order, error)
	MarkPaymentProcessing(ctx context.Context, identifier, proof, note string) (order.Order, error)
}

// Adapter charges the order total and records the payment intent as proof.
type Adapter struct {
	gateway gateway
	orders  lifecycle
	timeout time.Duration
}

type option func(*Adapter)

// WithGateway sets the card processor gateway.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGateway(g gateway) option {
	return func(a *Adapter) {
		a.gateway = g
	}
}

// WithTimeout bounds a single charge call.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeout(timeout time.Duration) option {
	return func(a *Adapter) {
		a.timeout = timeout
	}
}

// MustNewAdapter creates a card adapter. Without WithGateway it uses the
// Stripe gateway configured from the environment.
func MustNewAdapter(orders lifecycle, opts ...option) *Adapter {
	a := &Adapter{
		orders:  orders,
		timeout: time.Duration(viper.GetInt("payments.card.timeout_seconds")) * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.gateway == nil {
		a.gateway = stripegw.MustNewGateway()
	}
	if a.timeout <= 0 {
		a.timeout = 20 * time.Second
	}

	return a
}

func (a *Adapter) Method() payment.Method {
	return payment.MethodCard
}

// Confirm charges the card. An ambiguous outcome is never completed
// automatically: the payment is left for support to reconcile.
func (a *Adapter) Confirm(ctx context.Context, o order.Order, in adapters.Input) adapters.Result {
	ctx, span := otel.Tracer("adapters").Start(ctx, "CardAdapter.Confirm")
	defer span.End()

	if strings.TrimSpace(in.PaymentMethodID) == "" {
		return adapters.Failure(payment.ReasonInvalidInput, "A card payment method is required.")
	}

	chargeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ch, err := a.gateway.Charge(chargeCtx, charge.Request{
		OrderID:         o.ID.String(),
		OrderNumber:     o.Number,
		AmountCents:     o.Totals.Total.Shift(2).Round(0).IntPart(),
		Currency:        o.Payment.Currency.String(),
		PaymentMethodID: in.PaymentMethodID,
		Email:           o.Customer.Email,
		IdempotencyKey:  idempotencyKey(o, in.PaymentMethodID),
	})
	if err != nil {
		return a.chargeFailure(o, err)
	}

	switch ch.Status {
	case charge.StatusSucceeded:
		paid, err := a.orders.ConfirmPayment(ctx, o.ID.String(), payment.MethodCard, ch.ID, o.Totals.Total)
		if err != nil {
			slog.Error("Card charged but payment not recorded",
				"order_number", o.Number, "payment_intent", ch.ID, "error", err)
			res := adapters.FromLifecycleError(err)
			res.Proof = ch.ID

			return res
		}

		return adapters.Success(paid)
	case charge.StatusProcessing, charge.StatusRequiresAction:
		note := fmt.Sprintf("Card payment %s is %s", ch.ID, ch.Status)
		if _, err := a.orders.MarkPaymentProcessing(ctx, o.ID.String(), ch.ID, note); err != nil {
			slog.Error("Failed to mark card payment processing",
				"order_number", o.Number, "payment_intent", ch.ID, "error", err)
		}

		res := adapters.Failure(payment.ReasonUnconfirmed, fmt.Sprintf(
			"Your card payment is still being processed. Please contact support with order number %s.", o.Number))
		res.Proof = ch.ID
		res.PaymentStatus = payment.StatusProcessing

		return res
	default:
		return adapters.Failure(payment.ReasonDeclined, fmt.Sprintf("The card payment ended with status %q.", ch.Status))
	}
}

func (a *Adapter) chargeFailure(o order.Order, err error) adapters.Result {
	var decline *charge.DeclineError
	switch {
	case errors.As(err, &decline):
		slog.Info("Card declined", "order_number", o.Number, "code", decline.Code)

		msg := decline.Message
		if msg == "" {
			msg = "Your card was declined."
		}

		return adapters.Failure(payment.ReasonDeclined, msg)
	case errors.Is(err, charge.ErrRejected):
		slog.Warn("Card charge rejected", "order_number", o.Number, "error", err)

		return adapters.Failure(payment.ReasonInvalidInput,
			"The card payment could not be processed with these details. Check the card or use another one.")
	case errors.Is(err, context.DeadlineExceeded):
		slog.Warn("Card charge timed out", "order_number", o.Number)

		return adapters.Failure(payment.ReasonUnconfirmed, fmt.Sprintf(
			"We could not confirm the card payment in time. Your card may have been charged. "+
				"Please contact support with order number %s before retrying.", o.Number))
	default:
		slog.Error("Card processor unavailable", "order_number", o.Number, "error", err)

		return adapters.Failure(payment.ReasonProcessorUnavailable,
			"The card processor is temporarily unavailable. Please try again.")
	}
}

// idempotencyKey is stable for retries of one card on an order and changes
// when the customer tries another card.
func idempotencyKey(o order.Order, paymentMethodID string) string {
	return "order-" + o.ID.String() + "-" + strings.TrimSpace(paymentMethodID)
}
