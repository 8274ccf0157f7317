// Package paymentsvc routes payment attempts to the adapter of the order's method.
package paymentsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("paymentsvc")

type orderReader interface {
	GetOrder(ctx context.Context, identifier string) (order.Order, error)
}

type quoter interface {
	Quote(ctx context.Context, o order.Order) (chain.Quote, error)
}

// PaymentService resolves orders and hands them to payment adapters.
type PaymentService struct {
	orders   orderReader
	quoter   quoter
	adapters map[payment.Method]adapters.Adapter
}

type option func(*PaymentService)

// WithAdapter registers the adapter for its payment method.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAdapter(a adapters.Adapter) option {
	return func(s *PaymentService) {
		s.adapters[a.Method()] = a
	}
}

// WithQuoter sets the chain quoter.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithQuoter(q quoter) option {
	return func(s *PaymentService) {
		s.quoter = q
	}
}

func NewPaymentService(orders orderReader, opts ...option) *PaymentService {
	s := &PaymentService{
		orders:   orders,
		adapters: make(map[payment.Method]adapters.Adapter),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Pay runs a payment attempt with method for the order behind identifier.
// The returned error is set only when the order itself cannot be resolved.
// A completed payment is reported as success without contacting the adapter.
func (s *PaymentService) Pay(
	ctx context.Context,
	identifier string,
	method payment.Method,
	in adapters.Input,
) (adapters.Result, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Pay")
	defer span.End()
	span.SetAttributes(attribute.String("payment.method", method.String()))

	o, err := s.orders.GetOrder(ctx, identifier)
	if err != nil {
		return adapters.Result{}, err
	}
	span.SetAttributes(attribute.String("order.number", o.Number))

	if res, done := precheck(o, method, in); done {
		return res, nil
	}

	a, ok := s.adapters[method]
	if !ok {
		slog.Error("No adapter registered", "method", method)

		return adapters.Failure(payment.ReasonInternal, "This payment method is not available."), nil
	}

	res := a.Confirm(ctx, o, in)
	if !res.Success {
		slog.Info("Payment attempt failed",
			"order_number", o.Number, "method", method, "reason", res.Reason)
	}

	return res, nil
}

// precheck decides attempts that need no adapter. done is false when the
// attempt should proceed.
func precheck(o order.Order, method payment.Method, in adapters.Input) (res adapters.Result, done bool) {
	if o.Payment.Status == payment.StatusCompleted {
		if proof := suppliedProof(method, in); proof != "" && proof != o.Payment.Proof {
			return adapters.Failure(payment.ReasonConflict, fmt.Sprintf(
				"Order %s is already paid with a different payment. This one was not applied; "+
					"please contact support with the order number.", o.Number)), true
		}

		return adapters.Success(o), true
	}

	if o.Status == order.StatusCancelled ||
		o.Payment.Status == payment.StatusFailed ||
		o.Payment.Status == payment.StatusRefunded {
		return adapters.Failure(payment.ReasonOrderClosed,
			fmt.Sprintf("Order %s is %s and can no longer be paid.", o.Number, o.Status)), true
	}

	if method != o.Payment.Method {
		return adapters.Failure(payment.ReasonMethodMismatch,
			fmt.Sprintf("Order %s is set up for %s payment, not %s.", o.Number, o.Payment.Method, method)), true
	}

	return adapters.Result{}, false
}

// suppliedProof is the proof the customer sent with the attempt. A card
// attempt carries none: its payment intent id only exists after charging.
func suppliedProof(method payment.Method, in adapters.Input) string {
	switch method {
	case payment.MethodChain:
		return strings.TrimSpace(in.Signature)
	case payment.MethodManual:
		return strings.TrimSpace(in.Reference)
	default:
		return ""
	}
}

// Quote prices a chain payment for the order behind identifier.
func (s *PaymentService) Quote(ctx context.Context, identifier string) (chain.Quote, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Quote")
	defer span.End()

	if s.quoter == nil {
		return chain.Quote{}, apperr.Processor(nil, "chain payments are not available")
	}

	o, err := s.orders.GetOrder(ctx, identifier)
	if err != nil {
		return chain.Quote{}, err
	}

	if o.Payment.Method != payment.MethodChain {
		return chain.Quote{}, apperr.Validation("method")
	}
	if o.Payment.Status == payment.StatusCompleted || o.Status.IsTerminal() {
		return chain.Quote{}, apperr.InvalidTransition("order %s can no longer be paid", o.Number)
	}

	q, err := s.quoter.Quote(ctx, o)
	if err != nil {
		return chain.Quote{}, apperr.Processor(err, "the SOL price is temporarily unavailable")
	}

	return q, nil
}

// Status is the payment state of an order as shown to the customer.
type Status struct {
	OrderNumber string          `json:"orderNumber"`
	OrderStatus order.Status    `json:"orderStatus"`
	Payment     payment.Payment `json:"payment"`
}

// Status reports the payment state of the order behind identifier.
func (s *PaymentService) Status(ctx context.Context, identifier string) (Status, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.Status")
	defer span.End()

	o, err := s.orders.GetOrder(ctx, identifier)
	if err != nil {
		return Status{}, err
	}

	return Status{
		OrderNumber: o.Number,
		OrderStatus: o.Status,
		Payment:     o.Payment,
	}, nil
}
