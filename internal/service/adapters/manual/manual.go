// Package manual records e-Transfer references for an operator to reconcile.
package manual

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"go.opentelemetry.io/otel"
)

// Note is appended to the order notes when a reference is received.
const Note = "e-Transfer received, awaiting manual verification"

type lifecycle interface {
	MarkPaymentProcessing(ctx context.Context, identifier, proof, note string) (order.Order, error)
}

type Adapter struct {
	orders lifecycle
}

func NewAdapter(orders lifecycle) *Adapter {
	return &Adapter{orders: orders}
}

func (a *Adapter) Method() payment.Method {
	return payment.MethodManual
}

// Confirm stores the reference and leaves the payment processing.
// It never completes a payment.
func (a *Adapter) Confirm(ctx context.Context, o order.Order, in adapters.Input) adapters.Result {
	ctx, span := otel.Tracer("adapters").Start(ctx, "ManualAdapter.Confirm")
	defer span.End()

	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		return adapters.Failure(payment.ReasonInvalidInput, "A transfer reference is required.")
	}

	updated, err := a.orders.MarkPaymentProcessing(ctx, o.ID.String(), reference, Note)
	if err != nil {
		slog.Warn("Failed to record transfer reference", "order_number", o.Number, "error", err)

		return adapters.FromLifecycleError(err)
	}

	slog.Info("Transfer reference recorded", "order_number", updated.Number)

	res := adapters.Success(updated)
	res.PaymentStatus = updated.Payment.Status

	return res
}
