package updatepayment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type service interface {
	GetOrder(ctx context.Context, identifier string) (order.Order, error)
	ConfirmPayment(
		ctx context.Context,
		identifier string,
		method payment.Method,
		proof string,
		amount decimal.Decimal,
	) (order.Order, error)
	FailPayment(ctx context.Context, identifier, reason string) (order.Order, error)
	MarkPaymentProcessing(ctx context.Context, identifier, proof, note string) (order.Order, error)
	RefundPayment(ctx context.Context, identifier, reason string) (order.Order, error)
}

// updatePaymentRequest is an operator's reconciliation of a payment.
// Proof falls back to the proof already on record.
type updatePaymentRequest struct {
	Status string `json:"status"`
	Proof  string `json:"proof"`
	Reason string `json:"reason"`
	Note   string `json:"note"`
}

type updatePaymentResponse struct {
	response.Envelope
	Order order.Order `json:"order"`
}

// UpdatePayment lets an operator complete, fail, hold or refund a payment.
func UpdatePayment(w http.ResponseWriter, r *http.Request, service service) {
	req := updatePaymentRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for update payment", "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}

	id := chi.URLParam(r, "id")
	current, err := service.GetOrder(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	proof := req.Proof
	if proof == "" {
		proof = current.Payment.Proof
	}

	var o order.Order
	switch payment.Status(req.Status) {
	case payment.StatusCompleted:
		o, err = service.ConfirmPayment(r.Context(), id, current.Payment.Method, proof, decimal.Zero)
	case payment.StatusFailed:
		o, err = service.FailPayment(r.Context(), id, req.Reason)
	case payment.StatusProcessing:
		o, err = service.MarkPaymentProcessing(r.Context(), id, proof, req.Note)
	case payment.StatusRefunded:
		o, err = service.RefundPayment(r.Context(), id, req.Reason)
	default:
		response.JSON(w, http.StatusBadRequest, response.Envelope{
			Error:  "status must be completed, failed, processing or refunded",
			Fields: []string{"status"},
		})

		return
	}
	if err != nil {
		slog.Error("Error updating payment", "order_number", current.Number, "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, updatePaymentResponse{
		Envelope: response.OK("Payment updated"),
		Order:    o,
	})
}
