// Package response writes the JSON envelope shared by all REST endpoints.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
)

// Envelope is the body of every response. Endpoints add their own members
// by embedding it.
type Envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
	Fields  []string              `json:"fields,omitempty"`
	Reason  payment.FailureReason `json:"reason,omitempty"`
}

// OK is a successful envelope with an optional message.
func OK(message string) Envelope {
	return Envelope{Success: true, Message: message}
}

// JSON writes body with status.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error sending response", "error", err)
	}
}

// Error writes err with the status of its kind. Internal errors are logged
// and hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
	}

	JSON(w, status, Envelope{
		Error:  apperr.PublicMessage(err),
		Fields: apperr.FieldsOf(err),
	})
}

// BadRequest writes a 400 with msg.
func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, Envelope{Error: msg})
}

// PaymentStatus maps a payment attempt outcome to a response status.
func PaymentStatus(res adapters.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.Reason == payment.ReasonTimeout:
		return http.StatusGatewayTimeout
	case res.Reason.Retryable():
		return http.StatusBadGateway
	case res.Reason == payment.ReasonUnconfirmed:
		return http.StatusAccepted
	case res.Reason == payment.ReasonConflict:
		return http.StatusConflict
	case res.Reason == payment.ReasonInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// PaymentBody is the response to a payment attempt.
type PaymentBody struct {
	Envelope
	Payment adapters.Result `json:"payment"`
}

// Payment writes the outcome of a payment attempt.
func Payment(w http.ResponseWriter, res adapters.Result) {
	body := PaymentBody{
		Envelope: Envelope{
			Success: res.Success,
			Reason:  res.Reason,
		},
		Payment: res,
	}
	if res.Success {
		body.Message = "Payment received"
	} else {
		body.Error = res.Detail
	}

	JSON(w, PaymentStatus(res), body)
}
