// Package adapters holds what the card, chain and manual payment adapters
// share. Adapters report failures as Result values, never as errors.
package adapters

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
)

// Adapter confirms payments of one method.
type Adapter interface {
	Method() payment.Method
	Confirm(ctx context.Context, o order.Order, in Input) Result
}

// Input carries the method specific payment proof supplied by the customer.
type Input struct {
	PaymentMethodID string `json:"paymentMethodId,omitempty"`
	Signature       string `json:"signature,omitempty"`
	Reference       string `json:"reference,omitempty"`
}

// Result is the outcome of a payment attempt.
type Result struct {
	Success       bool                  `json:"success"`
	Proof         string                `json:"proof,omitempty"`
	Amount        decimal.Decimal       `json:"amount"`
	PaymentStatus payment.Status        `json:"paymentStatus,omitempty"`
	Reason        payment.FailureReason `json:"reason,omitempty"`
	Detail        string                `json:"message,omitempty"`
	Order         *order.Order          `json:"order,omitempty"`
}

// Success describes an order whose payment went through.
func Success(o order.Order) Result {
	return Result{
		Success:       true,
		Proof:         o.Payment.Proof,
		Amount:        o.Totals.Total,
		PaymentStatus: o.Payment.Status,
		Order:         &o,
	}
}

// Failure describes a rejected or unfinished attempt.
func Failure(reason payment.FailureReason, detail string) Result {
	return Result{
		Reason: reason,
		Detail: detail,
	}
}

// FromLifecycleError turns an order service error into a Result.
func FromLifecycleError(err error) Result {
	switch {
	case errors.Is(err, apperr.ErrConflict):
		return Failure(payment.ReasonConflict, apperr.PublicMessage(err))
	case errors.Is(err, apperr.ErrInvalidTransition):
		return Failure(payment.ReasonOrderClosed, apperr.PublicMessage(err))
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrNotFound):
		return Failure(payment.ReasonInvalidInput, apperr.PublicMessage(err))
	default:
		return Failure(payment.ReasonInternal, "The payment could not be recorded. Please contact support.")
	}
}
