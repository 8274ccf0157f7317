// Package charge describes card charges made through an external processor.
package charge

import (
	"errors"
	"fmt"
)

var (
	// ErrDeclined matches every DeclineError.
	ErrDeclined = errors.New("card declined")
	// ErrUnavailable means the processor could not be reached or failed internally.
	ErrUnavailable = errors.New("payment processor unavailable")
	// ErrRejected means the processor refused the request itself, for example
	// an unknown payment method or a reused idempotency key. Repeating the
	// same request cannot succeed.
	ErrRejected = errors.New("payment request rejected")
)

// Status is the processor side state of a charge.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusProcessing     Status = "processing"
	StatusRequiresAction Status = "requires_action"
)

// Request is a single charge attempt for an order. IdempotencyKey must
// differ for every payment method tried on the same order.
type Request struct {
	OrderID         string
	OrderNumber     string
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	Email           string
	IdempotencyKey  string
}

// Charge is the processor's answer to a Request.
type Charge struct {
	ID     string
	Status Status
}

// DeclineError is returned when the issuer refused the card.
type DeclineError struct {
	Code    string
	Message string
}

func (e *DeclineError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("card declined: %s", e.Message)
	}

	return fmt.Sprintf("card declined (%s): %s", e.Code, e.Message)
}

func (e *DeclineError) Is(target error) bool {
	return target == ErrDeclined
}
