package payment

import (
	"errors"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/shopspring/decimal"
)

// Method is the way a customer pays for an order.
type Method string

const (
	MethodCard   Method = "card"
	MethodChain  Method = "solana"
	MethodManual Method = "etransfer"
)

var ErrInvalidMethod = errors.New("invalid payment method")

func (m Method) String() string {
	return string(m)
}

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodCard, MethodChain, MethodManual:
		return Method(s), nil
	default:
		return "", ErrInvalidMethod
	}
}

// Status is the state of a payment.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

var ErrInvalidStatus = errors.New("invalid payment status")

func (s Status) String() string {
	return string(s)
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusRefunded:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Payment is the payment part of an order.
// Proof holds the card payment intent id, the chain transaction signature
// or the manual reference code, depending on Method.
type Payment struct {
	Method        Method            `json:"method"`
	Status        Status            `json:"status"`
	Proof         string            `json:"proof,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      currency.Currency `json:"currency"`
	FailureReason string            `json:"failureReason,omitempty"`
	ConfirmedAt   *time.Time        `json:"confirmedAt,omitempty"`
}
