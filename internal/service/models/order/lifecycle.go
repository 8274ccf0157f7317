package order

import (
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
)

// The methods below mutate the order in memory and report whether anything
// changed. A false result with a nil error is an idempotent repeat.

// ConfirmPayment marks the payment completed with proof and advances a pending order to confirmed.
// A zero amount means the order total.
func (o *Order) ConfirmPayment(method payment.Method, proof string, amount decimal.Decimal, at time.Time) (bool, error) {
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return false, apperr.Validation("payment.proof")
	}
	if method != o.Payment.Method {
		return false, apperr.Validation("payment.method")
	}
	if !amount.IsZero() && !amount.Equal(o.Totals.Total) {
		return false, apperr.Validation("payment.amount")
	}
	if o.Status == StatusCancelled {
		return false, apperr.InvalidTransition("order %s is cancelled and cannot be paid", o.Number)
	}

	switch o.Payment.Status {
	case payment.StatusCompleted:
		if o.Payment.Proof == proof {
			return false, nil
		}

		return false, apperr.Conflict("order %s is already paid with a different proof", o.Number)
	case payment.StatusRefunded:
		return false, apperr.InvalidTransition("payment of order %s was refunded", o.Number)
	}

	if o.Payment.Proof != "" && o.Payment.Proof != proof {
		return false, apperr.Conflict("order %s has a different payment proof on record", o.Number)
	}

	o.Payment.Status = payment.StatusCompleted
	o.Payment.Proof = proof
	o.Payment.FailureReason = ""
	o.Payment.ConfirmedAt = &at
	if o.Status == StatusPending {
		o.Status = StatusConfirmed
	}
	o.UpdatedAt = at

	return true, nil
}

// FailPayment marks the payment failed and cancels the order.
func (o *Order) FailPayment(reason string, at time.Time) (bool, error) {
	if o.Status == StatusCancelled && o.Payment.Status == payment.StatusFailed {
		return false, nil
	}
	if o.Payment.Status == payment.StatusCompleted {
		return false, apperr.InvalidTransition("payment of order %s is already completed", o.Number)
	}
	if o.Status.IsTerminal() {
		return false, apperr.InvalidTransition("order %s is %s", o.Number, o.Status)
	}

	o.Payment.Status = payment.StatusFailed
	o.Payment.FailureReason = strings.TrimSpace(reason)
	o.Status = StatusCancelled
	o.UpdatedAt = at

	return true, nil
}

// RefundPayment marks a completed payment refunded. An order that has not
// been delivered is cancelled with it. reason is appended to the notes.
func (o *Order) RefundPayment(reason string, at time.Time) (bool, error) {
	switch o.Payment.Status {
	case payment.StatusRefunded:
		return false, nil
	case payment.StatusCompleted:
	default:
		return false, apperr.InvalidTransition("payment of order %s is %s and cannot be refunded", o.Number, o.Payment.Status)
	}

	o.Payment.Status = payment.StatusRefunded
	if !o.Status.IsTerminal() {
		o.Status = StatusCancelled
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		o.AppendNote("Refunded: " + reason)
	}
	o.UpdatedAt = at

	return true, nil
}

// MarkPaymentProcessing records proof for a payment that awaits external confirmation.
// The order status is left as is and note is appended to the order notes.
func (o *Order) MarkPaymentProcessing(proof, note string, at time.Time) (bool, error) {
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return false, apperr.Validation("payment.proof")
	}
	if o.Status.IsTerminal() {
		return false, apperr.InvalidTransition("order %s is %s", o.Number, o.Status)
	}

	switch o.Payment.Status {
	case payment.StatusCompleted:
		if o.Payment.Proof == proof {
			return false, nil
		}

		return false, apperr.Conflict("order %s is already paid with a different proof", o.Number)
	case payment.StatusFailed, payment.StatusRefunded:
		return false, apperr.InvalidTransition("payment of order %s is %s", o.Number, o.Payment.Status)
	case payment.StatusProcessing:
		if o.Payment.Proof == proof {
			return false, nil
		}
	}

	o.Payment.Status = payment.StatusProcessing
	o.Payment.Proof = proof
	o.AppendNote(note)
	o.UpdatedAt = at

	return true, nil
}

// TransitionTo moves the order along its status machine.
// Repeating the current status only updates the tracking number.
func (o *Order) TransitionTo(status Status, trackingNumber string, at time.Time) (bool, error) {
	trackingNumber = strings.TrimSpace(trackingNumber)

	if status == o.Status {
		if trackingNumber == "" || trackingNumber == o.TrackingNumber {
			return false, nil
		}
		o.TrackingNumber = trackingNumber
		o.UpdatedAt = at

		return true, nil
	}

	if !o.Status.CanTransitionTo(status) {
		return false, apperr.InvalidTransition("order %s cannot move from %s to %s", o.Number, o.Status, status)
	}

	o.Status = status
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	o.UpdatedAt = at

	return true, nil
}

// Apply copies the non-nil fields of p onto the order.
func (o *Order) Apply(p Patch, at time.Time) {
	if p.Customer != nil {
		o.Customer = *p.Customer
	}
	if p.Shipping != nil {
		o.Shipping = *p.Shipping
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.TrackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*p.TrackingNumber)
	}
	o.UpdatedAt = at
}

// AppendNote adds a line to the order notes.
func (o *Order) AppendNote(note string) {
	note = strings.TrimSpace(note)
	if note == "" {
		return
	}
	if o.Notes == "" {
		o.Notes = note

		return
	}
	o.Notes += "\n" + note
}
