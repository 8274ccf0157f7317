package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func pendingOrder(method payment.Method) Order {
	return Order{
		Number: "ORD-00000001-ABCD",
		Status: StatusPending,
		Payment: payment.Payment{
			Method: method,
			Status: payment.StatusPending,
		},
		Totals: Totals{Total: decimal.RequireFromString("213.37")},
	}
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	all := []Status{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	allowed := map[Status][]Status{
		StatusPending:    {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered, StatusCancelled},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestConfirmPaymentIsIdempotentForSameProof(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)

	changed, err := o.ConfirmPayment(payment.MethodCard, "pi_123", decimal.Zero, now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, payment.StatusCompleted, o.Payment.Status)
	assert.Equal(t, now, *o.Payment.ConfirmedAt)

	snapshot := o
	changed, err = o.ConfirmPayment(payment.MethodCard, "pi_123", decimal.Zero, now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, snapshot, o)

	_, err = o.ConfirmPayment(payment.MethodCard, "pi_456", decimal.Zero, now)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestConfirmPaymentRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(o *Order)
		method  payment.Method
		proof   string
		amount  string
		wantErr error
	}{
		{"empty proof", nil, payment.MethodCard, "  ", "0", apperr.ErrValidation},
		{"wrong method", nil, payment.MethodChain, "sig", "0", apperr.ErrValidation},
		{"amount differs from total", nil, payment.MethodCard, "pi_1", "200.00", apperr.ErrValidation},
		{"cancelled order", func(o *Order) { o.Status = StatusCancelled }, payment.MethodCard, "pi_1", "0", apperr.ErrInvalidTransition},
		{"refunded payment", func(o *Order) { o.Payment.Status = payment.StatusRefunded }, payment.MethodCard, "pi_1", "0", apperr.ErrInvalidTransition},
		{"processing with other proof", func(o *Order) {
			o.Payment.Status = payment.StatusProcessing
			o.Payment.Proof = "pi_other"
		}, payment.MethodCard, "pi_1", "0", apperr.ErrConflict},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := pendingOrder(payment.MethodCard)
			if tt.mutate != nil {
				tt.mutate(&o)
			}
			before := o

			changed, err := o.ConfirmPayment(tt.method, tt.proof, decimal.RequireFromString(tt.amount), now)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, changed)
			assert.Equal(t, before, o)
		})
	}
}

func TestConfirmPaymentAcceptsExactTotal(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodManual)
	o.Payment.Status = payment.StatusProcessing
	o.Payment.Proof = "REF-77"

	changed, err := o.ConfirmPayment(payment.MethodManual, "REF-77", decimal.RequireFromString("213.370"), now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusConfirmed, o.Status)
}

func TestConfirmPaymentKeepsLaterStatus(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)
	o.Status = StatusProcessing

	_, err := o.ConfirmPayment(payment.MethodCard, "pi_9", decimal.Zero, now)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
}

func TestFailPaymentIsTerminal(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)

	changed, err := o.FailPayment("card declined", now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, payment.StatusFailed, o.Payment.Status)

	changed, err = o.FailPayment("again", now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = o.ConfirmPayment(payment.MethodCard, "pi_1", decimal.Zero, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestFailPaymentAfterCompletion(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)
	_, err := o.ConfirmPayment(payment.MethodCard, "pi_1", decimal.Zero, now)
	require.NoError(t, err)

	_, err = o.FailPayment("late failure", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, payment.StatusCompleted, o.Payment.Status)
}

func TestMarkPaymentProcessing(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodManual)
	o.Notes = "leave at door"

	changed, err := o.MarkPaymentProcessing("REF-1", "e-Transfer received, awaiting manual verification", now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, payment.StatusProcessing, o.Payment.Status)
	assert.Equal(t, "leave at door\ne-Transfer received, awaiting manual verification", o.Notes)

	changed, err = o.MarkPaymentProcessing("REF-1", "dup", now)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = o.MarkPaymentProcessing("REF-2", "", now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "REF-2", o.Payment.Proof)

	o.Status = StatusCancelled
	_, err = o.MarkPaymentProcessing("REF-3", "", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRefundPayment(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)
	_, err := o.RefundPayment("not paid yet", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = o.ConfirmPayment(payment.MethodCard, "pi_1", decimal.Zero, now)
	require.NoError(t, err)

	changed, err := o.RefundPayment(" out of stock ", now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, payment.StatusRefunded, o.Payment.Status)
	assert.Equal(t, StatusCancelled, o.Status)
	assert.Equal(t, "Refunded: out of stock", o.Notes)

	changed, err = o.RefundPayment("again", now)
	require.NoError(t, err)
	assert.False(t, changed)

	delivered := pendingOrder(payment.MethodCard)
	delivered.Status = StatusDelivered
	delivered.Payment.Status = payment.StatusCompleted
	_, err = delivered.RefundPayment("", now)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	assert.Empty(t, delivered.Notes)
}

func TestTransitionTo(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)

	for _, s := range []Status{StatusConfirmed, StatusProcessing, StatusShipped} {
		changed, err := o.TransitionTo(s, "", now)
		require.NoError(t, err)
		assert.True(t, changed)
	}

	changed, err := o.TransitionTo(StatusShipped, "1Z999", now)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "1Z999", o.TrackingNumber)

	changed, err = o.TransitionTo(StatusShipped, "1Z999", now)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = o.TransitionTo(StatusPending, "", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = o.TransitionTo(StatusDelivered, "", now)
	require.NoError(t, err)

	for _, s := range []Status{StatusPending, StatusCancelled, StatusShipped} {
		_, err = o.TransitionTo(s, "", now)
		assert.ErrorIs(t, err, apperr.ErrInvalidTransition, s)
	}
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestTransitionSkippingStepsIsRejected(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)
	_, err := o.TransitionTo(StatusShipped, "", now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Equal(t, StatusPending, o.Status)
}

func TestApplyPatchLeavesMoneyAlone(t *testing.T) {
	t.Parallel()

	o := pendingOrder(payment.MethodCard)
	notes := "call before delivery"
	o.Apply(Patch{Notes: &notes, Customer: &Customer{FirstName: "Ada", LastName: "L", Email: "a@b.c", Phone: "1"}}, now)

	assert.Equal(t, notes, o.Notes)
	assert.Equal(t, "Ada L", o.Customer.FullName())
	assert.Equal(t, "213.37", o.Totals.Total.StringFixed(2))
	assert.Equal(t, StatusPending, o.Status)
}

func TestNewNumber(t *testing.T) {
	t.Parallel()

	a := NewNumber(now)
	b := NewNumber(now)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{4}$`), a)
	assert.Equal(t, a[:12], b[:12])
}
