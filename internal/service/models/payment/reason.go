package payment

// FailureReason explains why a payment attempt did not complete.
type FailureReason string

const (
	ReasonDeclined             FailureReason = "declined"
	ReasonProcessorUnavailable FailureReason = "processor_unavailable"
	ReasonRPCUnavailable       FailureReason = "rpc_unavailable"
	ReasonNotFound             FailureReason = "not_found"
	ReasonWrongRecipient       FailureReason = "wrong_recipient"
	ReasonAmountMismatch       FailureReason = "amount_mismatch"
	ReasonUnconfirmed          FailureReason = "unconfirmed"
	ReasonTransactionFailed    FailureReason = "transaction_failed"
	ReasonTimeout              FailureReason = "timeout"
	ReasonInvalidInput         FailureReason = "invalid_input"
	ReasonMethodMismatch       FailureReason = "method_mismatch"
	ReasonOrderClosed          FailureReason = "order_closed"
	ReasonConflict             FailureReason = "conflict"
	ReasonWalletUnavailable    FailureReason = "wallet_unavailable"
	ReasonWalletRejected       FailureReason = "wallet_rejected"
	ReasonInternal             FailureReason = "internal"
)

// Retryable reports whether the caller may repeat the attempt with backoff.
// Definitive rejections are never retryable.
func (r FailureReason) Retryable() bool {
	switch r {
	case ReasonProcessorUnavailable, ReasonRPCUnavailable, ReasonTimeout:
		return true
	default:
		return false
	}
}
