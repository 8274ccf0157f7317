// Package wallet sends SOL on behalf of the customer during checkout.
package wallet

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable means no wallet could be found or opened.
	ErrUnavailable = errors.New("wallet unavailable")
	// ErrRejected means the wallet refused or failed to send the transfer.
	ErrRejected = errors.New("wallet rejected the transfer")
)

// Provider is a wallet the checkout can pay from.
type Provider interface {
	// Detect reports whether the wallet is present.
	Detect(ctx context.Context) bool
	// Connect opens the wallet and returns its address.
	Connect(ctx context.Context) (string, error)
	// SignAndSend transfers lamports to the base58 address to and returns
	// the transaction signature.
	SignAndSend(ctx context.Context, to string, lamports uint64) (string, error)
}
