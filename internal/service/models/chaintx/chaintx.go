// Package chaintx holds the ledger view of a chain transaction.
package chaintx

import "errors"

var (
	ErrNotFound         = errors.New("transaction not found")
	ErrInvalidSignature = errors.New("invalid transaction signature")
)

// Transaction is a confirmed or pending transfer as reported by the ledger.
// Balances are in lamports and indexed like AccountKeys.
type Transaction struct {
	Signature     string
	Slot          uint64
	Failed        bool
	AccountKeys   []string
	PreBalances   []uint64
	PostBalances  []uint64
	Confirmations uint64
}

// BalanceDelta returns how many lamports account gained in the transaction.
// ok is false when account does not take part in it.
func (t Transaction) BalanceDelta(account string) (delta int64, ok bool) {
	for i, key := range t.AccountKeys {
		if key != account {
			continue
		}
		if i >= len(t.PreBalances) || i >= len(t.PostBalances) {
			return 0, false
		}

		return int64(t.PostBalances[i]) - int64(t.PreBalances[i]), true
	}

	return 0, false
}
