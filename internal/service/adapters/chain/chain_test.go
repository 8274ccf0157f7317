package chain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/chaintx"
	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shop  = "HN7cABqLq46Es1jh92dQQisAq662SmxELLLsHHe4YWrH"
	payer = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	sig   = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
)

type ledgerFunc func(ctx context.Context, signature string) (chaintx.Transaction, error)

func (f ledgerFunc) GetTransaction(ctx context.Context, signature string) (chaintx.Transaction, error) {
	return f(ctx, signature)
}

type fixedOracle struct {
	price decimal.Decimal
	err   error
}

func (o fixedOracle) Price(context.Context, string, string) (decimal.Decimal, error) {
	return o.price, o.err
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)

	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.values[key], nil
}

func (m *memStore) GenerateKey(operation, key string) string {
	return "storefront:" + operation + ":" + key
}

type fakeLifecycle struct {
	proofs map[string]string
	calls  int
}

func (f *fakeLifecycle) ConfirmPayment(
	_ context.Context,
	identifier string,
	_ payment.Method,
	proof string,
	_ decimal.Decimal,
) (order.Order, error) {
	f.calls++
	for id, p := range f.proofs {
		if p == proof && id != identifier {
			return order.Order{}, apperr.Conflict("proof already used")
		}
	}
	f.proofs[identifier] = proof

	o := testOrder()
	o.Status = order.StatusConfirmed
	o.Payment.Status = payment.StatusCompleted
	o.Payment.Proof = proof

	return o, nil
}

func testOrder() order.Order {
	return order.Order{
		ID:     uuid.MustParse("0d7b2f52-5bd4-4b8e-9a0a-6f4c2e1d3b5a"),
		Number: "ORD-87654321-BEEF",
		Status: order.StatusPending,
		Payment: payment.Payment{
			Method:   payment.MethodChain,
			Status:   payment.StatusPending,
			Currency: currency.CurrencyUSD,
		},
		Totals: order.Totals{Total: decimal.RequireFromString("200.00")},
	}
}

// transfer builds a transaction moving lamports from payer to to.
func transfer(to string, lamports uint64) chaintx.Transaction {
	return chaintx.Transaction{
		Signature:     sig,
		AccountKeys:   []string{payer, to, "11111111111111111111111111111111"},
		PreBalances:   []uint64{10 * LamportsPerSOL, 50_000, 1},
		PostBalances:  []uint64{10*LamportsPerSOL - lamports - 5_000, 50_000 + lamports, 1},
		Confirmations: 3,
	}
}

type fixture struct {
	adapter *Adapter
	store   *memStore
	orders  *fakeLifecycle
}

// newFixture prices SOL at 100 USD so a 200.00 order costs exactly 2 SOL.
func newFixture(l ledger, opts ...option) fixture {
	store := &memStore{values: map[string]string{}}
	orders := &fakeLifecycle{proofs: map[string]string{}}
	opts = append([]option{
		WithRecipient(shop),
		WithTolerance(500_000),
		WithMinConfirmations(1),
		WithVerifyTimeout(time.Second),
	}, opts...)

	return fixture{
		adapter: MustNewAdapter(l, fixedOracle{price: decimal.NewFromInt(100)}, store, orders, opts...),
		store:   store,
		orders:  orders,
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(nil)

	q, err := f.adapter.Quote(context.Background(), testOrder())
	require.NoError(t, err)
	assert.Equal(t, uint64(2*LamportsPerSOL), q.Lamports)
	assert.Equal(t, "2", q.SOL.String())
	assert.Equal(t, shop, q.Recipient)
	assert.Contains(t, f.store.values, "storefront:quote:0d7b2f52-5bd4-4b8e-9a0a-6f4c2e1d3b5a")
}

func TestConfirmUsesStoredQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(ledgerFunc(func(context.Context, string) (chaintx.Transaction, error) {
		return transfer(shop, 2*LamportsPerSOL), nil
	}))
	_, err := f.adapter.Quote(context.Background(), testOrder())
	require.NoError(t, err)

	// A later price move must not change what the customer owes.
	f.adapter.oracle = fixedOracle{price: decimal.NewFromInt(50)}

	res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: sig})
	require.True(t, res.Success, res.Detail)
	assert.Equal(t, sig, res.Proof)
	assert.Equal(t, payment.StatusCompleted, res.PaymentStatus)
}

func TestConfirmRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		tx         chaintx.Transaction
		err        error
		signature  string
		wantReason payment.FailureReason
	}{
		{"missing signature", chaintx.Transaction{}, nil, " ", payment.ReasonInvalidInput},
		{"malformed signature", chaintx.Transaction{}, chaintx.ErrInvalidSignature, "abc", payment.ReasonInvalidInput},
		{"not found", chaintx.Transaction{}, chaintx.ErrNotFound, sig, payment.ReasonNotFound},
		{"rpc down", chaintx.Transaction{}, errors.New("503 service unavailable"), sig, payment.ReasonRPCUnavailable},
		{"failed on chain", func() chaintx.Transaction {
			tx := transfer(shop, 2*LamportsPerSOL)
			tx.Failed = true

			return tx
		}(), nil, sig, payment.ReasonTransactionFailed},
		{"wrong recipient", transfer(payer+"x", 2*LamportsPerSOL), nil, sig, payment.ReasonWrongRecipient},
		{"short by 0.001 SOL", transfer(shop, 2*LamportsPerSOL-1_000_000), nil, sig, payment.ReasonAmountMismatch},
		{"over by 0.001 SOL", transfer(shop, 2*LamportsPerSOL+1_000_000), nil, sig, payment.ReasonAmountMismatch},
		{"unconfirmed", func() chaintx.Transaction {
			tx := transfer(shop, 2*LamportsPerSOL)
			tx.Confirmations = 0

			return tx
		}(), nil, sig, payment.ReasonUnconfirmed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(ledgerFunc(func(context.Context, string) (chaintx.Transaction, error) {
				return tt.tx, tt.err
			}))

			res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: tt.signature})
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.NotEmpty(t, res.Detail)
			assert.Zero(t, f.orders.calls)
		})
	}
}

func TestConfirmWithinTolerance(t *testing.T) {
	t.Parallel()

	f := newFixture(ledgerFunc(func(context.Context, string) (chaintx.Transaction, error) {
		return transfer(shop, 2*LamportsPerSOL-400_000), nil
	}))

	res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: sig})
	assert.True(t, res.Success, res.Detail)
}

func TestConfirmTimeout(t *testing.T) {
	t.Parallel()

	f := newFixture(ledgerFunc(func(ctx context.Context, _ string) (chaintx.Transaction, error) {
		<-ctx.Done()

		return chaintx.Transaction{}, ctx.Err()
	}), WithVerifyTimeout(20*time.Millisecond))

	res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: sig})
	assert.Equal(t, payment.ReasonTimeout, res.Reason)
	assert.True(t, res.Reason.Retryable())
}

func TestConfirmRejectsReusedSignature(t *testing.T) {
	t.Parallel()

	f := newFixture(ledgerFunc(func(context.Context, string) (chaintx.Transaction, error) {
		return transfer(shop, 2*LamportsPerSOL), nil
	}))
	f.orders.proofs["another-order"] = sig

	res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: sig})
	assert.False(t, res.Success)
	assert.Equal(t, payment.ReasonConflict, res.Reason)
}

func TestConfirmPriceUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(ledgerFunc(func(context.Context, string) (chaintx.Transaction, error) {
		return transfer(shop, 2*LamportsPerSOL), nil
	}))
	f.adapter.oracle = fixedOracle{err: errors.New("429 too many requests")}

	res := f.adapter.Confirm(context.Background(), testOrder(), adapters.Input{Signature: sig})
	assert.Equal(t, payment.ReasonRPCUnavailable, res.Reason)
}
