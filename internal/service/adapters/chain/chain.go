// Package chain confirms payments made as native SOL transfers to the
// business address.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/chaintx"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

const coinID = "solana"

type ledger interface {
	GetTransaction(ctx context.Context, signature string) (chaintx.Transaction, error)
}

type oracle interface {
	Price(ctx context.Context, coin, vs string) (decimal.Decimal, error)
}

type quoteStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}

type lifecycle interface {
	ConfirmPayment(
		ctx context.Context,
		identifier string,
		method payment.Method,
		proof string,
		amount decimal.Decimal,
	) (order.Order, error)
}

// Quote is the amount of SOL a customer is asked to send for an order.
type Quote struct {
	OrderNumber string          `json:"orderNumber"`
	Recipient   string          `json:"recipient"`
	Lamports    uint64          `json:"lamports"`
	SOL         decimal.Decimal `json:"sol"`
	Price       decimal.Decimal `json:"price"`
	Fiat        decimal.Decimal `json:"fiat"`
	Currency    string          `json:"currency"`
	ExpiresAt   time.Time       `json:"expiresAt"`
}

// Adapter verifies transfers on the ledger.
type Adapter struct {
	ledger ledger
	oracle oracle
	quotes quoteStore
	orders lifecycle

	recipient        string
	tolerance        uint64
	minConfirmations uint64
	verifyTimeout    time.Duration
	quoteTTL         time.Duration

	now func() time.Time
}

type option func(*Adapter)

// WithRecipient sets the business address payments must reach.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRecipient(address string) option {
	return func(a *Adapter) {
		a.recipient = address
	}
}

// WithTolerance sets the accepted difference between quoted and received lamports.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTolerance(lamports uint64) option {
	return func(a *Adapter) {
		a.tolerance = lamports
	}
}

// WithMinConfirmations sets how many confirmations a transfer needs.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMinConfirmations(n uint64) option {
	return func(a *Adapter) {
		a.minConfirmations = n
	}
}

// WithVerifyTimeout bounds a whole verification.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithVerifyTimeout(timeout time.Duration) option {
	return func(a *Adapter) {
		a.verifyTimeout = timeout
	}
}

// MustNewAdapter creates a chain adapter configured from payments.chain.*.
func MustNewAdapter(l ledger, o oracle, quotes quoteStore, orders lifecycle, opts ...option) *Adapter {
	a := &Adapter{
		ledger:           l,
		oracle:           o,
		quotes:           quotes,
		orders:           orders,
		recipient:        viper.GetString("payments.chain.business_address"),
		tolerance:        viper.GetUint64("payments.chain.tolerance_lamports"),
		minConfirmations: viper.GetUint64("payments.chain.min_confirmations"),
		verifyTimeout:    time.Duration(viper.GetInt("payments.chain.verify_timeout_seconds")) * time.Second,
		quoteTTL:         time.Duration(viper.GetInt("payments.chain.quote_ttl_minutes")) * time.Minute,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.recipient == "" {
		panic("chain adapter: business address is required")
	}
	if a.verifyTimeout <= 0 {
		a.verifyTimeout = 30 * time.Second
	}
	if a.quoteTTL <= 0 {
		a.quoteTTL = 15 * time.Minute
	}

	return a
}

func (a *Adapter) Method() payment.Method {
	return payment.MethodChain
}

// Quote prices the order total in SOL and remembers the quote so that
// verification compares against the amount the customer was shown.
func (a *Adapter) Quote(ctx context.Context, o order.Order) (Quote, error) {
	ctx, span := otel.Tracer("adapters").Start(ctx, "ChainAdapter.Quote")
	defer span.End()

	price, err := a.oracle.Price(ctx, coinID, o.Payment.Currency.String())
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get sol price: %w", err)
	}

	lamports := o.Totals.Total.Div(price).Shift(9).Floor()
	q := Quote{
		OrderNumber: o.Number,
		Recipient:   a.recipient,
		Lamports:    uint64(lamports.IntPart()),
		SOL:         lamports.Shift(-9),
		Price:       price,
		Fiat:        o.Totals.Total,
		Currency:    o.Payment.Currency.String(),
		ExpiresAt:   a.now().UTC().Add(a.quoteTTL),
	}

	if a.quotes != nil {
		raw, err := json.Marshal(q)
		if err != nil {
			return Quote{}, fmt.Errorf("failed to marshal quote: %w", err)
		}
		if err := a.quotes.Set(ctx, a.quoteKey(o), string(raw), a.quoteTTL); err != nil {
			return Quote{}, fmt.Errorf("failed to store quote: %w", err)
		}
	}

	return q, nil
}

func (a *Adapter) quoteKey(o order.Order) string {
	return a.quotes.GenerateKey("quote", o.ID.String())
}

// expected returns the stored quote of o, pricing it anew when none is stored.
func (a *Adapter) expected(ctx context.Context, o order.Order) (Quote, error) {
	if a.quotes != nil {
		raw, err := a.quotes.Get(ctx, a.quoteKey(o))
		if err != nil {
			slog.Warn("Failed to read stored quote", "order_number", o.Number, "error", err)
		} else if raw != "" {
			var q Quote
			if err := json.Unmarshal([]byte(raw), &q); err == nil {
				return q, nil
			}
		}
	}

	return a.Quote(ctx, o)
}

// Confirm verifies the transfer identified by in.Signature and records it.
func (a *Adapter) Confirm(ctx context.Context, o order.Order, in adapters.Input) adapters.Result {
	ctx, span := otel.Tracer("adapters").Start(ctx, "ChainAdapter.Confirm")
	defer span.End()

	signature := strings.TrimSpace(in.Signature)
	if signature == "" {
		return adapters.Failure(payment.ReasonInvalidInput, "A transaction signature is required.")
	}
	span.SetAttributes(attribute.String("chain.signature", signature))

	verifyCtx, cancel := context.WithTimeout(ctx, a.verifyTimeout)
	defer cancel()

	res, ok := a.verify(verifyCtx, o, signature)
	if !ok {
		slog.Info("Chain payment rejected",
			"order_number", o.Number, "signature", signature, "reason", res.Reason)

		return res
	}

	paid, err := a.orders.ConfirmPayment(ctx, o.ID.String(), payment.MethodChain, signature, decimal.Zero)
	if err != nil {
		slog.Warn("Verified transfer not recorded", "order_number", o.Number, "signature", signature, "error", err)
		res := adapters.FromLifecycleError(err)
		if res.Reason == payment.ReasonConflict {
			res.Detail = "This transaction was already used to pay for another order."
		}

		return res
	}

	return adapters.Success(paid)
}

// verify runs the ledger checks in order. The bool is true when all passed.
func (a *Adapter) verify(ctx context.Context, o order.Order, signature string) (adapters.Result, bool) {
	quote, err := a.expected(ctx, o)
	if err != nil {
		if timedOut(ctx, err) {
			return timeoutFailure(), false
		}
		slog.Error("Failed to price order", "order_number", o.Number, "error", err)

		return adapters.Failure(payment.ReasonRPCUnavailable,
			"The SOL price is temporarily unavailable. Please try again."), false
	}

	tx, err := a.ledger.GetTransaction(ctx, signature)
	switch {
	case errors.Is(err, chaintx.ErrInvalidSignature):
		return adapters.Failure(payment.ReasonInvalidInput,
			"That does not look like a transaction signature. Paste the complete signature."), false
	case errors.Is(err, chaintx.ErrNotFound):
		return adapters.Failure(payment.ReasonNotFound,
			"Transaction not found. Please paste the complete signature."), false
	case err != nil && timedOut(ctx, err):
		return timeoutFailure(), false
	case err != nil:
		slog.Error("Ledger unavailable", "order_number", o.Number, "error", err)

		return adapters.Failure(payment.ReasonRPCUnavailable,
			"The ledger could not be reached. Please try again."), false
	}

	if tx.Failed {
		return adapters.Failure(payment.ReasonTransactionFailed, "The transaction failed on chain."), false
	}

	received, ok := tx.BalanceDelta(a.recipient)
	if !ok || received <= 0 {
		return adapters.Failure(payment.ReasonWrongRecipient,
			fmt.Sprintf("The transaction did not send SOL to %s.", a.recipient)), false
	}

	diff := received - int64(quote.Lamports)
	if diff < 0 {
		diff = -diff
	}
	if uint64(diff) > a.tolerance {
		return adapters.Failure(payment.ReasonAmountMismatch, fmt.Sprintf(
			"Received %s SOL but expected %s SOL.",
			decimal.New(received, -9).String(), quote.SOL.String())), false
	}

	if tx.Confirmations < a.minConfirmations {
		return adapters.Failure(payment.ReasonUnconfirmed,
			"The transaction is not confirmed yet. Please retry in a few seconds."), false
	}

	if timedOut(ctx, ctx.Err()) {
		return timeoutFailure(), false
	}

	return adapters.Result{}, true
}

func timedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func timeoutFailure() adapters.Result {
	return adapters.Failure(payment.ReasonTimeout, "Verification timed out. Please try again.")
}
