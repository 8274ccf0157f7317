package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/checkout/wallet"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/pricing"
	"github.com/corray333/backend-labs/storefront/internal/service/validation"
	"github.com/sethvargo/go-retry"
)

var (
	// ErrSubmitInProgress is returned while an earlier Submit is still running.
	ErrSubmitInProgress = errors.New("a payment is already being submitted")
	// ErrShippingRequired is returned by Submit before SetShipping succeeded.
	ErrShippingRequired = errors.New("shipping details are required before payment")
)

// Step is the checkout screen the customer is on.
type Step string

const (
	StepShipping   Step = "shipping"
	StepPayment    Step = "payment"
	StepProcessing Step = "processing"
)

type api interface {
	CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error)
	Quote(ctx context.Context, orderID string) (chain.Quote, error)
	Pay(ctx context.Context, method payment.Method, orderID string, in adapters.Input) (adapters.Result, error)
}

// Selection is the payment path chosen by the customer. For chain payments
// a Wallet sends the transfer; without one Input.Signature must be set.
type Selection struct {
	Method   payment.Method
	Input    adapters.Input
	Wallet   wallet.Provider
	Currency string
}

// pendingOrder is an order created by a failed attempt, reused while the
// cart and shipping details are unchanged. signature is the wallet transfer
// already sent for it; later attempts only verify it again.
type pendingOrder struct {
	order       order.Order
	cartVersion uint64
	method      payment.Method
	customer    order.Customer
	shipping    order.ShippingAddress
	signature   string
}

// Orchestrator moves a cart through shipping, order creation and payment.
// The cart is cleared only after the payment path reported success.
type Orchestrator struct {
	cart *Cart
	calc *pricing.Calculator
	api  api

	retryBase  time.Duration
	maxRetries uint64

	mu       sync.Mutex
	step     Step
	customer order.Customer
	shipping order.ShippingAddress
	pending  *pendingOrder
	onStep   []func(Step)

	submitting atomic.Bool
}

type option func(*Orchestrator)

// WithRetry sets the backoff base and how many times a transient payment
// failure is retried.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRetry(base time.Duration, maxRetries uint64) option {
	return func(o *Orchestrator) {
		o.retryBase = base
		o.maxRetries = maxRetries
	}
}

func NewOrchestrator(cart *Cart, calc *pricing.Calculator, api api, opts ...option) *Orchestrator {
	o := &Orchestrator{
		cart:       cart,
		calc:       calc,
		api:        api,
		retryBase:  time.Second,
		maxRetries: 4,
		step:       StepShipping,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// OnStep registers fn to be called with every new step.
func (o *Orchestrator) OnStep(fn func(Step)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onStep = append(o.onStep, fn)
}

func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.step
}

func (o *Orchestrator) setStep(step Step) {
	o.mu.Lock()
	if o.step == step {
		o.mu.Unlock()

		return
	}
	o.step = step
	subs := append([]func(Step){}, o.onStep...)
	o.mu.Unlock()

	for _, fn := range subs {
		fn(step)
	}
}

// SetShipping validates the customer and address and moves to the payment step.
func (o *Orchestrator) SetShipping(customer order.Customer, shipping order.ShippingAddress) error {
	if o.cart.Items() == 0 {
		return apperr.Validation("items")
	}

	if err := validation.Struct(struct {
		Customer order.Customer        `json:"customer"`
		Shipping order.ShippingAddress `json:"shipping"`
	}{customer, shipping}); err != nil {
		return err
	}

	o.mu.Lock()
	o.customer = customer
	o.shipping = shipping
	o.mu.Unlock()

	o.setStep(StepPayment)

	return nil
}

// Preview returns the totals the order would be created with.
func (o *Orchestrator) Preview() order.Totals {
	return o.cart.Totals(o.calc)
}

// Submit creates the order and runs the selected payment path. A failed
// payment is returned as a Result with the cart left intact; errors are
// reserved for order creation and transport failures.
func (o *Orchestrator) Submit(ctx context.Context, sel Selection) (adapters.Result, error) {
	if !o.submitting.CompareAndSwap(false, true) {
		return adapters.Result{}, ErrSubmitInProgress
	}
	defer o.submitting.Store(false)

	if o.Step() != StepPayment {
		return adapters.Result{}, ErrShippingRequired
	}

	o.setStep(StepProcessing)

	ord, err := o.ensureOrder(ctx, sel)
	if err != nil {
		o.setStep(StepPayment)

		return adapters.Result{}, err
	}

	res, err := o.pay(ctx, ord, sel)
	if err != nil {
		o.setStep(StepPayment)

		return adapters.Result{}, err
	}

	if !res.Success {
		if res.Reason == payment.ReasonOrderClosed {
			o.dropPending()
		}
		slog.Info("Payment not completed", "order_number", ord.Number, "reason", res.Reason)
		o.setStep(StepPayment)

		return res, nil
	}

	o.cart.Clear()
	o.mu.Lock()
	o.pending = nil
	o.customer = order.Customer{}
	o.shipping = order.ShippingAddress{}
	o.mu.Unlock()
	o.setStep(StepShipping)

	return res, nil
}

func (o *Orchestrator) dropPending() {
	o.mu.Lock()
	o.pending = nil
	o.mu.Unlock()
}

func (o *Orchestrator) ensureOrder(ctx context.Context, sel Selection) (order.Order, error) {
	version := o.cart.Version()

	o.mu.Lock()
	customer, shipping, pending := o.customer, o.shipping, o.pending
	o.mu.Unlock()

	if pending != nil &&
		pending.cartVersion == version &&
		pending.method == sel.Method &&
		pending.customer == customer &&
		pending.shipping == shipping {
		return pending.order, nil
	}

	created, err := o.api.CreateOrder(ctx, order.Draft{
		Customer:      customer,
		Shipping:      shipping,
		Items:         o.cart.Lines(),
		PaymentMethod: sel.Method.String(),
		Currency:      sel.Currency,
	})
	if err != nil {
		return order.Order{}, err
	}

	o.mu.Lock()
	o.pending = &pendingOrder{
		order:       created,
		cartVersion: version,
		method:      sel.Method,
		customer:    customer,
		shipping:    shipping,
	}
	o.mu.Unlock()

	slog.Info("Order created", "order_number", created.Number, "total", created.Totals.Total)

	return created, nil
}

func (o *Orchestrator) pay(ctx context.Context, ord order.Order, sel Selection) (adapters.Result, error) {
	if sel.Method == payment.MethodChain && sel.Wallet != nil {
		return o.payWithWallet(ctx, ord, sel.Wallet)
	}

	return o.withRetry(ctx, sel.Method, func(ctx context.Context) (adapters.Result, error) {
		return o.api.Pay(ctx, sel.Method, ord.ID.String(), sel.Input)
	})
}

// payWithWallet quotes, sends the transfer once and then verifies it,
// retrying only the verification. A transfer sent by an earlier attempt on
// the same order is verified again instead of being sent a second time.
func (o *Orchestrator) payWithWallet(ctx context.Context, ord order.Order, w wallet.Provider) (adapters.Result, error) {
	sig := o.sentSignature(ord)
	if sig == "" {
		res, sent, err := o.sendWithWallet(ctx, ord, w)
		if err != nil || sent == "" {
			return res, err
		}
		sig = sent
		o.rememberSignature(ord, sig)
	} else {
		slog.Info("Verifying earlier wallet transfer", "order_number", ord.Number, "signature", sig)
	}

	res, err := o.withRetry(ctx, payment.MethodChain, func(ctx context.Context) (adapters.Result, error) {
		return o.api.Pay(ctx, payment.MethodChain, ord.ID.String(), adapters.Input{Signature: sig})
	})
	if err != nil {
		return res, err
	}

	if !res.Success {
		if res.Proof == "" {
			res.Proof = sig
		}
		// A failed transaction moved no funds, so a new transfer is allowed.
		if res.Reason == payment.ReasonTransactionFailed {
			o.rememberSignature(ord, "")
		}
	}

	return res, nil
}

// sendWithWallet quotes the order and sends the transfer. An empty signature
// means nothing was sent and the Result holds the failure.
func (o *Orchestrator) sendWithWallet(
	ctx context.Context,
	ord order.Order,
	w wallet.Provider,
) (adapters.Result, string, error) {
	if !w.Detect(ctx) {
		return adapters.Failure(payment.ReasonWalletUnavailable,
			"No wallet was found. Send the payment manually and paste the transaction signature."), "", nil
	}
	if _, err := w.Connect(ctx); err != nil {
		return adapters.Failure(payment.ReasonWalletUnavailable,
			"The wallet could not be opened. Check it and try again."), "", nil
	}

	q, err := o.api.Quote(ctx, ord.ID.String())
	if err != nil {
		return adapters.Result{}, "", err
	}

	sig, err := w.SignAndSend(ctx, q.Recipient, q.Lamports)
	if err != nil {
		if errors.Is(err, wallet.ErrUnavailable) {
			return adapters.Failure(payment.ReasonWalletUnavailable,
				"The wallet could not be reached. Try again or pay manually."), "", nil
		}

		return adapters.Failure(payment.ReasonWalletRejected,
			fmt.Sprintf("The wallet did not send the payment: %v", err)), "", nil
	}

	return adapters.Result{}, sig, nil
}

func (o *Orchestrator) sentSignature(ord order.Order) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending == nil || o.pending.order.ID != ord.ID {
		return ""
	}

	return o.pending.signature
}

func (o *Orchestrator) rememberSignature(ord order.Order, sig string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending != nil && o.pending.order.ID == ord.ID {
		o.pending.signature = sig
	}
}

func (o *Orchestrator) withRetry(
	ctx context.Context,
	method payment.Method,
	attempt func(ctx context.Context) (adapters.Result, error),
) (adapters.Result, error) {
	backoff := retry.WithMaxRetries(o.maxRetries, retry.NewExponential(o.retryBase))

	var (
		last    adapters.Result
		lastErr error
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		last, lastErr = attempt(ctx)
		switch {
		case lastErr != nil && transient(lastErr):
			return retry.RetryableError(lastErr)
		case lastErr != nil:
			return lastErr
		case !last.Success && retryable(method, last.Reason):
			slog.Warn("Retrying payment", "method", method, "reason", last.Reason)

			return retry.RetryableError(errors.New(last.Detail))
		default:
			return nil
		}
	})

	if lastErr != nil {
		return adapters.Result{}, lastErr
	}
	if err != nil && ctx.Err() != nil {
		return adapters.Result{}, ctx.Err()
	}

	return last, nil
}

// retryable reports whether a failed attempt may be repeated. An
// unconfirmed card payment may already have been charged and is final.
func retryable(method payment.Method, reason payment.FailureReason) bool {
	if reason == payment.ReasonUnconfirmed {
		return method == payment.MethodChain
	}

	return reason.Retryable()
}

func transient(err error) bool {
	var status *StatusError
	if errors.As(err, &status) {
		return status.Status >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, apperr.ErrProcessor)
}
