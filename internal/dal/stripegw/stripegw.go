// Package stripegw charges cards through the Stripe PaymentIntents API.
package stripegw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/corray333/backend-labs/storefront/internal/service/models/charge"
	"github.com/spf13/viper"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Gateway creates and confirms payment intents.
type Gateway struct {
	api *client.API
}

type option func(*gatewayConfig)

type gatewayConfig struct {
	url     string
	timeout time.Duration
}

// WithURL points the gateway at a different API host.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithURL(url string) option {
	return func(c *gatewayConfig) {
		c.url = url
	}
}

// WithTimeout sets the HTTP timeout of a single API call.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTimeout(timeout time.Duration) option {
	return func(c *gatewayConfig) {
		c.timeout = timeout
	}
}

// MustNewGateway builds a gateway from STRIPE_SECRET_KEY. Without a key the
// gateway reports the processor as unavailable on every charge.
func MustNewGateway() *Gateway {
	return NewGateway(
		config.Env().StripeSecretKey,
		WithTimeout(time.Duration(viper.GetInt("payments.card.timeout_seconds"))*time.Second),
	)
}

func NewGateway(secretKey string, opts ...option) *Gateway {
	if secretKey == "" {
		return &Gateway{}
	}

	cfg := &gatewayConfig{timeout: 20 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.timeout,
		},
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelWarn},
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.url != "" {
		backendCfg.URL = stripe.String(cfg.url)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &Gateway{
		api: client.New(secretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
	}
}

// Charge creates and confirms a payment intent for req.
// Declines are returned as *charge.DeclineError and requests Stripe refuses
// wrap charge.ErrRejected. Other processor failures wrap charge.ErrUnavailable
// and a cancelled or expired ctx is returned as is.
func (g *Gateway) Charge(ctx context.Context, req charge.Request) (charge.Charge, error) {
	if g.api == nil {
		return charge.Charge{}, fmt.Errorf("%w: card processor is not configured", charge.ErrUnavailable)
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.AmountCents),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata("orderId", req.OrderID)
	params.AddMetadata("orderNumber", req.OrderNumber)

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return charge.Charge{}, classify(ctx, err)
	}

	return charge.Charge{
		ID:     pi.ID,
		Status: charge.Status(pi.Status),
	}, nil
}

func classify(ctx context.Context, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Type == stripe.ErrorTypeCard:
			return &charge.DeclineError{Code: string(stripeErr.Code), Message: stripeErr.Msg}
		case stripeErr.Type == stripe.ErrorTypeIdempotency,
			stripeErr.Type == stripe.ErrorTypeInvalidRequest && stripeErr.HTTPStatusCode != http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", charge.ErrRejected, stripeErr.Msg)
		}

		return fmt.Errorf("%w: %s", charge.ErrUnavailable, stripeErr.Msg)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}

	return fmt.Errorf("%w: %v", charge.ErrUnavailable, err)
}
