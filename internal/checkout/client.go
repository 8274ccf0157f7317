package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatusError is a server side failure with no typed payload.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("storefront returned %d: %s", e.Status, e.Message)
}

// envelope mirrors the REST response body.
type envelope struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Error   string                `json:"error"`
	Fields  []string              `json:"fields"`
	Reason  payment.FailureReason `json:"reason"`

	Order   *order.Order    `json:"order"`
	Quote   *chain.Quote    `json:"quote"`
	Payment json.RawMessage `json:"payment"`
}

// HTTPClient talks to the storefront REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (c *HTTPClient) CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/orders", draft)
	if err != nil {
		return order.Order{}, err
	}
	if env.Order == nil {
		return order.Order{}, fmt.Errorf("failed to create order: response has no order")
	}

	return *env.Order, nil
}

func (c *HTTPClient) Quote(ctx context.Context, orderID string) (chain.Quote, error) {
	env, _, err := c.do(ctx, http.MethodPost, "/payments/chain/quote", map[string]string{"orderId": orderID})
	if err != nil {
		return chain.Quote{}, err
	}
	if env.Quote == nil {
		return chain.Quote{}, fmt.Errorf("failed to get quote: response has no quote")
	}

	return *env.Quote, nil
}

var payPaths = map[payment.Method]string{
	payment.MethodCard:   "/payments/card",
	payment.MethodChain:  "/payments/chain/verify",
	payment.MethodManual: "/payments/manual/notify",
}

// Pay submits one payment attempt. A declined or unfinished payment is a
// Result, not an error.
func (c *HTTPClient) Pay(ctx context.Context, method payment.Method, orderID string, in adapters.Input) (adapters.Result, error) {
	path, ok := payPaths[method]
	if !ok {
		return adapters.Result{}, apperr.Validation("paymentMethod")
	}

	body := struct {
		OrderID string `json:"orderId"`
		adapters.Input
	}{OrderID: orderID, Input: in}

	env, status, err := c.do(ctx, http.MethodPost, path, body)
	if len(env.Payment) > 0 {
		var res adapters.Result
		if uerr := json.Unmarshal(env.Payment, &res); uerr != nil {
			return adapters.Result{}, fmt.Errorf("failed to decode payment result (status %d): %w", status, uerr)
		}

		return res, nil
	}

	return adapters.Result{}, err
}

func (c *HTTPClient) Status(ctx context.Context, identifier string) (paymentsvc.Status, error) {
	env, _, err := c.do(ctx, http.MethodGet, "/payments/status/"+url.PathEscape(identifier), nil)
	if err != nil {
		return paymentsvc.Status{}, err
	}

	var st paymentsvc.Status
	if err := json.Unmarshal(env.Payment, &st); err != nil {
		return paymentsvc.Status{}, fmt.Errorf("failed to decode payment status: %w", err)
	}

	return st, nil
}

// do sends body as JSON and decodes the envelope. Non 2xx responses are
// turned into apperr kinds, or a StatusError for server failures; the
// envelope is returned either way.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (envelope, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return envelope{}, 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, 0, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return envelope{}, resp.StatusCode, &StatusError{Status: resp.StatusCode, Message: "unreadable response body"}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return env, resp.StatusCode, nil
	}

	return env, resp.StatusCode, statusError(resp.StatusCode, env)
}

func statusError(status int, env envelope) error {
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest && len(env.Fields) > 0:
		return apperr.Validation(env.Fields...)
	case status == http.StatusBadRequest:
		return apperr.InvalidTransition("%s", msg)
	case status == http.StatusNotFound:
		return apperr.NotFound("%s", msg)
	case status == http.StatusConflict:
		return apperr.Conflict("%s", msg)
	case status == http.StatusUnauthorized:
		return apperr.Unauthorized(msg)
	default:
		return &StatusError{Status: status, Message: msg}
	}
}
