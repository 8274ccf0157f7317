package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return NewHTTPClient(srv.URL+"/api/", 5*time.Second)
}

func TestClientCreateOrder(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "solana", body["paymentMethod"])
		items := body["items"].([]any)
		assert.Equal(t, "89.99", items[0].(map[string]any)["price"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"order":{"orderNumber":"ORD-1","status":"pending","totals":{"total":"213.37"}}}`))
	})

	o, err := c.CreateOrder(context.Background(), order.Draft{
		Items:         []orderitem.OrderItem{bpc157()},
		PaymentMethod: "solana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", o.Number)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, "213.37", o.Totals.Total.String())
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"validation", http.StatusBadRequest, `{"error":"invalid","fields":["customer.email"]}`, func(t *testing.T, err error) {
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Equal(t, []string{"customer.email"}, apperr.FieldsOf(err))
		}},
		{"not found", http.StatusNotFound, `{"error":"order not found"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		}},
		{"server", http.StatusInternalServerError, `{"error":"internal server error"}`, func(t *testing.T, err error) {
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.True(t, transient(err))
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.CreateOrder(context.Background(), order.Draft{})
			tt.check(t, err)
		})
	}
}

func TestClientPayReturnsFailureResult(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/chain/verify", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ord-1", body["orderId"])
		assert.Equal(t, "sig", body["signature"])

		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte(`{"success":false,"reason":"timeout","error":"Verification timed out.",` +
			`"payment":{"success":false,"reason":"timeout","message":"Verification timed out."}}`))
	})

	res, err := c.Pay(context.Background(), payment.MethodChain, "ord-1", adapters.Input{Signature: "sig"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, payment.ReasonTimeout, res.Reason)
	assert.Equal(t, "Verification timed out.", res.Detail)
}

func TestClientQuote(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/chain/quote", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"quote":{"recipient":"shop","lamports":2000000000,"sol":"2"}}`))
	})

	q, err := c.Quote(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "shop", q.Recipient)
	assert.Equal(t, uint64(2_000_000_000), q.Lamports)
}
