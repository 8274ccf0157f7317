package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-token"

type stubOrders struct {
	created    order.Draft
	lastFilter order.QueryOrdersModel
	orders     map[string]order.Order
}

func (s *stubOrders) CreateOrder(_ context.Context, draft order.Draft) (order.Order, error) {
	s.created = draft
	if draft.Customer.Email == "" {
		return order.Order{}, apperr.Validation("customer.email")
	}

	return order.Order{Number: "ORD-00000001-AAAA", Status: order.StatusPending}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, identifier string) (order.Order, error) {
	o, ok := s.orders[identifier]
	if !ok {
		return order.Order{}, apperr.NotFound("order %s not found", identifier)
	}

	return o, nil
}

func (s *stubOrders) UpdateStatus(_ context.Context, identifier string, status order.Status, tracking string) (order.Order, error) {
	o, err := s.GetOrder(context.Background(), identifier)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = status
	o.TrackingNumber = tracking

	return o, nil
}

func (s *stubOrders) ConfirmPayment(
	_ context.Context,
	identifier string,
	_ payment.Method,
	proof string,
	_ decimal.Decimal,
) (order.Order, error) {
	o, err := s.GetOrder(context.Background(), identifier)
	if err != nil {
		return order.Order{}, err
	}
	if proof == "" {
		return order.Order{}, apperr.Validation("payment.proof")
	}
	o.Payment.Status = payment.StatusCompleted
	o.Payment.Proof = proof

	return o, nil
}

func (s *stubOrders) FailPayment(context.Context, string, string) (order.Order, error) {
	return order.Order{}, errors.New("not used")
}

func (s *stubOrders) MarkPaymentProcessing(context.Context, string, string, string) (order.Order, error) {
	return order.Order{}, errors.New("not used")
}

func (s *stubOrders) RefundPayment(_ context.Context, identifier, reason string) (order.Order, error) {
	o, err := s.GetOrder(context.Background(), identifier)
	if err != nil {
		return order.Order{}, err
	}
	if o.Payment.Status != payment.StatusCompleted {
		return order.Order{}, apperr.InvalidTransition("payment of order %s is %s", o.Number, o.Payment.Status)
	}
	o.Payment.Status = payment.StatusRefunded
	o.Notes = reason

	return o, nil
}

func (s *stubOrders) ListOrders(_ context.Context, filter order.QueryOrdersModel) (order.Page, error) {
	s.lastFilter = filter

	return order.Page{CurrentPage: 2, TotalPages: 3, TotalOrders: 45}, nil
}

func (s *stubOrders) UpdateOrder(context.Context, string, order.Patch) (order.Order, error) {
	return order.Order{}, nil
}

func (s *stubOrders) DeleteOrder(context.Context, string) error {
	return nil
}

func (s *stubOrders) ExportCSV(_ context.Context, _ order.QueryOrdersModel, w io.Writer) error {
	_, err := io.WriteString(w, "Order Number\nORD-1\n")

	return err
}

func (s *stubOrders) Dashboard(context.Context) (order.Stats, error) {
	return order.Stats{TotalOrders: 7}, nil
}

type stubPayments struct {
	result adapters.Result
}

func (s stubPayments) Pay(context.Context, string, payment.Method, adapters.Input) (adapters.Result, error) {
	return s.result, nil
}

func (s stubPayments) Quote(context.Context, string) (chain.Quote, error) {
	return chain.Quote{Lamports: 42}, nil
}

func (s stubPayments) Status(context.Context, string) (paymentsvc.Status, error) {
	return paymentsvc.Status{OrderNumber: "ORD-1"}, nil
}

type stubCatalog struct {
	lastFilter product.QueryProductsModel
	stock      map[string]int
}

func (c *stubCatalog) ListProducts(_ context.Context, filter product.QueryProductsModel) ([]product.Product, error) {
	c.lastFilter = filter

	return []product.Product{{ID: "bpc-157", Name: "BPC-157", Price: decimal.RequireFromString("89.99")}}, nil
}

func (c *stubCatalog) GetProduct(_ context.Context, id string) (product.Product, error) {
	if id != "bpc-157" {
		return product.Product{}, apperr.NotFound("product %s not found", id)
	}

	return product.Product{ID: id, Name: "BPC-157", Stock: c.stock[id]}, nil
}

func (c *stubCatalog) UpdateStock(ctx context.Context, id string, stock int) (product.Product, error) {
	if stock < 0 {
		return product.Product{}, apperr.Validation("stock")
	}
	if _, err := c.GetProduct(ctx, id); err != nil {
		return product.Product{}, err
	}
	c.stock[id] = stock

	return c.GetProduct(ctx, id)
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, string, string) (string, error) {
	return adminToken, nil
}

func (stubAuth) ValidateToken(token string) (authsvc.Claims, error) {
	if token != adminToken {
		return authsvc.Claims{}, errors.New("bad token")
	}

	return authsvc.Claims{Role: authsvc.RoleAdmin}, nil
}

func newTestServer(t *testing.T, payments stubPayments) (*httptest.Server, *stubOrders) {
	t.Helper()

	srv, orders, _ := newTestServerWithCatalog(t, payments)

	return srv, orders
}

func newTestServerWithCatalog(t *testing.T, payments stubPayments) (*httptest.Server, *stubOrders, *stubCatalog) {
	t.Helper()

	orders := &stubOrders{orders: map[string]order.Order{
		"ORD-1": {Number: "ORD-1", Status: order.StatusPending, Payment: payment.Payment{Method: payment.MethodManual}},
	}}
	catalog := &stubCatalog{stock: map[string]int{"bpc-157": 100}}
	h := NewHTTPTransport(orders, payments, catalog, stubAuth{})
	h.RegisterRoutes()

	srv := httptest.NewServer(h.Handler())
	t.Cleanup(srv.Close)

	return srv, orders, catalog
}

func do(t *testing.T, method, url, body, token string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]any
	_ = json.Unmarshal(raw, &decoded)

	return resp, decoded
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	srv, orders := newTestServer(t, stubPayments{})

	body := `{"customer":{"email":"ada@example.com"},"paymentMethod":"card",
		"items":[{"name":"BPC-157","price":"89.99","quantity":2}]}`
	resp, decoded := do(t, http.MethodPost, srv.URL+"/api/orders", body, "")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "89.99", orders.created.Items[0].UnitPrice.String())
	assert.Equal(t, 2, orders.created.Items[0].Quantity)
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodPost, srv.URL+"/api/orders", `{"items":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, []any{"customer.email"}, decoded["fields"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/api/orders", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodGet, srv.URL+"/api/orders/ORD-1", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ORD-1", decoded["order"].(map[string]any)["orderNumber"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/orders/ORD-404", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/export"},
		{http.MethodPut, "/api/orders/ORD-1"},
		{http.MethodDelete, "/api/orders/ORD-1"},
		{http.MethodPatch, "/api/orders/ORD-1/status"},
		{http.MethodPatch, "/api/orders/ORD-1/payment"},
		{http.MethodGet, "/api/admin/dashboard"},
		{http.MethodPatch, "/api/products/bpc-157/stock"},
	} {
		resp, decoded := do(t, tc.method, srv.URL+tc.path, "{}", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.Equal(t, "Please authenticate as admin", decoded["error"], tc.path)

		resp, _ = do(t, tc.method, srv.URL+tc.path, "{}", "wrong")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
	}
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	srv, orders := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodGet,
		srv.URL+"/api/orders?status=pending&status=shipped&email=ada@example.com&page=2&limit=20&dateTo=2025-01-31",
		"", adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []order.Status{order.StatusPending, order.StatusShipped}, orders.lastFilter.Statuses)
	assert.Equal(t, 20, orders.lastFilter.Offset)
	assert.Equal(t, "2025-02-01", orders.lastFilter.DateTo.Format("2006-01-02"))
	assert.Equal(t, float64(3), decoded["pagination"].(map[string]any)["totalPages"])
	assert.Equal(t, []any{}, decoded["orders"])

	resp, decoded = do(t, http.MethodGet, srv.URL+"/api/orders?status=lost", "", adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"status"}, decoded["fields"])
}

func TestExportOrders(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/orders/export", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+adminToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	assert.Equal(t, "Order Number\nORD-1\n", buf.String())
}

func TestUpdatePaymentUsesProofOnRecord(t *testing.T) {
	t.Parallel()

	srv, orders := newTestServer(t, stubPayments{})
	o := orders.orders["ORD-1"]
	o.Payment.Proof = "INTERAC-7731"
	orders.orders["ORD-1"] = o

	resp, decoded := do(t, http.MethodPatch, srv.URL+"/api/orders/ORD-1/payment", `{"status":"completed"}`, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paid := decoded["order"].(map[string]any)["payment"].(map[string]any)
	assert.Equal(t, "completed", paid["status"])
	assert.Equal(t, "INTERAC-7731", paid["proof"])

	resp, _ = do(t, http.MethodPatch, srv.URL+"/api/orders/ORD-1/payment", `{"status":"lost"}`, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdatePaymentRefund(t *testing.T) {
	t.Parallel()

	srv, orders := newTestServer(t, stubPayments{})

	resp, _ := do(t, http.MethodPatch, srv.URL+"/api/orders/ORD-1/payment",
		`{"status":"refunded","reason":"customer request"}`, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	o := orders.orders["ORD-1"]
	o.Payment.Status = payment.StatusCompleted
	orders.orders["ORD-1"] = o

	resp, decoded := do(t, http.MethodPatch, srv.URL+"/api/orders/ORD-1/payment",
		`{"status":"refunded","reason":"customer request"}`, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refunded := decoded["order"].(map[string]any)
	assert.Equal(t, "refunded", refunded["payment"].(map[string]any)["status"])
	assert.Equal(t, "customer request", refunded["notes"])
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	srv, _, catalog := newTestServerWithCatalog(t, stubPayments{})

	resp, decoded := do(t, http.MethodGet, srv.URL+"/api/products?category=growth&available=true", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), decoded["count"])
	assert.Equal(t, "89.99", decoded["products"].([]any)[0].(map[string]any)["price"])
	assert.Equal(t, product.CategoryGrowth, catalog.lastFilter.Category)
	require.NotNil(t, catalog.lastFilter.Available)
	assert.True(t, *catalog.lastFilter.Available)

	resp, decoded = do(t, http.MethodGet, srv.URL+"/api/products?category=snacks&available=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"category", "available"}, decoded["fields"])
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodGet, srv.URL+"/api/products/bpc-157", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BPC-157", decoded["product"].(map[string]any)["name"])

	resp, _ = do(t, http.MethodGet, srv.URL+"/api/products/hgh", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateStock(t *testing.T) {
	t.Parallel()

	srv, _, catalog := newTestServerWithCatalog(t, stubPayments{})

	resp, decoded := do(t, http.MethodPatch, srv.URL+"/api/products/bpc-157/stock", `{"stock":0}`, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Stock updated successfully", decoded["message"])
	assert.Equal(t, 0, catalog.stock["bpc-157"])

	resp, decoded = do(t, http.MethodPatch, srv.URL+"/api/products/bpc-157/stock", `{}`, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"stock"}, decoded["fields"])

	resp, _ = do(t, http.MethodPatch, srv.URL+"/api/products/bpc-157/stock", `{"stock":-5}`, adminToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPaymentStatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result adapters.Result
		want   int
	}{
		{"success", adapters.Result{Success: true, PaymentStatus: payment.StatusCompleted}, http.StatusOK},
		{"timeout", adapters.Failure(payment.ReasonTimeout, "try again"), http.StatusGatewayTimeout},
		{"rpc", adapters.Failure(payment.ReasonRPCUnavailable, "try again"), http.StatusBadGateway},
		{"unconfirmed", adapters.Failure(payment.ReasonUnconfirmed, "contact support"), http.StatusAccepted},
		{"conflict", adapters.Failure(payment.ReasonConflict, "already used"), http.StatusConflict},
		{"mismatch", adapters.Failure(payment.ReasonAmountMismatch, "wrong amount"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newTestServer(t, stubPayments{result: tt.result})

			resp, decoded := do(t, http.MethodPost, srv.URL+"/api/payments/chain/verify",
				`{"orderId":"ORD-1","signature":"abc"}`, "")
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, tt.result.Success, decoded["success"])
			if !tt.result.Success {
				assert.Equal(t, string(tt.result.Reason), decoded["reason"])
				assert.Equal(t, tt.result.Detail, decoded["error"])
			}
		})
	}
}

func TestPayRequiresOrderID(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodPost, srv.URL+"/api/payments/card", `{"paymentMethodId":"pm_1"}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []any{"orderId"}, decoded["fields"])
}

func TestAdminLoginAndQuote(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, stubPayments{})

	resp, decoded := do(t, http.MethodPost, srv.URL+"/api/admin/login", `{"email":"a@b.c","password":"x"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, adminToken, decoded["token"])

	resp, decoded = do(t, http.MethodPost, srv.URL+"/api/payments/chain/quote", `{"orderId":"ORD-1"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(42), decoded["quote"].(map[string]any)["lamports"])
}
