package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	adminauth "github.com/corray333/backend-labs/storefront/internal/transport/http/admin_auth"
	adminlogin "github.com/corray333/backend-labs/storefront/internal/transport/http/admin_login"
	chainquote "github.com/corray333/backend-labs/storefront/internal/transport/http/chain_quote"
	createorder "github.com/corray333/backend-labs/storefront/internal/transport/http/create_order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/dashboard"
	deleteorder "github.com/corray333/backend-labs/storefront/internal/transport/http/delete_order"
	exportorders "github.com/corray333/backend-labs/storefront/internal/transport/http/export_orders"
	getorder "github.com/corray333/backend-labs/storefront/internal/transport/http/get_order"
	getproduct "github.com/corray333/backend-labs/storefront/internal/transport/http/get_product"
	listorders "github.com/corray333/backend-labs/storefront/internal/transport/http/list_orders"
	listproducts "github.com/corray333/backend-labs/storefront/internal/transport/http/list_products"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/pay"
	paymentstatus "github.com/corray333/backend-labs/storefront/internal/transport/http/payment_status"
	updateorder "github.com/corray333/backend-labs/storefront/internal/transport/http/update_order"
	updatepayment "github.com/corray333/backend-labs/storefront/internal/transport/http/update_payment"
	updatestatus "github.com/corray333/backend-labs/storefront/internal/transport/http/update_status"
	updatestock "github.com/corray333/backend-labs/storefront/internal/transport/http/update_stock"
	"github.com/corray333/backend-labs/storefront/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type orderService interface {
	CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error)
	GetOrder(ctx context.Context, identifier string) (order.Order, error)
	UpdateStatus(ctx context.Context, identifier string, status order.Status, trackingNumber string) (order.Order, error)
	ConfirmPayment(
		ctx context.Context,
		identifier string,
		method payment.Method,
		proof string,
		amount decimal.Decimal,
	) (order.Order, error)
	FailPayment(ctx context.Context, identifier, reason string) (order.Order, error)
	MarkPaymentProcessing(ctx context.Context, identifier, proof, note string) (order.Order, error)
	RefundPayment(ctx context.Context, identifier, reason string) (order.Order, error)
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) (order.Page, error)
	UpdateOrder(ctx context.Context, identifier string, patch order.Patch) (order.Order, error)
	DeleteOrder(ctx context.Context, identifier string) error
	ExportCSV(ctx context.Context, filter order.QueryOrdersModel, w io.Writer) error
	Dashboard(ctx context.Context) (order.Stats, error)
}

type paymentService interface {
	Pay(ctx context.Context, identifier string, method payment.Method, in adapters.Input) (adapters.Result, error)
	Quote(ctx context.Context, identifier string) (chain.Quote, error)
	Status(ctx context.Context, identifier string) (paymentsvc.Status, error)
}

type catalogService interface {
	ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error)
	GetProduct(ctx context.Context, id string) (product.Product, error)
	UpdateStock(ctx context.Context, id string, stock int) (product.Product, error)
}

type authService interface {
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(tokenString string) (authsvc.Claims, error)
}

type HTTPTransport struct {
	server   *http.Server
	router   *chi.Mux
	orders   orderService
	payments paymentService
	catalog  catalogService
	auth     authService
}

func NewHTTPTransport(
	orders orderService,
	payments paymentService,
	catalog catalogService,
	auth authService,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:   server,
		router:   router,
		orders:   orders,
		payments: payments,
		catalog:  catalog,
		auth:     auth,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for active ones.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router with every route registered.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Post("/orders", h.createOrder)
		r.Post("/payments/card", h.pay(payment.MethodCard))
		r.Post("/payments/chain/quote", h.chainQuote)
		r.Post("/payments/chain/verify", h.pay(payment.MethodChain))
		r.Post("/payments/manual/notify", h.pay(payment.MethodManual))
		r.Get("/payments/status/{identifier}", h.paymentStatus)
		r.Post("/admin/login", h.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(adminauth.NewAdminMiddleware(h.auth))

			r.Get("/orders", h.listOrders)
			r.Get("/orders/export", h.exportOrders)
			r.Put("/orders/{id}", h.updateOrder)
			r.Delete("/orders/{id}", h.deleteOrder)
			r.Patch("/orders/{id}/status", h.updateStatus)
			r.Patch("/orders/{id}/payment", h.updatePayment)
			r.Get("/admin/dashboard", h.dashboard)
			r.Patch("/products/{id}/stock", h.updateStock)
		})

		r.Get("/orders/{identifier}", h.getOrder)
	})
}

func (h *HTTPTransport) listProducts(w http.ResponseWriter, r *http.Request) {
	listproducts.ListProducts(w, r, h.catalog)
}

func (h *HTTPTransport) getProduct(w http.ResponseWriter, r *http.Request) {
	getproduct.GetProduct(w, r, h.catalog)
}

func (h *HTTPTransport) updateStock(w http.ResponseWriter, r *http.Request) {
	updatestock.UpdateStock(w, r, h.catalog)
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orders)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orders)
}

func (h *HTTPTransport) exportOrders(w http.ResponseWriter, r *http.Request) {
	exportorders.ExportOrders(w, r, h.orders)
}

func (h *HTTPTransport) updateOrder(w http.ResponseWriter, r *http.Request) {
	updateorder.UpdateOrder(w, r, h.orders)
}

func (h *HTTPTransport) deleteOrder(w http.ResponseWriter, r *http.Request) {
	deleteorder.DeleteOrder(w, r, h.orders)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.orders)
}

func (h *HTTPTransport) updatePayment(w http.ResponseWriter, r *http.Request) {
	updatepayment.UpdatePayment(w, r, h.orders)
}

func (h *HTTPTransport) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard.Dashboard(w, r, h.orders)
}

func (h *HTTPTransport) pay(method payment.Method) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pay.Pay(w, r, h.payments, method)
	}
}

func (h *HTTPTransport) chainQuote(w http.ResponseWriter, r *http.Request) {
	chainquote.ChainQuote(w, r, h.payments)
}

func (h *HTTPTransport) paymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentstatus.PaymentStatus(w, r, h.payments)
}

func (h *HTTPTransport) adminLogin(w http.ResponseWriter, r *http.Request) {
	adminlogin.AdminLogin(w, r, h.auth)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
