package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/dal/cache"
	"github.com/corray333/backend-labs/storefront/internal/dal/coingecko"
	"github.com/corray333/backend-labs/storefront/internal/dal/ledger"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/storefront/internal/dal/repositories/events"
	outboxrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/storefront/internal/otel"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/card"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/service/adapters/manual"
	"github.com/corray333/backend-labs/storefront/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/catalogsvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	grpctransport "github.com/corray333/backend-labs/storefront/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/storefront/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/storefront/internal/worker/outbox"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// App is the storefront process: the public and admin HTTP API, the gRPC
// order service and the outbox relay.
type App struct {
	orderSvc       *ordersvc.OrderService
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	postgresClient *postgres.Client
	rabbitMqClient *rabbitmq.Client
	cache          *cache.Cache
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("otel.service_name"))
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()
	redisCache := cache.MustNewCache()

	if err := rabbitMqClient.DeclareExchange(viper.GetString("rabbitmq.exchange")); err != nil {
		panic(err)
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)

	oracle := coingecko.MustNewClient(
		coingecko.WithCache(redisCache, time.Duration(viper.GetInt("payments.oracle.cache_ttl_seconds"))*time.Second),
	)
	chainAdapter := chain.MustNewAdapter(ledger.MustNewClient(), oracle, redisCache, orderSvc)

	paymentSvc := paymentsvc.NewPaymentService(orderSvc,
		paymentsvc.WithAdapter(card.MustNewAdapter(orderSvc)),
		paymentsvc.WithAdapter(chainAdapter),
		paymentsvc.WithAdapter(manual.NewAdapter(orderSvc)),
		paymentsvc.WithQuoter(chainAdapter),
	)

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithPostgresClient(postgresClient),
	)
	authSvc := authsvc.MustNewAuthService()

	httpTransport := httptransport.NewHTTPTransport(orderSvc, paymentSvc, catalogSvc, authSvc)
	httpTransport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.DB()),
		events.NewEventsRabbitMQRepository(rabbitMqClient),
	)

	return &App{
		orderSvc:       orderSvc,
		httpTransport:  httpTransport,
		grpcTransport:  grpctransport.NewGRPCTransport(orderSvc),
		outboxWorker:   outboxWorker,
		postgresClient: postgresClient,
		rabbitMqClient: rabbitMqClient,
		cache:          redisCache,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})
	g.Go(func() error {
		slog.Info("Starting gRPC server")

		return a.grpcTransport.Run()
	})
	g.Go(func() error {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(gctx)

		return nil
	})

	<-gctx.Done()
	slog.Info("Shutdown signal received")

	a.gracefulShutdown()

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
	}
}

// gracefulShutdown stops the servers first so no new work is accepted, then
// the outbox worker, then the connections.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	a.outboxWorker.Stop()

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.cache.Close()
	a.postgresClient.Close()

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}
