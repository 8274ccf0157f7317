package notifier

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	ordergrpc "github.com/corray333/backend-labs/storefront/internal/dal/grpc"
	"github.com/corray333/backend-labs/storefront/internal/dal/mailer"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/rabbitmq"
	inboxrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/inbox/postgres"
	"github.com/corray333/backend-labs/storefront/internal/otel"
	"github.com/corray333/backend-labs/storefront/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/consumer"
	inboxworker "github.com/corray333/backend-labs/storefront/internal/worker/inbox"
	"github.com/spf13/viper"
)

// App is the notifier process. It consumes order events, records them
// through the order service and e-mails customers.
type App struct {
	consumerTransp *consumer.Consumer
	inboxWorker    *inboxworker.Worker
	orderClient    *ordergrpc.Client
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(viper.GetString("otel.service_name"))
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := postgres.MustNewClient()
	orderClient := ordergrpc.MustNewClient()

	inboxRepository := inboxrepo.NewInboxRepository(postgresClient.DB())

	notifySvc := notifysvc.MustNewNotifyService(
		notifysvc.WithOrderClient(orderClient),
		notifysvc.WithMailer(mailer.MustNewMailer()),
	)

	return &App{
		consumerTransp: consumer.MustNewConsumer(rabbitMqClient, notifySvc, inboxRepository),
		inboxWorker:    inboxworker.NewWorker(inboxRepository, notifySvc),
		orderClient:    orderClient,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")

	a.gracefulShutdown()
	cancel()
}

// gracefulShutdown stops the inbox worker and the consumer, letting
// in-flight deliveries finish, then closes the connections.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.inboxWorker.Stop()
	slog.Info("Inbox worker stopped gracefully")

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if err := a.orderClient.Close(); err != nil {
		slog.Error("Order service connection close error", "error", err)
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider shutdown error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
