package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	pb "github.com/corray333/backend-labs/storefront/pkg/api/v1"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
)

// service is an interface for the service layer.
type service interface {
	GetOrder(ctx context.Context, identifier string) (order.Order, error)
	UpdateStatus(ctx context.Context, identifier string, status order.Status, trackingNumber string) (order.Order, error)
	SaveAuditLog(ctx context.Context, entry auditlog.AuditLogOrder) (bool, error)
}

// GRPCTransport represents the gRPC transport layer.
type GRPCTransport struct {
	server      *grpc.Server
	listener    net.Listener
	orderServer *OrderServer
}

// NewGRPCTransport creates a new GRPCTransport listening on server.grpc.port.
func NewGRPCTransport(service service) *GRPCTransport {
	listener, err := net.Listen("tcp", ":"+viper.GetString("server.grpc.port"))
	if err != nil {
		panic(err)
	}

	return NewGRPCTransportWithListener(service, listener)
}

// NewGRPCTransportWithListener creates a GRPCTransport serving on listener.
func NewGRPCTransportWithListener(service service, listener net.Listener) *GRPCTransport {
	return &GRPCTransport{
		server:      newGRPCServer(),
		listener:    listener,
		orderServer: NewOrderServer(service),
	}
}

// Run starts the gRPC server.
func (g *GRPCTransport) Run() error {
	g.RegisterServices()
	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown gracefully shuts down the gRPC server.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

// RegisterServices registers the gRPC services.
func (g *GRPCTransport) RegisterServices() {
	pb.RegisterOrderServiceServer(g.server, g.orderServer)
}

// newGRPCServer creates a new gRPC server with default settings.
func newGRPCServer() *grpc.Server {
	keepaliveParams := keepalive.ServerParameters{
		MaxConnectionIdle: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_idle"),
		) * time.Minute,
		MaxConnectionAge: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age"),
		) * time.Minute,
		MaxConnectionAgeGrace: time.Duration(
			viper.GetInt("server.grpc.keepalive.max_connection_age_grace"),
		) * time.Second,
		Time: time.Duration(
			viper.GetInt("server.grpc.keepalive.time"),
		) * time.Second,
		Timeout: time.Duration(
			viper.GetInt("server.grpc.keepalive.timeout"),
		) * time.Second,
	}

	keepalivePolicy := keepalive.EnforcementPolicy{
		MinTime: time.Duration(
			viper.GetInt("server.grpc.keepalive.min_time"),
		) * time.Second,
		PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(keepaliveParams),
		grpc.KeepaliveEnforcementPolicy(keepalivePolicy),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(errorInterceptor),
	}

	return grpc.NewServer(opts...)
}

// errorInterceptor converts application errors to gRPC statuses.
func errorInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	resp, err := handler(ctx, req)
	if err == nil {
		return resp, nil
	}
	if _, ok := status.FromError(err); ok {
		return nil, err
	}

	code := statusCode(err)
	if code == codes.Internal {
		slog.ErrorContext(ctx, "gRPC call failed", "method", info.FullMethod, "error", err)
	}

	return nil, status.Error(code, apperr.PublicMessage(err))
}

func statusCode(err error) codes.Code {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return codes.InvalidArgument
	case apperr.KindNotFound:
		return codes.NotFound
	case apperr.KindInvalidTransition:
		return codes.FailedPrecondition
	case apperr.KindConflict:
		return codes.AlreadyExists
	case apperr.KindProcessor:
		return codes.Unavailable
	case apperr.KindUnauthorized:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}
