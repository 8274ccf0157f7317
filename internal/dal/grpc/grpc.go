package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pb "github.com/corray333/backend-labs/storefront/pkg/api/v1"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client represents a gRPC client for the storefront order service.
type Client struct {
	conn    *grpc.ClientConn
	client  pb.OrderServiceClient
	timeout time.Duration
}

// MustNewClient creates a new gRPC client.
func MustNewClient() *Client {
	addr := viper.GetString("grpc.order_service_addr")
	if addr == "" {
		panic("grpc.order_service_addr is not set in config")
	}

	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to order service: %v", err))
	}

	slog.Info("gRPC client connected to order service", "address", addr)

	return NewClient(conn)
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	timeout := time.Duration(viper.GetInt("grpc.timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		conn:    conn,
		client:  pb.NewOrderServiceClient(conn),
		timeout: timeout,
	}
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}

// GetOrder fetches an order by id or order number.
func (c *Client) GetOrder(ctx context.Context, identifier string) (*pb.Order, error) {
	ctx, span := otel.Tracer("grpc-client").Start(ctx, "Client.GetOrder")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.GetOrder(ctx, &pb.GetOrderRequest{Identifier: identifier})
	if err != nil {
		return nil, fmt.Errorf("failed to get order via gRPC: %w", err)
	}

	return resp.Order, nil
}

// SaveAuditLog sends a delivered event to the order service. It reports
// false when the event had been recorded before.
func (c *Client) SaveAuditLog(ctx context.Context, log *pb.AuditLog) (bool, error) {
	ctx, span := otel.Tracer("grpc-client").Start(ctx, "Client.SaveAuditLog")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.SaveAuditLog(ctx, &pb.SaveAuditLogRequest{AuditLog: log})
	if err != nil {
		return false, fmt.Errorf("failed to save audit log via gRPC: %w", err)
	}

	return resp.Saved, nil
}
