package grpctransport

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	pb "github.com/corray333/backend-labs/storefront/pkg/api/v1"
	"github.com/google/uuid"
)

// OrderServer implements the gRPC OrderService.
type OrderServer struct {
	pb.UnimplementedOrderServiceServer

	service service
}

// NewOrderServer creates a new OrderServer.
func NewOrderServer(service service) *OrderServer {
	return &OrderServer{
		service: service,
	}
}

// GetOrder handles the get order gRPC request.
func (s *OrderServer) GetOrder(ctx context.Context, req *pb.GetOrderRequest) (*pb.GetOrderResponse, error) {
	o, err := s.service.GetOrder(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}

	return &pb.GetOrderResponse{Order: OrderToProto(o)}, nil
}

// UpdateStatus handles the update status gRPC request.
func (s *OrderServer) UpdateStatus(
	ctx context.Context,
	req *pb.UpdateStatusRequest,
) (*pb.UpdateStatusResponse, error) {
	slog.Info("Received UpdateStatus gRPC request", "identifier", req.Identifier, "status", req.Status)

	st, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, apperr.Validation("status")
	}

	o, err := s.service.UpdateStatus(ctx, req.Identifier, st, req.TrackingNumber)
	if err != nil {
		return nil, err
	}

	return &pb.UpdateStatusResponse{Order: OrderToProto(o)}, nil
}

// SaveAuditLog handles the save audit log gRPC request.
func (s *OrderServer) SaveAuditLog(
	ctx context.Context,
	req *pb.SaveAuditLogRequest,
) (*pb.SaveAuditLogResponse, error) {
	if req.AuditLog == nil {
		return nil, apperr.Validation("auditLog")
	}

	entry, err := AuditLogFromProto(req.AuditLog)
	if err != nil {
		return nil, err
	}

	saved, err := s.service.SaveAuditLog(ctx, entry)
	if err != nil {
		return nil, err
	}

	slog.Info("Audit log processed", "message_id", entry.MessageID, "saved", saved)

	return &pb.SaveAuditLogResponse{Saved: saved}, nil
}

// OrderToProto converts an order to its wire form.
func OrderToProto(o order.Order) *pb.Order {
	items := make([]*pb.OrderItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = &pb.OrderItem{
			ProductId: item.ProductID,
			Name:      item.Name,
			Quantity:  int32(item.Quantity),
			UnitPrice: item.UnitPrice.StringFixed(2),
		}
	}

	return &pb.Order{
		Id:             o.ID.String(),
		OrderNumber:    o.Number,
		Status:         o.Status.String(),
		PaymentMethod:  o.Payment.Method.String(),
		PaymentStatus:  o.Payment.Status.String(),
		CustomerName:   o.Customer.FullName(),
		CustomerEmail:  o.Customer.Email,
		Total:          o.Totals.Total.StringFixed(2),
		Currency:       o.Payment.Currency.String(),
		TrackingNumber: o.TrackingNumber,
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

// AuditLogFromProto converts a wire audit log to the model.
func AuditLogFromProto(l *pb.AuditLog) (auditlog.AuditLogOrder, error) {
	orderID, err := uuid.Parse(l.OrderId)
	if err != nil {
		return auditlog.AuditLogOrder{}, apperr.Validation("auditLog.orderId")
	}

	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return auditlog.AuditLogOrder{
		MessageID:     l.MessageId,
		OrderID:       orderID,
		OrderNumber:   l.OrderNumber,
		EventType:     l.EventType,
		OrderStatus:   l.OrderStatus,
		PaymentStatus: l.PaymentStatus,
		CreatedAt:     createdAt,
	}, nil
}
