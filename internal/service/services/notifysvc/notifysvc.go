package notifysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/corray333/backend-labs/storefront/internal/service/models/event"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	pb "github.com/corray333/backend-labs/storefront/pkg/api/v1"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrMalformed marks a delivery that can never be processed.
var ErrMalformed = errors.New("malformed event")

type orderClient interface {
	GetOrder(ctx context.Context, identifier string) (*pb.Order, error)
	SaveAuditLog(ctx context.Context, log *pb.AuditLog) (bool, error)
}

type mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotifyService records delivered order events and e-mails customers about them.
type NotifyService struct {
	orders orderClient
	mailer mailer
}

// option is a function that configures the NotifyService.
type option func(*NotifyService)

// MustNewNotifyService creates a new NotifyService.
func MustNewNotifyService(opts ...option) *NotifyService {
	s := &NotifyService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.orders == nil {
		panic("notifysvc: order client is required")
	}

	return s
}

// WithOrderClient sets the order service client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderClient(c orderClient) option {
	return func(s *NotifyService) {
		s.orders = c
	}
}

// WithMailer sets the e-mail sender. Without one no e-mail is sent.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithMailer(m mailer) option {
	return func(s *NotifyService) {
		s.mailer = m
	}
}

// HandleEvent processes one delivery. The audit log deduplicates by
// messageID, so a redelivered event sends no second e-mail. E-mail failures
// are logged and never fail the delivery.
func (s *NotifyService) HandleEvent(ctx context.Context, messageID string, body []byte) error {
	ctx, span := otel.Tracer("service").Start(ctx, "NotifyService.HandleEvent")
	defer span.End()
	span.SetAttributes(attribute.String("messaging.message_id", messageID))

	var evt event.OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if messageID == "" || evt.Type == "" {
		return fmt.Errorf("%w: missing message id or type", ErrMalformed)
	}

	saved, err := s.orders.SaveAuditLog(ctx, &pb.AuditLog{
		MessageId:     messageID,
		OrderId:       evt.OrderID.String(),
		OrderNumber:   evt.OrderNumber,
		EventType:     string(evt.Type),
		OrderStatus:   evt.Status.String(),
		PaymentStatus: evt.PaymentStatus.String(),
		CreatedAt:     evt.OccurredAt,
	})
	if err != nil {
		return err
	}
	if !saved {
		slog.Info("Duplicate event skipped", "message_id", messageID, "order_number", evt.OrderNumber)

		return nil
	}

	s.notify(ctx, evt)

	return nil
}

func (s *NotifyService) notify(ctx context.Context, evt event.OrderEvent) {
	tmpl, ok := emailFor(evt)
	if !ok || s.mailer == nil {
		return
	}

	o, err := s.orders.GetOrder(ctx, evt.OrderID.String())
	if err != nil {
		slog.Error("Failed to load order for e-mail", "order_number", evt.OrderNumber, "error", err)

		return
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, o); err != nil {
		slog.Error("Failed to render e-mail", "order_number", o.OrderNumber, "template", tmpl.body.Name(), "error", err)

		return
	}

	subject := fmt.Sprintf(tmpl.subject, o.OrderNumber)
	if err := s.mailer.Send(ctx, o.CustomerEmail, subject, body.String()); err != nil {
		slog.Error("Failed to send e-mail", "order_number", o.OrderNumber, "error", err)

		return
	}

	slog.Info("E-mail sent", "order_number", o.OrderNumber, "template", tmpl.body.Name())
}

type email struct {
	subject string
	body    *template.Template
}

func emailFor(evt event.OrderEvent) (email, bool) {
	switch {
	case evt.Type == event.TypeOrderCreated:
		return email{subject: "Order %s received", body: confirmationTemplate}, true
	case evt.Type == event.TypeOrderPaymentConfirmed:
		return email{subject: "Payment received for order %s", body: paymentTemplate}, true
	case evt.Type == event.TypeOrderStatusChanged && evt.Status == order.StatusShipped:
		return email{subject: "Order %s has shipped", body: shippedTemplate}, true
	default:
		return email{}, false
	}
}
