package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iauditrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	auditrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/audit/postgres"
	productrepo "github.com/corray333/backend-labs/storefront/internal/dal/repositories/product/postgres"
	"github.com/corray333/backend-labs/storefront/internal/dal/uow"
	"github.com/corray333/backend-labs/storefront/internal/service/models/event"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/outbox"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/service/pricing"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ordersvc")

// OrderService owns the order lifecycle. Every mutation runs in one
// transaction together with the outbox event it produces.
type OrderService struct {
	uowFactory func() unitOfWork
	auditRepo  iauditrepo.IAuditRepository
	products   catalog
	calculator *pricing.Calculator

	exchange          string
	outboxMaxRetries  int
	numberGenAttempts int

	now func() time.Time
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// catalog prices new order lines.
type catalog interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]product.Product, error)
}

func (s *OrderService) newUOW() unitOfWork {
	return s.uowFactory()
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		calculator:        pricing.MustNewCalculatorFromConfig(),
		exchange:          viper.GetString("rabbitmq.exchange"),
		outboxMaxRetries:  viper.GetInt("rabbitmq.outbox.max_retries"),
		numberGenAttempts: 3,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.uowFactory == nil || s.products == nil {
		panic("ordersvc: postgres client is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.uowFactory = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient.DB())
		}
		s.auditRepo = auditrepo.NewAuditRepository(pgClient.DB())
		s.products = productrepo.NewPostgresProductRepository(pgClient.DB())
	}
}

// WithCalculator overrides the pricing calculator built from configuration.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCalculator(calc *pricing.Calculator) option {
	return func(s *OrderService) {
		s.calculator = calc
	}
}

// Calculator returns the calculator used for new orders.
func (s *OrderService) Calculator() *pricing.Calculator {
	return s.calculator
}

// withinTx runs fn in a transaction, committing on success.
func (s *OrderService) withinTx(ctx context.Context, fn func(work unitOfWork) error) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(work); err != nil {
		if rbErr := work.Rollback(); rbErr != nil {
			slog.Error("Failed to rollback transaction", "error", rbErr)
		}

		return err
	}

	if err := work.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// mutate locks the order named by identifier, applies fn and persists the
// result together with an event of type evt. Nothing is written when fn
// reports no change. An empty evt writes no event.
func (s *OrderService) mutate(
	ctx context.Context,
	identifier string,
	evt event.Type,
	fn func(o *order.Order, now time.Time) (bool, error),
) (order.Order, error) {
	var result order.Order
	err := s.withinTx(ctx, func(work unitOfWork) error {
		o, err := findOrder(ctx, work.OrderRepository(), identifier, true)
		if err != nil {
			return err
		}

		changed, err := fn(&o, s.now().UTC())
		if err != nil {
			return err
		}

		if changed {
			if err := work.OrderRepository().Update(ctx, o); err != nil {
				return err
			}
			if evt != "" {
				if err := s.enqueue(ctx, work, evt, o); err != nil {
					return err
				}
			}
		}

		if err := attachItems(ctx, work.OrderItemRepository(), []*order.Order{&o}); err != nil {
			return err
		}
		result = o

		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	return result, nil
}

// enqueue writes an outbox message describing o.
func (s *OrderService) enqueue(ctx context.Context, work unitOfWork, t event.Type, o order.Order) error {
	payload, err := json.Marshal(event.FromOrder(t, o))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	now := s.now().UTC()
	msg := outbox.OutboxMessage{
		ExchangeName: s.exchange,
		RoutingKey:   string(t),
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   s.outboxMaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}

	return work.OutboxRepository().Insert(ctx, msg)
}

// findOrder resolves identifier as an order id when it parses as a UUID and
// as an order number otherwise.
func findOrder(
	ctx context.Context,
	repo iorderrepo.IOrderRepository,
	identifier string,
	forUpdate bool,
) (order.Order, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return order.Order{}, apperr.Validation("identifier")
	}

	if id, err := uuid.Parse(identifier); err == nil {
		return repo.GetByID(ctx, id, forUpdate)
	}

	return repo.GetByNumber(ctx, identifier, forUpdate)
}

// attachItems loads the line items of orders with a single query.
func attachItems(ctx context.Context, repo iorderitemrepo.IOrderItemRepository, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	filter := &orderitem.QueryOrderItemsModel{}
	byID := make(map[uuid.UUID]*order.Order, len(orders))
	for _, o := range orders {
		filter.OrderIds = append(filter.OrderIds, o.ID)
		o.Items = []orderitem.OrderItem{}
		byID[o.ID] = o
	}

	items, err := repo.Query(ctx, filter)
	if err != nil {
		return err
	}

	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	return nil
}
