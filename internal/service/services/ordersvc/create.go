package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/corray333/backend-labs/storefront/internal/service/models/event"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/service/validation"
	"github.com/google/uuid"
)

// CreateOrder validates the draft, prices it and stores a pending order.
func (s *OrderService) CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	o, err := s.buildOrder(ctx, draft)
	if err != nil {
		return order.Order{}, err
	}

	for attempt := 1; ; attempt++ {
		o.Number = order.NewNumber(o.CreatedAt)

		err = s.withinTx(ctx, func(work unitOfWork) error {
			if err := work.OrderRepository().Insert(ctx, o); err != nil {
				return err
			}
			if err := work.OrderItemRepository().BulkInsert(ctx, o.Items); err != nil {
				return err
			}

			return s.enqueue(ctx, work, event.TypeOrderCreated, o)
		})
		if !errors.Is(err, iorderrepo.ErrNumberTaken) || attempt >= s.numberGenAttempts {
			break
		}

		slog.Warn("Order number already taken, generating another", "number", o.Number, "attempt", attempt)
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	slog.Info("Order created", "order_number", o.Number, "total", o.Totals.Total.StringFixed(2))

	return o, nil
}

func (s *OrderService) buildOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	var fields []string
	if err := validation.Struct(draft); err != nil {
		if !errors.Is(err, apperr.ErrValidation) {
			return order.Order{}, err
		}
		fields = append(fields, apperr.FieldsOf(err)...)
	}

	method, err := payment.ParseMethod(strings.ToLower(strings.TrimSpace(draft.PaymentMethod)))
	if err != nil && draft.PaymentMethod != "" {
		fields = append(fields, "paymentMethod")
	}

	cur := currency.Default
	if draft.Currency != "" {
		if cur, err = currency.ParseCurrency(draft.Currency); err != nil {
			fields = append(fields, "currency")
		}
	}

	items, itemFields, err := s.priceItems(ctx, draft.Items)
	if err != nil {
		return order.Order{}, err
	}
	fields = append(fields, itemFields...)

	if len(fields) > 0 {
		return order.Order{}, apperr.Validation(fields...)
	}

	now := s.now().UTC()
	id := uuid.New()

	o := order.Order{
		ID:        id,
		Customer:  draft.Customer,
		Shipping:  draft.Shipping,
		Items:     items,
		Status:    order.StatusPending,
		Notes:     strings.TrimSpace(draft.Notes),
		Totals:    s.calculator.Compute(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Customer.Email = strings.TrimSpace(o.Customer.Email)
	o.Payment = payment.Payment{
		Method:   method,
		Status:   payment.StatusPending,
		Amount:   o.Totals.Total,
		Currency: cur,
	}

	for i := range o.Items {
		o.Items[i].OrderID = id
		o.Items[i].Position = i
	}

	return o, nil
}

// priceItems copies the cart lines with catalog names and prices. The price
// the shopper saw must still be the catalog price, in whole cents. Lines for
// unknown or unavailable products and quantities above stock are rejected.
func (s *OrderService) priceItems(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, []string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id := strings.TrimSpace(item.ProductID); id != "" {
			ids = append(ids, id)
		}
	}

	found, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}

	var fields []string
	priced := make([]orderitem.OrderItem, 0, len(items))
	for i, item := range items {
		item.ProductID = strings.TrimSpace(item.ProductID)
		p, known := found[item.ProductID]

		if !item.UnitPrice.IsPositive() || !item.UnitPrice.Equal(item.UnitPrice.Round(2)) ||
			(known && !item.UnitPrice.Equal(p.Price)) {
			fields = append(fields, fmt.Sprintf("items[%d].price", i))
		}

		switch {
		case !known || !p.IsAvailable:
			fields = append(fields, fmt.Sprintf("items[%d].productId", i))
		case item.Quantity > 0 && !p.CanFulfil(item.Quantity):
			fields = append(fields, fmt.Sprintf("items[%d].quantity", i))
		}

		if known {
			item.Name = p.Name
			item.UnitPrice = p.Price
			if strings.TrimSpace(item.Specs) == "" {
				item.Specs = p.Specs.Dosage
			}
		}
		priced = append(priced, item)
	}

	return priced, fields, nil
}
