package ordersvc

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/validation"
)

var exportHeader = []string{
	"Order Number",
	"Date",
	"Customer",
	"Email",
	"Total",
	"Status",
	"Payment Method",
	"Payment Status",
}

// ListOrders returns one page of orders matching filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter order.QueryOrdersModel) (order.Page, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = order.DefaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	work := s.newUOW()

	total, err := work.OrderRepository().Count(ctx, &filter)
	if err != nil {
		return order.Page{}, err
	}

	orders, err := work.OrderRepository().Query(ctx, &filter)
	if err != nil {
		return order.Page{}, err
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := attachItems(ctx, work.OrderItemRepository(), refs); err != nil {
		return order.Page{}, err
	}

	return order.Page{
		Orders:      orders,
		TotalOrders: total,
		CurrentPage: filter.Offset/filter.Limit + 1,
		TotalPages:  (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// UpdateOrder applies an operator edit. Totals, status and payment never change here.
func (s *OrderService) UpdateOrder(ctx context.Context, identifier string, patch order.Patch) (order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.UpdateOrder")
	defer span.End()

	if patch.Customer != nil {
		if err := validation.Struct(patch.Customer); err != nil {
			return order.Order{}, prefixFields(err, "customer.")
		}
	}
	if patch.Shipping != nil {
		if err := validation.Struct(patch.Shipping); err != nil {
			return order.Order{}, prefixFields(err, "shipping.")
		}
	}

	return s.mutate(ctx, identifier, "", func(o *order.Order, now time.Time) (bool, error) {
		o.Apply(patch, now)

		return true, nil
	})
}

// DeleteOrder removes the order and its items.
func (s *OrderService) DeleteOrder(ctx context.Context, identifier string) error {
	ctx, span := tracer.Start(ctx, "OrderService.DeleteOrder")
	defer span.End()

	return s.withinTx(ctx, func(work unitOfWork) error {
		o, err := findOrder(ctx, work.OrderRepository(), identifier, true)
		if err != nil {
			return err
		}

		return work.OrderRepository().Delete(ctx, o.ID)
	})
}

// ExportCSV writes every order matching filter as CSV to w.
// Limit and offset of filter are ignored.
func (s *OrderService) ExportCSV(ctx context.Context, filter order.QueryOrdersModel, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "OrderService.ExportCSV")
	defer span.End()

	filter.Limit, filter.Offset = 0, 0

	orders, err := s.newUOW().OrderRepository().Query(ctx, &filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, o := range orders {
		record := []string{
			o.Number,
			o.CreatedAt.UTC().Format(time.DateOnly),
			csvCell(o.Customer.FullName()),
			csvCell(o.Customer.Email),
			o.Totals.Total.StringFixed(2),
			o.Status.String(),
			o.Payment.Method.String(),
			o.Payment.Status.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

// csvCell quotes text that a spreadsheet would otherwise evaluate as a formula.
func csvCell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}

	return s
}

func prefixFields(err error, prefix string) error {
	fields := apperr.FieldsOf(err)
	if len(fields) == 0 {
		return err
	}

	prefixed := make([]string, len(fields))
	for i, f := range fields {
		prefixed[i] = prefix + f
	}

	return apperr.Validation(prefixed...)
}

// Dashboard returns order counts and revenue.
func (s *OrderService) Dashboard(ctx context.Context) (order.Stats, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Dashboard")
	defer span.End()

	return s.newUOW().OrderRepository().Stats(ctx)
}

// SaveAuditLog stores a delivered order event. It reports false when the
// event was recorded before.
func (s *OrderService) SaveAuditLog(ctx context.Context, entry auditlog.AuditLogOrder) (bool, error) {
	ctx, span := tracer.Start(ctx, "OrderService.SaveAuditLog")
	defer span.End()

	if strings.TrimSpace(entry.MessageID) == "" {
		return false, apperr.Validation("messageId")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	return s.auditRepo.SaveAuditLog(ctx, entry)
}
