package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/currency"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	numberConstraint = "orders_order_number_key"
	proofConstraint  = "orders_payment_proof_key"
)

var orderColumns = []string{
	"id",
	"order_number",
	"customer_first_name",
	"customer_last_name",
	"customer_email",
	"customer_phone",
	"shipping_address",
	"shipping_city",
	"shipping_state",
	"shipping_zip_code",
	"shipping_country",
	"shipping_notes",
	"payment_method",
	"payment_status",
	"payment_proof",
	"payment_amount_cents",
	"payment_currency",
	"payment_failure_reason",
	"payment_confirmed_at",
	"subtotal_cents",
	"tax_cents",
	"shipping_cents",
	"total_cents",
	"status",
	"tracking_number",
	"notes",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	ID                   uuid.UUID      `db:"id"`
	Number               string         `db:"order_number"`
	CustomerFirstName    string         `db:"customer_first_name"`
	CustomerLastName     string         `db:"customer_last_name"`
	CustomerEmail        string         `db:"customer_email"`
	CustomerPhone        string         `db:"customer_phone"`
	ShippingAddress      string         `db:"shipping_address"`
	ShippingCity         string         `db:"shipping_city"`
	ShippingState        string         `db:"shipping_state"`
	ShippingZipCode      string         `db:"shipping_zip_code"`
	ShippingCountry      string         `db:"shipping_country"`
	ShippingNotes        string         `db:"shipping_notes"`
	PaymentMethod        string         `db:"payment_method"`
	PaymentStatus        string         `db:"payment_status"`
	PaymentProof         sql.NullString `db:"payment_proof"`
	PaymentAmountCents   int64          `db:"payment_amount_cents"`
	PaymentCurrency      string         `db:"payment_currency"`
	PaymentFailureReason string         `db:"payment_failure_reason"`
	PaymentConfirmedAt   sql.NullTime   `db:"payment_confirmed_at"`
	SubtotalCents        int64          `db:"subtotal_cents"`
	TaxCents             int64          `db:"tax_cents"`
	ShippingCents        int64          `db:"shipping_cents"`
	TotalCents           int64          `db:"total_cents"`
	Status               string         `db:"status"`
	TrackingNumber       string         `db:"tracking_number"`
	Notes                string         `db:"notes"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.ID,
		&o.Number,
		&o.CustomerFirstName,
		&o.CustomerLastName,
		&o.CustomerEmail,
		&o.CustomerPhone,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingState,
		&o.ShippingZipCode,
		&o.ShippingCountry,
		&o.ShippingNotes,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.PaymentProof,
		&o.PaymentAmountCents,
		&o.PaymentCurrency,
		&o.PaymentFailureReason,
		&o.PaymentConfirmedAt,
		&o.SubtotalCents,
		&o.TaxCents,
		&o.ShippingCents,
		&o.TotalCents,
		&o.Status,
		&o.TrackingNumber,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func (o *OrderDal) values() []any {
	return []any{
		o.ID,
		o.Number,
		o.CustomerFirstName,
		o.CustomerLastName,
		o.CustomerEmail,
		o.CustomerPhone,
		o.ShippingAddress,
		o.ShippingCity,
		o.ShippingState,
		o.ShippingZipCode,
		o.ShippingCountry,
		o.ShippingNotes,
		o.PaymentMethod,
		o.PaymentStatus,
		o.PaymentProof,
		o.PaymentAmountCents,
		o.PaymentCurrency,
		o.PaymentFailureReason,
		o.PaymentConfirmedAt,
		o.SubtotalCents,
		o.TaxCents,
		o.ShippingCents,
		o.TotalCents,
		o.Status,
		o.TrackingNumber,
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (order.Order, error) {
	cur, err := currency.ParseCurrency(o.PaymentCurrency)
	if err != nil {
		return order.Order{}, err
	}
	method, err := payment.ParseMethod(o.PaymentMethod)
	if err != nil {
		return order.Order{}, err
	}
	paymentStatus, err := payment.ParseStatus(o.PaymentStatus)
	if err != nil {
		return order.Order{}, err
	}
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return order.Order{}, err
	}

	var confirmedAt *time.Time
	if o.PaymentConfirmedAt.Valid {
		t := o.PaymentConfirmedAt.Time
		confirmedAt = &t
	}

	return order.Order{
		ID:     o.ID,
		Number: o.Number,
		Customer: order.Customer{
			FirstName: o.CustomerFirstName,
			LastName:  o.CustomerLastName,
			Email:     o.CustomerEmail,
			Phone:     o.CustomerPhone,
		},
		Shipping: order.ShippingAddress{
			Address: o.ShippingAddress,
			City:    o.ShippingCity,
			State:   o.ShippingState,
			ZipCode: o.ShippingZipCode,
			Country: o.ShippingCountry,
			Notes:   o.ShippingNotes,
		},
		Payment: payment.Payment{
			Method:        method,
			Status:        paymentStatus,
			Proof:         o.PaymentProof.String,
			Amount:        FromCents(o.PaymentAmountCents),
			Currency:      cur,
			FailureReason: o.PaymentFailureReason,
			ConfirmedAt:   confirmedAt,
		},
		Totals: order.Totals{
			Subtotal: FromCents(o.SubtotalCents),
			Tax:      FromCents(o.TaxCents),
			Shipping: FromCents(o.ShippingCents),
			Total:    FromCents(o.TotalCents),
		},
		Status:         status,
		TrackingNumber: o.TrackingNumber,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal
func OrderDalFromModel(o order.Order) *OrderDal {
	dal := &OrderDal{
		ID:                   o.ID,
		Number:               o.Number,
		CustomerFirstName:    o.Customer.FirstName,
		CustomerLastName:     o.Customer.LastName,
		CustomerEmail:        o.Customer.Email,
		CustomerPhone:        o.Customer.Phone,
		ShippingAddress:      o.Shipping.Address,
		ShippingCity:         o.Shipping.City,
		ShippingState:        o.Shipping.State,
		ShippingZipCode:      o.Shipping.ZipCode,
		ShippingCountry:      o.Shipping.Country,
		ShippingNotes:        o.Shipping.Notes,
		PaymentMethod:        o.Payment.Method.String(),
		PaymentStatus:        o.Payment.Status.String(),
		PaymentProof:         sql.NullString{String: o.Payment.Proof, Valid: o.Payment.Proof != ""},
		PaymentAmountCents:   ToCents(o.Payment.Amount),
		PaymentCurrency:      o.Payment.Currency.String(),
		PaymentFailureReason: o.Payment.FailureReason,
		SubtotalCents:        ToCents(o.Totals.Subtotal),
		TaxCents:             ToCents(o.Totals.Tax),
		ShippingCents:        ToCents(o.Totals.Shipping),
		TotalCents:           ToCents(o.Totals.Total),
		Status:               o.Status.String(),
		TrackingNumber:       o.TrackingNumber,
		Notes:                o.Notes,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
	if o.Payment.ConfirmedAt != nil {
		dal.PaymentConfirmedAt = sql.NullTime{Time: *o.Payment.ConfirmedAt, Valid: true}
	}

	return dal
}

// ToCents converts an amount with at most two decimal places to cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents converts cents to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

type PostgresOrderRepository struct {
	conn postgres.GenericConn
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert stores a new order without its items.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) error {
	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(OrderDalFromModel(o).values()...).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return mapWriteError(err, "failed to insert order")
	}

	return nil
}

// GetByID returns the order with the given id.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (order.Order, error) {
	o, err := r.getOne(ctx, sq.Eq{"id": id}, forUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, apperr.NotFound("order %s not found", id)
	}

	return o, err
}

// GetByNumber returns the order with the given order number.
func (r *PostgresOrderRepository) GetByNumber(ctx context.Context, number string, forUpdate bool) (order.Order, error) {
	o, err := r.getOne(ctx, sq.Eq{"order_number": number}, forUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Order{}, apperr.NotFound("order %s not found", number)
	}

	return o, err
}

func (r *PostgresOrderRepository) getOne(ctx context.Context, where sq.Eq, forUpdate bool) (order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(where).
		PlaceholderFormat(sq.Dollar)
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, err
		}

		return order.Order{}, fmt.Errorf("failed to scan order: %w", err)
	}

	o, err := dal.ToModel()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return o, nil
}

// Update overwrites the mutable columns of an order.
func (r *PostgresOrderRepository) Update(ctx context.Context, o order.Order) error {
	dal := OrderDalFromModel(o)

	query, args, err := sq.Update("orders").
		SetMap(map[string]any{
			"customer_first_name":    dal.CustomerFirstName,
			"customer_last_name":     dal.CustomerLastName,
			"customer_email":         dal.CustomerEmail,
			"customer_phone":         dal.CustomerPhone,
			"shipping_address":       dal.ShippingAddress,
			"shipping_city":          dal.ShippingCity,
			"shipping_state":         dal.ShippingState,
			"shipping_zip_code":      dal.ShippingZipCode,
			"shipping_country":       dal.ShippingCountry,
			"shipping_notes":         dal.ShippingNotes,
			"payment_status":         dal.PaymentStatus,
			"payment_proof":          dal.PaymentProof,
			"payment_failure_reason": dal.PaymentFailureReason,
			"payment_confirmed_at":   dal.PaymentConfirmedAt,
			"status":                 dal.Status,
			"tracking_number":        dal.TrackingNumber,
			"notes":                  dal.Notes,
			"updated_at":             dal.UpdatedAt,
		}).
		Where(sq.Eq{"id": dal.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, "failed to update order")
	}

	return requireAffected(res, o.ID)
}

// Delete removes an order and, through the foreign key, its items.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := sq.Delete("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return requireAffected(res, id)
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := applyFilter(sq.Select(orderColumns...).From("orders"), filter).
		OrderBy("created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Count returns the number of orders matching filter, ignoring limit and offset.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter *order.QueryOrdersModel) (int, error) {
	query, args, err := applyFilter(sq.Select("COUNT(*)").From("orders"), filter).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return count, nil
}

// Stats aggregates order counts and revenue for the dashboard.
func (r *PostgresOrderRepository) Stats(ctx context.Context) (order.Stats, error) {
	stats := order.Stats{ByStatus: map[order.Status]int{}}

	query, args, err := sq.Select("status", "COUNT(*)").
		From("orders").
		GroupBy("status").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build stats query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return stats, fmt.Errorf("failed to query order stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan order stats: %w", err)
		}
		stats.ByStatus[order.Status(status)] = count
		stats.TotalOrders += count
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("rows iteration error: %w", err)
	}

	query, args, err = sq.Select(
		"COUNT(*) FILTER (WHERE payment_status = 'completed')",
		"COALESCE(SUM(total_cents) FILTER (WHERE payment_status = 'completed'), 0)",
		"COUNT(*) FILTER (WHERE payment_status IN ('pending', 'processing'))",
	).
		From("orders").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return stats, fmt.Errorf("failed to build revenue query: %w", err)
	}

	var revenueCents int64
	if err := r.conn.QueryRowContext(ctx, query, args...).
		Scan(&stats.PaidOrders, &revenueCents, &stats.PendingPayments); err != nil {
		return stats, fmt.Errorf("failed to query revenue: %w", err)
	}
	stats.Revenue = FromCents(revenueCents)

	return stats, nil
}

func applyFilter(b sq.SelectBuilder, filter *order.QueryOrdersModel) sq.SelectBuilder {
	if filter == nil {
		return b
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		b = b.Where(sq.Eq{"status": statuses})
	}

	if len(filter.PaymentStatuses) > 0 {
		statuses := make([]string, len(filter.PaymentStatuses))
		for i, s := range filter.PaymentStatuses {
			statuses[i] = s.String()
		}
		b = b.Where(sq.Eq{"payment_status": statuses})
	}

	if filter.Email != "" {
		b = b.Where(sq.Eq{"lower(customer_email)": strings.ToLower(filter.Email)})
	}

	if filter.DateFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		b = b.Where(sq.Lt{"created_at": *filter.DateTo})
	}

	return b
}

func mapWriteError(err error, msg string) error {
	switch {
	case postgres.IsUniqueViolation(err, numberConstraint):
		return iorderrepo.ErrNumberTaken
	case postgres.IsUniqueViolation(err, proofConstraint):
		return apperr.Conflict("this payment proof is already attached to another order")
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func requireAffected(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperr.NotFound("order %s not found", id)
	}

	return nil
}
