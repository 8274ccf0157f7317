package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/storefront/internal/dal/postgres"
	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
)

// AuditRepository implements the audit repository for PostgreSQL.
type AuditRepository struct {
	conn postgres.GenericConn
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(conn postgres.GenericConn) *AuditRepository {
	return &AuditRepository{
		conn: conn,
	}
}

// SaveAuditLog inserts entry and reports whether it was new.
// A redelivered event with a known message id is ignored.
func (r *AuditRepository) SaveAuditLog(
	ctx context.Context,
	entry auditlog.AuditLogOrder,
) (bool, error) {
	query, args, err := sq.Insert("audit_log_order").
		Columns(
			"message_id",
			"order_id",
			"order_number",
			"event_type",
			"order_status",
			"payment_status",
			"created_at",
		).
		Values(
			entry.MessageID,
			entry.OrderID,
			entry.OrderNumber,
			entry.EventType,
			entry.OrderStatus,
			entry.PaymentStatus,
			entry.CreatedAt,
		).
		Suffix("ON CONFLICT (message_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build audit log insert query: %w", err)
	}

	res, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert audit log: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return n > 0, nil
}
