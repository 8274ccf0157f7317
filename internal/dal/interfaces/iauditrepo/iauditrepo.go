package iauditrepo

import (
	"context"

	"github.com/corray333/backend-labs/storefront/internal/service/models/auditlog"
)

// IAuditRepository is interface for audit repository.
type IAuditRepository interface {
	// SaveAuditLog stores the entry unless its message id was seen before.
	SaveAuditLog(ctx context.Context, entry auditlog.AuditLogOrder) (bool, error)
}
