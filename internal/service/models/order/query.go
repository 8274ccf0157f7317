package order

import (
	"time"

	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
)

// DefaultPageSize is used when a list request does not set a limit.
const DefaultPageSize = 20

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Statuses        []Status         `json:"statuses,omitempty"`
	PaymentStatuses []payment.Status `json:"paymentStatuses,omitempty"`
	Email           string           `json:"email,omitempty"`
	DateFrom        *time.Time       `json:"dateFrom,omitempty"`
	DateTo          *time.Time       `json:"dateTo,omitempty"`
	Limit           int              `json:"limit,omitempty"`
	Offset          int              `json:"offset,omitempty"`
}

// Page is one page of a filtered order listing.
type Page struct {
	Orders      []Order `json:"orders"`
	TotalOrders int     `json:"totalOrders"`
	CurrentPage int     `json:"currentPage"`
	TotalPages  int     `json:"totalPages"`
}
