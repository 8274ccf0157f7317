package listorders

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	ListOrders(ctx context.Context, filter order.QueryOrdersModel) (order.Page, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

type queryOrdersRequest struct {
	Statuses        []string `schema:"status,omitempty"`
	PaymentStatuses []string `schema:"paymentStatus,omitempty"`
	Email           string   `schema:"email,omitempty"`
	DateFrom        string   `schema:"dateFrom,omitempty"`
	DateTo          string   `schema:"dateTo,omitempty"`
	Page            int      `schema:"page,omitempty"`
	Limit           int      `schema:"limit,omitempty"`
}

// ToModel converts the query to a filter. Dates are whole days; dateTo is inclusive.
func (q *queryOrdersRequest) ToModel() (order.QueryOrdersModel, error) {
	var fields []string
	filter := order.QueryOrdersModel{
		Email: q.Email,
		Limit: q.Limit,
	}

	for _, s := range q.Statuses {
		st, err := order.ParseStatus(s)
		if err != nil {
			fields = append(fields, "status")

			continue
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	for _, s := range q.PaymentStatuses {
		st, err := payment.ParseStatus(s)
		if err != nil {
			fields = append(fields, "paymentStatus")

			continue
		}
		filter.PaymentStatuses = append(filter.PaymentStatuses, st)
	}

	if q.DateFrom != "" {
		from, err := time.Parse(time.DateOnly, q.DateFrom)
		if err != nil {
			fields = append(fields, "dateFrom")
		} else {
			filter.DateFrom = &from
		}
	}
	if q.DateTo != "" {
		to, err := time.Parse(time.DateOnly, q.DateTo)
		if err != nil {
			fields = append(fields, "dateTo")
		} else {
			to = to.AddDate(0, 0, 1)
			filter.DateTo = &to
		}
	}

	if q.Limit < 0 {
		fields = append(fields, "limit")
	}
	if q.Page < 0 {
		fields = append(fields, "page")
	}
	if len(fields) > 0 {
		return order.QueryOrdersModel{}, apperr.Validation(fields...)
	}

	if filter.Limit == 0 {
		filter.Limit = order.DefaultPageSize
	}
	if q.Page > 1 {
		filter.Offset = (q.Page - 1) * filter.Limit
	}

	return filter, nil
}

// ParseQuery decodes the list filter from r's query string.
func ParseQuery(r *http.Request) (order.QueryOrdersModel, error) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		slog.Error("Error decoding request", "error", err)

		return order.QueryOrdersModel{}, apperr.Validation("query")
	}

	return query.ToModel()
}

type listOrdersResponse struct {
	response.Envelope
	Orders     []order.Order `json:"orders"`
	Pagination pagination    `json:"pagination"`
}

type pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalOrders int `json:"totalOrders"`
}

func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	filter, err := ParseQuery(r)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	page, err := service.ListOrders(r.Context(), filter)
	if err != nil {
		slog.Error("Error getting orders", "error", err)
		response.Error(w, r, err)

		return
	}

	orders := page.Orders
	if orders == nil {
		orders = []order.Order{}
	}

	response.JSON(w, http.StatusOK, listOrdersResponse{
		Envelope: response.OK(""),
		Orders:   orders,
		Pagination: pagination{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalOrders: page.TotalOrders,
		},
	})
}
