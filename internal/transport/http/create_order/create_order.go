package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/shopspring/decimal"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Specs     string          `json:"specs"`
}

// createOrderRequest represents a create order request.
// Validation happens in the service so that field paths match the draft.
type createOrderRequest struct {
	Customer      order.Customer             `json:"customer"`
	Shipping      order.ShippingAddress      `json:"shipping"`
	Items         []itemInCreateOrderRequest `json:"items"`
	PaymentMethod string                     `json:"paymentMethod"`
	Currency      string                     `json:"currency"`
	Notes         string                     `json:"notes"`
}

// toModel converts createOrderRequest to order.Draft.
func (r *createOrderRequest) toModel() order.Draft {
	items := make([]orderitem.OrderItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = orderitem.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			Specs:     item.Specs,
		}
	}

	return order.Draft{
		Customer:      r.Customer,
		Shipping:      r.Shipping,
		Items:         items,
		PaymentMethod: r.PaymentMethod,
		Currency:      r.Currency,
		Notes:         r.Notes,
	}
}

type createOrderResponse struct {
	response.Envelope
	Order order.Order `json:"order"`
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for create order", "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toModel())
	if err != nil {
		slog.Error("Error creating order", "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusCreated, createOrderResponse{
		Envelope: response.OK("Order created"),
		Order:    created,
	})
}
