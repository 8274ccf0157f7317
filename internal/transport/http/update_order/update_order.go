package updateorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	UpdateOrder(ctx context.Context, identifier string, patch order.Patch) (order.Order, error)
}

type updateOrderResponse struct {
	response.Envelope
	Order order.Order `json:"order"`
}

// UpdateOrder applies an operator edit of customer, shipping, notes or tracking.
func UpdateOrder(w http.ResponseWriter, r *http.Request, service service) {
	patch := order.Patch{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		slog.Error("Error decoding request body for update order", "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}

	o, err := service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		slog.Error("Error updating order", "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, updateOrderResponse{
		Envelope: response.OK("Order updated"),
		Order:    o,
	})
}
