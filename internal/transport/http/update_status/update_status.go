package updatestatus

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
	UpdateStatus(ctx context.Context, identifier string, status order.Status, trackingNumber string) (order.Order, error)
}

type updateStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber"`
}

type updateStatusResponse struct {
	response.Envelope
	Order order.Order `json:"order"`
}

// UpdateStatus moves an order along its fulfilment states.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for update status", "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, response.Envelope{Error: "invalid status", Fields: []string{"status"}})

		return
	}

	o, err := service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, req.TrackingNumber)
	if err != nil {
		slog.Error("Error updating order status", "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, updateStatusResponse{
		Envelope: response.OK("Order status updated"),
		Order:    o,
	})
}
