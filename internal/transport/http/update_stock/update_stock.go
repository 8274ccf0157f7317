package updatestock

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	UpdateStock(ctx context.Context, id string, stock int) (product.Product, error)
}

type updateStockRequest struct {
	Stock *int `json:"stock"`
}

type updateStockResponse struct {
	response.Envelope
	Product product.Product `json:"product"`
}

// UpdateStock sets the stock level of a product.
func UpdateStock(w http.ResponseWriter, r *http.Request, service service) {
	req := updateStockRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding request body for update stock", "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}
	if req.Stock == nil {
		response.JSON(w, http.StatusBadRequest, response.Envelope{Error: "stock is required", Fields: []string{"stock"}})

		return
	}

	p, err := service.UpdateStock(r.Context(), chi.URLParam(r, "id"), *req.Stock)
	if err != nil {
		slog.Error("Error updating product stock", "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, updateStockResponse{
		Envelope: response.OK("Stock updated successfully"),
		Product:  p,
	})
}
