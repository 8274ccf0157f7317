package getorder

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GetOrder(ctx context.Context, identifier string) (order.Order, error)
}

type getOrderResponse struct {
	response.Envelope
	Order order.Order `json:"order"`
}

// GetOrder returns one order by id or order number.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	o, err := service.GetOrder(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, getOrderResponse{
		Envelope: response.OK(""),
		Order:    o,
	})
}
