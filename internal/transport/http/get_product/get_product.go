package getproduct

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	GetProduct(ctx context.Context, id string) (product.Product, error)
}

type getProductResponse struct {
	response.Envelope
	Product product.Product `json:"product"`
}

func GetProduct(w http.ResponseWriter, r *http.Request, service service) {
	p, err := service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, getProductResponse{
		Envelope: response.OK(""),
		Product:  p,
	})
}
