package listproducts

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/service/models/product"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/gorilla/schema"
)

type service interface {
	ListProducts(ctx context.Context, filter product.QueryProductsModel) ([]product.Product, error)
}

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}()

type queryProductsRequest struct {
	Category  string `schema:"category,omitempty"`
	Available string `schema:"available,omitempty"`
}

func (q *queryProductsRequest) ToModel() (product.QueryProductsModel, error) {
	var fields []string
	filter := product.QueryProductsModel{}

	if q.Category != "" {
		category, err := product.ParseCategory(q.Category)
		if err != nil {
			fields = append(fields, "category")
		}
		filter.Category = category
	}
	if q.Available != "" {
		available, err := strconv.ParseBool(q.Available)
		if err != nil {
			fields = append(fields, "available")
		}
		filter.Available = &available
	}

	if len(fields) > 0 {
		return product.QueryProductsModel{}, apperr.Validation(fields...)
	}

	return filter, nil
}

type listProductsResponse struct {
	response.Envelope
	Count    int               `json:"count"`
	Products []product.Product `json:"products"`
}

// ListProducts returns the catalog filtered by category and availability.
func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryProductsRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		slog.Error("Error decoding request", "error", err)
		response.Error(w, r, apperr.Validation("query"))

		return
	}

	filter, err := query.ToModel()
	if err != nil {
		response.Error(w, r, err)

		return
	}

	products, err := service.ListProducts(r.Context(), filter)
	if err != nil {
		slog.Error("Error getting products", "error", err)
		response.Error(w, r, err)

		return
	}
	if products == nil {
		products = []product.Product{}
	}

	response.JSON(w, http.StatusOK, listProductsResponse{
		Envelope: response.OK(""),
		Count:    len(products),
		Products: products,
	})
}
