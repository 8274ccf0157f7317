package deleteorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	DeleteOrder(ctx context.Context, identifier string) error
}

func DeleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	id := chi.URLParam(r, "id")
	if err := service.DeleteOrder(r.Context(), id); err != nil {
		slog.Error("Error deleting order", "order", id, "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, response.OK("Order deleted"))
}
