package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/models/order"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	Dashboard(ctx context.Context) (order.Stats, error)
}

type dashboardResponse struct {
	response.Envelope
	Stats order.Stats `json:"stats"`
}

func Dashboard(w http.ResponseWriter, r *http.Request, service service) {
	stats, err := service.Dashboard(r.Context())
	if err != nil {
		slog.Error("Error loading dashboard", "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, dashboardResponse{
		Envelope: response.OK(""),
		Stats:    stats,
	})
}
