package pay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/adapters"
	"github.com/corray333/backend-labs/storefront/internal/service/models/payment"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	Pay(ctx context.Context, identifier string, method payment.Method, in adapters.Input) (adapters.Result, error)
}

// payRequest names the order by id or number and carries the proof of the
// endpoint's method.
type payRequest struct {
	OrderID string `json:"orderId"`
	adapters.Input
}

// Pay runs one payment attempt with method. The status code follows the
// outcome so clients can tell retryable failures from final ones.
func Pay(w http.ResponseWriter, r *http.Request, service service, method payment.Method) {
	req := payRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding payment request", "method", method, "error", err)
		response.BadRequest(w, "invalid request body")

		return
	}
	if strings.TrimSpace(req.OrderID) == "" {
		response.JSON(w, http.StatusBadRequest, response.Envelope{Error: "orderId is required", Fields: []string{"orderId"}})

		return
	}

	res, err := service.Pay(r.Context(), req.OrderID, method, req.Input)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.Payment(w, res)
}
