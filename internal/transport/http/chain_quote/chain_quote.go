package chainquote

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/adapters/chain"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	Quote(ctx context.Context, identifier string) (chain.Quote, error)
}

type quoteRequest struct {
	OrderID string `json:"orderId"`
}

type quoteResponse struct {
	response.Envelope
	Quote chain.Quote `json:"quote"`
}

// ChainQuote tells the customer how much SOL to send and where.
func ChainQuote(w http.ResponseWriter, r *http.Request, service service) {
	req := quoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")

		return
	}

	q, err := service.Quote(r.Context(), req.OrderID)
	if err != nil {
		slog.Error("Error quoting chain payment", "order", req.OrderID, "error", err)
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, quoteResponse{
		Envelope: response.OK(""),
		Quote:    q,
	})
}
