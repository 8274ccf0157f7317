package paymentstatus

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/service/services/paymentsvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
	"github.com/go-chi/chi/v5"
)

type service interface {
	Status(ctx context.Context, identifier string) (paymentsvc.Status, error)
}

type statusResponse struct {
	response.Envelope
	Payment paymentsvc.Status `json:"payment"`
}

func PaymentStatus(w http.ResponseWriter, r *http.Request, service service) {
	st, err := service.Status(r.Context(), chi.URLParam(r, "identifier"))
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, statusResponse{
		Envelope: response.OK(""),
		Payment:  st,
	})
}
