package adminlogin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

type service interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	response.Envelope
	Token string `json:"token"`
}

func AdminLogin(w http.ResponseWriter, r *http.Request, service service) {
	req := loginRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")

		return
	}

	token, err := service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, r, err)

		return
	}

	response.JSON(w, http.StatusOK, loginResponse{
		Envelope: response.OK("Logged in"),
		Token:    token,
	})
}
