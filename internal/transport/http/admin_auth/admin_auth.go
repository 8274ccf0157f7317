package adminauth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/storefront/internal/service/services/authsvc"
	"github.com/corray333/backend-labs/storefront/internal/transport/http/response"
)

const unauthorizedMessage = "Please authenticate as admin"

type validator interface {
	ValidateToken(tokenString string) (authsvc.Claims, error)
}

type ctxKey struct{}

// ClaimsFromContext returns the admin claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (authsvc.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(authsvc.Claims)

	return claims, ok
}

// NewAdminMiddleware rejects requests without a valid admin bearer token.
func NewAdminMiddleware(v validator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if authHeader == "" || tokenString == authHeader {
				response.JSON(w, http.StatusUnauthorized, response.Envelope{Error: unauthorizedMessage})

				return
			}

			claims, err := v.ValidateToken(tokenString)
			if err != nil {
				slog.WarnContext(r.Context(), "Invalid admin token", "error", err)
				response.JSON(w, http.StatusUnauthorized, response.Envelope{Error: unauthorizedMessage})

				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}
