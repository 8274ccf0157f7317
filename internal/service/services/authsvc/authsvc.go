// Package authsvc issues and checks admin tokens.
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/storefront/internal/apperr"
	"github.com/corray333/backend-labs/storefront/internal/config"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// Claims are carried by admin tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthService authenticates the single configured administrator.
type AuthService struct {
	secret       []byte
	email        string
	passwordHash []byte
	ttl          time.Duration
	now          func() time.Time
}

type option func(*AuthService)

// WithCredentials sets the admin e-mail and bcrypt password hash.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCredentials(email, passwordHash string) option {
	return func(s *AuthService) {
		s.email = email
		s.passwordHash = []byte(passwordHash)
	}
}

// WithSecret sets the HMAC signing secret.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSecret(secret string) option {
	return func(s *AuthService) {
		s.secret = []byte(secret)
	}
}

// MustNewAuthService creates an AuthService from the environment secrets.
func MustNewAuthService(opts ...option) *AuthService {
	env := config.Env()
	s := &AuthService{
		secret:       []byte(env.JWTSecret),
		email:        env.AdminEmail,
		passwordHash: []byte(env.AdminPasswordHash),
		ttl:          time.Duration(viper.GetInt("auth.token_ttl_hours")) * time.Hour,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.secret) == 0 {
		panic("authsvc: JWT secret is required")
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}

	return s
}

// Login checks the admin credentials and returns a signed token.
func (s *AuthService) Login(_ context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", apperr.Validation("email", "password")
	}

	if s.email == "" || len(s.passwordHash) == 0 {
		slog.Warn("Admin login attempted but no admin is configured")

		return "", errBadCredentials
	}
	if email != strings.ToLower(s.email) {
		return "", errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", errBadCredentials
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	slog.Info("Admin logged in", "email", email)

	return signed, nil
}

// ValidateToken returns the claims of a valid admin token.
func (s *AuthService) ValidateToken(tokenString string) (Claims, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}

			return s.secret, nil
		})
	if err != nil {
		return Claims{}, fmt.Errorf("token error: %w", err)
	}

	if !token.Valid {
		return Claims{}, errors.New("token is not valid")
	}
	if claims.Role != RoleAdmin {
		return Claims{}, fmt.Errorf("unexpected role %q", claims.Role)
	}

	return claims, nil
}
