package handlers

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/karstforge/speleosync/api"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/middlewares"
	"github.com/karstforge/speleosync/internal/utils/apiError"
	"github.com/karstforge/speleosync/internal/utils/decoding"
	"github.com/karstforge/speleosync/internal/utils/validate"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto api.LoginRequest
	err := decoding.HttpBodyAsJson(w, r, &dto)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	err = validate.Validate(dto)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	user, ok, err := h.Store.UserByEmail(dto.Email)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	// The compare runs even for unknown users so the response time does not
	// reveal which of the two was wrong.
	password := ""
	if ok {
		password = user.Password
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(dto.Password)) != 1 || !ok {
		apiError.HandleHttpError(w, fmt.Errorf("invalid email or password: %w", apiError.ErrApiUnauthorized))
		return
	}

	token, err := h.issueToken(r, user.Email)
	if err != nil {
		apiError.HandleHttpError(w, err)
		return
	}

	writeJson(w, http.StatusOK, api.LoginResponse{Token: token})
}

func (h *Handler) issueToken(r *http.Request, email string) (string, error) {
	now := h.Clock.Now()
	ttl := time.Duration(h.Auth.TokenTtlMinutes) * time.Minute
	jti := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.Auth.JwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	err = h.Kv.Set(r.Context(), middlewares.SessionKey(jti), email, kv.WithExpiration(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}

	return token, nil
}
