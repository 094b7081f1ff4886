package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/karstforge/speleosync/internal/kv"
	"github.com/karstforge/speleosync/internal/utils/apiError"
)

type currentUserKeyType string

const currentUserKey currentUserKeyType = "currentUser"

func ContextWithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, currentUserKey, email)
}

func UserFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(currentUserKey).(string)
	return email, ok
}

// TokenAuthMiddleware enforces the backend's `Authorization: Token <t>`
// scheme. A token is valid when its signature and expiry check out and its
// jti is still present in the session store.
func TokenAuthMiddleware(jwtSecret string, sessions kv.Store) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := authenticate(r, jwtSecret, sessions)
			if err != nil {
				apiError.HandleHttpError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), email)))
		})
	}
}

func authenticate(r *http.Request, jwtSecret string, sessions kv.Store) (string, error) {
	tokenStr, err := extractToken(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", apiError.ErrApiUnauthorized)
	}

	_, ok, err := sessions.Get(r.Context(), SessionKey(claims.ID))
	if err != nil {
		return "", fmt.Errorf("failed to check session: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("session expired: %w", apiError.ErrApiUnauthorized)
	}

	return claims.Subject, nil
}

func extractToken(header string) (string, error) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") || token == "" {
		return "", fmt.Errorf("missing or malformed Authorization header: %w", apiError.ErrApiUnauthorized)
	}

	return token, nil
}

func SessionKey(jti string) string {
	return "session:" + jti
}
