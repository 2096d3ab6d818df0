// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"amora_server/services"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (*services.TokenClaims, error)
}

// Auth requires a valid "Authorization: Bearer <idToken>" header and stores
// the token's claims in the request context.
func Auth(verifier TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "Authorization header is missing")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
				unauthorized(w, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), parts[1])
			if err != nil {
				log.Debugf("rejected token: %v", err)
				unauthorized(w, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": msg})
}

// WithClaims attaches verified claims to ctx.
func WithClaims(ctx context.Context, claims *services.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFrom returns the claims stored by Auth, or nil.
func ClaimsFrom(ctx context.Context) *services.TokenClaims {
	claims, _ := ctx.Value(claimsKey).(*services.TokenClaims)
	return claims
}

// UserIDFrom returns the authenticated user's id, or "".
func UserIDFrom(ctx context.Context) string {
	if c := ClaimsFrom(ctx); c != nil {
		return c.UID
	}
	return ""
}

// IsAdmin reports whether the caller carries the admin custom claim.
func IsAdmin(ctx context.Context) bool {
	c := ClaimsFrom(ctx)
	return c != nil && c.Admin
}
