// Package auth provides authentication and authorization.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const claimsContextKey contextKey = "claims"

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// HTTPMiddleware extracts a bearer token from the Authorization header,
// verifies it against the TokenIssuer's secret, and adds the resulting
// Claims to the request context. Requests without a valid token are
// rejected with 401 before reaching the handler.
func (t *TokenIssuer) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			writeJSONError(w, http.StatusUnauthorized, "invalid Authorization format, expected: Bearer <token>")
			return
		}

		claims, err := t.Verify(tokenString)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClaims extracts Claims from the request context. Returns nil if the
// request was never authenticated.
func GetClaims(r *http.Request) *Claims {
	if claims, ok := r.Context().Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// RequireRole wraps a TokenIssuer's HTTPMiddleware with a minimum-role
// check, so admin-only routes can be composed as
// RequireRole(issuer, RoleAdmin)(handler).
func RequireRole(t *TokenIssuer, minRole Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return t.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r)
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !Role(claims.Role).AtLeast(minRole) {
				writeJSONError(w, http.StatusForbidden, "forbidden: insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
