package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/gwerr"
)

// chiURLParam reads a path parameter, thin wrapper so handler files don't
// each import chi directly.
func chiURLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// decodeJSON decodes the request body into dst, returning an
// invalid-input domain error on failure.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return gwerr.Wrap(gwerr.KindInvalidInput, err, "malformed request body")
	}
	return nil
}

// currentUserID returns the authenticated caller's subject, or "" if the
// request was never authenticated.
func currentUserID(r *http.Request) string {
	claims := auth.GetClaims(r)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
