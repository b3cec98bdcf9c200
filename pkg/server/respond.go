package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/session"
	"github.com/agriquery/gateway/pkg/weather"
)

// writeJSON encodes payload as the response body with status, per the
// health/schema-endpoint style of json.NewEncoder(w).Encode used
// throughout the gateway's upstream adapters.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorBody is the uniform JSON shape for every non-2xx response.
type errorBody struct {
	Error      string   `json:"error"`
	Field      string   `json:"field,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	TraceID    string   `json:"trace_id,omitempty"`
}

// writeError translates err to a status code via the §7 kind table and
// writes the uniform error body. Plain auth-package errors and
// weather.ErrUnknownLocation are recognized alongside *gwerr.Error so
// every component's failures funnel through one status mapping.
func writeError(w http.ResponseWriter, err error) {
	status, body := classify(err)
	writeJSON(w, status, body)
}

func classify(err error) (int, errorBody) {
	var unknown *weather.ErrUnknownLocation
	if errors.As(err, &unknown) {
		names := make([]string, len(unknown.Candidates))
		for i, c := range unknown.Candidates {
			names[i] = c.CanonicalName
		}
		return http.StatusNotFound, errorBody{Error: err.Error(), Candidates: names}
	}

	if gerr, ok := gwerr.As(err); ok {
		return statusForKind(gerr.Kind), errorBody{Error: gerr.Message, Field: gerr.Field}
	}

	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrDuplicateEmail):
		return http.StatusConflict, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrSelfTarget), errors.Is(err, auth.ErrSoleSuperAdmin):
		return http.StatusConflict, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrUnknownOperation):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrInactiveUser), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: err.Error()}
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func statusForKind(kind gwerr.Kind) int {
	switch kind {
	case gwerr.KindInvalidInput:
		return http.StatusBadRequest
	case gwerr.KindUnauthorized:
		return http.StatusUnauthorized
	case gwerr.KindForbidden:
		return http.StatusForbidden
	case gwerr.KindNotFound:
		return http.StatusNotFound
	case gwerr.KindConflict:
		return http.StatusConflict
	case gwerr.KindDeadlineExceeded:
		return http.StatusRequestTimeout
	case gwerr.KindBackendUnavailable, gwerr.KindTimeout, gwerr.KindBackendRejected:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
