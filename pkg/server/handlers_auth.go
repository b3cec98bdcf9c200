package server

import (
	"encoding/json"
	"net/http"

	"github.com/agriquery/gateway/pkg/auth"
	"github.com/agriquery/gateway/pkg/gwerr"
)

// userView is the client-facing projection of auth.User: never the
// password hash, per §4.8's invariant.
type userView struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Role      string  `json:"role"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
	LastLogin *string `json:"last_login,omitempty"`
}

func toUserView(u *auth.User) userView {
	v := userView{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(timeLayout),
	}
	if u.LastLogin != nil {
		s := u.LastLogin.Format(timeLayout)
		v.LastLogin = &s
	}
	return v
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInvalidInput, err, "malformed request body"))
		return
	}

	u, err := s.authSvc.Register(req.Email, req.Password, auth.Profile{FullName: req.FullName})
	if err != nil {
		writeError(w, err)
		return
	}

	token, _, err := s.authSvc.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": toUserView(u)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInvalidInput, err, "malformed request body"))
		return
	}

	token, u, err := s.authSvc.Authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": toUserView(u)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		writeError(w, auth.ErrUnauthorized)
		return
	}
	u, err := s.authSvc.Me(tokenFromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.authSvc.List()
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]userView, len(users))
	for i, u := range users {
		views[i] = toUserView(u)
	}
	writeJSON(w, http.StatusOK, views)
}

type manageUserRequest struct {
	Op string `json:"op"`
}

func (s *Server) handleManageUser(w http.ResponseWriter, r *http.Request) {
	targetID := chiURLParam(r, "id")

	var req manageUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInvalidInput, err, "malformed request body"))
		return
	}

	u, err := s.authSvc.Administer(tokenFromRequest(r), targetID, auth.AdminOp(req.Op))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserView(u))
}

// tokenFromRequest re-extracts the bearer token for calls into auth.Service
// methods that take the raw token rather than pre-verified Claims (Me,
// Administer verify it themselves, matching their direct-client-call
// signatures in §4.8).
func tokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) {
		return h[len(prefix):]
	}
	return ""
}
