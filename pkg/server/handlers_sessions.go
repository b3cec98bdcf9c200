package server

import (
	"net/http"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/session"
)

type saveConversationRequest struct {
	SessionID string            `json:"session_id"`
	Title     string            `json:"title,omitempty"`
	Messages  []session.Message `json:"messages"`
	UserID    string            `json:"user_id"`
}

func (s *Server) handleConversationSave(w http.ResponseWriter, r *http.Request) {
	var req saveConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID == "" || req.SessionID == "" {
		writeError(w, gwerr.New(gwerr.KindInvalidInput, "user_id and session_id are required"))
		return
	}

	for _, msg := range req.Messages {
		if msg.ID == "" {
			msg.ID = session.NewMessageID()
		}
		if err := s.sessions.Append(req.UserID, req.SessionID, msg); err != nil {
			writeError(w, gwerr.Wrap(gwerr.KindInternal, err, "failed to save conversation"))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type listConversationsRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

func (s *Server) handleConversationList(w http.ResponseWriter, r *http.Request) {
	var req listConversationsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	summaries, err := s.sessions.List(req.UserID, req.Limit)
	if err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInternal, err, "failed to list conversations"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": summaries})
}

type getConversationRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (s *Server) handleConversationGet(w http.ResponseWriter, r *http.Request) {
	var req getConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.sessions.Get(req.UserID, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation": sess})
}

type deleteConversationRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (s *Server) handleConversationDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	deleted, err := s.sessions.Delete(req.UserID, req.SessionID)
	if err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInternal, err, "failed to delete conversation"))
		return
	}
	if !deleted {
		writeError(w, session.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
