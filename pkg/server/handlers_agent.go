package server

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/agriquery/gateway/pkg/formatter"
	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/reactagent"
	"github.com/agriquery/gateway/pkg/session"
)

type attachmentInput struct {
	Kind       string `json:"kind"`
	DataBase64 string `json:"data_base64"`
}

type askRequest struct {
	Query      string `json:"query"`
	Mode       string `json:"mode"`
	InputLang  string `json:"input_lang,omitempty"`
	OutputLang string `json:"output_lang,omitempty"`
}

// handleAsk runs one Router→Agent pass with no session persistence: a
// stateless single-shot question, per §6's `/ask` contract.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Query == "" {
		writeError(w, gwerr.New(gwerr.KindInvalidInput, "query must not be empty").WithField("query"))
		return
	}

	ctx := r.Context()
	query, err := s.formatter.WrapInput(ctx, req.Query, req.InputLang != "" && req.InputLang != canonicalLang, canonicalLang)
	if err != nil {
		writeError(w, err)
		return
	}

	decision := s.routeDecision(query, false)
	trace, runErr := s.agent.Run(ctx, reactagent.RunInput{Query: query, Decision: decision})

	answer := formatter.UserSurface(trace.Answer, trace.ToolsUsed, trace.Confidence)
	if req.OutputLang != "" && req.OutputLang != canonicalLang {
		if translated, terr := s.formatter.WrapOutput(ctx, answer, true, req.OutputLang); terr == nil {
			answer = translated
		}
	}

	status := http.StatusOK
	if len(trace.ToolsUsed) == 0 && runErr != nil {
		status = http.StatusBadGateway
	}

	body := map[string]any{"answer": answer, "tools_used": trace.ToolsUsed}
	if req.Mode == "debug" {
		body["trace"] = trace
	}
	writeJSON(w, status, body)
}

type agentRequest struct {
	Query       string            `json:"query"`
	SessionID   string            `json:"session_id,omitempty"`
	Attachments []attachmentInput `json:"attachments,omitempty"`
	InputLang   string            `json:"input_lang,omitempty"`
	OutputLang  string            `json:"output_lang,omitempty"`
}

// handleAgent runs a full session-scoped turn: translate-wrap, route,
// run the ReAct loop, translate-wrap the answer, then append both the
// user and assistant messages to the session store (best-effort, per
// §4.6's non-fatal write-failure policy).
func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	if userID == "" {
		writeError(w, gwerr.New(gwerr.KindUnauthorized, "authentication required"))
		return
	}

	var req agentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Query == "" {
		writeError(w, gwerr.New(gwerr.KindInvalidInput, "query must not be empty").WithField("query"))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.NewMessageID()
	}

	attachments := make([]session.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.DataBase64)
		if err != nil {
			writeError(w, gwerr.Wrap(gwerr.KindInvalidInput, err, "attachment data_base64 is not valid base64").WithField("attachments"))
			return
		}
		attachments = append(attachments, session.Attachment{Kind: a.Kind, Data: data})
	}
	hasAttachment := len(attachments) > 0
	var agentAttachment *reactagent.Attachment
	if hasAttachment {
		agentAttachment = &reactagent.Attachment{Kind: attachments[0].Kind, Data: attachments[0].Data}
	}

	ctx := r.Context()
	start := time.Now()

	query, err := s.formatter.WrapInput(ctx, req.Query, req.InputLang != "" && req.InputLang != canonicalLang, canonicalLang)
	if err != nil {
		writeError(w, err)
		return
	}

	s.appendMessage(userID, sessionID, session.Message{
		ID:          session.NewMessageID(),
		Role:        session.RoleUser,
		Text:        req.Query,
		Attachments: attachments,
		Metadata:    session.MessageMetadata{TranslatedFrom: req.InputLang},
	})

	decision := s.routeDecision(query, hasAttachment)
	trace, runErr := s.agent.Run(ctx, reactagent.RunInput{Query: query, Decision: decision, Attachment: agentAttachment})

	answer := formatter.UserSurface(trace.Answer, trace.ToolsUsed, trace.Confidence)
	if req.OutputLang != "" && req.OutputLang != canonicalLang {
		if translated, terr := s.formatter.WrapOutput(ctx, answer, true, req.OutputLang); terr == nil {
			answer = translated
		}
	}

	s.appendMessage(userID, sessionID, session.Message{
		ID:   session.NewMessageID(),
		Role: session.RoleAssistant,
		Text: answer,
		Metadata: session.MessageMetadata{
			ToolsUsed:    trace.ToolsUsed,
			Confidence:   trace.Confidence,
			ExecutionMS:  time.Since(start).Milliseconds(),
			TranslatedTo: req.OutputLang,
		},
	})

	status := http.StatusOK
	switch {
	case trace.Truncated:
		status = http.StatusRequestTimeout
	case len(trace.ToolsUsed) == 0 && runErr != nil:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]any{
		"answer":     answer,
		"tools_used": trace.ToolsUsed,
		"session_id": sessionID,
	})
}

// appendMessage writes msg to the session store, logging (never failing
// the request on) a write error per §4.6.
func (s *Server) appendMessage(userID, sessionID string, msg session.Message) {
	if err := s.sessions.Append(userID, sessionID, msg); err != nil {
		slog.Warn("session append failed", "user_id", userID, "session_id", sessionID, "error", err)
	}
}
