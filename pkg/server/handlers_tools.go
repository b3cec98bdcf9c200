package server

import (
	"net/http"

	"github.com/agriquery/gateway/pkg/gwerr"
)

// invokeTool decodes the request body as the tool's raw argument map and
// invokes it directly — used by the single-tool endpoints (§6) that bind
// one HTTP route to one registered tool without going through the
// Router/Agent.
func (s *Server) invokeTool(w http.ResponseWriter, r *http.Request, toolName string) {
	t, err := s.lookupTool(toolName)
	if err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInternal, err, "tool unavailable"))
		return
	}

	var args map[string]any
	if err := decodeJSON(r, &args); err != nil {
		writeError(w, err)
		return
	}

	result := t.Invoke(r.Context(), args)
	if result.IsErr() {
		writeError(w, result.Err)
		return
	}
	writeJSON(w, http.StatusOK, result.Payload)
}

func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	s.invokeTool(w, r, "retrieve_documents")
}

func (s *Server) handlePredictYield(w http.ResponseWriter, r *http.Request) {
	s.invokeTool(w, r, "predict_yield")
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	s.invokeTool(w, r, "translate")
}
