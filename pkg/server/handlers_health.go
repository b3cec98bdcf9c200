package server

import "net/http"

// handleHealth reports liveness plus, per component, whether it is wired
// (and, for the tool registry, non-empty), per §6's `/health` contract.
// Backends are not probed. A missing component degrades the overall
// status to "degraded" rather than failing the whole check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"tool_registry": "ok",
		"sessions":      "ok",
		"weather":       "ok",
		"auth":          "ok",
	}

	if s.registry == nil || s.registry.Count() == 0 {
		components["tool_registry"] = "degraded"
	}
	if s.sessions == nil {
		components["sessions"] = "degraded"
	}
	if s.weatherS == nil {
		components["weather"] = "degraded"
	}
	if s.authSvc == nil {
		components["auth"] = "degraded"
	}

	status := "ok"
	for _, v := range components {
		if v != "ok" {
			status = "degraded"
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": components,
	})
}
