package server

import (
	"encoding/base64"
	"io"
	"net/http"
	"strconv"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/reactagent"
)

// maxUploadBytes bounds the multipart file the pest-detection endpoint
// will read into memory, surfaced to the caller as 413 when exceeded.
const maxUploadBytes = 8 << 20 // 8 MiB

func (s *Server) handleDetectPest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "upload exceeds the maximum allowed size"})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, gwerr.New(gwerr.KindInvalidInput, "multipart field \"file\" is required").WithField("file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInvalidInput, err, "failed to read uploaded file"))
		return
	}

	topK := 3
	if v := r.FormValue("top_k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			topK = n
		}
	}

	t, err := s.lookupTool("detect_pest")
	if err != nil {
		writeError(w, gwerr.Wrap(gwerr.KindInternal, err, "tool unavailable"))
		return
	}

	args := map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString(data),
		"top_k":        topK,
	}

	result := t.Invoke(r.Context(), args)
	if result.IsErr() {
		writeError(w, result.Err)
		return
	}

	analysis, err := s.formatter.Synthesize(r.Context(), "Explain this plant health prediction and recommend next steps.",
		[]reactagent.Observation{{
			Tool:    "detect_pest",
			Content: pestContentLine(result.Payload),
			Data:    result.Payload,
		}})
	if err != nil {
		analysis = "Unable to generate a narrative analysis; see the structured prediction above."
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"top_prediction":  result.Payload["top_prediction"],
		"all_predictions": result.Payload["all_predictions"],
		"recommendations": result.Payload["recommendations"],
		"agent_analysis":  analysis,
	})
}

func pestContentLine(payload map[string]any) string {
	if top, ok := payload["top_prediction"].(string); ok {
		return "predicted class: " + top
	}
	return ""
}
