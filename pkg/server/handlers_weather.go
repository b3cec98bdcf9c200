package server

import (
	"net/http"
)

type weatherRequest struct {
	Location string `json:"location"`
	Days     *int   `json:"days,omitempty"`
}

// handleWeather calls the Weather subservice directly rather than via the
// tool registry, so an unresolved location's structured candidate list
// (weather.ErrUnknownLocation) survives unwrapped for classify() to
// render as §7's 404-with-suggestions.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	days := 7
	if req.Days != nil {
		days = *req.Days
	}

	snap, err := s.weatherS.Get(r.Context(), req.Location, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleWeatherLocations(w http.ResponseWriter, r *http.Request) {
	locs := s.weatherS.Locations()
	out := make([]map[string]any, len(locs))
	for i, l := range locs {
		out[i] = map[string]any{"canonical_name": l.CanonicalName, "lat": l.Lat, "lon": l.Lon}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeatherCacheClear(w http.ResponseWriter, r *http.Request) {
	n := s.weatherS.ClearCache()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": n})
}
