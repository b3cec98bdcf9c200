package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
	"github.com/agriquery/gateway/pkg/weather"
)

// WeatherArgs is the declared input for the weather tool, per spec §4.1
// and §4.7.
type WeatherArgs struct {
	Location string `json:"location" jsonschema:"required,description=Free-form location name"`
	Days     int    `json:"days" jsonschema:"required,minimum=1,maximum=16,description=Forecast horizon in days"`
}

// NewWeatherTool builds the weather tool over svc, per spec §4.7: an
// unresolved location surfaces as not-found carrying the nearest
// gazetteer candidates, per §7's location-unknown mapping.
func NewWeatherTool(svc *weather.Service) (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "weather_forecast",
		Description: "Fetches a weather forecast and derived agricultural insights for a named location.",
		Category:    tool.CategoryUtility,
		Keywords:    []string{"weather", "forecast", "rain", "temperature", "humidity"},
		Patterns:    []*regexp.Regexp{regexp.MustCompile(`\bweather\b`), regexp.MustCompile(`\bforecast\b`)},
		Units:       []string{"mm", "°c", "°f", "%"},
		Priority:    45,

		TerminalOnSuccess: true,
	}, func(ctx context.Context, args WeatherArgs) (map[string]any, error) {
		snap, err := svc.Get(ctx, args.Location, args.Days)
		if err != nil {
			var unknown *weather.ErrUnknownLocation
			if errors.As(err, &unknown) {
				names := make([]string, len(unknown.Candidates))
				for i, c := range unknown.Candidates {
					names[i] = c.CanonicalName
				}
				return nil, gwerr.Newf(gwerr.KindNotFound, "unknown location %q, nearest candidates: %v", args.Location, names).
					WithField("location")
			}
			if gerr, ok := gwerr.As(err); ok {
				return nil, gerr
			}
			return nil, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "weather lookup failed")
		}

		forecast := make([]map[string]any, len(snap.Forecast))
		for i, d := range snap.Forecast {
			forecast[i] = map[string]any{
				"date":          d.Date,
				"temp_max_c":    d.TempMaxC,
				"temp_min_c":    d.TempMinC,
				"rainfall_mm":   d.RainfallMM,
				"soil_moisture": d.SoilMoisture,
				"humidity":      d.Humidity,
			}
		}
		insights := make([]map[string]any, len(snap.Insights))
		for i, ins := range snap.Insights {
			insights[i] = map[string]any{"kind": ins.Kind, "message": ins.Message}
		}

		return map[string]any{
			"canonical_name": snap.CanonicalName,
			"lat":            snap.Lat,
			"lon":            snap.Lon,
			"days":           snap.Days,
			"forecast":       forecast,
			"insights":       insights,
			"cached":         snap.Cached,
			"content":        fmt.Sprintf("%d-day forecast for %s with %d derived insight(s).", snap.Days, snap.CanonicalName, len(insights)),
		}, nil
	})
}
