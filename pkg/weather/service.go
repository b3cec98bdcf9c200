package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/httpclient"
	"github.com/agriquery/gateway/pkg/observability"
)

const (
	minDays        = 1
	maxDays        = 16
	upstreamTimeout = 10 * time.Second
	nearestCandidateCount = 3
)

// ErrUnknownLocation carries the nearest gazetteer candidates for a
// location query that did not resolve.
type ErrUnknownLocation struct {
	Query      string
	Candidates []Candidate
}

func (e *ErrUnknownLocation) Error() string {
	return fmt.Sprintf("unknown location %q", e.Query)
}

// Service is the weather subservice: gazetteer resolution, a TTL cache,
// upstream fetch with retry/backoff, and agricultural insight
// derivation.
type Service struct {
	endpoint string
	http     *httpclient.Client
	cache    *cache
	metrics  *observability.Metrics
}

// NewService builds a Service fetching from endpoint, caching results
// for ttl.
func NewService(endpoint string, ttl time.Duration, metrics *observability.Metrics) *Service {
	return &Service{
		endpoint: endpoint,
		http:     httpclient.New(httpclient.WithMaxRetries(2)),
		cache:    newCache(ttl),
		metrics:  metrics,
	}
}

// Locations returns the bundled gazetteer, for the /weather/locations
// endpoint.
func (s *Service) Locations() []Location {
	out := make([]Location, len(gazetteer))
	copy(out, gazetteer)
	return out
}

// ClearCache empties the weather cache and returns how many entries
// were removed.
func (s *Service) ClearCache() int {
	return s.cache.clear()
}

// Get resolves location, serves from cache on a fresh hit, and
// otherwise fetches upstream, derives insights, and caches the result.
func (s *Service) Get(ctx context.Context, location string, days int) (Snapshot, error) {
	if days < minDays || days > maxDays {
		return Snapshot{}, gwerr.Newf(gwerr.KindInvalidInput, "days must be between %d and %d, got %d", minDays, maxDays, days).WithField("days")
	}

	loc, ok := resolve(location)
	if !ok {
		return Snapshot{}, &ErrUnknownLocation{Query: location, Candidates: nearestCandidates(location, nearestCandidateCount)}
	}

	key := Key{CanonicalName: loc.CanonicalName, Days: days}

	if snap, hit := s.cache.get(key); hit {
		s.observeCache(true)
		snap.Cached = true
		return snap, nil
	}
	s.observeCache(false)

	snap, err := s.fetch(ctx, loc, days)
	if err != nil {
		return Snapshot{}, err
	}

	snap.Insights = deriveInsights(snap.Current, snap.Forecast)
	s.cache.put(key, snap)
	return snap, nil
}

func (s *Service) observeCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup("weather", hit)
	}
}

// upstreamResponse is the shape expected from the configured upstream
// forecast provider.
type upstreamResponse struct {
	Current  Current         `json:"current"`
	Forecast []DailyForecast `json:"forecast"`
}

func (s *Service) fetch(ctx context.Context, loc Location, days int) (Snapshot, error) {
	if s.endpoint == "" {
		return Snapshot{}, gwerr.New(gwerr.KindBackendUnavailable, "weather upstream endpoint not configured")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, upstreamTimeout)
	defer cancel()

	url := fmt.Sprintf("%s?lat=%f&lon=%f&days=%d", s.endpoint, loc.Lat, loc.Lon, days)
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, gwerr.Wrap(gwerr.KindInternal, err, "failed to build weather upstream request")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		slog.Warn("weather: upstream fetch failed", "location", loc.CanonicalName, "error", err)
		return Snapshot{}, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "weather upstream unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, gwerr.Newf(gwerr.KindBackendUnavailable, "weather upstream returned status %d", resp.StatusCode)
	}

	var parsed upstreamResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Snapshot{}, gwerr.Wrap(gwerr.KindBackendRejected, err, "failed to parse weather upstream response")
	}

	return Snapshot{
		CanonicalName: loc.CanonicalName,
		Lat:           loc.Lat,
		Lon:           loc.Lon,
		Days:          days,
		Current:       parsed.Current,
		Forecast:      parsed.Forecast,
		FetchedAt:     time.Now().UTC(),
		Cached:        false,
	}, nil
}

// deriveInsights applies the fixed agricultural alert rules: heat/cold
// stress and irrigation need are read off the current conditions, while
// waterlogging/drought are read off cumulative rainfall across the
// forecast window.
func deriveInsights(current Current, forecast []DailyForecast) []Insight {
	var insights []Insight

	if current.TemperatureC > 35 {
		insights = append(insights, Insight{Kind: "heat-stress", Message: fmt.Sprintf("current temperature %.1f°C exceeds heat-stress threshold", current.TemperatureC)})
	}
	if current.TemperatureC < 10 {
		insights = append(insights, Insight{Kind: "cold-stress", Message: fmt.Sprintf("current temperature %.1f°C falls below cold-stress threshold", current.TemperatureC)})
	}
	if current.SoilMoistureM3M3 < 0.15 {
		insights = append(insights, Insight{Kind: "irrigation-recommended", Message: fmt.Sprintf("current soil moisture %.2f m3/m3 below irrigation threshold", current.SoilMoistureM3M3)})
	}

	var rainfall7d float64
	for i, day := range forecast {
		if i >= 7 {
			break
		}
		rainfall7d += day.RainfallMM
	}
	if rainfall7d > 100 {
		insights = append(insights, Insight{Kind: "waterlogging", Message: fmt.Sprintf("7-day forecast rainfall %.1fmm exceeds waterlogging threshold", rainfall7d)})
	}
	if rainfall7d < 10 {
		insights = append(insights, Insight{Kind: "drought", Message: fmt.Sprintf("7-day forecast rainfall %.1fmm below drought threshold", rainfall7d)})
	}

	return insights
}
