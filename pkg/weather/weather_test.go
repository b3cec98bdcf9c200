package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriquery/gateway/pkg/gwerr"
)

func TestGet_RejectsOutOfRangeDays(t *testing.T) {
	svc := NewService("", time.Minute, nil)

	_, err := svc.Get(context.Background(), "Punjab, India", 0)
	require.Error(t, err)
	assert.Equal(t, gwerr.KindInvalidInput, gwerr.KindOf(err))

	_, err = svc.Get(context.Background(), "Punjab, India", 30)
	require.Error(t, err)
	assert.Equal(t, gwerr.KindInvalidInput, gwerr.KindOf(err))
}

func TestGet_UnknownLocationCarriesCandidates(t *testing.T) {
	svc := NewService("", time.Minute, nil)

	_, err := svc.Get(context.Background(), "Punjabb, Indaa", 7)
	require.Error(t, err)

	var unknown *ErrUnknownLocation
	require.ErrorAs(t, err, &unknown)
	assert.NotEmpty(t, unknown.Candidates)
}

func TestGet_NoEndpointIsBackendUnavailable(t *testing.T) {
	svc := NewService("", time.Minute, nil)

	_, err := svc.Get(context.Background(), "Punjab, India", 7)
	require.Error(t, err)
	assert.Equal(t, gwerr.KindBackendUnavailable, gwerr.KindOf(err))
}

func TestGet_FetchesAndCaches(t *testing.T) {
	calls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(upstreamResponse{
			Current: Current{TemperatureC: 29, HumidityPct: 60, SoilMoistureM3M3: 0.22, Description: "partly cloudy"},
			Forecast: []DailyForecast{
				{Date: "2026-08-01", TempMaxC: 38, TempMinC: 22, RainfallMM: 150, SoilMoisture: 0.3},
			},
		})
	}))
	defer upstream.Close()

	svc := NewService(upstream.URL, time.Minute, nil)

	snap, err := svc.Get(context.Background(), "Punjab, India", 7)
	require.NoError(t, err)
	assert.Equal(t, "Punjab, India", snap.CanonicalName)
	assert.Equal(t, "partly cloudy", snap.Current.Description)
	assert.False(t, snap.Cached)
	assert.Equal(t, 1, calls)

	snap2, err := svc.Get(context.Background(), "punjab, india", 7)
	require.NoError(t, err)
	assert.True(t, snap2.Cached)
	assert.Equal(t, 1, calls, "second lookup must be served from cache")
}

func TestDeriveInsights(t *testing.T) {
	current := Current{TemperatureC: 40, SoilMoistureM3M3: 0.1}
	forecast := []DailyForecast{
		{Date: "d1", TempMaxC: 40, TempMinC: 5, RainfallMM: 5, SoilMoisture: 0.1},
	}

	insights := deriveInsights(current, forecast)

	kinds := make(map[string]bool)
	for _, i := range insights {
		kinds[i.Kind] = true
	}
	assert.True(t, kinds["heat-stress"])
	assert.True(t, kinds["irrigation-recommended"])
	assert.True(t, kinds["drought"])
	assert.False(t, kinds["cold-stress"])
	assert.False(t, kinds["waterlogging"])
}

func TestClearCache(t *testing.T) {
	svc := NewService("", time.Minute, nil)
	svc.cache.put(Key{CanonicalName: "Iowa, USA", Days: 7}, Snapshot{CanonicalName: "Iowa, USA"})

	n := svc.ClearCache()
	assert.Equal(t, 1, n)

	_, hit := svc.cache.get(Key{CanonicalName: "Iowa, USA", Days: 7})
	assert.False(t, hit)
}

func TestLocations_ReturnsACopy(t *testing.T) {
	svc := NewService("", time.Minute, nil)
	locs := svc.Locations()
	require.NotEmpty(t, locs)

	locs[0].CanonicalName = "mutated"
	assert.NotEqual(t, "mutated", svc.Locations()[0].CanonicalName)
}
