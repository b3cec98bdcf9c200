// Package weather implements the weather subservice: location
// resolution against a bundled gazetteer, a TTL-cached upstream fetch,
// and derivation of fixed agricultural insight rules over the result.
package weather

import "time"

// Location is one entry in the bundled gazetteer.
type Location struct {
	CanonicalName string
	Lat           float64
	Lon           float64
}

// Key identifies one cache entry: a resolved location and forecast
// horizon.
type Key struct {
	CanonicalName string
	Days          int
}

// DailyForecast is one day of the upstream forecast.
type DailyForecast struct {
	Date          string  `json:"date"`
	TempMaxC      float64 `json:"temp_max_c"`
	TempMinC      float64 `json:"temp_min_c"`
	RainfallMM    float64 `json:"rainfall_mm"`
	SoilMoisture  float64 `json:"soil_moisture"` // m^3/m^3
	Humidity      float64 `json:"humidity_pct"`
}

// Insight is a derived agricultural alert.
type Insight struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Current is the present-moment observation, distinct from the daily
// Forecast entries; the heat-stress, cold-stress, and
// irrigation-recommended insight rules apply to this, not to forecast
// days.
type Current struct {
	TemperatureC     float64 `json:"temperature_c"`
	HumidityPct      float64 `json:"humidity_pct"`
	RainfallMM       float64 `json:"rainfall_mm"`
	WindKMH          float64 `json:"wind_kmh"`
	SoilTemperatureC float64 `json:"soil_temperature_c"`
	SoilMoistureM3M3 float64 `json:"soil_moisture_m3m3"`
	Description      string  `json:"description"`
}

// Snapshot is the post-processed weather result returned to callers.
type Snapshot struct {
	CanonicalName string          `json:"canonical_name"`
	Lat           float64         `json:"lat"`
	Lon           float64         `json:"lon"`
	Days          int             `json:"days"`
	Current       Current         `json:"current"`
	Forecast      []DailyForecast `json:"forecast"`
	Insights      []Insight       `json:"insights"`
	FetchedAt     time.Time       `json:"fetched_at"`
	Cached        bool            `json:"cached"`
}

// Candidate is a near-miss suggestion returned when a location cannot
// be resolved.
type Candidate struct {
	CanonicalName string `json:"canonical_name"`
	Distance      int    `json:"distance"`
}
