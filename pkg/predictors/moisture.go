package predictors

import (
	"context"
	"fmt"

	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// MoistureArgs is the declared input for the soil-moisture predictor.
type MoistureArgs struct {
	TemperatureC float64 `json:"temperature_c" jsonschema:"required,minimum=-10,maximum=55,description=Air temperature in Celsius"`
	HumidityPct  float64 `json:"humidity_pct" jsonschema:"required,minimum=0,maximum=100,description=Relative humidity percentage"`
	RainfallMM   float64 `json:"rainfall_mm" jsonschema:"required,minimum=0,maximum=500,description=Rainfall over the prior 7 days, in millimeters"`
	SoilType     string  `json:"soil_type,omitempty" jsonschema:"enum=sandy|loamy|clay|silty,description=Soil texture class"`
}

// soilRetentionFactor models how much of incident rainfall/humidity a soil
// texture retains, relative to loamy soil's baseline of 1.0.
var soilRetentionFactor = map[string]float64{
	"sandy": 0.7,
	"loamy": 1.0,
	"clay":  1.2,
	"silty": 1.1,
}

// NewMoisturePredictor builds the soil-moisture predictor tool: a
// deterministic formula placeholder (see package doc), not a trained
// model.
func NewMoisturePredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "predict_soil_moisture",
		Description: "Estimates volumetric soil moisture from temperature, humidity, rainfall, and soil type.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"soil", "moisture", "irrigation", "water"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictMoisture)
}

func predictMoisture(_ context.Context, args MoistureArgs) (map[string]any, error) {
	retention := soilRetentionFactor[args.SoilType]
	if retention == 0 {
		retention = soilRetentionFactor["loamy"]
	}

	rainfallTerm := (args.RainfallMM / 200.0) * retention
	humidityTerm := (args.HumidityPct / 100.0) * 0.3
	evaporationTerm := (args.TemperatureC / 55.0) * 0.25

	moisture := clamp01(0.15 + rainfallTerm + humidityTerm - evaporationTerm)

	category := "optimal"
	switch {
	case moisture < 0.15:
		category = "dry"
	case moisture > 0.45:
		category = "saturated"
	}

	var recs []string
	switch category {
	case "dry":
		recs = append(recs, "irrigation_recommended")
	case "saturated":
		recs = append(recs, "improve_drainage", "delay_further_irrigation")
	default:
		recs = append(recs, "moisture_within_normal_range")
	}

	alternatives := []Alternative{
		{Label: "dry", Value: roundTo(moisture-0.1, 3), Confidence: boolConfidence(category == "dry")},
		{Label: "optimal", Value: roundTo(moisture, 3), Confidence: boolConfidence(category == "optimal")},
		{Label: "saturated", Value: roundTo(moisture+0.1, 3), Confidence: boolConfidence(category == "saturated")},
	}

	return map[string]any{
		"primary_prediction": roundTo(moisture, 3),
		"unit":                "m3/m3",
		"category":            category,
		"alternatives":        alternatives,
		"recommendations":     recs,
		"content": fmt.Sprintf("Estimated soil moisture %.3f m3/m3 (%s).", moisture, category),
	}, nil
}

func boolConfidence(b bool) float64 {
	if b {
		return 0.7
	}
	return 0.15
}
