package predictors

import (
	"context"
	"fmt"

	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// ClimateArgs is the declared input for the crop-by-climate predictor,
// distinct from NutrientsArgs in that it reasons from regional climate
// alone, with no soil-chemistry inputs.
type ClimateArgs struct {
	Region       string  `json:"region" jsonschema:"required,description=State or province name"`
	TemperatureC float64 `json:"temperature_c" jsonschema:"required,minimum=-10,maximum=55,description=Average temperature in Celsius"`
	HumidityPct  float64 `json:"humidity_pct" jsonschema:"required,minimum=0,maximum=100,description=Relative humidity percentage"`
	RainfallMM   float64 `json:"rainfall_mm" jsonschema:"required,minimum=0,maximum=5000,description=Annual rainfall in millimeters"`
}

// NewClimatePredictor builds the crop-by-climate recommender: a
// deterministic placeholder ranking (see package doc), seeded by region
// and climate so the same inputs always recommend the same crop.
func NewClimatePredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "recommend_crop_by_climate",
		Description: "Recommends a crop from regional climate: temperature, humidity, and rainfall.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"climate", "region", "recommend", "crop", "suitable"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictCropByClimate)
}

func predictCropByClimate(_ context.Context, args ClimateArgs) (map[string]any, error) {
	seed := fmt.Sprintf("%s-%.0f-%.0f-%.0f", args.Region, args.TemperatureC, args.HumidityPct, args.RainfallMM)
	ranked := rankVocabulary(seed, cropVocabulary)
	top := ranked[0]

	var recs []string
	switch {
	case args.RainfallMM < 400:
		recs = append(recs, "favor_drought_tolerant_varieties")
	case args.RainfallMM > 2000:
		recs = append(recs, "ensure_field_drainage")
	default:
		recs = append(recs, "rainfall_suitable_for_recommended_crop")
	}

	return map[string]any{
		"region":              args.Region,
		"primary_prediction": top.Label,
		"confidence":          top.Confidence,
		"alternatives":        topN(ranked, 3),
		"recommendations":     recs,
		"content": fmt.Sprintf("For %s's climate, recommended crop: %s (confidence %.0f%%).", args.Region, top.Label, top.Confidence*100),
	}, nil
}
