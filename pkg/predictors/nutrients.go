package predictors

import (
	"context"
	"fmt"

	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// NutrientsArgs is the declared input for the crop-by-nutrients predictor:
// a soil nutrient profile plus basic climate, the standard feature set for
// crop-recommendation models.
type NutrientsArgs struct {
	NitrogenPPM   float64 `json:"nitrogen_ppm" jsonschema:"required,minimum=0,maximum=200,description=Soil nitrogen content"`
	PhosphorusPPM float64 `json:"phosphorus_ppm" jsonschema:"required,minimum=0,maximum=150,description=Soil phosphorus content"`
	PotassiumPPM  float64 `json:"potassium_ppm" jsonschema:"required,minimum=0,maximum=250,description=Soil potassium content"`
	PH            float64 `json:"ph" jsonschema:"required,minimum=3,maximum=10,description=Soil pH"`
	TemperatureC  float64 `json:"temperature_c" jsonschema:"required,minimum=-10,maximum=55,description=Average temperature in Celsius"`
	HumidityPct   float64 `json:"humidity_pct" jsonschema:"required,minimum=0,maximum=100,description=Relative humidity percentage"`
	RainfallMM    float64 `json:"rainfall_mm" jsonschema:"required,minimum=0,maximum=5000,description=Seasonal rainfall in millimeters"`
}

var cropVocabulary = []string{
	"rice", "wheat", "maize", "cotton", "sugarcane", "soybean",
	"groundnut", "millet", "lentil", "chickpea",
}

// NewNutrientsPredictor builds the crop-by-nutrients recommender: a
// deterministic placeholder ranking (see package doc) seeded by the
// rounded input profile, not a trained model.
func NewNutrientsPredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "recommend_crop_by_nutrients",
		Description: "Recommends a crop from soil nutrient levels (N, P, K, pH) and basic climate.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"nitrogen", "phosphorus", "potassium", "nutrients", "npk", "recommend", "crop"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictCropByNutrients)
}

func predictCropByNutrients(_ context.Context, args NutrientsArgs) (map[string]any, error) {
	seed := fmt.Sprintf("%.0f-%.0f-%.0f-%.1f-%.0f-%.0f-%.0f",
		args.NitrogenPPM, args.PhosphorusPPM, args.PotassiumPPM,
		args.PH, args.TemperatureC, args.HumidityPct, args.RainfallMM)

	ranked := rankVocabulary(seed, cropVocabulary)
	top := ranked[0]

	var recs []string
	if args.PH < 5.5 {
		recs = append(recs, "apply_lime_to_raise_ph")
	}
	if args.PH > 7.5 {
		recs = append(recs, "apply_soil_acidifier")
	}
	if args.NitrogenPPM < 40 {
		recs = append(recs, "apply_nitrogen_fertilizer")
	}
	if len(recs) == 0 {
		recs = append(recs, "soil_profile_within_normal_range")
	}

	return map[string]any{
		"primary_prediction": top.Label,
		"confidence":          top.Confidence,
		"alternatives":        topN(ranked, 3),
		"recommendations":     recs,
		"content": fmt.Sprintf("Recommended crop: %s (confidence %.0f%%).", top.Label, top.Confidence*100),
	}, nil
}
