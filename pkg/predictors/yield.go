package predictors

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// YieldArgs is the declared input for the yield predictor: a structured
// numeric/categorical map per spec §4.1, validated by range before the
// handler ever sees it.
type YieldArgs struct {
	Crop         string  `json:"crop" jsonschema:"required,description=Crop name, e.g. wheat, rice, maize, cotton"`
	Region       string  `json:"region" jsonschema:"required,description=State or province the crop is grown in"`
	RainfallMM   float64 `json:"rainfall_mm" jsonschema:"required,minimum=0,maximum=5000,description=Seasonal rainfall in millimeters"`
	FertilizerKG float64 `json:"fertilizer_kg" jsonschema:"required,minimum=0,maximum=1000,description=Fertilizer applied in kilograms per hectare"`
	AreaHA       float64 `json:"area_ha" jsonschema:"required,minimum=0.1,maximum=10000,description=Planted area in hectares"`
}

// baselineYieldTonsPerHA is the reference yield (tons/hectare) per crop
// under nominal rainfall and fertilizer, used as the placeholder model's
// anchor. Unknown crops fall back to the "default" entry.
var baselineYieldTonsPerHA = map[string]float64{
	"wheat":   3.2,
	"rice":    4.0,
	"maize":   5.5,
	"cotton":  1.8,
	"soybean": 2.6,
	"default": 3.0,
}

const (
	nominalRainfallMM   = 700.0
	nominalFertilizerKG = 100.0
)

// NewYieldPredictor builds the yield predictor tool. The prediction formula
// scales a crop's baseline yield by rainfall and fertilizer relative to
// nominal values, with diminishing returns past the nominal point — a
// deterministic placeholder, not a trained model; see package doc.
func NewYieldPredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "predict_yield",
		Description: "Predicts crop yield (tons/hectare) from crop, region, rainfall, fertilizer, and area.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"yield", "predict", "harvest", "production", "tons"},
		Patterns:    []*regexp.Regexp{regexp.MustCompile(`\byield\b`), regexp.MustCompile(`\bpredict(ed)?\s+(wheat|rice|maize|cotton|soybean)?\s*yield\b`)},
		Units:       []string{"mm", "kg", "ha"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictYield)
}

func predictYield(_ context.Context, args YieldArgs) (map[string]any, error) {
	base, ok := baselineYieldTonsPerHA[strings.ToLower(args.Crop)]
	if !ok {
		base = baselineYieldTonsPerHA["default"]
	}

	rainfallFactor := diminishingFactor(args.RainfallMM, nominalRainfallMM)
	fertilizerFactor := diminishingFactor(args.FertilizerKG, nominalFertilizerKG)
	predicted := base * rainfallFactor * fertilizerFactor

	alternatives := []Alternative{
		{Label: "low-input estimate", Value: roundTo(predicted*0.85, 2), Confidence: 0.2},
		{Label: "central estimate", Value: roundTo(predicted, 2), Confidence: 0.6},
		{Label: "high-input estimate", Value: roundTo(predicted*1.15, 2), Confidence: 0.2},
	}

	recommendations := yieldRecommendations(args, rainfallFactor, fertilizerFactor)

	return map[string]any{
		"crop":               args.Crop,
		"region":             args.Region,
		"primary_prediction": roundTo(predicted, 2),
		"unit":               "tons/hectare",
		"total_estimated_tons": roundTo(predicted*args.AreaHA, 2),
		"alternatives":         alternatives,
		"recommendations":      recommendations,
		"content": fmt.Sprintf("Estimated %s yield in %s: %.2f tons/hectare over %.1f hectares (%.2f tons total).",
			args.Crop, args.Region, predicted, args.AreaHA, predicted*args.AreaHA),
	}, nil
}

// diminishingFactor returns a multiplier around 1.0 that grows
// sub-linearly past the nominal value and shrinks below it, capturing
// "more isn't always proportionally better" without a real agronomic
// model.
func diminishingFactor(actual, nominal float64) float64 {
	if nominal == 0 {
		return 1.0
	}
	ratio := actual / nominal
	switch {
	case ratio <= 1:
		return 0.4 + 0.6*ratio
	default:
		return 1.0 + 0.3*(1-1/ratio)
	}
}

func yieldRecommendations(args YieldArgs, rainfallFactor, fertilizerFactor float64) []string {
	var recs []string
	if rainfallFactor < 0.7 {
		recs = append(recs, "consider_supplemental_irrigation")
	}
	if fertilizerFactor < 0.7 {
		recs = append(recs, "increase_fertilizer_application")
	}
	if args.RainfallMM > 1500 {
		recs = append(recs, "monitor_for_waterlogging")
	}
	if len(recs) == 0 {
		recs = append(recs, "inputs_within_normal_range")
	}
	return recs
}
