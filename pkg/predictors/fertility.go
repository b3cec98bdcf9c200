package predictors

import (
	"context"
	"fmt"

	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// FertilityArgs is the declared input for the soil-fertility predictor.
type FertilityArgs struct {
	NitrogenPPM      float64 `json:"nitrogen_ppm" jsonschema:"required,minimum=0,maximum=200,description=Soil nitrogen content"`
	PhosphorusPPM    float64 `json:"phosphorus_ppm" jsonschema:"required,minimum=0,maximum=150,description=Soil phosphorus content"`
	PotassiumPPM     float64 `json:"potassium_ppm" jsonschema:"required,minimum=0,maximum=250,description=Soil potassium content"`
	PH               float64 `json:"ph" jsonschema:"required,minimum=3,maximum=10,description=Soil pH"`
	OrganicCarbonPct float64 `json:"organic_carbon_pct" jsonschema:"required,minimum=0,maximum=10,description=Soil organic carbon percentage"`
}

// NewFertilityPredictor builds the soil-fertility predictor: a weighted
// index over the declared nutrient profile, scaled to 0-100. A
// deterministic placeholder formula (see package doc), not a trained
// model.
func NewFertilityPredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "predict_soil_fertility",
		Description: "Scores soil fertility (0-100) from N, P, K, pH, and organic carbon.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"fertility", "soil", "nutrients", "organic carbon", "ph"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictFertility)
}

func predictFertility(_ context.Context, args FertilityArgs) (map[string]any, error) {
	nScore := clamp01(args.NitrogenPPM / 120.0)
	pScore := clamp01(args.PhosphorusPPM / 80.0)
	kScore := clamp01(args.PotassiumPPM / 150.0)
	phScore := 1.0 - clamp01(absDiff(args.PH, 6.5)/3.0)
	ocScore := clamp01(args.OrganicCarbonPct / 3.0)

	index := roundTo((nScore*0.25+pScore*0.2+kScore*0.2+phScore*0.15+ocScore*0.2)*100, 1)

	classification := "low"
	switch {
	case index >= 70:
		classification = "high"
	case index >= 40:
		classification = "medium"
	}

	var recs []string
	if nScore < 0.4 {
		recs = append(recs, "apply_nitrogen_fertilizer")
	}
	if pScore < 0.4 {
		recs = append(recs, "apply_phosphate_fertilizer")
	}
	if kScore < 0.4 {
		recs = append(recs, "apply_potash_fertilizer")
	}
	if ocScore < 0.3 {
		recs = append(recs, "add_organic_compost")
	}
	if len(recs) == 0 {
		recs = append(recs, "fertility_within_normal_range")
	}

	alternatives := []Alternative{
		{Label: "low", Confidence: boolConfidence(classification == "low")},
		{Label: "medium", Confidence: boolConfidence(classification == "medium")},
		{Label: "high", Confidence: boolConfidence(classification == "high")},
	}

	return map[string]any{
		"primary_prediction": index,
		"classification":      classification,
		"alternatives":        alternatives,
		"recommendations":     recs,
		"content": fmt.Sprintf("Soil fertility index %.1f/100 (%s).", index, classification),
	}, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
