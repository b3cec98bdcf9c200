package predictors

import (
	"context"
	"fmt"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// PestArgs is the declared input for the image-based pest/disease
// predictor. The image is carried as base64 rather than raw bytes so it
// fits the uniform map[string]any argument contract; the /detect_pest HTTP
// handler is responsible for base64-encoding the uploaded multipart file.
type PestArgs struct {
	ImageBase64 string `json:"image_base64" jsonschema:"required,description=Base64-encoded JPEG or PNG image of the affected plant"`
	TopK        int    `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=10,description=Number of ranked alternatives to return (default 3)"`
}

// pestVocabulary is the fixed set of classes the placeholder classifier
// chooses among.
var pestVocabulary = []string{
	"aphid",
	"armyworm",
	"leaf_blight",
	"powdery_mildew",
	"stem_borer",
	"healthy",
}

var pestRecommendations = map[string][]string{
	"aphid":          {"apply_insecticidal_soap", "introduce_ladybird_beetles"},
	"armyworm":       {"apply_targeted_pesticide", "inspect_neighboring_fields"},
	"leaf_blight":    {"apply_fungicide", "improve_field_drainage"},
	"powdery_mildew": {"apply_sulfur_fungicide", "increase_plant_spacing"},
	"stem_borer":     {"remove_and_destroy_affected_stems", "apply_recommended_pesticide"},
	"healthy":        {"no_action_needed"},
}

// NewPestPredictor builds the image-based pest predictor tool. Image
// classification is out of scope for this gateway (no vision model is
// available); see package doc for the placeholder policy — this predictor
// derives a deterministic class from the image payload's hash so repeated
// calls with the same image are stable, never a random guess.
func NewPestPredictor() (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "detect_pest",
		Description: "Identifies crop pests or disease from an uploaded plant image.",
		Category:    tool.CategoryPrediction,
		Keywords:    []string{"pest", "disease", "infestation", "bug", "insect", "image"},
		Priority:    50,

		TerminalOnSuccess: true,
	}, predictPest)
}

func predictPest(_ context.Context, args PestArgs) (map[string]any, error) {
	if len(args.ImageBase64) == 0 {
		return nil, gwerr.New(gwerr.KindInvalidInput, "image_base64 must not be empty").WithField("image_base64")
	}

	ranked := rankVocabulary(args.ImageBase64, pestVocabulary)

	topK := args.TopK
	if topK == 0 {
		topK = 3
	}
	alternatives := topN(ranked, topK)
	top := ranked[0]

	return map[string]any{
		"top_prediction":   top.Label,
		"confidence":       top.Confidence,
		"all_predictions":  alternatives,
		"recommendations":  pestRecommendations[top.Label],
		"content": fmt.Sprintf("Most likely finding: %s (confidence %.0f%%).", top.Label, top.Confidence*100),
	}, nil
}
