package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/httpclient"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
	"github.com/agriquery/gateway/pkg/utils"
)

const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.3
	generationModel    = "gpt-4o-mini"
)

// GenerationArgs is the declared input for the generation tool, per spec
// §4.1. The tool forwards prompt, max_tokens and temperature only; it
// applies no repetition control to the generated text.
type GenerationArgs struct {
	Prompt      string   `json:"prompt" jsonschema:"required,description=Opaque prompt string built by the Formatter"`
	MaxTokens   int      `json:"max_tokens,omitempty" jsonschema:"minimum=1,maximum=4096,description=Maximum tokens to generate (default 512)"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2,description=Sampling temperature (default 0.3)"`
}

type generationRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generationResponse struct {
	Text string `json:"text"`
}

// NewGenerationTool builds the generation tool, proxying to endpoint and
// computing tokens_used from the counter rather than trusting the
// upstream's own accounting.
func NewGenerationTool(endpoint string) (*tool.Tool, error) {
	client := httpclient.New(httpclient.WithMaxRetries(1))

	counter, err := utils.NewTokenCounter(generationModel)
	if err != nil {
		return nil, err
	}

	return functiontool.New(functiontool.Config{
		Name:        "generation",
		Description: "Generates the final answer text from a synthesis prompt.",
		Category:    tool.CategoryGeneration,
		Priority:    10,

		TerminalOnSuccess: true,
	}, func(ctx context.Context, args GenerationArgs) (map[string]any, error) {
		if endpoint == "" {
			return nil, gwerr.New(gwerr.KindBackendUnavailable, "generation endpoint not configured")
		}

		maxTokens := args.MaxTokens
		if maxTokens == 0 {
			maxTokens = defaultMaxTokens
		}
		temperature := defaultTemperature
		if args.Temperature != nil {
			temperature = *args.Temperature
		}

		body, err := json.Marshal(generationRequest{
			Model:       generationModel,
			Prompt:      args.Prompt,
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to encode generation request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to build generation request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "generation backend unavailable")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, gwerr.Newf(gwerr.KindBackendUnavailable, "generation backend returned status %d", resp.StatusCode)
		}

		var parsed generationResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendRejected, err, "failed to parse generation response")
		}

		tokensUsed := counter.Count(args.Prompt) + counter.Count(parsed.Text)

		return map[string]any{
			"text":        parsed.Text,
			"tokens_used": tokensUsed,
		}, nil
	})
}
