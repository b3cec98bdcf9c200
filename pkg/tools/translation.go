package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/httpclient"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

const maxTranslationChars = 5000

// TranslationArgs is the declared input for the translation tool, per
// spec §4.1.
type TranslationArgs struct {
	Text       string `json:"text" jsonschema:"required,description=Text to translate, at most 5000 characters"`
	SourceLang string `json:"source_lang,omitempty" jsonschema:"description=BCP-47 source language tag; omit to auto-detect"`
	TargetLang string `json:"target_lang" jsonschema:"required,description=BCP-47 target language tag"`
}

type translationRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang,omitempty"`
	TargetLang string `json:"target_lang"`
}

type translationResponse struct {
	TranslatedText      string `json:"translated_text"`
	DetectedSourceLang  string `json:"detected_source_lang"`
}

// NewTranslationTool builds the translation tool, proxying to endpoint.
// Language tags are validated with golang.org/x/text/language before the
// upstream is ever called, rejecting malformed tags as invalid-input
// rather than forwarding them.
func NewTranslationTool(endpoint string) (*tool.Tool, error) {
	client := httpclient.New(httpclient.WithMaxRetries(2))

	return functiontool.New(functiontool.Config{
		Name:        "translate",
		Description: "Translates text between languages.",
		Category:    tool.CategoryTranslation,
		Keywords:    []string{"translate", "translation", "language"},
		Priority:    20,

		TerminalOnSuccess: true,
	}, func(ctx context.Context, args TranslationArgs) (map[string]any, error) {
		if len(args.Text) > maxTranslationChars {
			return nil, gwerr.Newf(gwerr.KindInvalidInput, "text must be at most %d characters, got %d", maxTranslationChars, len(args.Text)).WithField("text")
		}
		if args.Text == "" {
			return map[string]any{
				"translated_text":       "",
				"detected_source_lang": "",
				"no_op":                 true,
			}, nil
		}

		if _, err := language.Parse(args.TargetLang); err != nil {
			return nil, gwerr.Newf(gwerr.KindInvalidInput, "target_lang %q is not a valid language tag", args.TargetLang).WithField("target_lang")
		}
		if args.SourceLang != "" {
			if _, err := language.Parse(args.SourceLang); err != nil {
				return nil, gwerr.Newf(gwerr.KindInvalidInput, "source_lang %q is not a valid language tag", args.SourceLang).WithField("source_lang")
			}
		}

		if endpoint == "" {
			return nil, gwerr.New(gwerr.KindBackendUnavailable, "translation endpoint not configured")
		}

		body, err := json.Marshal(translationRequest{
			Text:       args.Text,
			SourceLang: args.SourceLang,
			TargetLang: args.TargetLang,
		})
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to encode translation request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to build translation request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "translation backend unavailable")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, gwerr.Newf(gwerr.KindBackendUnavailable, "translation backend returned status %d", resp.StatusCode)
		}

		var parsed translationResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendRejected, err, "failed to parse translation response")
		}

		return map[string]any{
			"translated_text":       parsed.TranslatedText,
			"detected_source_lang": parsed.DetectedSourceLang,
			"content":               parsed.TranslatedText,
		}, nil
	})
}
