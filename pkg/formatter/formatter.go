// Package formatter is the only component allowed to produce text
// destined for either the generation tool's prompt or the end user. It
// builds the synthesis prompt from an agent trace's observations, and
// turns the generation tool's output into the text actually returned to
// the caller.
package formatter

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/reactagent"
	"github.com/agriquery/gateway/pkg/tool"
)

const systemRole = "You are an agricultural assistant. Answer using only the observations " +
	"provided below; never invent numerical values that are not present in them. " +
	"Use headings when the answer has multiple parts, and bullets for enumerations."

// ToolLookup resolves a tool by name, satisfied by *registry.ToolRegistry.
type ToolLookup func(name string) (*tool.Tool, bool)

// Formatter implements reactagent.Synthesizer over the generation tool,
// and exposes the translation-wrap and user-surface operations the
// Gateway layer calls directly.
type Formatter struct {
	lookup              ToolLookup
	generationToolName  string
	translationToolName string
}

// New builds a Formatter. lookup resolves tool names to tools (normally
// registry.ToolRegistry.Lookup); generationTool and translationTool name
// the registered generation and translation tools.
func New(lookup ToolLookup, generationTool, translationTool string) *Formatter {
	return &Formatter{
		lookup:              lookup,
		generationToolName:  generationTool,
		translationToolName: translationTool,
	}
}

var _ reactagent.Synthesizer = (*Formatter)(nil)

// Synthesize builds the prompt surface and invokes the generation tool
// once, per spec §4.5's synthesis step.
func (f *Formatter) Synthesize(ctx context.Context, query string, observations []reactagent.Observation) (string, error) {
	if len(observations) == 0 {
		return f.synthesizeWithPrompt(ctx, BuildPrompt(query, nil))
	}
	return f.synthesizeWithPrompt(ctx, BuildPrompt(query, observations))
}

func (f *Formatter) synthesizeWithPrompt(ctx context.Context, prompt string) (string, error) {
	gen, ok := f.lookup(f.generationToolName)
	if !ok {
		return "", gwerr.New(gwerr.KindInternal, "generation tool not registered")
	}

	result := gen.Invoke(ctx, map[string]any{"prompt": prompt})
	if result.IsErr() {
		return "", result.Err
	}

	text, _ := result.Payload["text"].(string)
	return text, nil
}

// BuildPrompt is the prompt surface: system role, the verbatim query,
// observations enumerated in production order as "[tool] key: value"
// lines, then fixed formatting rules.
func BuildPrompt(query string, observations []reactagent.Observation) string {
	var b strings.Builder

	b.WriteString(systemRole)
	b.WriteString("\n\nQuery: ")
	b.WriteString(query)

	if len(observations) > 0 {
		b.WriteString("\n\nObservations:\n")
		for _, obs := range observations {
			writeObservation(&b, obs)
		}
	}

	b.WriteString("\n\nFormatting rules: use headings for multi-part answers, bullets for " +
		"enumerations, and never state a numerical value that does not appear above.")

	return b.String()
}

func writeObservation(b *strings.Builder, obs reactagent.Observation) {
	if obs.Err != nil {
		fmt.Fprintf(b, "[%s] error: %s\n", obs.Tool, obs.Err.Message)
		return
	}
	if obs.Content != "" {
		fmt.Fprintf(b, "[%s] content: %s\n", obs.Tool, obs.Content)
	}

	keys := make([]string, 0, len(obs.Data))
	for k := range obs.Data {
		if k == "content" || k == "text" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "[%s] %s: %v\n", obs.Tool, k, obs.Data[k])
	}
}

// UserSurface merges generation output with a "Tools used: ..." footer
// and, when confidence is non-nil, a confidence indicator.
func UserSurface(answer string, toolsUsed []string, confidence *float64) string {
	var b strings.Builder
	b.WriteString(answer)

	if len(toolsUsed) > 0 {
		b.WriteString("\n\nTools used: ")
		b.WriteString(strings.Join(toolsUsed, ", "))
	}
	if confidence != nil {
		fmt.Fprintf(&b, "\nConfidence: %.0f%%", *confidence*100)
	}
	return b.String()
}

// Translate invokes the translation tool, used by the input/output
// translation-wrap contract.
func (f *Formatter) Translate(ctx context.Context, text, sourceLang, targetLang string) (translated, detectedSource string, err error) {
	if text == "" {
		return text, "", nil
	}

	t, ok := f.lookup(f.translationToolName)
	if !ok {
		return "", "", gwerr.New(gwerr.KindInternal, "translation tool not registered")
	}

	args := map[string]any{"text": text, "target_lang": targetLang}
	if sourceLang != "" {
		args["source_lang"] = sourceLang
	}

	result := t.Invoke(ctx, args)
	if result.IsErr() {
		return "", "", result.Err
	}

	translated, _ = result.Payload["translated_text"].(string)
	detectedSource, _ = result.Payload["detected_source_lang"].(string)
	return translated, detectedSource, nil
}

// WrapInput applies the input-translation flag: if enabled, text is
// translated to the canonical processing language before it is stored
// in the trace or routed.
func (f *Formatter) WrapInput(ctx context.Context, text string, enabled bool, canonicalLang string) (string, error) {
	if !enabled {
		return text, nil
	}
	translated, _, err := f.Translate(ctx, text, "", canonicalLang)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// WrapOutput applies the output-translation flag: if enabled, the final
// user-surface text is translated to targetLang after synthesis.
func (f *Formatter) WrapOutput(ctx context.Context, text string, enabled bool, targetLang string) (string, error) {
	if !enabled {
		return text, nil
	}
	translated, _, err := f.Translate(ctx, text, "", targetLang)
	if err != nil {
		return "", err
	}
	return translated, nil
}
