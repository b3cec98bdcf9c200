package reactagent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/router"
	"github.com/agriquery/gateway/pkg/tool"
)

func timeoutFunc(d time.Duration) func(string) time.Duration {
	return func(string) time.Duration { return d }
}

type stubSynthesizer struct {
	text string
	err  error
	gotObservations []Observation
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, query string, observations []Observation) (string, error) {
	s.gotObservations = observations
	return s.text, s.err
}

func terminalTool(name string, handler tool.Handler) *tool.Tool {
	return &tool.Tool{Name: name, Category: tool.CategoryPrediction, TerminalOnSuccess: true, Handler: handler}
}

func TestRun_NoCandidatesSynthesizesDirectly(t *testing.T) {
	synth := &stubSynthesizer{text: "general agricultural guidance"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{Query: "hello", Decision: router.Decision{}})
	require.NoError(t, err)
	assert.Equal(t, "general agricultural guidance", trace.Answer)
	require.Len(t, trace.Steps, 1)
	assert.True(t, trace.Steps[0].Terminal)
	assert.Equal(t, StateSynthesize, trace.Steps[0].State)
}

func TestRun_TerminalToolSucceedsAndSynthesizes(t *testing.T) {
	yieldTool := terminalTool("predict_yield", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"content": "4.2 t/ha"})
	})
	synth := &stubSynthesizer{text: "your yield estimate is 4.2 t/ha"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "what yield can I expect?",
		Decision: router.Decision{ChosenTool: yieldTool, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "your yield estimate is 4.2 t/ha", trace.Answer)
	assert.Equal(t, []string{"predict_yield"}, trace.ToolsUsed)
	require.Len(t, synth.gotObservations, 1)
	assert.Equal(t, "4.2 t/ha", synth.gotObservations[0].Content)
}

func TestRun_InvalidInputReturnsClarifyingAnswerWithoutSynthesis(t *testing.T) {
	badTool := terminalTool("predict_yield", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Err(gwerr.New(gwerr.KindInvalidInput, "area_ha must be positive").WithField("area_ha"))
	})
	synth := &stubSynthesizer{text: "should not be used"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "predict my yield",
		Decision: router.Decision{ChosenTool: badTool, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Contains(t, trace.Answer, "area_ha")
	assert.Nil(t, synth.gotObservations)
}

func TestRun_InternalErrorAbortsWithoutSynthesis(t *testing.T) {
	badTool := terminalTool("predict_yield", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Err(gwerr.New(gwerr.KindInternal, "panic recovered"))
	})
	synth := &stubSynthesizer{text: "should not be used"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "predict my yield",
		Decision: router.Decision{ChosenTool: badTool, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Contains(t, trace.Answer, "internal error")
}

func TestRun_RetriesAlternativeOnBackendFailure(t *testing.T) {
	primary := terminalTool("weather_forecast", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Err(gwerr.New(gwerr.KindBackendUnavailable, "upstream down"))
	})
	fallback := terminalTool("generation", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"content": "fallback answer"})
	})
	synth := &stubSynthesizer{text: "final answer from fallback"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query: "what's the weather",
		Decision: router.Decision{
			ChosenTool:   primary,
			Confidence:   0.9,
			Alternatives: []router.Scored{{Tool: fallback}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "final answer from fallback", trace.Answer)
	assert.Contains(t, trace.ToolsUsed, "weather_forecast")
	assert.Contains(t, trace.ToolsUsed, "generation")
}

func TestRun_TruncatesAtMaxIterations(t *testing.T) {
	nonTerminal := &tool.Tool{
		Name:     "retrieval",
		Category: tool.CategoryRetrieval,
		Handler: func(ctx context.Context, args map[string]any) tool.Result {
			return tool.Ok(map[string]any{"content": "some snippet"})
		},
	}
	synth := &stubSynthesizer{text: "best effort answer"}
	agent := NewAgent(2, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "tell me everything about wheat",
		Decision: router.Decision{ChosenTool: nonTerminal, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.True(t, trace.Truncated)
	assert.Equal(t, "best effort answer", trace.Answer)
}

func TestRun_SynthesisErrorProducesFallbackAnswer(t *testing.T) {
	yieldTool := terminalTool("predict_yield", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"content": "4.2 t/ha"})
	})
	synth := &stubSynthesizer{err: errors.New("llm unreachable")}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "what yield can I expect?",
		Decision: router.Decision{ChosenTool: yieldTool, Confidence: 0.9},
	})
	require.Error(t, err)
	assert.Contains(t, trace.Answer, "unable to synthesize")
}

func TestRun_GivesUpAfterRepeatedFailuresOnSameTool(t *testing.T) {
	calls := 0
	flaky := terminalTool("weather_forecast", func(ctx context.Context, args map[string]any) tool.Result {
		calls++
		return tool.Err(gwerr.New(gwerr.KindBackendUnavailable, "still down"))
	})
	synth := &stubSynthesizer{text: "degraded answer"}
	agent := NewAgent(10, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query:    "weather?",
		Decision: router.Decision{ChosenTool: flaky, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "degraded answer", trace.Answer)
	assert.LessOrEqual(t, calls, 2, "maxSameToolFailures caps retries on one tool")
}

func TestRun_ExactlyOneStepIsTerminal(t *testing.T) {
	primary := terminalTool("weather_forecast", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Err(gwerr.New(gwerr.KindBackendUnavailable, "upstream down"))
	})
	fallback := terminalTool("generation", func(ctx context.Context, args map[string]any) tool.Result {
		return tool.Ok(map[string]any{"content": "fallback answer"})
	})
	synth := &stubSynthesizer{text: "final answer from fallback"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)

	trace, err := agent.Run(context.Background(), RunInput{
		Query: "what's the weather",
		Decision: router.Decision{
			ChosenTool:   primary,
			Confidence:   0.9,
			Alternatives: []router.Scored{{Tool: fallback}},
		},
	})
	require.NoError(t, err)

	terminalCount := 0
	for _, step := range trace.Steps {
		if step.Terminal {
			terminalCount++
		}
	}
	assert.Equal(t, 1, terminalCount)
	assert.True(t, trace.Steps[len(trace.Steps)-1].Terminal)
}

func TestRegisterExtractor_OverridesDefaultArgumentShape(t *testing.T) {
	var gotArgs map[string]any
	captureTool := terminalTool("predict_yield", func(ctx context.Context, args map[string]any) tool.Result {
		gotArgs = args
		return tool.Ok(map[string]any{"content": "ok"})
	})
	synth := &stubSynthesizer{text: "done"}
	agent := NewAgent(5, timeoutFunc(time.Second), synth, nil, nil)
	agent.RegisterExtractor("predict_yield", func(query string, observations []Observation, attachment *Attachment) map[string]any {
		return map[string]any{"area_ha": 2.5}
	})

	_, err := agent.Run(context.Background(), RunInput{
		Query:    "predict yield for 2.5 ha",
		Decision: router.Decision{ChosenTool: captureTool, Confidence: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, gotArgs["area_ha"])
}
