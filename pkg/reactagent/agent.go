package reactagent

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/observability"
	"github.com/agriquery/gateway/pkg/router"
	"github.com/agriquery/gateway/pkg/tool"
)

// routingConfidenceThreshold is the router confidence at or above which
// Run marks a terminal-tool route as direct ACT. The mark does not change
// the path taken: there is no separate planning step, no Thought is
// recorded, and the router's chosen tool is invoked first at any
// confidence.
const routingConfidenceThreshold = 0.7

// maxSameToolFailures is how many times the same tool may fail within a
// trace before OBSERVE gives up on it.
const maxSameToolFailures = 2

var compositionHint = regexp.MustCompile(`\b(analysis|then|and)\b`)

// Agent runs the bounded ReAct state machine over a single query.
type Agent struct {
	maxIterations int
	toolTimeout   func(toolName string) time.Duration
	extractors    map[string]Extractor
	synthesizer   Synthesizer
	metrics       *observability.Metrics
	tracer        *observability.Tracer
}

// NewAgent builds an Agent. toolTimeout returns the per-tool deadline
// (default 15s, generation 30s, external-search 10s, per spec §4.4).
func NewAgent(maxIterations int, toolTimeout func(string) time.Duration, synthesizer Synthesizer, metrics *observability.Metrics, tracer *observability.Tracer) *Agent {
	return &Agent{
		maxIterations: maxIterations,
		toolTimeout:   toolTimeout,
		extractors:    make(map[string]Extractor),
		synthesizer:   synthesizer,
		metrics:       metrics,
		tracer:        tracer,
	}
}

// RegisterExtractor installs the action-input extractor for toolName,
// replacing the default pass-the-query-through behavior.
func (a *Agent) RegisterExtractor(toolName string, ex Extractor) {
	a.extractors[toolName] = ex
}

// RunInput is everything one agent run needs beyond the Agent's static
// configuration.
type RunInput struct {
	Query      string
	Decision   router.Decision
	Attachment *Attachment
}

// Run executes the state machine to completion, a deadline, or the
// iteration bound, whichever comes first.
func (a *Agent) Run(ctx context.Context, in RunInput) (Trace, error) {
	trace := Trace{Query: in.Query}

	candidates := candidateList(in.Decision)
	if len(candidates) == 0 {
		text, err := a.synthesizer.Synthesize(ctx, in.Query, nil)
		trace.Answer = text
		trace.Steps = append(trace.Steps, AgentStep{Seq: 1, State: StateSynthesize, Terminal: true})
		return trace, err
	}

	var observations []Observation
	toolsUsed := make([]string, 0, 4)
	failedCounts := make(map[string]int)
	tried := make(map[string]bool)

	directAct := in.Decision.Confidence >= routingConfidenceThreshold &&
		in.Decision.ChosenTool != nil && in.Decision.ChosenTool.TerminalOnSuccess

	iteration := 0
	seq := 0

loop:
	for iteration < a.maxIterations {
		select {
		case <-ctx.Done():
			trace.Truncated = true
			break loop
		default:
		}
		iteration++

		chosen := a.nextCandidate(candidates, failedCounts, tried)
		if chosen == nil {
			break loop
		}
		tried[chosen.Name] = true

		actionInput := a.extract(chosen.Name, in.Query, observations, in.Attachment)

		ctxStep, span := a.startSpan(ctx, "agent.act", chosen.Name)
		toolCtx, cancel := context.WithTimeout(ctxStep, a.toolTimeout(chosen.Name))
		start := time.Now()
		result := chosen.Invoke(toolCtx, actionInput)
		cancel()
		duration := time.Since(start)
		a.endSpan(span)

		toolsUsed = append(toolsUsed, chosen.Name)
		obs := Observation{Tool: chosen.Name}

		if result.IsErr() {
			a.observeTool(chosen.Name, "error", duration)
			failedCounts[chosen.Name]++
			obs.Err = result.Err
			seq++
			stepIdx := len(trace.Steps)
			trace.Steps = append(trace.Steps, AgentStep{
				Seq: seq, State: StateObserve, Action: chosen.Name,
				ActionInput: actionInput, Observation: &obs,
			})

			switch result.Err.Kind {
			case gwerr.KindInvalidInput:
				trace.Steps[stepIdx].Terminal = true
				trace.Answer = clarifyingAnswer(result.Err)
				trace.ToolsUsed = dedupe(toolsUsed)
				a.observeOutcome("clarifying", iteration)
				return trace, nil
			case gwerr.KindInternal:
				trace.Steps[stepIdx].Terminal = true
				trace.Answer = "I was unable to process this request due to an internal error. It has been recorded."
				trace.ToolsUsed = dedupe(toolsUsed)
				a.observeOutcome("internal_error", iteration)
				return trace, nil
			default:
				observations = append(observations, obs)
				if !directAct {
					continue loop
				}
				directAct = false
				continue loop
			}
		}

		a.observeTool(chosen.Name, "ok", duration)
		obs.Content = primaryContent(result.Payload)
		obs.Data = result.Payload
		if nf, ok := result.Payload["needs_followup"].(bool); ok {
			obs.NeedsFollowup = nf
		}
		observations = append(observations, obs)

		seq++
		trace.Steps = append(trace.Steps, AgentStep{
			Seq: seq, State: StateObserve, Action: chosen.Name,
			ActionInput: actionInput, Observation: &obs,
		})

		if !needsMore(chosen, obs, observations, in.Query) {
			break loop
		}
		directAct = false
	}

	if iteration >= a.maxIterations {
		trace.Truncated = true
	}

	text, err := a.synthesizer.Synthesize(ctx, in.Query, observations)
	seq++
	if err != nil {
		trace.Answer = "I was unable to synthesize a final answer from the information gathered."
		trace.ToolsUsed = dedupe(toolsUsed)
		trace.Steps = append(trace.Steps, AgentStep{Seq: seq, State: StateSynthesize, Terminal: true})
		a.observeOutcome("synthesis_error", iteration)
		return trace, err
	}

	trace.Answer = text
	trace.ToolsUsed = dedupe(toolsUsed)
	trace.Steps = append(trace.Steps, AgentStep{Seq: seq, State: StateSynthesize, Terminal: true})
	outcome := "answered"
	if trace.Truncated {
		outcome = "truncated"
	}
	a.observeOutcome(outcome, iteration)
	return trace, nil
}

// candidateList orders the chosen tool ahead of the router's
// alternatives, for use as the retry sequence within ACT.
func candidateList(d router.Decision) []*tool.Tool {
	var out []*tool.Tool
	if d.ChosenTool != nil {
		out = append(out, d.ChosenTool)
	}
	for _, alt := range d.Alternatives {
		if alt.Tool != nil {
			out = append(out, alt.Tool)
		}
	}
	return out
}

// nextCandidate returns the first candidate not yet exhausted
// (failed maxSameToolFailures times) and not already tried this
// iteration's retry chain, or nil if none remain.
func (a *Agent) nextCandidate(candidates []*tool.Tool, failedCounts map[string]int, tried map[string]bool) *tool.Tool {
	for _, c := range candidates {
		if failedCounts[c.Name] >= maxSameToolFailures {
			continue
		}
		if tried[c.Name] && failedCounts[c.Name] == 0 {
			continue
		}
		return c
	}
	return nil
}

func (a *Agent) extract(toolName, query string, observations []Observation, attachment *Attachment) map[string]any {
	if ex, ok := a.extractors[toolName]; ok {
		return ex(query, observations, attachment)
	}
	return defaultExtractor(query, observations, attachment)
}

// needsMore implements the OBSERVE -> PLAN|SYNTHESIZE predicate: continue
// planning iff the tool's output is not terminal, or the needs-more
// predicate over accumulated observations holds.
func needsMore(chosen *tool.Tool, latest Observation, all []Observation, query string) bool {
	if !chosen.TerminalOnSuccess {
		return true
	}
	if latest.NeedsFollowup {
		return true
	}
	if compositionHint.MatchString(strings.ToLower(query)) {
		return true
	}
	for _, o := range all {
		if o.Content != "" {
			return false
		}
	}
	return true
}

func primaryContent(payload map[string]any) string {
	for _, key := range []string{"content", "text", "answer", "translated_text"} {
		if v, ok := payload[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func clarifyingAnswer(err *gwerr.Error) string {
	if err.Field != "" {
		return "I need a valid value for \"" + err.Field + "\" to continue: " + err.Message
	}
	return "I couldn't process that request: " + err.Message
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func (a *Agent) observeTool(name, outcome string, d time.Duration) {
	if a.metrics != nil {
		a.metrics.ObserveToolInvocation(name, outcome, d)
	}
}

func (a *Agent) observeOutcome(outcome string, iterations int) {
	if a.metrics != nil {
		a.metrics.ObserveAgentRun(outcome, iterations)
	}
}
