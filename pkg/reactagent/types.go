// Package reactagent implements the ReAct Agent: a bounded
// START -> PLAN -> ACT -> OBSERVE -> {PLAN, SYNTHESIZE} -> DONE state
// machine over the tool registry and router.
package reactagent

import (
	"context"

	"github.com/agriquery/gateway/pkg/gwerr"
)

// State names one node of the agent's state machine.
type State string

const (
	StateStart      State = "START"
	StatePlan       State = "PLAN"
	StateAct        State = "ACT"
	StateObserve    State = "OBSERVE"
	StateSynthesize State = "SYNTHESIZE"
	StateDone       State = "DONE"
)

// Observation is what OBSERVE records for one ACT step: either tool
// output or a tool error, never both.
type Observation struct {
	Tool          string
	Content       string
	Data          map[string]any
	Err           *gwerr.Error
	NeedsFollowup bool
}

// AgentStep is one PLAN/ACT/OBSERVE cycle, kept in production order for
// the Synthesizer and for trace inspection. Terminal marks the single
// step that ends the trace — the synthesis step on a normal run, or the
// OBSERVE step that aborted it on an invalid-input/internal error.
type AgentStep struct {
	Seq         int
	State       State
	Thought     string
	Action      string
	ActionInput map[string]any
	Observation *Observation
	Terminal    bool
}

// Trace is the complete record of one agent run.
type Trace struct {
	Query      string
	Steps      []AgentStep
	Answer     string
	ToolsUsed  []string
	Truncated  bool
	Confidence *float64
}

// Synthesizer turns an ordered set of observations plus the original
// query into final answer text, via the generation tool. Defined here
// (rather than imported from the formatter package) so the formatter
// can depend on reactagent without a cycle back.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, observations []Observation) (string, error)
}

// Attachment is the decoded binary payload uploaded alongside a query,
// e.g. a plant photo for pest detection. Nil when the request carried no
// attachment.
type Attachment struct {
	Kind string
	Data []byte
}

// Extractor builds a tool's declared input map from the query, the
// observations accumulated so far in the trace, and any attachment
// uploaded with the request.
type Extractor func(query string, observations []Observation, attachment *Attachment) map[string]any

// defaultExtractor is used for any tool without a registered Extractor:
// it passes the raw query through under "query".
func defaultExtractor(query string, _ []Observation, _ *Attachment) map[string]any {
	return map[string]any{"query": query}
}
