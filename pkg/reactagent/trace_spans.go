package reactagent

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// startSpan begins an OpenTelemetry span for one ACT step, if tracing
// is configured. Every agent iteration and tool invocation is
// traceable, per the agent's ordering/observability invariant.
func (a *Agent) startSpan(ctx context.Context, name, toolName string) (context.Context, trace.Span) {
	if a.tracer == nil {
		return ctx, nil
	}
	spanCtx, span := a.tracer.Start(ctx, name)
	span.SetAttributes(attribute.String("tool.name", toolName))
	return spanCtx, span
}

func (a *Agent) endSpan(span trace.Span) {
	if span == nil {
		return
	}
	span.End()
}
