package kernel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	traceScope = "github.com/tailored-agentic-units/react/kernel"

	traceSpanTurn  = "react.turn"
	traceSpanModel = "react.llm.stream"
	traceSpanTool  = "react.tool.execute"

	traceAttrSessionKey = "react.session_key"
	traceAttrRunID      = "react.run_id"
	traceAttrIteration  = "react.iteration"
	traceAttrToolName   = "react.tool_name"
	traceAttrStatus     = "react.status"
)

func (t *turn) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	spanAttrs = append(spanAttrs,
		attribute.String(traceAttrSessionKey, t.session.Key()),
		attribute.String(traceAttrRunID, t.runID),
	)
	spanAttrs = append(spanAttrs, attrs...)

	return otel.Tracer(traceScope).Start(ctx, name, trace.WithAttributes(spanAttrs...))
}

func markSpanResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(traceAttrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(traceAttrStatus, "success"))
}
