package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cozodb/openai-multi-client/request"
)

// tracerName is the instrumentation scope name for dispatch tracing.
const tracerName = "github.com/cozodb/openai-multi-client"

// Tracing returns middleware that wraps each attempt in an OpenTelemetry
// span. If no TracerProvider is configured globally, the default noop
// tracer is used and this middleware becomes a pass-through with zero
// overhead.
//
// Span attributes include: multiclient.seq, multiclient.endpoint,
// multiclient.attempt. On error, the span status is set to codes.Error
// with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided
// tracer. This variant allows injecting a specific TracerProvider for
// testing or when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, a *request.Attempt, next Handler) (any, error) {
		ctx, span := tracer.Start(ctx, "multiclient.attempt",
			trace.WithAttributes(
				attribute.Int64("multiclient.seq", int64(a.Seq)), //nolint:gosec // sequence numbers stay well below int64 max
				attribute.String("multiclient.endpoint", a.Endpoint),
				attribute.Int("multiclient.attempt", a.Number),
			),
			trace.WithSpanKind(trace.SpanKindClient),
		)
		defer span.End()

		resp, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return resp, err
	}
}
