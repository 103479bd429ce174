// Package tracing provides a minimal span abstraction for instrumenting
// harness requests, with an OpenTelemetry-backed implementation and a no-op
// fallback.
package tracing

import "context"

// Attribute is a key/value pair attached to a span.
type Attribute struct {
	Key   string
	Value interface{}
}

// Span is an in-flight span; End records the outcome and finishes it.
type Span interface {
	End(err error)
}

// Tracer starts spans around harness operations.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// NoopTracer discards all spans.
type NoopTracer struct{}

// Start implements Tracer.
func (NoopTracer) Start(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// WithTracer returns tracer, or a no-op tracer when nil, so call sites can
// trace unconditionally.
func WithTracer(tracer Tracer) Tracer {
	if tracer == nil {
		return NoopTracer{}
	}
	return tracer
}

// String builds a string attribute.
func String(key, value string) Attribute { return Attribute{Key: key, Value: value} }

// Int builds an integer attribute.
func Int(key string, value int) Attribute { return Attribute{Key: key, Value: value} }
