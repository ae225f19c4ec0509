// Package tracer provides a small tracing abstraction so that services can emit
// spans without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: for tests and when tracing is disabled
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import "context"

// Span represents an active trace span.
type Span interface {
	// End completes the span, marking it failed when err is non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Span names used by the credential service.
const (
	SpanEnrol        = "crp.enrol"
	SpanAuthenticate = "crp.authenticate"
)

// Attribute keys used by the credential service.
const (
	AttrUser       = "crp.user"
	AttrChallenges = "crp.challenges"
	AttrOutcome    = "crp.outcome"
)

// Event names used by the credential service.
const (
	EventRecordsLoaded = "crp.records_loaded"
)
