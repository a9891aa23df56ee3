package tracer

import "context"

// Tracer starts spans and moves their context across Kafka records.
//
// GetCarrier returns the W3C trace context of ctx as a flat map that fits into record
// headers; SetCarrierOnContext does the reverse on the consuming side:
//
//	ctx, span := t.StartSpan(ctx, "events.produce")
//	defer span.End()
//	record.Headers = t.GetCarrier(ctx)
//
//	// consumer
//	ctx = t.SetCarrierOnContext(ctx, record.Headers)
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
	GetCarrier(ctx context.Context) map[string]string
	SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context
}

// Span is a single traced operation. End must be called exactly once.
type Span interface {
	End()

	// SetAttributes attaches key/value pairs. Strings, ints, floats and bools keep
	// their type; anything else is stored formatted with fmt.Sprint.
	SetAttributes(attrs map[string]interface{})

	// RecordError adds err as an event and marks the span failed.
	RecordError(err error)
}
