// Package tracer wraps OpenTelemetry behind a small Tracer interface.
//
// NewClient returns a *TracerClient; FXModule provides it both as the concrete type
// and as Tracer:
//
//	t, err := tracer.NewClient(tracer.Config{
//		ServiceName:  "members-sync",
//		AppEnv:       "production",
//		EnableExport: true,
//	})
//	if err != nil {
//		return err
//	}
//	ctx, span := t.StartSpan(ctx, "sync-members")
//	defer span.End()
//
// # Propagation through Kafka
//
// GetCarrier returns the W3C trace context of ctx as a header map and
// SetCarrierOnContext restores it on the other side. The events package writes the
// carrier into the record headers when a Tracer is injected and continues the trace
// in Delivery.Context:
//
//	headers := t.GetCarrier(ctx) // {"traceparent": "00-..."}
//	...
//	ctx = t.SetCarrierOnContext(ctx, record.Headers)
//
// With EnableExport the spans go to the OTLP HTTP exporter configured through the
// standard OTEL_EXPORTER_OTLP_* variables. Without it spans still propagate but are
// never sent anywhere.
//
// All methods are safe for concurrent use.
package tracer
