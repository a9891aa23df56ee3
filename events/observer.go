package events

import (
	"context"
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// telemetry holds the optional logger and observer of the producer and consumer services.
type telemetry struct {
	logger   Logger
	observer observability.Observer
}

// observeOperation safely calls the observer if it's not nil.
func (t *telemetry) observeOperation(operation, resource string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if t.observer == nil {
		return
	}
	t.observer.ObserveOperation(observability.OperationContext{
		Component: "events",
		Operation: operation,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Size:      size,
		Metadata:  metadata,
	})
}

func (t *telemetry) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}

func (t *telemetry) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
