package confluent

import (
	"context"
	"time"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
)

type telemetry struct {
	observer observability.Observer
	logger   kafka.Logger
}

func (t *telemetry) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.InfoWithContext(ctx, msg, nil, fields)
	}
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

// observeOperation reports under the same component as the kafka-go implementation so
// dashboards do not depend on the client library.
func (t *telemetry) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if t.observer == nil {
		return
	}
	t.observer.ObserveOperation(observability.OperationContext{
		Component:   "kafka",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
		Metadata:    map[string]interface{}{"client": "librdkafka"},
	})
}
