package kafka

import (
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// observeOperation reports one broker operation: resource is the topic, subResource
// the partition when known, size the value bytes or, for flush, the records left.
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
	})
}
