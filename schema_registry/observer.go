package schema_registry

import (
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// observeOperation reports one registry call. resource is the subject, or "registry"
// for lookups by id; subResource is the schema id or the version.
func (c *Client) observeOperation(operation, resource, subResource string, duration time.Duration, err error, metadata map[string]interface{}) {
	if c == nil || c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "schema_registry",
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Metadata:    metadata,
	})
}
