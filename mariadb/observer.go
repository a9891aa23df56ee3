package mariadb

import (
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
// An empty resource falls back to the database name.
func (m *MariaDB) observeOperation(operation, resource string, duration time.Duration, err error, metadata map[string]interface{}) {
	if m == nil || m.observer == nil {
		return
	}
	if resource == "" {
		resource = m.cfg.Connection.DbName
	}

	m.observer.ObserveOperation(observability.OperationContext{
		Component: "mariadb",
		Operation: operation,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Metadata:  metadata,
	})
}
