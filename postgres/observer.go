package postgres

import (
	"time"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// observeOperation notifies the observer about an operation if one is configured.
// An empty resource falls back to the database name.
func (p *Postgres) observeOperation(operation, resource string, duration time.Duration, err error, metadata map[string]interface{}) {
	if p == nil || p.observer == nil {
		return
	}
	if resource == "" {
		resource = p.cfg.Connection.DbName
	}

	p.observer.ObserveOperation(observability.OperationContext{
		Component: "postgres",
		Operation: operation,
		Resource:  resource,
		Duration:  duration,
		Error:     err,
		Metadata:  metadata,
	})
}
