package observability

import "time"

// Observer is a unified interface for observability across the packages of this module.
// It allows external code to observe operations happening in infrastructure packages
// (kafka, schema_registry, events, postgres, mariadb, minio) without coupling them
// to specific observability implementations (metrics, tracing, logging).
//
// This interface is optional - every package works without an observer.
type Observer interface {
	// ObserveOperation is called when an infrastructure operation completes.
	// It provides all context about the operation in a structured format.
	ObserveOperation(ctx OperationContext)
}

// OperationContext contains all information about an infrastructure operation.
// This struct is designed to be generic enough to work across the packages of this module
// while providing enough detail for comprehensive observability.
type OperationContext struct {
	// Component identifies which package performed the operation.
	// Examples: "kafka", "events", "schema_registry", "postgres", "minio"
	Component string

	// Operation describes what operation was performed.
	// Examples:
	//   Kafka:    "enqueue", "flush", "consume", "commit"
	//   Events:   "produce", "flush", "consume"
	//   Database: "connect", "create", "save", "delete", "transaction"
	//   Storage:  "ensure_bucket", "put"
	Operation string

	// Resource identifies the primary resource being operated on.
	// Examples:
	//   Database: table name ("members")
	//   Storage:  object key of a dead letter
	//   Kafka:    topic name ("member", "member-activity")
	//   Registry: subject ("member-value")
	Resource string

	// SubResource provides additional resource context (optional).
	// Examples:
	//   Kafka:    partition number ("3")
	//   Registry: schema id or version
	SubResource string

	// Duration is how long the operation took from start to completion.
	Duration time.Duration

	// Error is the error returned by the operation, if any.
	// nil indicates successful operation.
	Error error

	// Size represents the size of data involved in the operation (optional).
	// Examples:
	//   Storage:  bytes written
	//   Kafka:    message size in bytes
	Size int64

	// Metadata provides additional operation-specific information (optional).
	// This map can contain any extra context that doesn't fit in the standard fields.
	// Examples:
	//   Database: {"rows_affected": 1}
	//   Events:   {"type": "member", "event": "created"}
	//   Flush:    {"attempt": 2}
	Metadata map[string]interface{}
}
