// Package observability defines the Observer hook shared by the infrastructure
// packages of this module.
//
// kafka, kafka/confluent, events, schema_registry, schemacache, observer and
// deadletter accept an optional Observer and report every operation they complete:
//
//	observer.ObserveOperation(observability.OperationContext{
//		Component:   "kafka",
//		Operation:   "produce",
//		Resource:    "member",
//		SubResource: "3", // partition
//		Duration:    12 * time.Millisecond,
//		Size:        2048,
//	})
//
// Components emit:
//
//	kafka            enqueue, flush, consume, commit
//	events           produce, flush, consume
//	schema_registry  register_schema, lookup_schema, get_schema_by_id, check_compatibility
//	schema_cache     get_id_with_hash
//	observer         created, updated, deleted
//	minio            ensure_bucket, put (dead letters)
//	postgres, mariadb connect, create, save, delete, first, transaction
//
// A nil Observer is always allowed. metrics.OperationObserver is the Prometheus
// implementation; NoOpObserver discards everything.
//
// Implementations are called concurrently and must be safe for it.
package observability
