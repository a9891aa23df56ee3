// Package metrics exposes Prometheus metrics on two endpoints:
//
//   - system metrics (Go runtime, process, build info), default :9090
//   - application metrics, default :9091
//
// Every metric carries a constant service label taken from Config.ServiceName.
// An endpoint is disabled with an empty address:
//
//	m := metrics.NewMetrics(metrics.Config{
//		SystemMetricsAddress: metrics.Ptr(""),
//		ServiceName:          "members-api",
//	})
//
// # Operation metrics
//
// OperationObserver implements observability.Observer. Handing it to the kafka,
// events, schema_registry, schemacache, observer and deadletter packages records
//
//	events_operations_total{component,operation,status}
//	events_operation_duration_seconds{component,operation}
//	events_payload_bytes{component,operation}
//
// With FXModule this happens automatically because the observer is provided as
// observability.Observer.
//
// # Custom metrics
//
//	flushes := m.CreateCounter("members_sync_flush_total", "Flush attempts", []string{"topic"})
//	flushes.WithLabelValues("members").Inc()
package metrics
