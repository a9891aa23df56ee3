package metrics

import (
	"github.com/aalemi-dev/stdlib-events/observability"
)

// Names of the metrics recorded by OperationObserver.
const (
	OperationsTotalName   = "events_operations_total"
	OperationDurationName = "events_operation_duration_seconds"
	PayloadBytesName      = "events_payload_bytes"
	OutstandingName       = "events_flush_outstanding"
)

var (
	durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	payloadBuckets  = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}
)

// OperationObserver records every observed operation as Prometheus metrics:
//
//	events_operations_total{component,operation,status}
//	events_operation_duration_seconds{component,operation}
//	events_payload_bytes{component,operation}
//	events_flush_outstanding{component,resource}
//
// status is "ok" or "error". Flush operations report their outstanding record count as
// size; it is kept in the gauge instead of the payload histogram.
type OperationObserver struct {
	total       Counter
	duration    Histogram
	payload     Histogram
	outstanding Gauge
}

// NewOperationObserver registers the operation metrics on m.
func NewOperationObserver(m MetricsCollector) *OperationObserver {
	return &OperationObserver{
		total: m.CreateCounter(OperationsTotalName,
			"Operations performed by the event infrastructure",
			[]string{"component", "operation", "status"}),
		duration: m.CreateHistogram(OperationDurationName,
			"Duration of event infrastructure operations",
			[]string{"component", "operation"}, durationBuckets),
		payload: m.CreateHistogram(PayloadBytesName,
			"Payload size of event infrastructure operations",
			[]string{"component", "operation"}, payloadBuckets),
		outstanding: m.CreateGauge(OutstandingName,
			"Records not yet confirmed after the last flush",
			[]string{"component", "resource"}),
	}
}

// ObserveOperation implements observability.Observer.
func (o *OperationObserver) ObserveOperation(ctx observability.OperationContext) {
	o.total.WithLabelValues(ctx.Component, ctx.Operation, ctx.Status()).Inc()
	o.duration.WithLabelValues(ctx.Component, ctx.Operation).Observe(ctx.Duration.Seconds())
	switch {
	case ctx.Operation == "flush":
		o.outstanding.WithLabelValues(ctx.Component, ctx.Resource).Set(float64(ctx.Size))
	case ctx.Size > 0:
		o.payload.WithLabelValues(ctx.Component, ctx.Operation).Observe(float64(ctx.Size))
	}
}
