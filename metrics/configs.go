package metrics

const (
	DefaultSystemMetricsAddress      = ":9090"
	DefaultApplicationMetricsAddress = ":9091"
)

// Config configures the two metrics endpoints.
//
// The addresses are pointers so that "not configured" (nil, use the default) differs
// from "disabled" (""). Ptr helps with the latter:
//
//	metrics.Config{SystemMetricsAddress: metrics.Ptr("")}
type Config struct {
	// SystemMetricsAddress serves Go runtime, process and build info metrics.
	SystemMetricsAddress *string `yaml:"system_metrics_address" env:"METRICS_SYSTEM_ADDRESS"`

	// ApplicationMetricsAddress serves the operation metrics and anything created
	// through MetricsCollector.
	ApplicationMetricsAddress *string `yaml:"application_metrics_address" env:"METRICS_APPLICATION_ADDRESS"`

	// ServiceName becomes the constant service label of every metric.
	ServiceName string `yaml:"service_name" env:"METRICS_SERVICE_NAME"`
}

// Ptr returns a pointer to s.
func Ptr(s string) *string {
	return &s
}
