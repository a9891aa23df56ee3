package tracer

// Config defines the configuration for the OpenTelemetry tracer.
type Config struct {
	// ServiceName identifies the service on every span. Required.
	ServiceName string `yaml:"service_name" env:"TRACER_SERVICE_NAME"`

	// AppEnv sets the "deployment.environment" and "environment" resource attributes,
	// e.g. "development" or "production".
	AppEnv string `yaml:"app_env" env:"TRACER_APP_ENV" env-default:"development"`

	// EnableExport configures the OTLP HTTP exporter. When false spans are only used for
	// context propagation.
	EnableExport bool `yaml:"enable_export" env:"TRACER_ENABLE_EXPORT"`
}
