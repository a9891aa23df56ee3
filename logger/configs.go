package logger

// Log levels accepted in Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config defines the configuration structure for the logger.
type Config struct {
	// Level is the minimum level written: "debug", "info", "warning" or "error".
	// Unknown values fall back to "info".
	Level string `yaml:"level" env:"ZAP_LOGGER_LEVEL" env-default:"info"`

	// EnableTracing adds trace_id and span_id from the context to every *WithContext
	// entry. Kafka consumers get the producer's trace through the record headers.
	EnableTracing bool `yaml:"enable_tracing" env:"LOGGER_ENABLE_TRACING"`

	// ServiceName populates the "service" field of every entry.
	ServiceName string `yaml:"service_name" env:"LOGGER_SERVICE_NAME"`

	// Output is a zap sink URL or path. Default: "stderr".
	// The consume CLI logs to stderr so that stdout only carries messages.
	Output string `yaml:"output" env:"LOGGER_OUTPUT" env-default:"stderr"`

	// CallerSkip is the number of stack frames to skip when reporting the caller.
	// 1 (default) reports the direct caller of the LoggerClient; add one per
	// wrapper layer.
	CallerSkip int `yaml:"caller_skip" env:"LOGGER_CALLER_SKIP"`
}
