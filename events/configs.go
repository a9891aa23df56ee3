package events

import (
	"context"
	"time"
)

// Default values for configuration
const (
	DefaultFlushTimeout  = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultPollTimeout   = time.Second
)

// Config defines how messages are encoded and how hard delivery is retried.
type Config struct {
	// FlushTimeout bounds one confirmation attempt
	// Default: 10s
	FlushTimeout time.Duration `yaml:"flush_timeout" env:"EVENTS_FLUSH_TIMEOUT" env-default:"10s"`

	// Retry controls how many confirmation attempts a Produce call makes
	Retry RetryPolicy `yaml:"retry"`

	// Schemas maps a topic to the Avro schema of its message payload. The payload JSON is
	// read as Avro JSON, written under the "<topic>-value" subject and carried as bytes in
	// a framed envelope. Consumers get the payload back with fields in schema order.
	// Only used when a schema registry is configured.
	Schemas map[string]string `yaml:"schemas"`

	// UseEnvelopeSchema writes topics without an entry in Schemas with the built-in
	// message schema instead of plain JSON.
	UseEnvelopeSchema bool `yaml:"use_envelope_schema" env:"EVENTS_USE_ENVELOPE_SCHEMA"`

	// VerifySignatures rejects consumed messages whose signature does not match Salt
	VerifySignatures bool `yaml:"verify_signatures" env:"EVENTS_VERIFY_SIGNATURES"`

	// Salt is the signing secret used to verify consumed messages
	Salt string `yaml:"-" env:"EVENTS_SIGNATURE_SALT" json:"-"` //nolint:gosec

	// Topics is the default subscription of the consumer
	Topics []string `yaml:"topics" env:"EVENTS_TOPICS" env-separator:","`
}

// RetryPolicy bounds the confirmation attempts of one Produce call.
type RetryPolicy struct {
	// Attempts is the number of flush attempts before giving up
	// Default: 3
	Attempts int `yaml:"attempts" env:"EVENTS_RETRY_ATTEMPTS" env-default:"3"`

	// Backoff is the wait between attempts. Zero retries immediately.
	Backoff time.Duration `yaml:"backoff" env:"EVENTS_RETRY_BACKOFF"`

	// Multiplier grows Backoff after every attempt. Values below 1 keep it constant.
	Multiplier float64 `yaml:"multiplier" env:"EVENTS_RETRY_MULTIPLIER"`
}

// WithDefaults returns a copy of c with every unset field given its default.
func (c Config) WithDefaults() Config {
	if c.FlushTimeout <= 0 {
		c.FlushTimeout = DefaultFlushTimeout
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = DefaultRetryAttempts
	}
	return c
}

// next returns the wait after d.
func (r RetryPolicy) next(d time.Duration) time.Duration {
	if r.Multiplier <= 1 {
		return d
	}
	return time.Duration(float64(d) * r.Multiplier)
}

// Logger is an interface that matches the logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
