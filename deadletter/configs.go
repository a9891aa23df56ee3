package deadletter

import "context"

// Defaults applied by NewMinioArchive.
const (
	DefaultBucket = "events-deadletter"
	DefaultPrefix = "deadletter"

	contentType = "application/json"
)

// Config defines where undeliverable messages are archived.
type Config struct {
	// Connection contains the MinIO/S3 connection parameters
	Connection ConnectionConfig `yaml:"connection"`

	// Bucket receives the archived messages. It is created on start when missing.
	// Default: "events-deadletter"
	Bucket string `yaml:"bucket" env:"DEADLETTER_BUCKET" env-default:"events-deadletter"`

	// Prefix is the first path segment of every object name.
	// Default: "deadletter"
	Prefix string `yaml:"prefix" env:"DEADLETTER_PREFIX" env-default:"deadletter"`
}

// ConnectionConfig contains MinIO server connection details.
type ConnectionConfig struct {
	// Endpoint is the MinIO server address (e.g., "minio.example.com:9000")
	Endpoint string `yaml:"endpoint" env:"DEADLETTER_ENDPOINT"`

	// AccessKeyID is the MinIO access key (similar to a username)
	AccessKeyID string `yaml:"access_key_id" env:"DEADLETTER_ACCESS_KEY_ID"`

	// SecretAccessKey is the MinIO secret key (similar to a password)
	SecretAccessKey string `yaml:"secret_access_key" env:"DEADLETTER_SECRET_ACCESS_KEY" json:"-"` //nolint:gosec

	// UseSSL determines whether to use HTTPS (true) or HTTP (false)
	UseSSL bool `yaml:"use_ssl" env:"DEADLETTER_USE_SSL"`

	// Region specifies the S3 region (e.g., "us-east-1")
	Region string `yaml:"region" env:"DEADLETTER_REGION"`
}

func (c Config) withDefaults() Config {
	if c.Bucket == "" {
		c.Bucket = DefaultBucket
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	return c
}

// Logger is an interface that matches the logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
