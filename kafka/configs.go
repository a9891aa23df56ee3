package kafka

import (
	"context"
	"time"
)

// Config defines the broker settings shared by producers and consumers.
//
// Field names follow the librdkafka properties they map to. Settings that only exist
// in librdkafka (MetadataRefreshSparse, APIVersionRequestTimeout, TerminationSignal,
// EnableIdempotence) are ignored by the kafka-go implementations.
type Config struct {
	// Brokers is a list of Kafka broker addresses (metadata.broker.list)
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`

	// ClientID identifies this client to the brokers (client.id)
	ClientID string `yaml:"client_id" env:"KAFKA_CLIENT_ID"`

	// SocketTimeout bounds network requests (socket.timeout.ms)
	// Default: 60s
	SocketTimeout time.Duration `yaml:"socket_timeout" env:"KAFKA_SOCKET_TIMEOUT"`

	// MetadataRefreshSparse reduces metadata requests (topic.metadata.refresh.sparse)
	MetadataRefreshSparse bool `yaml:"metadata_refresh_sparse" env:"KAFKA_METADATA_REFRESH_SPARSE"`

	// MetadataRefreshInterval is how often topic metadata is refreshed
	// (topic.metadata.refresh.interval.ms)
	// Default: 5m
	MetadataRefreshInterval time.Duration `yaml:"metadata_refresh_interval" env:"KAFKA_METADATA_REFRESH_INTERVAL"`

	// APIVersionRequestTimeout bounds the broker version probe (api.version.request.timeout.ms)
	APIVersionRequestTimeout time.Duration `yaml:"api_version_request_timeout" env:"KAFKA_API_VERSION_REQUEST_TIMEOUT"`

	// TerminationSignal lets librdkafka threads wake up on shutdown (internal.termination.signal)
	TerminationSignal int `yaml:"termination_signal" env:"KAFKA_TERMINATION_SIGNAL"`

	// MessageTimeout bounds the delivery of one record including retries (message.timeout.ms)
	// Default: 30s
	MessageTimeout time.Duration `yaml:"message_timeout" env:"KAFKA_MESSAGE_TIMEOUT"`

	// QueueBufferingMax is how long records are buffered before a batch is sent
	// (queue.buffering.max.ms)
	// Default: 10ms
	QueueBufferingMax time.Duration `yaml:"queue_buffering_max" env:"KAFKA_QUEUE_BUFFERING_MAX"`

	// BatchSize is the maximum number of records sent in one batch
	// Default: 100
	BatchSize int `yaml:"batch_size" env:"KAFKA_BATCH_SIZE"`

	// MaxAttempts is the maximum number of attempts to deliver a batch
	// Default: 10
	MaxAttempts int `yaml:"max_attempts" env:"KAFKA_MAX_ATTEMPTS"`

	// RequiredAcks determines how many replica acknowledgments to wait for (request.required.acks)
	// Options:
	//   RequireNone (0): Don't wait for acknowledgment
	//   RequireOne (1): Wait for leader only
	//   RequireAll (-1): Wait for all in-sync replicas
	// Default: RequireAll (-1)
	RequiredAcks int `yaml:"required_acks" env:"KAFKA_REQUIRED_ACKS" env-default:"-1"`

	// EnableIdempotence turns on the idempotent producer (enable.idempotence)
	EnableIdempotence bool `yaml:"enable_idempotence" env:"KAFKA_ENABLE_IDEMPOTENCE"`

	// CompressionCodec specifies the compression algorithm to use
	// Options: "" (no compression), gzip, snappy, lz4, zstd
	CompressionCodec string `yaml:"compression_codec" env:"KAFKA_COMPRESSION_CODEC"`

	// GroupID is the consumer group ID (group.id)
	GroupID string `yaml:"group_id" env:"KAFKA_GROUP_ID"`

	// AutoOffsetReset is where to start without a committed offset (auto.offset.reset)
	// Options: "earliest", "latest"
	// Default: "earliest"
	AutoOffsetReset string `yaml:"auto_offset_reset" env:"KAFKA_AUTO_OFFSET_RESET"`

	// EnableAutoCommit commits stored offsets in the background (enable.auto.commit)
	EnableAutoCommit bool `yaml:"enable_auto_commit" env:"KAFKA_ENABLE_AUTO_COMMIT"`

	// EnableAutoOffsetStore stores the offset of every record handed to the application
	// (enable.auto.offset.store). With auto commit enabled this commits on read;
	// otherwise the caller commits each record.
	EnableAutoOffsetStore bool `yaml:"enable_auto_offset_store" env:"KAFKA_ENABLE_AUTO_OFFSET_STORE"`

	// CommitInterval is how often offsets are committed when auto commit is enabled
	// Default: 1s
	CommitInterval time.Duration `yaml:"commit_interval" env:"KAFKA_COMMIT_INTERVAL"`

	// MinBytes is the minimum number of bytes to fetch in a single request
	// Default: 1 byte
	MinBytes int `yaml:"min_bytes" env:"KAFKA_MIN_BYTES"`

	// MaxBytes is the maximum number of bytes to fetch in a single request
	// Default: 10MB
	MaxBytes int `yaml:"max_bytes" env:"KAFKA_MAX_BYTES"`

	// MaxWait is the maximum amount of time to wait for MinBytes to become available
	// Default: 500ms
	MaxWait time.Duration `yaml:"max_wait" env:"KAFKA_MAX_WAIT"`

	// AllowAutoTopicCreation lets the producer create missing topics
	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation" env:"KAFKA_ALLOW_AUTO_TOPIC_CREATION"`

	// TLS contains TLS/SSL configuration
	TLS TLSConfig `yaml:"tls"`

	// SASL contains SASL authentication configuration
	SASL SASLConfig `yaml:"sasl"`
}

// Logger is an interface that matches the logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// TLSConfig contains TLS/SSL configuration parameters.
type TLSConfig struct {
	// Enabled determines whether to use TLS/SSL for the connection
	Enabled bool `yaml:"enabled" env:"KAFKA_TLS_ENABLED"`

	// CACertPath is the file path to the CA certificate for verifying the broker
	CACertPath string `yaml:"ca_cert_path" env:"KAFKA_TLS_CA_CERT_PATH"`

	// ClientCertPath is the file path to the client certificate
	ClientCertPath string `yaml:"client_cert_path" env:"KAFKA_TLS_CLIENT_CERT_PATH"`

	// ClientKeyPath is the file path to the client certificate's private key
	ClientKeyPath string `yaml:"client_key_path" env:"KAFKA_TLS_CLIENT_KEY_PATH"`

	// InsecureSkipVerify controls whether to skip verification of the server's certificate
	// WARNING: Setting this to true is insecure and should only be used in testing
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" env:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig contains SASL authentication configuration parameters.
type SASLConfig struct {
	// Enabled determines whether to use SASL authentication
	Enabled bool `yaml:"enabled" env:"KAFKA_SASL_ENABLED"`

	// Mechanism specifies the SASL mechanism to use
	// Options: "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512"
	Mechanism string `yaml:"mechanism" env:"KAFKA_SASL_MECHANISM"`

	// Username is the SASL username
	Username string `yaml:"username" env:"KAFKA_SASL_USERNAME"`

	// Password is the SASL password
	Password string `yaml:"password" env:"KAFKA_SASL_PASSWORD" json:"-"` //nolint:gosec
}

// Default values for configuration
const (
	DefaultSocketTimeout           = 60 * time.Second
	DefaultMetadataRefreshInterval = 5 * time.Minute
	DefaultMessageTimeout          = 30 * time.Second
	DefaultQueueBufferingMax       = 10 * time.Millisecond
	DefaultBatchSize               = 100
	DefaultMaxAttempts             = 10
	DefaultAutoOffsetReset         = OffsetResetEarliest
	DefaultCommitInterval          = 1 * time.Second
	DefaultMinBytes                = 1
	DefaultMaxBytes                = 10e6 // 10MB
	DefaultMaxWait                 = 500 * time.Millisecond
	DefaultRebalanceTimeout        = 30 * time.Second

	// Producer acknowledgment modes
	RequireNone = 0  // Fire-and-forget (no acknowledgment)
	RequireOne  = 1  // Wait for leader only
	RequireAll  = -1 // Wait for all in-sync replicas (most durable)

	// Consumer offset reset policies
	OffsetResetEarliest = "earliest"
	OffsetResetLatest   = "latest"
)

// WithDefaults returns a copy of c with every unset field given its default.
// RequiredAcks is left alone because 0 is a meaningful value; use RequireAll explicitly
// or load the config through the config package.
func (c Config) WithDefaults() Config {
	if c.SocketTimeout == 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.MetadataRefreshInterval == 0 {
		c.MetadataRefreshInterval = DefaultMetadataRefreshInterval
	}
	if c.MessageTimeout == 0 {
		c.MessageTimeout = DefaultMessageTimeout
	}
	if c.QueueBufferingMax == 0 {
		c.QueueBufferingMax = DefaultQueueBufferingMax
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = DefaultAutoOffsetReset
	}
	if c.CommitInterval == 0 {
		c.CommitInterval = DefaultCommitInterval
	}
	if c.MinBytes == 0 {
		c.MinBytes = DefaultMinBytes
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxWait == 0 {
		c.MaxWait = DefaultMaxWait
	}
	return c
}

// CommitOnRead reports whether offsets are stored and committed without the caller
// committing each record.
func (c Config) CommitOnRead() bool {
	return c.EnableAutoCommit && c.EnableAutoOffsetStore
}
