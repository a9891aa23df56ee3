package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// telemetry holds the optional logger and observer shared by producers and consumers.
type telemetry struct {
	// observer provides optional observability hooks for tracking operations
	observer observability.Observer

	// logger provides optional logging for lifecycle and background operations
	logger Logger
}

// logInfo logs an informational message using the configured logger if available.
func (t *telemetry) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

// logWarn logs a warning message using the configured logger if available.
func (t *telemetry) logWarn(ctx context.Context, msg string, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.WarnWithContext(ctx, msg, nil, fields)
	}
}

// logError logs an error message using the configured logger if available.
// This is only used for errors in background goroutines that can't be returned to the caller.
func (t *telemetry) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if t.logger != nil {
		t.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

// errorLogger adapts the optional logger to kafka-go's internal error logger.
func (t *telemetry) errorLogger() kafka.LoggerFunc {
	return kafka.LoggerFunc(func(msg string, args ...interface{}) {
		if t.logger == nil {
			return
		}
		formattedMsg := msg
		if len(args) > 0 {
			formattedMsg = fmt.Sprintf(msg, args...)
		}
		t.logger.ErrorWithContext(context.Background(), "Kafka internal error", nil, map[string]interface{}{
			"error": formattedMsg,
		})
	})
}

// security builds the TLS config and SASL mechanism requested by cfg.
func security(cfg Config) (*tls.Config, sasl.Mechanism, error) {
	var tlsConfig *tls.Config
	if cfg.TLS.Enabled {
		var err error
		tlsConfig, err = createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	var mechanism sasl.Mechanism
	if cfg.SASL.Enabled {
		var err error
		mechanism, err = createSASLMechanism(cfg.SASL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
		}
	}
	return tlsConfig, mechanism, nil
}

// createTLSConfig creates a TLS configuration from the provided config
func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// createSASLMechanism creates a SASL mechanism from the provided config
func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch strings.ToUpper(cfg.Mechanism) {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}

// compression maps a codec name to its kafka-go value.
func compression(codec string) (kafka.Compression, error) {
	switch strings.ToLower(codec) {
	case "", "none":
		return 0, nil
	case "gzip":
		return kafka.Gzip, nil
	case "snappy":
		return kafka.Snappy, nil
	case "lz4":
		return kafka.Lz4, nil
	case "zstd":
		return kafka.Zstd, nil
	default:
		return 0, fmt.Errorf("%w: unsupported compression codec %q", ErrInvalidConfig, codec)
	}
}

// startOffset maps an auto.offset.reset policy to a kafka-go start offset.
func startOffset(policy string) (int64, error) {
	switch strings.ToLower(policy) {
	case "", "earliest", "smallest", "beginning":
		return kafka.FirstOffset, nil
	case "latest", "largest", "end":
		return kafka.LastOffset, nil
	default:
		return 0, fmt.Errorf("%w: unsupported auto offset reset %q", ErrInvalidConfig, policy)
	}
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromKafkaHeaders(headers []kafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
