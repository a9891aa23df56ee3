package confluent

import (
	"fmt"
	"strings"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/aalemi-dev/stdlib-events/kafka"
)

// ConfigMap returns the librdkafka properties shared by producers and consumers.
func ConfigMap(cfg kafka.Config) (*ckafka.ConfigMap, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", kafka.ErrInvalidConfig)
	}
	cfg = cfg.WithDefaults()

	m := &ckafka.ConfigMap{
		"metadata.broker.list":               strings.Join(cfg.Brokers, ","),
		"socket.timeout.ms":                  millis(cfg.SocketTimeout),
		"topic.metadata.refresh.sparse":      cfg.MetadataRefreshSparse,
		"topic.metadata.refresh.interval.ms": millis(cfg.MetadataRefreshInterval),
	}

	if cfg.ClientID != "" {
		_ = m.SetKey("client.id", cfg.ClientID)
	}
	if cfg.APIVersionRequestTimeout > 0 {
		_ = m.SetKey("api.version.request.timeout.ms", millis(cfg.APIVersionRequestTimeout))
	}
	if cfg.TerminationSignal > 0 {
		_ = m.SetKey("internal.termination.signal", cfg.TerminationSignal)
	}

	if err := setSecurity(m, cfg); err != nil {
		return nil, err
	}
	return m, nil
}

// ProducerConfigMap returns the properties for a producer.
func ProducerConfigMap(cfg kafka.Config) (*ckafka.ConfigMap, error) {
	m, err := ConfigMap(cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	_ = m.SetKey("message.timeout.ms", millis(cfg.MessageTimeout))
	_ = m.SetKey("queue.buffering.max.ms", millis(cfg.QueueBufferingMax))
	_ = m.SetKey("request.required.acks", cfg.RequiredAcks)
	_ = m.SetKey("batch.num.messages", cfg.BatchSize)
	_ = m.SetKey("message.send.max.retries", cfg.MaxAttempts)
	if cfg.EnableIdempotence {
		_ = m.SetKey("enable.idempotence", true)
	}

	switch codec := strings.ToLower(cfg.CompressionCodec); codec {
	case "", "none":
	case "gzip", "snappy", "lz4", "zstd":
		_ = m.SetKey("compression.codec", codec)
	default:
		return nil, fmt.Errorf("%w: unsupported compression codec %q", kafka.ErrInvalidConfig, cfg.CompressionCodec)
	}
	return m, nil
}

// ConsumerConfigMap returns the properties for a consumer-group member.
func ConsumerConfigMap(cfg kafka.Config) (*ckafka.ConfigMap, error) {
	if cfg.GroupID == "" {
		return nil, kafka.ErrInvalidGroupID
	}

	m, err := ConfigMap(cfg)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	_ = m.SetKey("group.id", cfg.GroupID)
	_ = m.SetKey("auto.offset.reset", cfg.AutoOffsetReset)
	_ = m.SetKey("enable.auto.commit", cfg.EnableAutoCommit)
	_ = m.SetKey("enable.auto.offset.store", cfg.EnableAutoOffsetStore)
	_ = m.SetKey("auto.commit.interval.ms", millis(cfg.CommitInterval))
	_ = m.SetKey("fetch.min.bytes", cfg.MinBytes)
	_ = m.SetKey("fetch.max.bytes", cfg.MaxBytes)
	_ = m.SetKey("fetch.wait.max.ms", millis(cfg.MaxWait))
	return m, nil
}

func setSecurity(m *ckafka.ConfigMap, cfg kafka.Config) error {
	protocol := "plaintext"

	if cfg.TLS.Enabled {
		protocol = "ssl"
		if cfg.TLS.CACertPath != "" {
			_ = m.SetKey("ssl.ca.location", cfg.TLS.CACertPath)
		}
		if cfg.TLS.ClientCertPath != "" && cfg.TLS.ClientKeyPath != "" {
			_ = m.SetKey("ssl.certificate.location", cfg.TLS.ClientCertPath)
			_ = m.SetKey("ssl.key.location", cfg.TLS.ClientKeyPath)
		}
		if cfg.TLS.InsecureSkipVerify {
			_ = m.SetKey("enable.ssl.certificate.verification", false)
		}
	}

	if cfg.SASL.Enabled {
		mechanism := strings.ToUpper(cfg.SASL.Mechanism)
		switch mechanism {
		case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
		default:
			return fmt.Errorf("unsupported SASL mechanism: %s", cfg.SASL.Mechanism)
		}
		_ = m.SetKey("sasl.mechanisms", mechanism)
		_ = m.SetKey("sasl.username", cfg.SASL.Username)
		_ = m.SetKey("sasl.password", cfg.SASL.Password)
		protocol = "sasl_" + protocol
	}

	_ = m.SetKey("security.protocol", protocol)
	return nil
}

func millis(d time.Duration) int {
	return int(d / time.Millisecond)
}
