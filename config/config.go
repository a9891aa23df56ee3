// Package config loads the process configuration once at start-up.
//
// Values come from a YAML file and are overridden by environment variables. Every
// section is the Config of the package it configures:
//
//	source: mysql
//	message:
//	  signature:
//	    salt: s3cret
//	producers:
//	  Member:
//	    member: member
//	listeners:
//	  member: member-activity
//	kafka:
//	  brokers: [localhost:9092]
//	  group_id: members-sync
//	schema_registry:
//	  url: http://localhost:8081
//	events:
//	  topics: [member]
package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/aalemi-dev/stdlib-events/deadletter"
	"github.com/aalemi-dev/stdlib-events/events"
	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/logger"
	"github.com/aalemi-dev/stdlib-events/mariadb"
	"github.com/aalemi-dev/stdlib-events/metrics"
	"github.com/aalemi-dev/stdlib-events/observer"
	"github.com/aalemi-dev/stdlib-events/postgres"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/schemacache"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

// Broker client implementations.
const (
	BrokerKafkaGo   = "kafka-go"
	BrokerConfluent = "confluent"
)

var ErrUnknownBroker = errors.New("unknown broker")

// Config is the configuration of a process publishing or consuming events.
type Config struct {
	// Source names the system the messages originate from.
	Source string `yaml:"source" env:"EVENTS_SOURCE" env-default:"undefined"`

	// Producers maps a model name to {message type: topic}.
	Producers map[string]map[string]string `yaml:"producers"`

	// Listeners maps a message type to the topic its custom events go to.
	Listeners map[string]string `yaml:"listeners"`

	Message Message `yaml:"message"`

	// Broker selects the client library: "kafka-go" or "confluent".
	Broker string `yaml:"broker" env:"EVENTS_BROKER" env-default:"kafka-go"`

	Logger         logger.Config          `yaml:"logger"`
	Metrics        metrics.Config         `yaml:"metrics"`
	Tracer         tracer.Config          `yaml:"tracer"`
	Kafka          kafka.Config           `yaml:"kafka"`
	SchemaRegistry schema_registry.Config `yaml:"schema_registry"`
	SchemaCache    schemacache.Config     `yaml:"schema_cache"`
	Events         events.Config          `yaml:"events"`
	DeadLetter     deadletter.Config      `yaml:"deadletter"`
	Postgres       postgres.Config        `yaml:"postgres"`
	MariaDB        mariadb.Config         `yaml:"mariadb"`
}

type Message struct {
	Signature Signature `yaml:"signature"`
}

type Signature struct {
	Salt string `yaml:"salt" env:"MESSAGE_SIGNATURE_SALT" json:"-"` //nolint:gosec
}

// Load reads path, when given, and then the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if cfg.Broker != BrokerKafkaGo && cfg.Broker != BrokerConfluent {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBroker, cfg.Broker)
	}
	if cfg.Message.Signature.Salt != "" {
		cfg.Events.Salt = cfg.Message.Signature.Salt
	}
	return cfg, nil
}

// Observer returns the observer table configuration.
func (c *Config) Observer() observer.Config {
	return observer.Config{
		Source:    c.Source,
		Salt:      c.Events.Salt,
		Producers: c.Producers,
		Listeners: c.Listeners,
	}
}

// RegistryEnabled reports whether a schema registry is configured.
func (c *Config) RegistryEnabled() bool {
	return c.SchemaRegistry.URL != ""
}

// DeadLetterEnabled reports whether undelivered messages are archived.
func (c *Config) DeadLetterEnabled() bool {
	return c.DeadLetter.Connection.Endpoint != ""
}

// Usage returns the environment variables Config reads, for --help output.
func Usage() (string, error) {
	text, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return "", fmt.Errorf("describe config: %w", err)
	}
	return text, nil
}
