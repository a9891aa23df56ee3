package postgres

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = time.Minute

	// DefaultMonitorInterval is how often the connection is pinged.
	DefaultMonitorInterval = 10 * time.Second
)

// Config represents the configuration of the PostgreSQL database whose writes are
// published as events.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`
}

// Connection holds the parameters of the connection string.
type Connection struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" json:"-"` //nolint:gosec
	DbName   string `yaml:"db_name" env:"POSTGRES_DB"`

	// SSLMode is one of "disable", "require", "verify-ca", "verify-full".
	SSLMode string `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
}

// ConnectionDetails configures the connection pool. Zero values use the package defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME"`
	MonitorInterval time.Duration `yaml:"monitor_interval" env:"POSTGRES_MONITOR_INTERVAL"`
}

func (d ConnectionDetails) withDefaults() ConnectionDetails {
	if d.MaxOpenConns <= 0 {
		d.MaxOpenConns = DefaultMaxOpenConns
	}
	if d.MaxIdleConns <= 0 {
		d.MaxIdleConns = DefaultMaxIdleConns
	}
	if d.ConnMaxLifetime <= 0 {
		d.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if d.MonitorInterval <= 0 {
		d.MonitorInterval = DefaultMonitorInterval
	}
	return d
}

// DSN returns the key/value connection string of c.
func (c Connection) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DbName, c.SSLMode)
}

// Logger is an interface that matches the logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
