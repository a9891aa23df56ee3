package mariadb

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMaxOpenConns    = 50
	DefaultMaxIdleConns    = 25
	DefaultConnMaxLifetime = time.Minute
	DefaultMonitorInterval = 10 * time.Second
)

// Config represents the configuration of the MariaDB/MySQL database whose writes are
// published as events.
type Config struct {
	Connection        Connection        `yaml:"connection"`
	ConnectionDetails ConnectionDetails `yaml:"connection_details"`
}

// Connection holds the parameters of the DSN.
type Connection struct {
	Host     string `yaml:"host" env:"MARIADB_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"MARIADB_PORT" env-default:"3306"`
	User     string `yaml:"user" env:"MARIADB_USER"`
	Password string `yaml:"password" env:"MARIADB_PASSWORD" json:"-"` //nolint:gosec
	DbName   string `yaml:"db_name" env:"MARIADB_DB"`

	Charset   string `yaml:"charset" env:"MARIADB_CHARSET" env-default:"utf8mb4"`
	ParseTime bool   `yaml:"parse_time" env:"MARIADB_PARSE_TIME" env-default:"true"`
	Loc       string `yaml:"loc" env:"MARIADB_LOC" env-default:"Local"`

	// Optional driver parameters, appended when set.
	TLS          string `yaml:"tls" env:"MARIADB_TLS"`
	Timeout      string `yaml:"timeout" env:"MARIADB_TIMEOUT"`
	ReadTimeout  string `yaml:"read_timeout" env:"MARIADB_READ_TIMEOUT"`
	WriteTimeout string `yaml:"write_timeout" env:"MARIADB_WRITE_TIMEOUT"`
}

// ConnectionDetails configures the connection pool. Zero values use the package defaults.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MARIADB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MARIADB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"MARIADB_CONN_MAX_LIFETIME"`
	MonitorInterval time.Duration `yaml:"monitor_interval" env:"MARIADB_MONITOR_INTERVAL"`
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

// DSN returns the go-sql-driver DSN of c:
// user:password@tcp(host:port)/dbname?charset=...&parseTime=...&loc=...
func (c Connection) DSN() string {
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	loc := c.Loc
	if loc == "" {
		loc = "Local"
	}
	parseTime := "False"
	if c.ParseTime {
		parseTime = "True"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=%s&loc=%s",
		c.User, c.Password, c.Host, c.Port, c.DbName, charset, parseTime, loc)
	if c.TLS != "" {
		dsn += "&tls=" + c.TLS
	}
	if c.Timeout != "" {
		dsn += "&timeout=" + c.Timeout
	}
	if c.ReadTimeout != "" {
		dsn += "&readTimeout=" + c.ReadTimeout
	}
	if c.WriteTimeout != "" {
		dsn += "&writeTimeout=" + c.WriteTimeout
	}
	return dsn
}

// Logger is an interface that matches the logger.Logger interface.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
