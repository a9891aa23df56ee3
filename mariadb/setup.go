package mariadb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// MariaDB keeps a monitored *gorm.DB with the registered plugins installed.
//
// The active connection is held in an atomic pointer and replaced on reconnection.
// Every replacement gets the same plugins, so model writes keep publishing events
// across reconnects.
type MariaDB struct {
	cfg     Config
	client  atomic.Pointer[gorm.DB]
	plugins []gorm.Plugin
	dial    func(Config) (*gorm.DB, error)

	observer observability.Observer
	logger   Logger

	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewMariaDB connects to the database and installs plugins on the connection,
// typically the observer.GormPlugin.
func NewMariaDB(cfg Config, plugins ...gorm.Plugin) (*MariaDB, error) {
	return newMariaDB(cfg, connectToMariaDB, plugins...)
}

func newMariaDB(cfg Config, dial func(Config) (*gorm.DB, error), plugins ...gorm.Plugin) (*MariaDB, error) {
	cfg.ConnectionDetails = cfg.ConnectionDetails.withDefaults()
	m := &MariaDB{
		cfg:             cfg,
		plugins:         plugins,
		dial:            dial,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}

	conn, err := m.connect()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to mariadb: %w", err)
	}
	m.client.Store(conn)
	return m, nil
}

func connectToMariaDB(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(mysql.Open(cfg.Connection.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get MariaDB database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.ConnectionDetails.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.ConnectionDetails.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionDetails.ConnMaxLifetime)

	return database, nil
}

// connect dials a new connection and installs the plugins on it.
func (m *MariaDB) connect() (*gorm.DB, error) {
	start := time.Now()
	db, err := m.dial(m.cfg)
	if err == nil {
		for _, plugin := range m.plugins {
			if err = db.Use(plugin); err != nil {
				err = fmt.Errorf("install plugin %s: %w", plugin.Name(), err)
				break
			}
		}
	}
	m.observeOperation("connect", "", time.Since(start), err, nil)
	return db, err
}

// DB returns the current connection.
func (m *MariaDB) DB() *gorm.DB {
	return m.client.Load()
}

// Source is the dialector name, used as the source of published messages.
func (m *MariaDB) Source() string {
	return m.DB().Dialector.Name()
}

// RetryConnection reconnects whenever MonitorConnection reports a failed health check.
// It returns on shutdown or when ctx is done.
func (m *MariaDB) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case _, ok := <-m.retryChanSignal:
			if !ok {
				return
			}
			for {
				select {
				case <-m.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
				}

				conn, err := m.connect()
				if err != nil {
					m.logError(ctx, "MariaDB reconnection failed", err, nil)
					time.Sleep(time.Second)
					continue
				}
				m.client.Store(conn)
				m.logInfo(ctx, "Successfully reconnected to MariaDB database", nil)
				continue outerLoop
			}
		}
	}
}

// MonitorConnection pings the database every MonitorInterval and signals
// RetryConnection on failure.
func (m *MariaDB) MonitorConnection(ctx context.Context) {
	defer m.closeRetryChanOnce.Do(func() {
		close(m.retryChanSignal)
	})

	ticker := time.NewTicker(m.cfg.ConnectionDetails.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.shutdownSignal:
			m.logInfo(ctx, "Stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.healthCheck(ctx); err != nil {
				m.logWarn(ctx, "MariaDB health check failed", err)
				select {
				case m.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

func (m *MariaDB) healthCheck(ctx context.Context) error {
	conn := m.DB()
	if conn == nil {
		return fmt.Errorf("database client is not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// GracefulShutdown stops the monitoring loops and closes the connection.
func (m *MariaDB) GracefulShutdown() error {
	m.closeShutdownOnce.Do(func() {
		close(m.shutdownSignal)
	})

	conn := m.DB()
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithObserver attaches an observer to the client.
func (m *MariaDB) WithObserver(observer observability.Observer) *MariaDB {
	m.observer = observer
	return m
}

// WithLogger attaches a logger to the client.
func (m *MariaDB) WithLogger(logger Logger) *MariaDB {
	m.logger = logger
	return m
}

func (m *MariaDB) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (m *MariaDB) logWarn(ctx context.Context, msg string, err error) {
	if m.logger != nil {
		m.logger.WarnWithContext(ctx, msg, err)
	}
}

func (m *MariaDB) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if m.logger != nil {
		m.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
