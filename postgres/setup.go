package postgres

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// Postgres keeps a monitored *gorm.DB with the registered plugins installed.
//
// The active connection is held in an atomic pointer and replaced on reconnection.
// Every replacement gets the same plugins, so model writes keep publishing events
// across reconnects.
type Postgres struct {
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

// NewPostgres connects to the database and installs plugins on the connection,
// typically the observer.GormPlugin.
func NewPostgres(cfg Config, plugins ...gorm.Plugin) (*Postgres, error) {
	return newPostgres(cfg, connectToPostgres, plugins...)
}

func newPostgres(cfg Config, dial func(Config) (*gorm.DB, error), plugins ...gorm.Plugin) (*Postgres, error) {
	cfg.ConnectionDetails = cfg.ConnectionDetails.withDefaults()
	pg := &Postgres{
		cfg:             cfg,
		plugins:         plugins,
		dial:            dial,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}

	conn, err := pg.connect()
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}
	pg.client.Store(conn)
	return pg, nil
}

func connectToPostgres(cfg Config) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.Connection.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgreSQL database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.ConnectionDetails.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.ConnectionDetails.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionDetails.ConnMaxLifetime)

	return database, nil
}

// connect dials a new connection and installs the plugins on it.
func (p *Postgres) connect() (*gorm.DB, error) {
	start := time.Now()
	db, err := p.dial(p.cfg)
	if err == nil {
		for _, plugin := range p.plugins {
			if err = db.Use(plugin); err != nil {
				err = fmt.Errorf("install plugin %s: %w", plugin.Name(), err)
				break
			}
		}
	}
	p.observeOperation("connect", "", time.Since(start), err, nil)
	return db, err
}

// DB returns the current connection.
func (p *Postgres) DB() *gorm.DB {
	return p.client.Load()
}

// Source is the dialector name, used as the source of published messages.
func (p *Postgres) Source() string {
	return p.DB().Dialector.Name()
}

// RetryConnection reconnects whenever MonitorConnection reports a failed health check.
// It returns on shutdown or when ctx is done.
func (p *Postgres) RetryConnection(ctx context.Context) {
outerLoop:
	for {
		select {
		case <-p.shutdownSignal:
			p.logInfo(ctx, "Stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case _, ok := <-p.retryChanSignal:
			if !ok {
				return
			}
			for {
				select {
				case <-p.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
				}

				conn, err := p.connect()
				if err != nil {
					p.logError(ctx, "PostgreSQL reconnection failed", err, nil)
					time.Sleep(time.Second)
					continue
				}
				p.client.Store(conn)
				p.logInfo(ctx, "Successfully reconnected to PostgreSQL database", nil)
				continue outerLoop
			}
		}
	}
}

// MonitorConnection pings the database every MonitorInterval and signals
// RetryConnection on failure.
func (p *Postgres) MonitorConnection(ctx context.Context) {
	defer p.closeRetryChanOnce.Do(func() {
		close(p.retryChanSignal)
	})

	ticker := time.NewTicker(p.cfg.ConnectionDetails.MonitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.shutdownSignal:
			p.logInfo(ctx, "Stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.healthCheck(ctx); err != nil {
				p.logWarn(ctx, "PostgreSQL health check failed", err)
				select {
				case p.retryChanSignal <- err:
				default:
				}
			}
		}
	}
}

func (p *Postgres) healthCheck(ctx context.Context) error {
	conn := p.DB()
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
func (p *Postgres) GracefulShutdown() error {
	p.closeShutdownOnce.Do(func() {
		close(p.shutdownSignal)
	})

	conn := p.DB()
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
func (p *Postgres) WithObserver(observer observability.Observer) *Postgres {
	p.observer = observer
	return p
}

// WithLogger attaches a logger to the client.
func (p *Postgres) WithLogger(logger Logger) *Postgres {
	p.logger = logger
	return p
}

func (p *Postgres) logInfo(ctx context.Context, msg string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.InfoWithContext(ctx, msg, nil, fields)
	}
}

func (p *Postgres) logWarn(ctx context.Context, msg string, err error) {
	if p.logger != nil {
		p.logger.WarnWithContext(ctx, msg, err)
	}
}

func (p *Postgres) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}
