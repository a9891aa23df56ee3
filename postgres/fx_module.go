package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides *Postgres with every gorm.Plugin of the "gorm_plugins" group
// installed. observer.FXModule contributes its GormPlugin to that group, so adding
// both modules is enough for model writes to publish events.
//
//	app := fx.New(
//	    postgres.FXModule,
//	    observer.FXModule,
//	    fx.Provide(func() postgres.Config { ... }),
//	)
var FXModule = fx.Module("postgres",
	fx.Provide(NewPostgresClientWithDI),
	fx.Invoke(RegisterPostgresLifecycle),
)

// PostgresParams groups the dependencies of the Postgres client.
type PostgresParams struct {
	fx.In

	Config   Config
	Plugins  []gorm.Plugin          `group:"gorm_plugins"`
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewPostgresClientWithDI creates the Postgres client using dependency injection.
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	client, err := newPostgres(params.Config, connectToPostgres, params.Plugins...)
	if err != nil {
		return nil, err
	}
	client.logger = params.Logger
	client.observer = params.Observer
	return client, nil
}

// PostgresLifeCycleParams groups the dependencies of RegisterPostgresLifecycle.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle starts connection monitoring with the application and
// closes the connection when it stops.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			err := params.Postgres.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
