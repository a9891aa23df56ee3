package mariadb

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides *MariaDB with every gorm.Plugin of the "gorm_plugins" group
// installed. observer.FXModule contributes its GormPlugin to that group, so adding
// both modules is enough for model writes to publish events.
//
//	app := fx.New(
//	    mariadb.FXModule,
//	    observer.FXModule,
//	    fx.Provide(func() mariadb.Config { ... }),
//	)
var FXModule = fx.Module("mariadb",
	fx.Provide(NewMariaDBClientWithDI),
	fx.Invoke(RegisterMariaDBLifecycle),
)

// MariaDBParams groups the dependencies of the MariaDB client.
type MariaDBParams struct {
	fx.In

	Config   Config
	Plugins  []gorm.Plugin          `group:"gorm_plugins"`
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewMariaDBClientWithDI creates the MariaDB client using dependency injection.
func NewMariaDBClientWithDI(params MariaDBParams) (*MariaDB, error) {
	client, err := newMariaDB(params.Config, connectToMariaDB, params.Plugins...)
	if err != nil {
		return nil, err
	}
	client.logger = params.Logger
	client.observer = params.Observer
	return client, nil
}

// MariaDBLifeCycleParams groups the dependencies of RegisterMariaDBLifecycle.
type MariaDBLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	MariaDB   *MariaDB
}

// RegisterMariaDBLifecycle starts connection monitoring with the application and
// closes the connection when it stops.
func RegisterMariaDBLifecycle(params MariaDBLifeCycleParams) {
	wg := &sync.WaitGroup{}
	ctx, cancel := context.WithCancel(context.Background())

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			wg.Add(2)
			go func() {
				defer wg.Done()
				params.MariaDB.MonitorConnection(ctx)
			}()
			go func() {
				defer wg.Done()
				params.MariaDB.RetryConnection(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			err := params.MariaDB.GracefulShutdown()
			wg.Wait()
			return err
		},
	})
}
