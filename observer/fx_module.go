package observer

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/deadletter"
	"github.com/aalemi-dev/stdlib-events/events"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule builds the observer Table from Config and publishes through the
// application's *events.ProducerService. It also provides a Dispatcher with every
// configured listener registered and a GormPlugin, which is also contributed to the
// "gorm_plugins" group installed by postgres.FXModule and mariadb.FXModule.
//
// Add deadletter.FXModule to archive messages that could not be delivered.
var FXModule = fx.Module("observer",
	fx.Provide(
		func(p *events.ProducerService) Producer { return p },
		NewTableWithDI,
		NewDispatcherWithDI,
		NewGormPlugin,
		fx.Annotate(
			func(p *GormPlugin) gorm.Plugin { return p },
			fx.ResultTags(`group:"gorm_plugins"`),
		),
	),
)

// TableParams groups the dependencies of the Table.
type TableParams struct {
	fx.In

	Config   Config
	Producer Producer
	Logger   Logger                 `optional:"true"`
	Archive  deadletter.Archive     `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewTableWithDI creates the Table using dependency injection.
func NewTableWithDI(params TableParams) (*Table, error) {
	var opts []TableOption
	if params.Logger != nil {
		opts = append(opts, WithTableLogger(params.Logger))
	}
	if params.Archive != nil {
		opts = append(opts, WithTableArchive(params.Archive))
	}
	if params.Observer != nil {
		opts = append(opts, WithTableObserver(params.Observer))
	}
	return NewTable(params.Config, params.Producer, opts...)
}

// NewDispatcherWithDI creates a Dispatcher with the listeners of table registered.
func NewDispatcherWithDI(table *Table) (*Dispatcher, error) {
	d := NewDispatcher()
	if err := table.Register(d); err != nil {
		return nil, err
	}
	return d, nil
}
