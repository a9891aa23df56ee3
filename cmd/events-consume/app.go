package main

import (
	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/config"
	"github.com/aalemi-dev/stdlib-events/deadletter"
	"github.com/aalemi-dev/stdlib-events/events"
	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/kafka/confluent"
	"github.com/aalemi-dev/stdlib-events/logger"
	"github.com/aalemi-dev/stdlib-events/metrics"
	"github.com/aalemi-dev/stdlib-events/observer"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/schemacache"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

// Options wires the modules selected by cfg.
//
// The schema registry is added when a URL is configured, the dead letter archive when
// an endpoint is configured and the observer table when producers or listeners are.
func Options(cfg *config.Config) fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg.Logger, cfg.Metrics, cfg.Tracer, cfg.Kafka, cfg.Events),
		logger.FXModule,
		metrics.FXModule,
		tracer.FXModule,
		fx.Provide(
			func(l *logger.LoggerClient) kafka.Logger { return l },
			func(l *logger.LoggerClient) events.Logger { return l },
		),
		brokerModule(cfg.Broker),
		events.FXModule,
	}

	if cfg.RegistryEnabled() {
		opts = append(opts,
			fx.Supply(cfg.SchemaRegistry, cfg.SchemaCache),
			schemacache.FXModule,
			schema_registry.FXModule,
			fx.Provide(
				func(a *schemacache.CacheAdapter) schema_registry.Cache { return a },
				func(l *logger.LoggerClient) schemacache.Logger { return l },
				func(l *logger.LoggerClient) schema_registry.Logger { return l },
			),
		)
	}

	if cfg.DeadLetterEnabled() {
		opts = append(opts,
			fx.Supply(cfg.DeadLetter),
			deadletter.FXModule,
			fx.Provide(func(l *logger.LoggerClient) deadletter.Logger { return l }),
		)
	}

	if len(cfg.Producers) > 0 || len(cfg.Listeners) > 0 {
		opts = append(opts,
			fx.Supply(cfg.Observer()),
			observer.FXModule,
			fx.Provide(func(l *logger.LoggerClient) observer.Logger { return l }),
		)
	}

	return fx.Options(opts...)
}

func brokerModule(broker string) fx.Option {
	if broker == config.BrokerConfluent {
		return confluent.FXModule
	}
	return kafka.FXModule
}
