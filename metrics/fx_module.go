package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/logger"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides the two Prometheus registries and servers and an
// OperationObserver, also as observability.Observer, so that every package with an
// optional observer reports into events_operations_total and friends.
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    events.FXModule,
//	    fx.Provide(func() metrics.Config { return cfg.Metrics }),
//	)
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) MetricsCollector { return m },
			fx.As(new(MetricsCollector)),
		),
		NewOperationObserver,
		fx.Annotate(
			func(o *OperationObserver) observability.Observer { return o },
			fx.As(new(observability.Observer)),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle serves the configured endpoints between start and stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log *logger.LoggerClient) {
	servers := map[string]*http.Server{
		"system":      m.SystemServer,
		"application": m.ApplicationServer,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			for name, server := range servers {
				if server == nil {
					continue
				}
				go func(name string, server *http.Server) {
					log.Info("Starting metrics server", nil, map[string]interface{}{
						"endpoint": name,
						"address":  server.Addr,
					})
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server failed", err, map[string]interface{}{"endpoint": name})
					}
				}(name, server)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var errs []error
			for _, server := range servers {
				if server != nil {
					errs = append(errs, server.Shutdown(ctx))
				}
			}
			return errors.Join(errs...)
		},
	})
}
