package metrics_test

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/aalemi-dev/stdlib-events/logger"
	"github.com/aalemi-dev/stdlib-events/metrics"
	"github.com/aalemi-dev/stdlib-events/observability"
)

func TestFXModule(t *testing.T) {
	t.Parallel()

	var (
		m         *metrics.Metrics
		collector metrics.MetricsCollector
		observer  observability.Observer
	)
	app := fxtest.New(t,
		metrics.FXModule,
		fx.Provide(
			func() metrics.Config {
				return metrics.Config{
					ServiceName:               "fx-test",
					SystemMetricsAddress:      metrics.Ptr(""),
					ApplicationMetricsAddress: metrics.Ptr("127.0.0.1:0"),
				}
			},
			func() *logger.LoggerClient {
				return logger.NewLoggerClient(logger.Config{Level: logger.Info})
			},
		),
		fx.Populate(&m, &collector, &observer),
	)
	app.RequireStart()
	defer app.RequireStop()

	if m == nil || collector == nil {
		t.Fatal("expected *Metrics and MetricsCollector")
	}
	if _, ok := observer.(*metrics.OperationObserver); !ok {
		t.Fatalf("observer is %T, want *metrics.OperationObserver", observer)
	}
	if m.SystemServer != nil {
		t.Fatal("system endpoint should be disabled")
	}
}
