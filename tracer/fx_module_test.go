package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func TestFXModule(t *testing.T) {
	t.Parallel()

	var (
		client *TracerClient
		tr     Tracer
	)
	app := fxtest.New(t,
		FXModule,
		fx.Supply(Config{ServiceName: "events-fx", AppEnv: "test"}),
		fx.Populate(&client, &tr),
	)
	app.RequireStart()

	assert.Same(t, client, tr)
	app.RequireStop()
}

func TestRegisterTracerLifecycle_NilProvider(t *testing.T) {
	t.Parallel()

	app := fxtest.New(t,
		fx.Supply(&TracerClient{}),
		fx.Invoke(RegisterTracerLifecycle),
	)
	app.RequireStart()
	assert.NotPanics(t, app.RequireStop)
}
