package tracer

import "go.uber.org/fx"

// FXModule provides *TracerClient and the Tracer interface from a Config, and shuts
// the provider down when the application stops.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
		func(c *TracerClient) Tracer { return c },
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// RegisterTracerLifecycle flushes the spans that are still batched on stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, client *TracerClient) {
	lc.Append(fx.Hook{
		OnStop: client.Shutdown,
	})
}
