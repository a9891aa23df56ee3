package schema_registry

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/schemacache"
)

// FXModule wires the registry stack from a Config: the HTTP *Client (also as Registry),
// a *CachedRegistry in front of it and the *RecordSerializer used by the events
// services.
//
// The cache is whatever Cache the application provides (schemacache.FXModule plus an
// adapter); without one an in-process store is used.
//
//	app := fx.New(
//	    schema_registry.FXModule,
//	    fx.Supply(schema_registry.Config{URL: "http://registry:8081"}),
//	)
var FXModule = fx.Module("schema_registry",
	fx.Provide(
		NewClientWithDI,
		func(c *Client) Registry { return c },
		NewCachedRegistryWithDI,
		NewRecordSerializerWithDI,
	),
	fx.Invoke(RegisterSchemaRegistryLifecycle),
)

// SchemaRegistryParams are the dependencies of the HTTP client.
type SchemaRegistryParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewClientWithDI creates the HTTP client with the optional logger and observer.
func NewClientWithDI(params SchemaRegistryParams) (*Client, error) {
	client, err := NewClient(params.Config)
	if err != nil {
		return nil, err
	}
	client.logger = params.Logger
	client.observer = params.Observer
	return client, nil
}

// CachedRegistryParams are the dependencies of the caching layer.
type CachedRegistryParams struct {
	fx.In

	Registry Registry
	Cache    Cache  `optional:"true"`
	Logger   Logger `optional:"true"`
}

// NewCachedRegistryWithDI puts params.Cache, or a memory store, in front of the registry.
func NewCachedRegistryWithDI(params CachedRegistryParams) *CachedRegistry {
	cache := params.Cache
	if cache == nil {
		cache = schemacache.NewCacheAdapter(schemacache.NewMemoryStore(), schemacache.Config{})
	}

	registry := NewCachedRegistry(params.Registry, cache)
	registry.logger = params.Logger
	return registry
}

// NewRecordSerializerWithDI creates the RecordSerializer from Config.
func NewRecordSerializerWithDI(registry *CachedRegistry, config Config) (*RecordSerializer, error) {
	return NewRecordSerializer(registry, config)
}

// SchemaRegistryLifecycleParams are the dependencies of the lifecycle hooks.
type SchemaRegistryLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterSchemaRegistryLifecycle logs the registry in use on start and drops the idle
// HTTP connections on stop.
func RegisterSchemaRegistryLifecycle(params SchemaRegistryLifecycleParams) {
	c := params.Client
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.logInfo(ctx, "Using schema registry", map[string]interface{}{"url": c.url})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.httpClient.CloseIdleConnections()
			return nil
		},
	})
}
