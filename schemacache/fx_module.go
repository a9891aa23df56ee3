package schemacache

import (
	"context"
	"io"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides the configured Store and a *CacheAdapter over it.
//
// Usage:
//
//	app := fx.New(
//	    schemacache.FXModule,
//	    fx.Provide(func() schemacache.Config {
//	        return schemacache.Config{Backend: schemacache.BackendRedis}
//	    }),
//	)
var FXModule = fx.Module("schemacache",
	fx.Provide(
		NewStoreWithDI,
		NewCacheAdapterWithDI,
	),
)

// StoreParams groups the dependencies needed to create the Store.
type StoreParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    Config
}

// NewStoreWithDI builds the configured Store and closes it when the application stops.
func NewStoreWithDI(params StoreParams) (Store, error) {
	store, err := NewStore(context.Background(), params.Config)
	if err != nil {
		return nil, err
	}

	if closer, ok := store.(io.Closer); ok {
		params.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})
	}
	return store, nil
}

// CacheAdapterParams groups the dependencies needed to create a CacheAdapter.
type CacheAdapterParams struct {
	fx.In

	Config   Config
	Store    Store
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewCacheAdapterWithDI creates a CacheAdapter using dependency injection.
func NewCacheAdapterWithDI(params CacheAdapterParams) *CacheAdapter {
	adapter := NewCacheAdapter(params.Store, params.Config)
	if params.Logger != nil {
		adapter.logger = params.Logger
	}
	if params.Observer != nil {
		adapter.observer = params.Observer
	}
	return adapter
}
