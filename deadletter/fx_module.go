package deadletter

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides the MinioArchive, also as Archive, and creates its bucket when
// the application starts.
//
// Usage:
//
//	app := fx.New(
//	    deadletter.FXModule,
//	    fx.Provide(func() deadletter.Config { ... }),
//	)
var FXModule = fx.Module("deadletter",
	fx.Provide(
		NewMinioArchiveWithDI,
		fx.Annotate(
			func(a *MinioArchive) Archive { return a },
			fx.As(new(Archive)),
		),
	),
	fx.Invoke(RegisterLifecycle),
)

// ArchiveParams groups the dependencies of the MinioArchive.
type ArchiveParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewMinioArchiveWithDI creates the MinioArchive using dependency injection.
func NewMinioArchiveWithDI(params ArchiveParams) (*MinioArchive, error) {
	archive, err := NewMinioArchive(params.Config)
	if err != nil {
		return nil, err
	}
	archive.logger = params.Logger
	archive.observer = params.Observer
	return archive, nil
}

// RegisterLifecycle creates the archive bucket on start.
func RegisterLifecycle(lc fx.Lifecycle, archive *MinioArchive) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return archive.EnsureBucket(ctx)
		},
	})
}
