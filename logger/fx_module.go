package logger

import (
	"context"
	"errors"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides *LoggerClient, the Logger interface and the underlying *zap.Logger
// (for fxevent.ZapLogger and libraries that take zap directly).
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		func(l *LoggerClient) Logger { return l },
		func(l *LoggerClient) *zap.Logger { return l.Zap },
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs the logger on stop.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *LoggerClient) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Sync()
		},
	})
}

// Sync flushes buffered entries. Terminals and pipes cannot be synced; that error is
// dropped.
func (l *LoggerClient) Sync() error {
	err := l.Zap.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
