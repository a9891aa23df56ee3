package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/events"
	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/logger"
	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
)

// TailConfig bounds the tail loop.
type TailConfig struct {
	PollTimeout time.Duration
	Limit       int
}

// line is the JSON printed per message.
type line struct {
	Topic     string          `json:"topic"`
	Partition int             `json:"partition"`
	Offset    int64           `json:"offset"`
	Message   message.Message `json:"message"`
}

type TailParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Consumer   *events.ConsumerService
	Logger     *logger.LoggerClient
	Config     TailConfig
}

// RegisterTail runs the tail loop between start and stop. The application shuts
// down when the loop ends on its own.
func RegisterTail(p TailParams) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				err := tail(ctx, p.Consumer, os.Stdout, p.Config, p.Logger)
				if err != nil {
					p.Logger.Error("Tail stopped", err)
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
					return
				}
				if ctx.Err() == nil {
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

// tail prints messages to out until ctx is done, cfg.Limit messages were printed or
// the consumer fails.
func tail(ctx context.Context, consumer *events.ConsumerService, out io.Writer, cfg TailConfig, log events.Logger) error {
	enc := json.NewEncoder(out)
	printed := 0

	for cfg.Limit == 0 || printed < cfg.Limit {
		d, ok, err := consumer.Consume(ctx, cfg.PollTimeout)
		switch {
		case ctx.Err() != nil:
			return nil
		case skippable(err):
			log.WarnWithContext(ctx, "Skipping unreadable record", err)
			continue
		case kafka.IsRetryableError(err):
			log.WarnWithContext(ctx, "Broker unavailable, polling again", err)
			continue
		case err != nil:
			return err
		case !ok:
			continue
		}

		if err := enc.Encode(line{
			Topic:     d.Topic,
			Partition: d.Partition,
			Offset:    d.Offset,
			Message:   d.Message,
		}); err != nil {
			return err
		}
		if err := d.Commit(ctx); err != nil {
			return err
		}
		printed++
	}
	return nil
}

func skippable(err error) bool {
	return errors.Is(err, events.ErrInvalidSignature) ||
		errors.Is(err, message.ErrInvalidMessage) ||
		errors.Is(err, schema_registry.ErrSerialization)
}
