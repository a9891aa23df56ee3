package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule is an fx.Module that provides the kafka-go backed producer and consumer.
//
// The module provides:
// 1. *AsyncProducer and the DeliveryQueue interface
// 2. *GroupConsumer and the RecordSource interface
// 3. Lifecycle management closing both on shutdown
//
// Usage:
//
//	app := fx.New(
//	    kafka.FXModule,
//	    fx.Provide(func() kafka.Config {
//	        return kafka.Config{Brokers: []string{"localhost:9092"}, GroupID: "billing"}
//	    }),
//	)
var FXModule = fx.Module("kafka",
	fx.Provide(
		NewAsyncProducerWithDI,
		NewGroupConsumerWithDI,
		fx.Annotate(
			func(p *AsyncProducer) DeliveryQueue { return p },
			fx.As(new(DeliveryQueue)),
		),
		fx.Annotate(
			func(c *GroupConsumer) RecordSource { return c },
			fx.As(new(RecordSource)),
		),
	),
	fx.Invoke(RegisterKafkaLifecycle),
)

// KafkaParams groups the dependencies needed to create the producer and consumer
type KafkaParams struct {
	fx.In

	Config   Config
	Logger   Logger                 `optional:"true"` // Optional logger
	Observer observability.Observer `optional:"true"` // Optional observer for metrics/tracing
}

// NewAsyncProducerWithDI creates the producer using dependency injection.
func NewAsyncProducerWithDI(params KafkaParams) (*AsyncProducer, error) {
	producer, err := NewAsyncProducer(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		producer.logger = params.Logger
	}
	if params.Observer != nil {
		producer.observer = params.Observer
	}
	return producer, nil
}

// NewGroupConsumerWithDI creates the consumer using dependency injection.
func NewGroupConsumerWithDI(params KafkaParams) (*GroupConsumer, error) {
	consumer, err := NewGroupConsumer(params.Config)
	if err != nil {
		return nil, err
	}

	if params.Logger != nil {
		consumer.logger = params.Logger
	}
	if params.Observer != nil {
		consumer.observer = params.Observer
	}
	return consumer, nil
}

// KafkaLifecycleParams groups the dependencies needed for Kafka lifecycle management
type KafkaLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Producer  *AsyncProducer
	Consumer  *GroupConsumer
}

// RegisterKafkaLifecycle closes the producer and the consumer when the application stops.
// The producer is closed first so pending batches are written before the process exits.
func RegisterKafkaLifecycle(params KafkaLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Producer.logInfo(ctx, "Kafka client started", map[string]interface{}{
				"brokers": params.Producer.cfg.Brokers,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Producer.logInfo(ctx, "Shutting down Kafka client", nil)
			GracefulShutdown(params.Producer, params.Consumer)
			return nil
		},
	})
}

// GracefulShutdown closes the given producers and consumers, ignoring nil ones.
// Close errors are logged by the components themselves.
func GracefulShutdown(closers ...interface{ Close() error }) {
	for _, c := range closers {
		if c == nil {
			continue
		}
		_ = c.Close()
	}
}
