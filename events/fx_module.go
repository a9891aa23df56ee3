package events

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

// FXModule provides ProducerService and ConsumerService on top of whichever
// kafka.DeliveryQueue and kafka.RecordSource the application provides
// (kafka.FXModule or confluent.FXModule).
//
// Add schema_registry.FXModule to encode topics with Avro; without it every message is
// written as JSON.
//
// Usage:
//
//	app := fx.New(
//	    kafka.FXModule,
//	    events.FXModule,
//	    fx.Provide(func() kafka.Config { ... }, func() events.Config { ... }),
//	)
var FXModule = fx.Module("events",
	fx.Provide(
		NewProducerServiceWithDI,
		NewConsumerServiceWithDI,
	),
)

// ProducerParams groups the dependencies of the ProducerService.
type ProducerParams struct {
	fx.In

	Config     Config
	Queue      kafka.DeliveryQueue
	Serializer *schema_registry.RecordSerializer `optional:"true"`
	Logger     Logger                            `optional:"true"`
	Observer   observability.Observer            `optional:"true"`
	Tracer     tracer.Tracer                     `optional:"true"`
}

// NewProducerServiceWithDI creates the ProducerService using dependency injection.
func NewProducerServiceWithDI(params ProducerParams) *ProducerService {
	producer := NewProducerService(params.Queue, params.Serializer, params.Config)
	producer.logger = params.Logger
	producer.observer = params.Observer
	producer.tracer = params.Tracer
	return producer
}

// ConsumerParams groups the dependencies of the ConsumerService.
type ConsumerParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     Config
	Source     kafka.RecordSource
	Serializer *schema_registry.RecordSerializer `optional:"true"`
	Logger     Logger                            `optional:"true"`
	Observer   observability.Observer            `optional:"true"`
	Tracer     tracer.Tracer                     `optional:"true"`
}

// NewConsumerServiceWithDI creates the ConsumerService and subscribes it to
// Config.Topics when the application starts.
func NewConsumerServiceWithDI(params ConsumerParams) *ConsumerService {
	consumer := NewConsumerService(params.Source, params.Serializer, params.Config)
	consumer.logger = params.Logger
	consumer.observer = params.Observer
	consumer.tracer = params.Tracer

	if len(params.Config.Topics) > 0 {
		params.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				_, err := consumer.Subscribe(params.Config.Topics)
				return err
			},
		})
	}
	return consumer
}
