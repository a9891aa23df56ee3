package confluent

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// FXModule provides the librdkafka producer and consumer as kafka.DeliveryQueue and
// kafka.RecordSource. Use it instead of kafka.FXModule, not next to it.
var FXModule = fx.Module("kafka_confluent",
	fx.Provide(
		NewProducerWithDI,
		NewConsumerWithDI,
		fx.Annotate(
			func(p *Producer) kafka.DeliveryQueue { return p },
			fx.As(new(kafka.DeliveryQueue)),
		),
		fx.Annotate(
			func(c *Consumer) kafka.RecordSource { return c },
			fx.As(new(kafka.RecordSource)),
		),
	),
	fx.Invoke(RegisterLifecycle),
)

// Params groups the dependencies of the producer and the consumer.
type Params struct {
	fx.In

	Config   kafka.Config
	Logger   kafka.Logger           `optional:"true"`
	Observer observability.Observer `optional:"true"`
}

// NewProducerWithDI creates the producer using dependency injection.
func NewProducerWithDI(params Params) (*Producer, error) {
	producer, err := NewProducer(params.Config)
	if err != nil {
		return nil, err
	}
	producer.logger = params.Logger
	producer.observer = params.Observer
	return producer, nil
}

// NewConsumerWithDI creates the consumer using dependency injection.
func NewConsumerWithDI(params Params) (*Consumer, error) {
	consumer, err := NewConsumer(params.Config)
	if err != nil {
		return nil, err
	}
	consumer.logger = params.Logger
	consumer.observer = params.Observer
	return consumer, nil
}

// LifecycleParams groups the dependencies for lifecycle management.
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Producer  *Producer
	Consumer  *Consumer
}

// RegisterLifecycle closes the producer, then the consumer, on stop.
func RegisterLifecycle(params LifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Producer.logInfo(ctx, "Shutting down librdkafka client", nil)
			kafka.GracefulShutdown(params.Producer, params.Consumer)
			return nil
		},
	})
}
