package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

// Delivery is one consumed message together with where it came from.
type Delivery struct {
	Message   message.Message
	Topic     string
	Partition int
	Offset    int64
	Headers   map[string]string

	// Context carries the producer's trace when the record had trace headers.
	Context context.Context

	record *kafka.Record
	source kafka.RecordSource
}

// Commit marks the delivery as processed for the consumer group.
func (d *Delivery) Commit(ctx context.Context) error {
	return d.source.Commit(ctx, d.record)
}

// ConsumerService reads messages from a consumer group.
type ConsumerService struct {
	cfg        Config
	source     kafka.RecordSource
	serializer *schema_registry.RecordSerializer

	telemetry
	tracer tracer.Tracer

	subscribed bool
}

// NewConsumerService creates a consumer on top of source. Pass a nil serializer when
// every topic carries JSON.
func NewConsumerService(source kafka.RecordSource, serializer *schema_registry.RecordSerializer, cfg Config) *ConsumerService {
	return &ConsumerService{
		cfg:        cfg.WithDefaults(),
		source:     source,
		serializer: serializer,
	}
}

// WithLogger attaches a logger to the consumer.
func (s *ConsumerService) WithLogger(logger Logger) *ConsumerService {
	s.logger = logger
	return s
}

// WithObserver attaches an observer to the consumer.
func (s *ConsumerService) WithObserver(observer observability.Observer) *ConsumerService {
	s.observer = observer
	return s
}

// WithTracer continues the producer's trace in Delivery.Context.
func (s *ConsumerService) WithTracer(t tracer.Tracer) *ConsumerService {
	s.tracer = t
	return s
}

// Subscribe joins the consumer group for topics. Calling it again with the same topics
// is a no-op.
func (s *ConsumerService) Subscribe(topics []string) (*ConsumerService, error) {
	if len(topics) == 0 {
		return s, ErrNoTopics
	}
	if err := s.source.Subscribe(topics); err != nil {
		return s, fmt.Errorf("subscribe to %v: %w", topics, err)
	}
	s.subscribed = true
	return s, nil
}

// Consume waits up to timeout for the next message. It returns ok=false and no error
// when nothing arrived in time.
func (s *ConsumerService) Consume(ctx context.Context, timeout time.Duration) (*Delivery, bool, error) {
	if !s.subscribed {
		return nil, false, ErrNotSubscribed
	}

	start := time.Now()
	record, err := s.source.Poll(ctx, timeout)
	if err != nil {
		s.observeOperation("consume", "", time.Since(start), err, 0, nil)
		return nil, false, err
	}
	if record == nil {
		return nil, false, nil
	}

	msg, err := decode(ctx, s.serializer, record.Value)
	if err == nil && s.cfg.VerifySignatures && !msg.Verify(s.cfg.Salt) {
		err = fmt.Errorf("%w: %s on %s@%d", ErrInvalidSignature, msg, record.Topic, record.Offset)
	}
	if err != nil {
		s.observeOperation("consume", record.Topic, time.Since(start), err, int64(len(record.Value)), nil)
		s.logWarn(ctx, "Failed to read message", map[string]interface{}{
			"topic":     record.Topic,
			"partition": record.Partition,
			"offset":    record.Offset,
			"error":     err.Error(),
		})
		return nil, false, err
	}

	d := &Delivery{
		Message:   msg,
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Headers:   record.Headers,
		Context:   ctx,
		record:    record,
		source:    s.source,
	}
	if s.tracer != nil && len(record.Headers) > 0 {
		d.Context = s.tracer.SetCarrierOnContext(ctx, record.Headers)
	}

	s.observeOperation("consume", record.Topic, time.Since(start), nil, int64(len(record.Value)), map[string]interface{}{
		"partition": strconv.Itoa(record.Partition),
		"type":      msg.Type(),
		"event":     msg.Event(),
	})
	return d, true, nil
}

// Close leaves the consumer group.
func (s *ConsumerService) Close() error {
	s.subscribed = false
	return s.source.Close()
}
