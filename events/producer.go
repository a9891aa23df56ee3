package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

// ProducerService publishes messages and waits until the broker confirmed them.
//
// Each Produce call enqueues one record and then runs up to Retry.Attempts flush
// attempts. Delivery reports are served before every attempt; a failed report for the
// call's own record turns into ErrDeliveryFailed.
type ProducerService struct {
	cfg        Config
	queue      kafka.DeliveryQueue
	serializer *schema_registry.RecordSerializer

	telemetry
	tracer tracer.Tracer

	encOnce sync.Once
	enc     encoder
	encErr  error

	// inflight maps every call waiting for confirmation to its failed report, if any
	mu       sync.Mutex
	inflight map[*delivery]error

	sleep func(ctx context.Context, d time.Duration) error
}

// delivery is the per-call token carried as the record's Opaque value.
type delivery struct {
	topic string
}

// NewProducerService creates a producer on top of queue.
//
// Pass a nil serializer to publish JSON only.
func NewProducerService(queue kafka.DeliveryQueue, serializer *schema_registry.RecordSerializer, cfg Config) *ProducerService {
	return &ProducerService{
		cfg:        cfg.WithDefaults(),
		queue:      queue,
		serializer: serializer,
		inflight:   make(map[*delivery]error),
		sleep:      sleepContext,
	}
}

// WithLogger attaches a logger to the producer.
func (s *ProducerService) WithLogger(logger Logger) *ProducerService {
	s.logger = logger
	return s
}

// WithObserver attaches an observer to the producer.
func (s *ProducerService) WithObserver(observer observability.Observer) *ProducerService {
	s.observer = observer
	return s
}

// WithTracer makes every Produce call a span and propagates it in the record headers.
func (s *ProducerService) WithTracer(t tracer.Tracer) *ProducerService {
	s.tracer = t
	return s
}

// Produce encodes msg for topic and delivers it.
func (s *ProducerService) Produce(ctx context.Context, topic string, msg message.Message) error {
	start := time.Now()

	enc, err := s.encoder()
	if err != nil {
		s.observeOperation("produce", topic, time.Since(start), err, 0, nil)
		return err
	}

	value, err := enc.Encode(ctx, topic, msg)
	if err != nil {
		s.observeOperation("produce", topic, time.Since(start), err, 0, nil)
		return fmt.Errorf("encode %s for %s: %w", msg, topic, err)
	}

	return s.produce(ctx, topic, value, start, map[string]interface{}{
		"type":  msg.Type(),
		"event": msg.Event(),
	})
}

// ProduceRaw delivers an already serialized value.
func (s *ProducerService) ProduceRaw(ctx context.Context, topic string, value []byte) error {
	return s.produce(ctx, topic, value, time.Now(), nil)
}

func (s *ProducerService) produce(ctx context.Context, topic string, value []byte, start time.Time, meta map[string]interface{}) (err error) {
	var headers map[string]string
	if s.tracer != nil {
		var span tracer.Span
		ctx, span = s.tracer.StartSpan(ctx, "events.produce")
		span.SetAttributes(map[string]interface{}{
			"messaging.system":      "kafka",
			"messaging.destination": topic,
			"messaging.body.size":   len(value),
		})
		defer func() {
			if err != nil {
				span.RecordError(err)
			}
			span.End()
		}()
		headers = s.tracer.GetCarrier(ctx)
	}

	defer func() {
		s.observeOperation("produce", topic, time.Since(start), err, int64(len(value)), meta)
	}()

	token := &delivery{topic: topic}
	s.track(token)
	defer s.untrack(token)

	if err := s.queue.Produce(ctx, kafka.OutboundRecord{
		Topic:   topic,
		Value:   value,
		Headers: headers,
		Opaque:  token,
	}); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	return s.confirm(ctx, token)
}

// confirm runs the flush attempts for one enqueued record.
func (s *ProducerService) confirm(ctx context.Context, token *delivery) error {
	attempts := s.cfg.Retry.Attempts
	backoff := s.cfg.Retry.Backoff
	outstanding := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		s.serve(ctx)

		start := time.Now()
		outstanding = s.queue.Flush(s.cfg.FlushTimeout)
		s.observeOperation("flush", token.topic, time.Since(start), nil, int64(outstanding), map[string]interface{}{
			"attempt": attempt,
		})

		if outstanding == 0 {
			s.serve(ctx)
			if failure := s.failure(token); failure != nil {
				return fmt.Errorf("%w: topic %s: %w", ErrDeliveryFailed, token.topic, failure)
			}
			return nil
		}

		s.logWarn(ctx, "Records not confirmed within flush timeout", map[string]interface{}{
			"topic":       token.topic,
			"attempt":     attempt,
			"attempts":    attempts,
			"outstanding": outstanding,
		})

		if attempt < attempts && backoff > 0 {
			if err := s.sleep(ctx, backoff); err != nil {
				return err
			}
			backoff = s.cfg.Retry.next(backoff)
		}
	}

	return fmt.Errorf("%w: topic %s after %d attempts, %d records outstanding",
		ErrFlushExhausted, token.topic, attempts, outstanding)
}

// serve drains the delivery reports. Failures are logged and kept for the call that
// produced the record, if it is still waiting.
func (s *ProducerService) serve(ctx context.Context) {
	for _, report := range s.queue.Poll(0) {
		if report.Err == nil {
			continue
		}

		s.logError(ctx, "Message delivery failed", report.Err, map[string]interface{}{
			"topic":     report.Topic,
			"partition": report.Partition,
			"retryable": kafka.IsRetryableError(report.Err),
		})

		token, ok := report.Opaque.(*delivery)
		if !ok {
			continue
		}
		s.mu.Lock()
		if _, waiting := s.inflight[token]; waiting {
			s.inflight[token] = report.Err
		}
		s.mu.Unlock()
	}
}

func (s *ProducerService) track(token *delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight[token] = nil
}

func (s *ProducerService) untrack(token *delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, token)
}

func (s *ProducerService) failure(token *delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight[token]
}

// encoder resolves the payload encoder on first use.
func (s *ProducerService) encoder() (encoder, error) {
	s.encOnce.Do(func() {
		s.enc, s.encErr = newEncoder(s.cfg, s.serializer)
	})
	return s.enc, s.encErr
}

// Close closes the underlying queue.
func (s *ProducerService) Close() error {
	return s.queue.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
