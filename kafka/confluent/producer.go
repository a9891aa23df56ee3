package confluent

import (
	"context"
	"fmt"
	"sync"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// flushStep bounds a single librdkafka flush so reports are collected while waiting.
const flushStep = 100 * time.Millisecond

// producerClient is the part of *ckafka.Producer the Producer uses.
type producerClient interface {
	Produce(msg *ckafka.Message, deliveryChan chan ckafka.Event) error
	Events() chan ckafka.Event
	Flush(timeoutMs int) int
	Len() int
	Close()
}

// Producer is a kafka.DeliveryQueue backed by librdkafka.
//
// Delivery reports arrive on the client's event channel. They are moved into a local
// queue by Poll and Flush, which also keeps Len from counting reports nobody read.
type Producer struct {
	telemetry

	client producerClient

	mu      sync.Mutex
	reports []kafka.DeliveryReport
	closed  bool
}

// NewProducer creates a librdkafka producer from cfg.
func NewProducer(cfg kafka.Config) (*Producer, error) {
	configMap, err := ProducerConfigMap(cfg)
	if err != nil {
		return nil, err
	}

	client, err := ckafka.NewProducer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return newProducer(client), nil
}

func newProducer(client producerClient) *Producer {
	return &Producer{client: client}
}

// WithObserver attaches an observer to the producer for tracking operations.
func (p *Producer) WithObserver(observer observability.Observer) *Producer {
	p.observer = observer
	return p
}

// WithLogger attaches a logger to the producer for internal logging.
func (p *Producer) WithLogger(logger kafka.Logger) *Producer {
	p.logger = logger
	return p
}

// Produce enqueues record on any partition of its topic.
func (p *Producer) Produce(ctx context.Context, record kafka.OutboundRecord) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.observeOperation("enqueue", record.Topic, "", time.Since(start), kafka.ErrWriterNotInitialized, 0)
		return kafka.ErrWriterNotInitialized
	}

	topic := record.Topic
	err := p.client.Produce(&ckafka.Message{
		TopicPartition: ckafka.TopicPartition{Topic: &topic, Partition: ckafka.PartitionAny},
		Key:            record.Key,
		Value:          record.Value,
		Headers:        toHeaders(record.Headers),
		Opaque:         record.Opaque,
	}, nil)
	if err != nil {
		err = fmt.Errorf("enqueue record on %s: %w", record.Topic, err)
	}

	p.observeOperation("enqueue", record.Topic, "", time.Since(start), err, int64(len(record.Value)))
	return err
}

// Poll returns the pending delivery reports, waiting up to timeout for one to arrive.
func (p *Producer) Poll(timeout time.Duration) []kafka.DeliveryReport {
	p.collect()
	if reports := p.take(); len(reports) > 0 || timeout <= 0 {
		return reports
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-p.client.Events():
			if !ok {
				return p.take()
			}
			p.handle(ev)
			p.collect()
			if reports := p.take(); len(reports) > 0 {
				return reports
			}
		case <-timer.C:
			p.collect()
			return p.take()
		}
	}
}

// Flush waits up to timeout for librdkafka's queue to drain and returns what is left.
func (p *Producer) Flush(timeout time.Duration) int {
	start := time.Now()
	deadline := start.Add(timeout)

	for {
		p.collect()
		n := p.client.Len()
		if n == 0 {
			p.observeOperation("flush", "", "", time.Since(start), nil, 0)
			return 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.observeOperation("flush", "", "", time.Since(start), nil, int64(n))
			return n
		}
		if remaining > flushStep {
			remaining = flushStep
		}
		p.client.Flush(int(remaining / time.Millisecond))
	}
}

// Close flushes for up to the socket timeout and closes the client.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	if left := p.Flush(kafka.DefaultMessageTimeout); left > 0 {
		p.logWarn(context.Background(), "Closing producer with undelivered records", map[string]interface{}{
			"outstanding": left,
		})
	}
	p.client.Close()
	return nil
}

// collect moves every event already on the client's channel into the local queue.
func (p *Producer) collect() {
	for {
		select {
		case ev, ok := <-p.client.Events():
			if !ok {
				return
			}
			p.handle(ev)
		default:
			return
		}
	}
}

func (p *Producer) handle(ev ckafka.Event) {
	switch e := ev.(type) {
	case *ckafka.Message:
		report := kafka.DeliveryReport{
			Partition: int(e.TopicPartition.Partition),
			Offset:    int64(e.TopicPartition.Offset),
			Opaque:    e.Opaque,
			Err:       e.TopicPartition.Error,
		}
		if e.TopicPartition.Topic != nil {
			report.Topic = *e.TopicPartition.Topic
		}
		if report.Err != nil {
			p.logError(context.Background(), "Kafka delivery failed", report.Err, map[string]interface{}{
				"topic": report.Topic,
			})
		}
		p.mu.Lock()
		p.reports = append(p.reports, report)
		p.mu.Unlock()
	case ckafka.Error:
		p.logError(context.Background(), "Kafka client error", e, map[string]interface{}{
			"code":  e.Code().String(),
			"fatal": e.IsFatal(),
		})
	}
}

func (p *Producer) take() []kafka.DeliveryReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	reports := p.reports
	p.reports = nil
	return reports
}

func toHeaders(headers map[string]string) []ckafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]ckafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, ckafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

func fromHeaders(headers []ckafka.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for _, h := range headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
