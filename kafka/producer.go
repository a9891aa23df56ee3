package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AsyncProducer is a DeliveryQueue on top of an asynchronous kafka-go Writer.
//
// The writer reports batches through its Completion callback on its own goroutine;
// the producer turns those into DeliveryReports and keeps count of the records that
// have not been confirmed yet.
type AsyncProducer struct {
	telemetry

	cfg    Config
	writer messageWriter

	mu          sync.Mutex
	outstanding int
	reports     []DeliveryReport
	closed      bool

	// changed is closed and replaced after every completion
	changed chan struct{}
}

// NewAsyncProducer creates a producer for the configured brokers.
// Topics are chosen per record, so one producer serves every topic.
//
// Example:
//
//	producer, err := kafka.NewAsyncProducer(kafka.Config{Brokers: []string{"localhost:9092"}})
//	if err != nil {
//	    return err
//	}
//	defer producer.Close()
func NewAsyncProducer(cfg Config) (*AsyncProducer, error) {
	cfg = cfg.WithDefaults()
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrInvalidConfig)
	}

	tlsConfig, mechanism, err := security(cfg)
	if err != nil {
		return nil, err
	}

	codec, err := compression(cfg.CompressionCodec)
	if err != nil {
		return nil, err
	}

	p := newAsyncProducer(cfg, nil)
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		MaxAttempts:            cfg.MaxAttempts,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.QueueBufferingMax,
		ReadTimeout:            cfg.SocketTimeout,
		WriteTimeout:           cfg.MessageTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Async:                  true,
		Completion:             p.complete,
		Compression:            codec,
		ErrorLogger:            p.errorLogger(),
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		Transport: &kafka.Transport{
			DialTimeout: cfg.SocketTimeout,
			MetadataTTL: cfg.MetadataRefreshInterval,
			ClientID:    cfg.ClientID,
			TLS:         tlsConfig,
			SASL:        mechanism,
		},
	}
	return p, nil
}

func newAsyncProducer(cfg Config, writer messageWriter) *AsyncProducer {
	return &AsyncProducer{
		cfg:     cfg,
		writer:  writer,
		changed: make(chan struct{}),
	}
}

// WithObserver attaches an observer to the producer for tracking operations.
func (p *AsyncProducer) WithObserver(observer observability.Observer) *AsyncProducer {
	p.observer = observer
	return p
}

// WithLogger attaches a logger to the producer for internal logging.
func (p *AsyncProducer) WithLogger(logger Logger) *AsyncProducer {
	p.logger = logger
	return p
}

// Produce enqueues record on the writer. It does not wait for the broker.
func (p *AsyncProducer) Produce(ctx context.Context, record OutboundRecord) error {
	start := time.Now()

	p.mu.Lock()
	if p.closed || p.writer == nil {
		p.mu.Unlock()
		p.observeOperation("enqueue", record.Topic, "", time.Since(start), ErrWriterNotInitialized, 0)
		return ErrWriterNotInitialized
	}
	p.outstanding++
	p.mu.Unlock()

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:      record.Topic,
		Key:        record.Key,
		Value:      record.Value,
		Headers:    toKafkaHeaders(record.Headers),
		WriterData: record.Opaque,
	})
	if err != nil {
		p.mu.Lock()
		p.outstanding--
		p.mu.Unlock()
		err = fmt.Errorf("enqueue record on %s: %w", record.Topic, err)
	}

	p.observeOperation("enqueue", record.Topic, "", time.Since(start), err, int64(len(record.Value)))
	return err
}

// complete is the writer's Completion callback.
func (p *AsyncProducer) complete(messages []kafka.Message, err error) {
	p.mu.Lock()
	for _, m := range messages {
		p.reports = append(p.reports, DeliveryReport{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Opaque:    m.WriterData,
			Err:       err,
		})
	}
	p.outstanding -= len(messages)
	if p.outstanding < 0 {
		p.outstanding = 0
	}
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()

	if err != nil {
		p.logError(context.Background(), "Kafka delivery failed", err, map[string]interface{}{
			"records": len(messages),
		})
	}
}

// Poll returns the pending delivery reports, waiting up to timeout for one to arrive.
func (p *AsyncProducer) Poll(timeout time.Duration) []DeliveryReport {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		reports, changed := p.drain()
		if len(reports) > 0 || timeout <= 0 {
			return reports
		}

		select {
		case <-changed:
		case <-timer.C:
			reports, _ = p.drain()
			return reports
		}
	}
}

// Flush waits up to timeout for the outstanding count to reach zero and returns it.
func (p *AsyncProducer) Flush(timeout time.Duration) int {
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		p.mu.Lock()
		n, changed := p.outstanding, p.changed
		p.mu.Unlock()

		if n == 0 {
			p.observeOperation("flush", "", "", time.Since(start), nil, 0)
			return 0
		}

		select {
		case <-changed:
		case <-timer.C:
			n = p.Outstanding()
			p.observeOperation("flush", "", "", time.Since(start), nil, int64(n))
			return n
		}
	}
}

// Outstanding returns the number of enqueued records not yet reported.
func (p *AsyncProducer) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Close stops accepting records and closes the writer, which flushes pending batches.
func (p *AsyncProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logInfo(context.Background(), "Closing Kafka producer", map[string]interface{}{
		"outstanding": p.Outstanding(),
	})

	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		p.logWarn(context.Background(), "Failed to close Kafka writer", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// drain takes the pending reports and returns the channel that signals the next completion.
func (p *AsyncProducer) drain() ([]DeliveryReport, chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	reports := p.reports
	p.reports = nil
	return reports, p.changed
}
