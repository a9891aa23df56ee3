package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// GroupConsumer is a RecordSource backed by a kafka-go group Reader.
// The reader is created on Subscribe; rebalancing and partition assignment are
// handled by kafka-go.
type GroupConsumer struct {
	telemetry

	cfg Config

	mu     sync.Mutex
	reader messageReader
	topics []string

	newReader func(topics []string) (messageReader, error)
}

// NewGroupConsumer creates a consumer for cfg.GroupID. No connection is made until
// Subscribe is called.
func NewGroupConsumer(cfg Config) (*GroupConsumer, error) {
	cfg = cfg.WithDefaults()
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%w: at least one broker is required", ErrInvalidConfig)
	}

	offset, err := startOffset(cfg.AutoOffsetReset)
	if err != nil {
		return nil, err
	}

	tlsConfig, mechanism, err := security(cfg)
	if err != nil {
		return nil, err
	}

	c := &GroupConsumer{cfg: cfg}
	c.newReader = func(topics []string) (messageReader, error) {
		readerConfig := kafka.ReaderConfig{
			Brokers:          cfg.Brokers,
			GroupID:          cfg.GroupID,
			GroupTopics:      topics,
			MinBytes:         cfg.MinBytes,
			MaxBytes:         cfg.MaxBytes,
			MaxWait:          cfg.MaxWait,
			StartOffset:      offset,
			RebalanceTimeout: DefaultRebalanceTimeout,
			ErrorLogger:      c.errorLogger(),
			Dialer: &kafka.Dialer{
				ClientID:      cfg.ClientID,
				Timeout:       cfg.SocketTimeout,
				DualStack:     true,
				TLS:           tlsConfig,
				SASLMechanism: mechanism,
			},
		}

		// Auto-commit enabled: commit in the background at CommitInterval.
		// Otherwise every CommitMessages call is synchronous.
		if cfg.EnableAutoCommit {
			readerConfig.CommitInterval = cfg.CommitInterval
		}

		if err := readerConfig.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		return kafka.NewReader(readerConfig), nil
	}
	return c, nil
}

// WithObserver attaches an observer to the consumer for tracking operations.
func (c *GroupConsumer) WithObserver(observer observability.Observer) *GroupConsumer {
	c.observer = observer
	return c
}

// WithLogger attaches a logger to the consumer for internal logging.
func (c *GroupConsumer) WithLogger(logger Logger) *GroupConsumer {
	c.logger = logger
	return c
}

// Subscribe joins the consumer group for topics. Subscribing to the same set again
// keeps the current reader; a different set replaces it.
func (c *GroupConsumer) Subscribe(topics []string) error {
	if c.cfg.GroupID == "" {
		return ErrInvalidGroupID
	}
	if len(topics) == 0 {
		return fmt.Errorf("%w: no topics to subscribe to", ErrInvalidConfig)
	}

	wanted := normalizeTopics(topics)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reader != nil && sameTopics(c.topics, wanted) {
		return nil
	}

	reader, err := c.newReader(wanted)
	if err != nil {
		return err
	}

	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			c.logWarn(context.Background(), "Failed to close previous Kafka reader", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	c.reader = reader
	c.topics = wanted
	c.logInfo(context.Background(), "Subscribed to Kafka topics", map[string]interface{}{
		"group_id": c.cfg.GroupID,
		"topics":   wanted,
	})
	return nil
}

// Topics returns the current subscription.
func (c *GroupConsumer) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

// Poll waits up to timeout for the next record and returns nil, nil when none arrived.
func (c *GroupConsumer) Poll(ctx context.Context, timeout time.Duration) (*Record, error) {
	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()

	if reader == nil {
		return nil, ErrReaderNotInitialized
	}

	start := time.Now()
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		msg kafka.Message
		err error
	)
	if c.cfg.CommitOnRead() {
		msg, err = reader.ReadMessage(pollCtx)
	} else {
		msg, err = reader.FetchMessage(pollCtx)
	}

	if err != nil {
		// our own deadline expiring is a timeout, not a failure
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, nil
		}
		c.observeOperation("consume", "", "", time.Since(start), err, 0)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetch record: %w", err)
	}

	c.observeOperation("consume", msg.Topic, strconv.Itoa(msg.Partition), time.Since(start), nil, int64(len(msg.Value)))

	return &Record{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   fromKafkaHeaders(msg.Headers),
		Time:      msg.Time,
	}, nil
}

// Commit commits the offset of record. It is a no-op when offsets are committed on read.
func (c *GroupConsumer) Commit(ctx context.Context, record *Record) error {
	if record == nil || c.cfg.CommitOnRead() {
		return nil
	}

	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()

	if reader == nil {
		return ErrReaderNotInitialized
	}

	start := time.Now()
	err := reader.CommitMessages(ctx, kafka.Message{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
	})
	c.observeOperation("commit", record.Topic, strconv.Itoa(record.Partition), time.Since(start), err, 0)
	if err != nil {
		return fmt.Errorf("commit %s/%d@%d: %w", record.Topic, record.Partition, record.Offset, err)
	}
	return nil
}

// Close leaves the group and closes the reader.
func (c *GroupConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.reader == nil {
		return nil
	}

	c.logInfo(context.Background(), "Closing Kafka consumer", map[string]interface{}{
		"group_id": c.cfg.GroupID,
	})

	err := c.reader.Close()
	c.reader = nil
	c.topics = nil
	if err != nil {
		c.logWarn(context.Background(), "Failed to close Kafka reader", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return err
}

func normalizeTopics(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func sameTopics(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
