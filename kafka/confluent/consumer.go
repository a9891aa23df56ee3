package confluent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	ckafka "github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// consumerClient is the part of *ckafka.Consumer the Consumer uses.
type consumerClient interface {
	SubscribeTopics(topics []string, rebalanceCb ckafka.RebalanceCb) error
	ReadMessage(timeout time.Duration) (*ckafka.Message, error)
	CommitOffsets(offsets []ckafka.TopicPartition) ([]ckafka.TopicPartition, error)
	Close() error
}

// Consumer is a kafka.RecordSource backed by a librdkafka consumer-group member.
type Consumer struct {
	telemetry

	cfg    kafka.Config
	client consumerClient

	mu     sync.Mutex
	topics []string
	closed bool
}

// NewConsumer creates a librdkafka consumer for cfg.GroupID.
func NewConsumer(cfg kafka.Config) (*Consumer, error) {
	configMap, err := ConsumerConfigMap(cfg)
	if err != nil {
		return nil, err
	}

	client, err := ckafka.NewConsumer(configMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}
	return newConsumer(cfg, client), nil
}

func newConsumer(cfg kafka.Config, client consumerClient) *Consumer {
	return &Consumer{cfg: cfg.WithDefaults(), client: client}
}

// WithObserver attaches an observer to the consumer for tracking operations.
func (c *Consumer) WithObserver(observer observability.Observer) *Consumer {
	c.observer = observer
	return c
}

// WithLogger attaches a logger to the consumer for internal logging.
func (c *Consumer) WithLogger(logger kafka.Logger) *Consumer {
	c.logger = logger
	return c
}

// Subscribe replaces the subscription with topics unless it is already that set.
func (c *Consumer) Subscribe(topics []string) error {
	wanted := normalizeTopics(topics)
	if len(wanted) == 0 {
		return fmt.Errorf("%w: no topics to subscribe to", kafka.ErrInvalidConfig)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return kafka.ErrReaderNotInitialized
	}
	if sameTopics(c.topics, wanted) {
		return nil
	}

	if err := c.client.SubscribeTopics(wanted, nil); err != nil {
		return fmt.Errorf("subscribe to %v: %w", wanted, err)
	}
	c.topics = wanted
	c.logInfo(context.Background(), "Subscribed to Kafka topics", map[string]interface{}{
		"group_id": c.cfg.GroupID,
		"topics":   wanted,
	})
	return nil
}

// Topics returns the current subscription.
func (c *Consumer) Topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.topics...)
}

// Poll waits up to timeout for the next record and returns nil, nil when none arrived.
// librdkafka cannot be interrupted, so ctx is only checked before the call.
func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) (*kafka.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	ready := !c.closed && len(c.topics) > 0
	c.mu.Unlock()
	if !ready {
		return nil, kafka.ErrReaderNotInitialized
	}

	start := time.Now()
	msg, err := c.client.ReadMessage(timeout)
	if err != nil {
		var kerr ckafka.Error
		if errors.As(err, &kerr) && kerr.Code() == ckafka.ErrTimedOut {
			return nil, nil
		}
		c.observeOperation("consume", "", "", time.Since(start), err, 0)
		return nil, fmt.Errorf("fetch record: %w", err)
	}

	record := &kafka.Record{
		Partition: int(msg.TopicPartition.Partition),
		Offset:    int64(msg.TopicPartition.Offset),
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   fromHeaders(msg.Headers),
		Time:      msg.Timestamp,
	}
	if msg.TopicPartition.Topic != nil {
		record.Topic = *msg.TopicPartition.Topic
	}

	c.observeOperation("consume", record.Topic, strconv.Itoa(record.Partition), time.Since(start), nil, int64(len(record.Value)))
	return record, nil
}

// Commit commits the position after record. It is a no-op when offsets are committed on read.
func (c *Consumer) Commit(ctx context.Context, record *kafka.Record) error {
	if record == nil || c.cfg.CommitOnRead() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	topic := record.Topic
	_, err := c.client.CommitOffsets([]ckafka.TopicPartition{{
		Topic:     &topic,
		Partition: int32(record.Partition),
		Offset:    ckafka.Offset(record.Offset + 1),
	}})
	c.observeOperation("commit", record.Topic, strconv.Itoa(record.Partition), time.Since(start), err, 0)
	if err != nil {
		return fmt.Errorf("commit %s/%d@%d: %w", record.Topic, record.Partition, record.Offset, err)
	}
	return nil
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.topics = nil

	c.logInfo(context.Background(), "Closing Kafka consumer", map[string]interface{}{
		"group_id": c.cfg.GroupID,
	})
	if err := c.client.Close(); err != nil {
		c.logWarn(context.Background(), "Failed to close Kafka consumer", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
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
