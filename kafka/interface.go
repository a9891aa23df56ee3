package kafka

import (
	"context"
	"time"
)

// DeliveryQueue is an asynchronous producer. Produce only enqueues; delivery is
// confirmed later through reports collected with Poll, and Flush waits for the
// queue to drain.
//
// Implemented by *AsyncProducer (segmentio/kafka-go) and *confluent.Producer (librdkafka).
type DeliveryQueue interface {
	// Produce enqueues one record. The partition is assigned by the producer.
	Produce(ctx context.Context, record OutboundRecord) error

	// Poll returns the delivery reports that arrived since the last call, waiting up to
	// timeout for at least one. A zero timeout never blocks.
	Poll(timeout time.Duration) []DeliveryReport

	// Flush waits up to timeout for every enqueued record to be confirmed and returns
	// the number still outstanding. Reports stay queued for the next Poll.
	Flush(timeout time.Duration) int

	// Close flushes what it can and releases the producer.
	Close() error
}

// RecordSource is a consumer-group member.
//
// Implemented by *GroupConsumer (segmentio/kafka-go) and *confluent.Consumer (librdkafka).
type RecordSource interface {
	// Subscribe joins the group for topics. Subscribing again to the same set is a no-op.
	Subscribe(topics []string) error

	// Poll blocks up to timeout for the next record. It returns nil, nil on timeout.
	Poll(ctx context.Context, timeout time.Duration) (*Record, error)

	// Commit marks record as processed for the group.
	Commit(ctx context.Context, record *Record) error

	// Close leaves the group.
	Close() error
}

// OutboundRecord is one record handed to a DeliveryQueue.
type OutboundRecord struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string

	// Opaque is returned unchanged in the DeliveryReport of this record. It is not sent.
	Opaque interface{}
}

// DeliveryReport is the broker's verdict on one produced record.
type DeliveryReport struct {
	Topic     string
	Partition int
	Offset    int64
	Opaque    interface{}

	// Err is nil when the record was acknowledged.
	Err error
}

// Record is one consumed record.
type Record struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}
