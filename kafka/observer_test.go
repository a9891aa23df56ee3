package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aalemi-dev/stdlib-events/observability"
)

// opRecorder keeps every observed operation.
type opRecorder struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (r *opRecorder) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ctx)
}

func (r *opRecorder) byOperation(operation string) []observability.OperationContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []observability.OperationContext
	for _, op := range r.ops {
		if op.Operation == operation {
			out = append(out, op)
		}
	}
	return out
}

func TestObserveOperation_WithoutObserver(t *testing.T) {
	tel := &telemetry{}
	tel.observeOperation("enqueue", "member", "", time.Millisecond, nil, 1024)

	tel.observer = observability.NewNoOpObserver()
	tel.observeOperation("consume", "member", "0", time.Millisecond, nil, 2048)
}

// TestObserverEnqueueOperation tests that Produce reports an enqueue operation
func TestObserverEnqueueOperation(t *testing.T) {
	recorder := &opRecorder{}
	writer := &fakeWriter{}
	producer := newAsyncProducer(Config{}, writer).WithObserver(recorder)
	writer.producer = producer

	err := producer.Produce(context.Background(), OutboundRecord{Topic: "member", Value: []byte("hello")})
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	ops := recorder.byOperation("enqueue")
	if len(ops) != 1 {
		t.Fatalf("Expected 1 enqueue operation, got %d", len(ops))
	}
	if ops[0].Resource != "member" {
		t.Errorf("Expected resource 'member', got '%s'", ops[0].Resource)
	}
	if ops[0].Size != 5 {
		t.Errorf("Expected size 5, got %d", ops[0].Size)
	}
	if ops[0].Error != nil {
		t.Errorf("Expected no error, got %v", ops[0].Error)
	}
}

// TestObserverFlushOperation tests that Flush reports what is left outstanding
func TestObserverFlushOperation(t *testing.T) {
	recorder := &opRecorder{}
	writer := &fakeWriter{hold: true}
	producer := newAsyncProducer(Config{}, writer).WithObserver(recorder)
	writer.producer = producer

	_ = producer.Produce(context.Background(), OutboundRecord{Topic: "member", Value: []byte("a")})
	_ = producer.Produce(context.Background(), OutboundRecord{Topic: "member", Value: []byte("b")})

	producer.Flush(5 * time.Millisecond)

	ops := recorder.byOperation("flush")
	if len(ops) != 1 {
		t.Fatalf("Expected 1 flush operation, got %d", len(ops))
	}
	if ops[0].Size != 2 {
		t.Errorf("Expected 2 outstanding records, got %d", ops[0].Size)
	}
}

// TestObserverConsumeOperation tests consume and commit operations of the consumer
func TestObserverConsumeOperation(t *testing.T) {
	recorder := &opRecorder{}
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "member", Partition: 2, Offset: 7, Value: []byte("payload")},
	}}
	consumer := newTestConsumer(Config{GroupID: "billing"}, reader).WithObserver(recorder)
	if err := consumer.Subscribe([]string{"member"}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	record, err := consumer.Poll(context.Background(), time.Second)
	if err != nil || record == nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if err := consumer.Commit(context.Background(), record); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	consumeOps := recorder.byOperation("consume")
	if len(consumeOps) != 1 {
		t.Fatalf("Expected 1 consume operation, got %d", len(consumeOps))
	}
	if consumeOps[0].SubResource != "2" {
		t.Errorf("Expected partition '2', got '%s'", consumeOps[0].SubResource)
	}
	if consumeOps[0].Size != int64(len("payload")) {
		t.Errorf("Expected size %d, got %d", len("payload"), consumeOps[0].Size)
	}

	if len(recorder.byOperation("commit")) != 1 {
		t.Errorf("Expected 1 commit operation")
	}
}

// TestObserverErrorTracking tests that failed enqueues are reported with their error
func TestObserverErrorTracking(t *testing.T) {
	recorder := &opRecorder{}
	writer := &fakeWriter{err: errors.New("queue full")}
	producer := newAsyncProducer(Config{}, writer).WithObserver(recorder)
	writer.producer = producer

	err := producer.Produce(context.Background(), OutboundRecord{Topic: "member", Value: []byte("x")})
	if err == nil {
		t.Fatal("Expected an error")
	}

	ops := recorder.byOperation("enqueue")
	if len(ops) != 1 {
		t.Fatalf("Expected 1 operation, got %d", len(ops))
	}
	if ops[0].Error == nil {
		t.Error("Expected error to be recorded")
	}
	if producer.Outstanding() != 0 {
		t.Errorf("Expected failed enqueue to leave nothing outstanding, got %d", producer.Outstanding())
	}
}

// TestBuilderChaining tests that the With* methods can be chained
func TestBuilderChaining(t *testing.T) {
	recorder := &opRecorder{}
	logger := &fakeLogger{}

	producer := newAsyncProducer(Config{}, &fakeWriter{}).
		WithObserver(recorder).
		WithLogger(logger)

	if producer.observer != recorder {
		t.Error("Observer was not attached to producer")
	}
	if producer.logger != logger {
		t.Error("Logger was not attached to producer")
	}

	consumer := newTestConsumer(Config{GroupID: "g"}, &fakeReader{}).
		WithObserver(recorder).
		WithLogger(logger)

	if consumer.observer != recorder {
		t.Error("Observer was not attached to consumer")
	}
	if consumer.logger != logger {
		t.Error("Logger was not attached to consumer")
	}
}

// fakeLogger records which levels were used.
type fakeLogger struct {
	mu          sync.Mutex
	InfoCalled  bool
	WarnCalled  bool
	ErrorCalled bool
}

func (m *fakeLogger) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalled = true
}

func (m *fakeLogger) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarnCalled = true
}

func (m *fakeLogger) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
}

func (m *fakeLogger) errorCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ErrorCalled
}
