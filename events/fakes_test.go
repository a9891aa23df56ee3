package events

import (
	"context"
	"sync"
	"time"

	"github.com/aalemi-dev/stdlib-events/kafka"
	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
)

// fakeQueue is a scripted DeliveryQueue. Flush answers with the next entry of flushes
// (the last entry repeats); a zero answer confirms every produced record and queues its
// report for the next Poll.
type fakeQueue struct {
	mu         sync.Mutex
	flushes    []int
	flushCalls int
	polls      int
	produced   []kafka.OutboundRecord
	reported   int
	reports    []kafka.DeliveryReport
	reportErr  error
	produceErr error
	closed     bool
}

func (q *fakeQueue) Produce(_ context.Context, record kafka.OutboundRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.produceErr != nil {
		return q.produceErr
	}
	q.produced = append(q.produced, record)
	return nil
}

func (q *fakeQueue) Poll(time.Duration) []kafka.DeliveryReport {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.polls++
	out := q.reports
	q.reports = nil
	return out
}

func (q *fakeQueue) Flush(time.Duration) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	outstanding := 0
	if len(q.flushes) > 0 {
		i := q.flushCalls
		if i >= len(q.flushes) {
			i = len(q.flushes) - 1
		}
		outstanding = q.flushes[i]
	}
	q.flushCalls++

	if outstanding == 0 {
		for _, record := range q.produced[q.reported:] {
			q.reports = append(q.reports, kafka.DeliveryReport{
				Topic:  record.Topic,
				Opaque: record.Opaque,
				Err:    q.reportErr,
			})
		}
		q.reported = len(q.produced)
	}
	return outstanding
}

func (q *fakeQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

func (q *fakeQueue) flushCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.flushCalls
}

func (q *fakeQueue) records() []kafka.OutboundRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]kafka.OutboundRecord(nil), q.produced...)
}

// fakeSource hands out queued records and waits out the timeout when empty.
type fakeSource struct {
	mu        sync.Mutex
	records   []*kafka.Record
	err       error
	topics    []string
	committed []*kafka.Record
	closed    bool
}

func (s *fakeSource) Subscribe(topics []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics = topics
	return nil
}

func (s *fakeSource) Poll(ctx context.Context, timeout time.Duration) (*kafka.Record, error) {
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return nil, err
	}
	if len(s.records) > 0 {
		record := s.records[0]
		s.records = s.records[1:]
		s.mu.Unlock()
		return record, nil
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, nil
	}
}

func (s *fakeSource) Commit(_ context.Context, record *kafka.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, record)
	return nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) push(topic string, value []byte, headers map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, &kafka.Record{
		Topic:   topic,
		Offset:  int64(len(s.records)),
		Value:   value,
		Headers: headers,
	})
}

// memoryRegistry is an in-process schema registry.
type memoryRegistry struct {
	mu       sync.Mutex
	schemas  map[int]string
	subjects map[string][]schema_registry.Metadata
}

func newMemoryRegistry() *memoryRegistry {
	return &memoryRegistry{
		schemas:  make(map[int]string),
		subjects: make(map[string][]schema_registry.Metadata),
	}
}

func (r *memoryRegistry) GetSchemaByID(_ context.Context, id int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schema, ok := r.schemas[id]
	if !ok {
		return "", schema_registry.ErrSchemaNotFound
	}
	return schema, nil
}

func (r *memoryRegistry) GetSchemaBySubjectVersion(_ context.Context, subject string, version int) (*schema_registry.Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.subjects[subject]
	if !ok {
		return nil, schema_registry.ErrSubjectNotFound
	}
	if version < 1 || version > len(versions) {
		return nil, schema_registry.ErrVersionNotFound
	}
	m := versions[version-1]
	return &m, nil
}

func (r *memoryRegistry) GetLatestSchema(ctx context.Context, subject string) (*schema_registry.Metadata, error) {
	r.mu.Lock()
	n := len(r.subjects[subject])
	r.mu.Unlock()
	return r.GetSchemaBySubjectVersion(ctx, subject, n)
}

func (r *memoryRegistry) LookupSchema(_ context.Context, subject, schema, _ string) (*schema_registry.Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions, ok := r.subjects[subject]
	if !ok {
		return nil, schema_registry.ErrSubjectNotFound
	}
	for _, m := range versions {
		if m.Schema == schema {
			m := m
			return &m, nil
		}
	}
	return nil, schema_registry.ErrSchemaNotFound
}

func (r *memoryRegistry) RegisterSchema(_ context.Context, subject, schema, schemaType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := len(r.schemas) + 1
	r.schemas[id] = schema
	r.subjects[subject] = append(r.subjects[subject], schema_registry.Metadata{
		ID:      id,
		Version: len(r.subjects[subject]) + 1,
		Schema:  schema,
		Subject: subject,
		Type:    schemaType,
	})
	return id, nil
}

func (r *memoryRegistry) CheckCompatibility(context.Context, string, string, string) (bool, error) {
	return true, nil
}

func (r *memoryRegistry) subjectCount(subject string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects[subject])
}

// captureLogger records what was logged.
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *captureLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{}) {}

func (l *captureLogger) WarnWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) ErrorWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *captureLogger) counts() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns), len(l.errors)
}

func kafkaReport(topic string, opaque interface{}, err error) kafka.DeliveryReport {
	return kafka.DeliveryReport{Topic: topic, Opaque: opaque, Err: err}
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, ctx)
}

func (o *recordingObserver) operations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.ops))
	for _, op := range o.ops {
		names = append(names, op.Operation)
	}
	return names
}

func (o *recordingObserver) last() observability.OperationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ops[len(o.ops)-1]
}
