package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
	"github.com/aalemi-dev/stdlib-events/schemacache"
	"github.com/aalemi-dev/stdlib-events/tracer"
)

const memberSchema = `{
  "type": "record",
  "name": "Member",
  "namespace": "events.test",
  "fields": [
    {"name": "name", "type": "string"}
  ]
}`

const friendRequestSchema = `{
  "type": "record",
  "name": "FriendRequest",
  "namespace": "events.test",
  "fields": [
    {"name": "action", "type": "string"},
    {"name": "friend_id", "type": "long"}
  ]
}`

func newSerializer(t *testing.T, registry schema_registry.Registry) *schema_registry.RecordSerializer {
	t.Helper()
	cache := schemacache.NewCacheAdapter(schemacache.NewMemoryStore(), schemacache.Config{})
	serializer, err := schema_registry.NewRecordSerializer(
		schema_registry.NewCachedRegistry(registry, cache),
		schema_registry.Config{RegisterMissingSubjects: true},
	)
	require.NoError(t, err)
	return serializer
}

func TestConsume_NotSubscribed(t *testing.T) {
	t.Parallel()
	consumer := NewConsumerService(&fakeSource{}, nil, Config{})

	_, ok, err := consumer.Consume(context.Background(), time.Millisecond)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestSubscribe_NoTopics(t *testing.T) {
	t.Parallel()
	_, err := NewConsumerService(&fakeSource{}, nil, Config{}).Subscribe(nil)
	assert.ErrorIs(t, err, ErrNoTopics)
}

func TestConsume_Timeout(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	consumer, err := NewConsumerService(source, nil, Config{}).Subscribe([]string{"member"})
	require.NoError(t, err)
	assert.Equal(t, []string{"member"}, source.topics)

	start := time.Now()
	delivery, ok, err := consumer.Consume(context.Background(), 50*time.Millisecond)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, delivery)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConsume_SourceError(t *testing.T) {
	t.Parallel()
	source := &fakeSource{err: errors.New("broker down")}
	consumer, err := NewConsumerService(source, nil, Config{}).Subscribe([]string{"member"})
	require.NoError(t, err)

	_, ok, err := consumer.Consume(context.Background(), time.Millisecond)
	assert.False(t, ok)
	assert.EqualError(t, err, "broker down")
}

func TestConsume_JSON(t *testing.T) {
	t.Parallel()
	msg := buildMember(t, "s3cret")
	value, err := msg.MarshalJSON()
	require.NoError(t, err)

	source := &fakeSource{}
	source.push("member", value, nil)
	consumer, err := NewConsumerService(source, nil, Config{VerifySignatures: true, Salt: "s3cret"}).
		Subscribe([]string{"member"})
	require.NoError(t, err)

	delivery, ok, err := consumer.Consume(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "member", delivery.Topic)
	assertSameMessage(t, msg, delivery.Message)

	require.NoError(t, delivery.Commit(context.Background()))
	require.Len(t, source.committed, 1)
	assert.Equal(t, value, source.committed[0].Value)
}

func TestConsume_InvalidSignature(t *testing.T) {
	t.Parallel()
	value, err := buildMember(t, "other").MarshalJSON()
	require.NoError(t, err)

	source := &fakeSource{}
	source.push("member", value, nil)
	logger := &captureLogger{}
	consumer, err := NewConsumerService(source, nil, Config{VerifySignatures: true, Salt: "s3cret"}).
		WithLogger(logger).
		Subscribe([]string{"member"})
	require.NoError(t, err)

	_, ok, err := consumer.Consume(context.Background(), time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	warns, _ := logger.counts()
	assert.Equal(t, 1, warns)
}

func TestConsume_Undecodable(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	source.push("member", []byte("{not json"), nil)
	consumer, err := NewConsumerService(source, nil, Config{}).Subscribe([]string{"member"})
	require.NoError(t, err)

	_, ok, err := consumer.Consume(context.Background(), time.Second)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestConsume_AvroWithoutSerializer(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	source.push("member", append(schema_registry.EncodeSchemaID(1), 0x00), nil)
	consumer, err := NewConsumerService(source, nil, Config{}).Subscribe([]string{"member"})
	require.NoError(t, err)

	_, _, err = consumer.Consume(context.Background(), time.Second)
	assert.ErrorIs(t, err, schema_registry.ErrSerialization)
}

func TestAvro_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry := newMemoryRegistry()
	serializer := newSerializer(t, registry)
	msg := buildMember(t, "s3cret")

	queue := &fakeQueue{}
	producer := NewProducerService(queue, serializer, Config{
		Schemas: map[string]string{"member": memberSchema},
	})
	require.NoError(t, producer.Produce(ctx, "member", msg))
	assert.Equal(t, 1, registry.subjectCount("member-value"))
	assert.Equal(t, 1, registry.subjectCount(FramedEnvelopeSubject))

	records := queue.records()
	require.Len(t, records, 1)
	assert.True(t, schema_registry.HasWireHeader(records[0].Value))

	source := &fakeSource{}
	source.push("member", records[0].Value, records[0].Headers)
	consumer, err := NewConsumerService(source, serializer, Config{VerifySignatures: true, Salt: "s3cret"}).
		Subscribe([]string{"member"})
	require.NoError(t, err)

	delivery, ok, err := consumer.Consume(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assertSameMessage(t, msg, delivery.Message)
}

func TestAvro_PayloadSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry := newMemoryRegistry()
	serializer := newSerializer(t, registry)

	msg, err := message.Template{Type: "friend", Source: "api", Salt: "s3cret"}.Builder().
		ID("5").
		Event("requested").
		Payload([]byte(`{"action":"received_friend_request","friend_id":5}`)).
		Build()
	require.NoError(t, err)

	queue := &fakeQueue{}
	producer := NewProducerService(queue, serializer, Config{
		Schemas: map[string]string{"friend_request": friendRequestSchema},
	})
	require.NoError(t, producer.Produce(ctx, "friend_request", msg))

	records := queue.records()
	require.Len(t, records, 1)

	envelope, _, err := serializer.Decode(ctx, records[0].Value)
	require.NoError(t, err)
	framed, ok := envelope.(map[string]interface{})["payload"].([]byte)
	require.True(t, ok)
	payload, codec, err := serializer.Decode(ctx, framed)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"action": "received_friend_request", "friend_id": int64(5)}, payload)
	assert.Contains(t, codec.Schema(), "FriendRequest")

	source := &fakeSource{}
	source.push("friend_request", records[0].Value, records[0].Headers)
	consumer, err := NewConsumerService(source, serializer, Config{VerifySignatures: true, Salt: "s3cret"}).
		Subscribe([]string{"friend_request"})
	require.NoError(t, err)

	delivery, ok, err := consumer.Consume(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assertSameMessage(t, msg, delivery.Message)
}

func TestAvro_PayloadDoesNotMatchSchema(t *testing.T) {
	t.Parallel()
	queue := &fakeQueue{}
	producer := NewProducerService(queue, newSerializer(t, newMemoryRegistry()), Config{
		Schemas: map[string]string{"friend_request": friendRequestSchema},
	})

	err := producer.Produce(context.Background(), "friend_request", buildMember(t, ""))
	assert.ErrorIs(t, err, schema_registry.ErrSerialization)
	assert.Empty(t, queue.records())
}

func TestAvro_EnvelopeAndFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	registry := newMemoryRegistry()
	serializer := newSerializer(t, registry)

	queue := &fakeQueue{}
	jsonOnly := NewProducerService(queue, serializer, Config{})
	require.NoError(t, jsonOnly.Produce(ctx, "audit", buildMember(t, "")))

	enveloped := NewProducerService(queue, serializer, Config{UseEnvelopeSchema: true})
	require.NoError(t, enveloped.Produce(ctx, "audit", buildMember(t, "")))

	records := queue.records()
	require.Len(t, records, 2)
	assert.False(t, schema_registry.HasWireHeader(records[0].Value))
	assert.True(t, schema_registry.HasWireHeader(records[1].Value))
	assert.Equal(t, 1, registry.subjectCount(Subject("audit")))
}

func TestProduce_InvalidSchema(t *testing.T) {
	t.Parallel()
	serializer := newSerializer(t, newMemoryRegistry())
	queue := &fakeQueue{}
	producer := NewProducerService(queue, serializer, Config{
		Schemas: map[string]string{"member": `{"type": "nope"}`},
	})

	err := producer.Produce(context.Background(), "member", buildMember(t, ""))
	assert.ErrorIs(t, err, schema_registry.ErrSerialization)
	assert.Empty(t, queue.records())
}

func TestConsume_ContinuesTrace(t *testing.T) {
	t.Parallel()
	client, err := tracer.NewClient(tracer.Config{ServiceName: "test", AppEnv: "test"})
	require.NoError(t, err)
	ctx := context.Background()

	queue := &fakeQueue{}
	require.NoError(t, NewProducerService(queue, nil, Config{}).WithTracer(client).
		Produce(ctx, "member", buildMember(t, "")))
	record := queue.records()[0]

	source := &fakeSource{}
	source.push("member", record.Value, record.Headers)
	consumer, err := NewConsumerService(source, nil, Config{}).WithTracer(client).Subscribe([]string{"member"})
	require.NoError(t, err)

	delivery, ok, err := consumer.Consume(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, record.Headers["traceparent"], client.GetCarrier(delivery.Context)["traceparent"])
}

func TestConsumerService_Close(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	consumer, err := NewConsumerService(source, nil, Config{}).Subscribe([]string{"member"})
	require.NoError(t, err)

	require.NoError(t, consumer.Close())
	assert.True(t, source.closed)

	_, _, err = consumer.Consume(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ErrNotSubscribed)
}
