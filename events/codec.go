package events

import (
	"context"
	"fmt"

	"github.com/linkedin/goavro/v2"

	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/schema_registry"
)

// encoder turns a message into the record value for a topic.
type encoder interface {
	Encode(ctx context.Context, topic string, msg message.Message) ([]byte, error)
}

// jsonEncoder writes the wire form as JSON. It is used when no registry is configured.
type jsonEncoder struct{}

func (jsonEncoder) Encode(_ context.Context, _ string, msg message.Message) ([]byte, error) {
	return msg.MarshalJSON()
}

// avroEncoder writes the payload of topics that have a schema as registry-framed Avro
// inside a framed envelope, and falls back to JSON for the others.
type avroEncoder struct {
	serializer *schema_registry.RecordSerializer
	codecs     map[string]*goavro.Codec
	framed     *goavro.Codec
	envelope   *goavro.Codec
}

func newEncoder(cfg Config, serializer *schema_registry.RecordSerializer) (encoder, error) {
	if serializer == nil {
		return jsonEncoder{}, nil
	}

	enc := &avroEncoder{
		serializer: serializer,
		codecs:     make(map[string]*goavro.Codec, len(cfg.Schemas)),
	}
	for topic, schema := range cfg.Schemas {
		codec, err := goavro.NewCodec(schema)
		if err != nil {
			return nil, fmt.Errorf("%w: schema for topic %s: %v", schema_registry.ErrSerialization, topic, err)
		}
		enc.codecs[topic] = codec
	}
	if len(enc.codecs) > 0 {
		codec, err := goavro.NewCodec(message.FramedEnvelopeSchema)
		if err != nil {
			return nil, fmt.Errorf("%w: framed envelope schema: %v", schema_registry.ErrSerialization, err)
		}
		enc.framed = codec
	}
	if cfg.UseEnvelopeSchema {
		codec, err := goavro.NewCodec(message.EnvelopeSchema)
		if err != nil {
			return nil, fmt.Errorf("%w: envelope schema: %v", schema_registry.ErrSerialization, err)
		}
		enc.envelope = codec
	}
	return enc, nil
}

func (e *avroEncoder) Encode(ctx context.Context, topic string, msg message.Message) ([]byte, error) {
	if codec, ok := e.codecs[topic]; ok {
		payload, err := e.encodePayload(ctx, topic, codec, msg.Payload())
		if err != nil {
			return nil, err
		}
		return e.serializer.Encode(ctx, FramedEnvelopeSubject, e.framed, msg.NativeWithPayload(payload))
	}
	if e.envelope != nil {
		return e.serializer.Encode(ctx, Subject(topic), e.envelope, msg.Native())
	}
	return msg.MarshalJSON()
}

// encodePayload reads the JSON payload as Avro JSON for codec and writes it under the
// topic subject.
func (e *avroEncoder) encodePayload(ctx context.Context, topic string, codec *goavro.Codec, payload []byte) ([]byte, error) {
	native, _, err := codec.NativeFromTextual(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload for topic %s: %v", schema_registry.ErrSerialization, topic, err)
	}
	return e.serializer.Encode(ctx, Subject(topic), codec, native)
}

// Subject returns the registry subject of the values written to topic. Topics with a
// payload schema register it under this subject.
func Subject(topic string) string {
	return topic + "-value"
}

// FramedEnvelopeSubject is the registry subject of message.FramedEnvelopeSchema.
const FramedEnvelopeSubject = "events.FramedMessage-value"

// decode reads a record value written by either encoder.
func decode(ctx context.Context, serializer *schema_registry.RecordSerializer, value []byte) (message.Message, error) {
	if !schema_registry.HasWireHeader(value) {
		return message.Unmarshal(value)
	}
	if serializer == nil {
		return message.Message{}, fmt.Errorf("%w: Avro record but no schema registry configured", schema_registry.ErrSerialization)
	}

	native, _, err := serializer.Decode(ctx, value)
	if err != nil {
		return message.Message{}, err
	}
	if record, ok := native.(map[string]interface{}); ok {
		if framed, ok := record["payload"].([]byte); ok {
			payload, err := decodePayload(ctx, serializer, framed)
			if err != nil {
				return message.Message{}, err
			}
			record["payload"] = string(payload)
		}
	}
	return message.FromNative(native)
}

// decodePayload turns a framed payload back into its Avro JSON form.
func decodePayload(ctx context.Context, serializer *schema_registry.RecordSerializer, framed []byte) ([]byte, error) {
	if !schema_registry.HasWireHeader(framed) {
		return nil, fmt.Errorf("%w: framed payload has no schema header", schema_registry.ErrSerialization)
	}
	native, codec, err := serializer.Decode(ctx, framed)
	if err != nil {
		return nil, err
	}
	text, err := codec.TextualFromNative(nil, native)
	if err != nil {
		return nil, fmt.Errorf("%w: payload to JSON: %v", schema_registry.ErrSerialization, err)
	}
	return text, nil
}
