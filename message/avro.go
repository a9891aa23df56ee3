package message

import (
	"fmt"
	"time"
)

// EnvelopeSchema is the Avro schema of a whole Message. The payload travels as a JSON
// string so the schema does not depend on the subject type.
const EnvelopeSchema = `{
  "type": "record",
  "name": "Message",
  "namespace": "events",
  "fields": [
    {"name": "type", "type": "string"},
    {"name": "id", "type": "string"},
    {"name": "source", "type": "string"},
    {"name": "event", "type": "string"},
    {"name": "payload", "type": "string"},
    {"name": "signature", "type": "string"},
    {"name": "timestamp", "type": "long", "default": 0}
  ]
}`

// Native returns the goavro native form of the message for EnvelopeSchema.
func (m Message) Native() map[string]interface{} {
	var ts int64
	if !m.timestamp.IsZero() {
		ts = m.timestamp.UnixMilli()
	}
	return map[string]interface{}{
		"type":      m.typ,
		"id":        m.id,
		"source":    m.source,
		"event":     m.event,
		"payload":   string(m.payload),
		"signature": m.signature,
		"timestamp": ts,
	}
}

// FromNative rebuilds a Message from a decoded Avro record. Unknown fields are ignored
// and missing string fields are left empty.
func FromNative(native interface{}) (Message, error) {
	record, ok := native.(map[string]interface{})
	if !ok {
		return Message{}, fmt.Errorf("%w: expected avro record, got %T", ErrInvalidMessage, native)
	}

	w := Wire{
		Type:      stringField(record, "type"),
		ID:        stringField(record, "id"),
		Source:    stringField(record, "source"),
		Event:     stringField(record, "event"),
		Signature: stringField(record, "signature"),
	}
	if p := stringField(record, "payload"); p != "" {
		w.Payload = []byte(p)
	}

	switch ts := record["timestamp"].(type) {
	case int64:
		w.Timestamp = ts
	case int32:
		w.Timestamp = int64(ts)
	case time.Time:
		w.Timestamp = ts.UnixMilli()
	}

	return FromWire(w)
}

func stringField(record map[string]interface{}, name string) string {
	switch v := record[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case map[string]interface{}:
		// nullable union ["null","string"] decodes as {"string": value}
		if s, ok := v["string"].(string); ok {
			return s
		}
	}
	return ""
}

// FramedEnvelopeSchema is the Avro schema of a Message whose payload was already
// written under its own registry schema. The payload field holds those framed bytes.
const FramedEnvelopeSchema = `{
  "type": "record",
  "name": "FramedMessage",
  "namespace": "events",
  "fields": [
    {"name": "type", "type": "string"},
    {"name": "id", "type": "string"},
    {"name": "source", "type": "string"},
    {"name": "event", "type": "string"},
    {"name": "payload", "type": "bytes"},
    {"name": "signature", "type": "string"},
    {"name": "timestamp", "type": "long", "default": 0}
  ]
}`

// NativeWithPayload returns the goavro native form of the message for
// FramedEnvelopeSchema, carrying payload in place of the JSON payload.
func (m Message) NativeWithPayload(payload []byte) map[string]interface{} {
	native := m.Native()
	native["payload"] = payload
	return native
}
