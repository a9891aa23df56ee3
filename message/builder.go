package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Builder accumulates the fields of a Message. Setters return the builder so calls can
// be chained; Build freezes the result and signs it.
//
// A Builder is not safe for concurrent use. Build a fresh one per message.
type Builder struct {
	typ     string
	id      string
	source  string
	event   string
	payload []byte
	salt    string
	at      time.Time
	err     error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Type sets the subject type, e.g. "member".
func (b *Builder) Type(t string) *Builder {
	b.typ = t
	return b
}

// ID sets the subject identifier.
func (b *Builder) ID(id string) *Builder {
	b.id = id
	return b
}

// Source sets the system the subject lives in.
func (b *Builder) Source(source string) *Builder {
	b.source = source
	return b
}

// Event sets the lifecycle or application event name.
func (b *Builder) Event(event string) *Builder {
	b.event = event
	return b
}

// Salt sets the signing secret. It is used by Build and then forgotten.
func (b *Builder) Salt(salt string) *Builder {
	b.salt = salt
	return b
}

// At overrides the message timestamp. Defaults to the time Build is called.
func (b *Builder) At(t time.Time) *Builder {
	b.at = t
	return b
}

// Payload sets an already encoded JSON payload.
func (b *Builder) Payload(raw []byte) *Builder {
	b.payload = append([]byte(nil), raw...)
	return b
}

// PayloadJSON encodes v as a JSON object and uses it as payload.
// Arrays are turned into objects keyed by index and nil becomes {}.
func (b *Builder) PayloadJSON(v interface{}) *Builder {
	data, err := marshalObject(v)
	if err != nil {
		b.err = err
		return b
	}
	b.payload = data
	return b
}

// Build validates the accumulated fields and returns the signed Message.
func (b *Builder) Build() (Message, error) {
	if b.err != nil {
		return Message{}, b.err
	}
	if b.typ == "" {
		return Message{}, fmt.Errorf("%w: type is required", ErrInvalidMessage)
	}
	if b.event == "" {
		return Message{}, fmt.Errorf("%w: event is required", ErrInvalidMessage)
	}

	payload, err := normalizePayload(b.payload)
	if err != nil {
		return Message{}, err
	}

	at := b.at
	if at.IsZero() {
		at = time.Now()
	}

	return Message{
		typ:       b.typ,
		id:        b.id,
		source:    b.source,
		event:     b.event,
		payload:   payload,
		signature: Sign(b.typ, b.id, b.source, b.event, payload, b.salt),
		timestamp: at.UTC().Truncate(time.Millisecond),
	}, nil
}

// Template holds the fields shared by every message an observer emits.
type Template struct {
	Type   string
	Source string
	Salt   string `json:"-"`
}

// Builder returns a Builder preloaded with the template fields.
func (t Template) Builder() *Builder {
	return NewBuilder().Type(t.Type).Source(t.Source).Salt(t.Salt)
}

// normalizePayload validates the payload and re-encodes it the way encoding/json writes
// a json.RawMessage, so the signed bytes and the transmitted bytes are the same.
func normalizePayload(raw []byte) (json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidMessage)
	}
	out, err := json.Marshal(json.RawMessage(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return out, nil
}

func marshalObject(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrInvalidMessage, err)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return []byte("{}"), nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: payload: %v", ErrInvalidMessage, err)
		}
		obj := make(map[string]json.RawMessage, len(items))
		for i, item := range items {
			obj[strconv.Itoa(i)] = item
		}
		return json.Marshal(obj)
	case len(trimmed) > 0 && trimmed[0] != '{':
		// scalars are wrapped the same way arrays are
		return json.Marshal(map[string]json.RawMessage{"0": trimmed})
	}
	return data, nil
}
