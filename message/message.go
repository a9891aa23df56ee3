package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidMessage is returned when a Message cannot be built or decoded.
var ErrInvalidMessage = errors.New("invalid message")

// Message is one signed event. It is immutable: all fields are set through a Builder
// (or decoded from the wire) and exposed through accessors only.
//
// The salt used to sign a Message is never part of it.
type Message struct {
	typ       string
	id        string
	source    string
	event     string
	payload   json.RawMessage
	signature string
	timestamp time.Time
}

// Type returns the event category, e.g. "member".
func (m Message) Type() string { return m.typ }

// ID returns the identifier of the subject the event is about.
func (m Message) ID() string { return m.id }

// Source returns the origin tag (storage connection name or domain).
func (m Message) Source() string { return m.source }

// Event returns the specific verb, e.g. "created".
func (m Message) Event() string { return m.event }

// Payload returns a copy of the JSON snapshot of the subject.
func (m Message) Payload() []byte {
	return append([]byte(nil), m.payload...)
}

// Signature returns the hex encoded HMAC of the signed fields.
func (m Message) Signature() string { return m.signature }

// Timestamp returns the time the message was built.
func (m Message) Timestamp() time.Time { return m.timestamp }

// Verify reports whether the signature matches the fields for the given salt.
func (m Message) Verify(salt string) bool {
	return verify(m.signature, m.typ, m.id, m.source, m.event, m.payload, salt)
}

// Wire is the serialized shape of a Message.
type Wire struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Wire returns the serializable form of the message.
func (m Message) Wire() Wire {
	w := Wire{
		Type:      m.typ,
		ID:        m.id,
		Source:    m.source,
		Event:     m.event,
		Payload:   m.Payload(),
		Signature: m.signature,
	}
	if !m.timestamp.IsZero() {
		w.Timestamp = m.timestamp.UnixMilli()
	}
	return w
}

// MarshalJSON encodes the message in its wire form.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Wire())
}

// FromWire rebuilds a Message from its wire form. The signature is kept as received;
// use Verify to check it.
func FromWire(w Wire) (Message, error) {
	payload, err := normalizePayload(w.Payload)
	if err != nil {
		return Message{}, err
	}

	m := Message{
		typ:       w.Type,
		id:        w.ID,
		source:    w.Source,
		event:     w.Event,
		payload:   payload,
		signature: w.Signature,
	}
	if w.Timestamp != 0 {
		m.timestamp = time.UnixMilli(w.Timestamp).UTC()
	}
	return m, nil
}

// Unmarshal decodes a JSON wire message.
func Unmarshal(data []byte) (Message, error) {
	var w Wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return FromWire(w)
}

// String implements fmt.Stringer for log output.
func (m Message) String() string {
	return fmt.Sprintf("%s.%s(id=%s, source=%s)", m.typ, m.event, m.id, m.source)
}
