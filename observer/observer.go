package observer

import (
	"context"
	"strings"
	"time"

	"github.com/aalemi-dev/stdlib-events/deadletter"
	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
)

// Event names set by the lifecycle observers.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Entity is a domain object whose lifecycle changes are published.
type Entity interface {
	// EventID identifies the entity within its type.
	EventID() string

	// EventSource names where the entity lives, e.g. the database connection.
	EventSource() string
}

// Producer delivers a message to a topic. It is satisfied by *events.ProducerService.
type Producer interface {
	Produce(ctx context.Context, topic string, msg message.Message) error
}

// Archive keeps messages that could not be delivered.
type Archive = deadletter.Archive

// Logger is an interface that matches the logger.Logger interface.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// base builds and publishes the messages of one (type, topic) registration. Publishing
// never fails from the caller's point of view: errors are logged and, when an archive
// is set, the message is archived.
type base struct {
	producer Producer
	template message.Template
	topic    string

	logger   Logger
	archive  Archive
	observer observability.Observer
}

func newBase(producer Producer, template message.Template, topic string) base {
	return base{producer: producer, template: template, topic: topic}
}

// Topic returns the topic the observer publishes to.
func (b *base) Topic() string { return b.topic }

// Type returns the message type the observer publishes.
func (b *base) Type() string { return b.template.Type }

func (b *base) publish(ctx context.Context, event, id, source string, payload interface{}) {
	start := time.Now()

	builder := b.template.Builder().Event(event).ID(id).PayloadJSON(payload)
	if source != "" {
		builder = builder.Source(source)
	}

	msg, err := builder.Build()
	if err != nil {
		b.observeOperation(event, time.Since(start), err)
		b.logError(ctx, "Failed to build event message", err, map[string]interface{}{
			"type":  b.template.Type,
			"event": event,
			"id":    id,
		})
		return
	}

	err = b.producer.Produce(ctx, b.topic, msg)
	b.observeOperation(event, time.Since(start), err)
	if err == nil {
		return
	}

	b.logError(ctx, "Failed to publish event message", err, map[string]interface{}{
		"topic":  b.topic,
		"type":   msg.Type(),
		"event":  msg.Event(),
		"id":     msg.ID(),
		"source": msg.Source(),
	})

	if b.archive == nil {
		return
	}
	if archiveErr := b.archive.Store(ctx, b.topic, msg, err); archiveErr != nil {
		b.logError(ctx, "Failed to archive undelivered message", archiveErr, map[string]interface{}{
			"topic": b.topic,
			"id":    msg.ID(),
		})
	}
}

func (b *base) logError(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	if b.logger != nil {
		b.logger.ErrorWithContext(ctx, msg, err, fields)
	}
}

func (b *base) observeOperation(event string, duration time.Duration, err error) {
	if b.observer == nil {
		return
	}
	b.observer.ObserveOperation(observability.OperationContext{
		Component: "observer",
		Operation: event,
		Resource:  b.topic,
		Duration:  duration,
		Error:     err,
		Metadata: map[string]interface{}{
			"type": b.template.Type,
		},
	})
}

// CreatedObserver publishes "created" messages.
type CreatedObserver struct{ base }

// NewCreatedObserver creates an observer publishing template-typed messages to topic.
func NewCreatedObserver(producer Producer, template message.Template, topic string) *CreatedObserver {
	return &CreatedObserver{base: newBase(producer, template, topic)}
}

// Created publishes a snapshot of entity.
func (o *CreatedObserver) Created(ctx context.Context, entity Entity) {
	o.publish(ctx, EventCreated, entity.EventID(), entity.EventSource(), entity)
}

// UpdatedObserver publishes "updated" messages.
type UpdatedObserver struct{ base }

// NewUpdatedObserver creates an observer publishing template-typed messages to topic.
func NewUpdatedObserver(producer Producer, template message.Template, topic string) *UpdatedObserver {
	return &UpdatedObserver{base: newBase(producer, template, topic)}
}

// Updated publishes a snapshot of entity.
func (o *UpdatedObserver) Updated(ctx context.Context, entity Entity) {
	o.publish(ctx, EventUpdated, entity.EventID(), entity.EventSource(), entity)
}

// DeletedObserver publishes "deleted" messages.
type DeletedObserver struct{ base }

// NewDeletedObserver creates an observer publishing template-typed messages to topic.
func NewDeletedObserver(producer Producer, template message.Template, topic string) *DeletedObserver {
	return &DeletedObserver{base: newBase(producer, template, topic)}
}

// Deleted publishes a snapshot of entity.
func (o *DeletedObserver) Deleted(ctx context.Context, entity Entity) {
	o.publish(ctx, EventDeleted, entity.EventID(), entity.EventSource(), entity)
}

// GenericObserver publishes all three lifecycle events.
type GenericObserver struct{ base }

// NewGenericObserver creates an observer publishing template-typed messages to topic.
func NewGenericObserver(producer Producer, template message.Template, topic string) *GenericObserver {
	return &GenericObserver{base: newBase(producer, template, topic)}
}

// Created publishes the created event for entity.
func (o *GenericObserver) Created(ctx context.Context, entity Entity) {
	o.publish(ctx, EventCreated, entity.EventID(), entity.EventSource(), entity)
}

// Updated publishes the updated event for entity.
func (o *GenericObserver) Updated(ctx context.Context, entity Entity) {
	o.publish(ctx, EventUpdated, entity.EventID(), entity.EventSource(), entity)
}

// Deleted publishes the deleted event for entity.
func (o *GenericObserver) Deleted(ctx context.Context, entity Entity) {
	o.publish(ctx, EventDeleted, entity.EventID(), entity.EventSource(), entity)
}

// Notify publishes event for entity. Unknown events are published as they are.
func (o *GenericObserver) Notify(ctx context.Context, event string, entity Entity) {
	o.publish(ctx, event, entity.EventID(), entity.EventSource(), entity)
}

// CustomObserver publishes application events delivered by a Dispatcher.
type CustomObserver struct{ base }

// NewCustomObserver creates an observer publishing template-typed messages to topic.
func NewCustomObserver(producer Producer, template message.Template, topic string) *CustomObserver {
	return &CustomObserver{base: newBase(producer, template, topic)}
}

// Handle publishes subject under eventName. A "<type>." prefix is dropped from the
// event, so "member.visited" on a member observer becomes event "visited". The id and
// source come from subject when it is an Entity.
func (o *CustomObserver) Handle(ctx context.Context, eventName string, subject interface{}) {
	event := strings.TrimPrefix(eventName, o.template.Type+".")

	var id, source string
	if entity, ok := subject.(Entity); ok {
		id, source = entity.EventID(), entity.EventSource()
	}
	o.publish(ctx, event, id, source, subject)
}

// WithLogger attaches a logger used for swallowed failures.
func (b *base) WithLogger(logger Logger) { b.logger = logger }

// WithArchive attaches the archive that receives undelivered messages.
func (b *base) WithArchive(archive Archive) { b.archive = archive }

// WithObserver attaches an observer to the publish path.
func (b *base) WithObserver(observer observability.Observer) { b.observer = observer }
