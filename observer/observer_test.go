package observer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalemi-dev/stdlib-events/message"
)

type published struct {
	topic string
	msg   message.Message
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakeProducer) Produce(_ context.Context, topic string, msg message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{topic: topic, msg: msg})
	return p.err
}

func (p *fakeProducer) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}

type MockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *MockLogger) InfoWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (m *MockLogger) WarnWithContext(context.Context, string, error, ...map[string]interface{}) {}
func (m *MockLogger) ErrorWithContext(_ context.Context, msg string, _ error, _ ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *MockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type fakeArchive struct {
	mu     sync.Mutex
	stored []published
	err    error
}

func (a *fakeArchive) Store(_ context.Context, topic string, msg message.Message, _ error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stored = append(a.stored, published{topic: topic, msg: msg})
	return a.err
}

type member struct {
	Name string `json:"name"`
	id   string
	conn string
}

func (m member) EventID() string     { return m.id }
func (m member) EventSource() string { return m.conn }

var memberTemplate = message.Template{Type: "member", Source: "undefined", Salt: "s3cret"}

func TestGenericObserver_Events(t *testing.T) {
	t.Parallel()
	entity := member{Name: "Ada", id: "2019", conn: "mysql"}

	cases := []struct {
		event  string
		notify func(o *GenericObserver)
	}{
		{EventCreated, func(o *GenericObserver) { o.Created(context.Background(), entity) }},
		{EventUpdated, func(o *GenericObserver) { o.Updated(context.Background(), entity) }},
		{EventDeleted, func(o *GenericObserver) { o.Deleted(context.Background(), entity) }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.event, func(t *testing.T) {
			t.Parallel()
			producer := &fakeProducer{}
			tc.notify(NewGenericObserver(producer, memberTemplate, "members"))

			sent := producer.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, "members", sent[0].topic)

			msg := sent[0].msg
			assert.Equal(t, "member", msg.Type())
			assert.Equal(t, tc.event, msg.Event())
			assert.Equal(t, "2019", msg.ID())
			assert.Equal(t, "mysql", msg.Source())
			assert.JSONEq(t, `{"name":"Ada"}`, string(msg.Payload()))
			assert.True(t, msg.Verify("s3cret"))
		})
	}
}

func TestSingleEventObservers(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	entity := member{Name: "Ada", id: "2019", conn: "mysql"}
	ctx := context.Background()

	NewCreatedObserver(producer, memberTemplate, "members").Created(ctx, entity)
	NewUpdatedObserver(producer, memberTemplate, "members").Updated(ctx, entity)
	NewDeletedObserver(producer, memberTemplate, "members").Deleted(ctx, entity)

	sent := producer.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, EventCreated, sent[0].msg.Event())
	assert.Equal(t, EventUpdated, sent[1].msg.Event())
	assert.Equal(t, EventDeleted, sent[2].msg.Event())
}

func TestObserver_FailsGracefully(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{err: errors.New("something went wrong")}
	logger := &MockLogger{}
	o := NewGenericObserver(producer, memberTemplate, "members")
	o.WithLogger(logger)

	assert.NotPanics(t, func() {
		o.Created(context.Background(), member{id: "2019", conn: "mysql"})
	})

	sent := producer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "2019", sent[0].msg.ID())
	assert.Equal(t, "mysql", sent[0].msg.Source())
	assert.Equal(t, 1, logger.errorCount())
}

func TestObserver_ArchivesUndelivered(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{err: errors.New("flush attempts exhausted")}
	logger := &MockLogger{}
	archive := &fakeArchive{}
	o := NewCreatedObserver(producer, memberTemplate, "members")
	o.WithLogger(logger)
	o.WithArchive(archive)

	o.Created(context.Background(), member{id: "2019", conn: "mysql"})

	require.Len(t, archive.stored, 1)
	assert.Equal(t, "members", archive.stored[0].topic)
	assert.Equal(t, "2019", archive.stored[0].msg.ID())
	assert.Equal(t, 1, logger.errorCount())

	archive.err = errors.New("bucket gone")
	o.Created(context.Background(), member{id: "2020", conn: "mysql"})
	assert.Equal(t, 3, logger.errorCount())
}

func TestObserver_EmptySourceKeepsTemplate(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	NewCreatedObserver(producer, memberTemplate, "members").Created(context.Background(), member{id: "1"})

	assert.Equal(t, "undefined", producer.messages()[0].msg.Source())
}

func TestCustomObserver_Handle(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	o := NewCustomObserver(producer, memberTemplate, "member-activity")

	o.Handle(context.Background(), "member.visited", map[string]interface{}{"club": 7})
	o.Handle(context.Background(), "checkin", member{Name: "Ada", id: "2019", conn: "mysql"})

	sent := producer.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "visited", sent[0].msg.Event())
	assert.Empty(t, sent[0].msg.ID())
	assert.JSONEq(t, `{"club":7}`, string(sent[0].msg.Payload()))

	assert.Equal(t, "checkin", sent[1].msg.Event())
	assert.Equal(t, "2019", sent[1].msg.ID())
}

func TestDispatcher(t *testing.T) {
	t.Parallel()
	d := NewDispatcher()

	var mu sync.Mutex
	var got []string
	record := func(tag string) Handler {
		return HandlerFunc(func(_ context.Context, name string, _ interface{}) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag+":"+name)
		})
	}

	require.NoError(t, d.Listen("member.*", record("member")))
	require.NoError(t, d.Listen("*.visited", record("visits")))
	assert.Error(t, d.Listen("member.[", record("broken")))

	assert.Equal(t, 2, d.Dispatch(context.Background(), "member.visited", nil))
	assert.Equal(t, 1, d.Dispatch(context.Background(), "member.visit.ended", nil))
	assert.Equal(t, 1, d.Dispatch(context.Background(), "club.visited", nil))
	assert.Equal(t, 0, d.Dispatch(context.Background(), "club.closed", nil))

	assert.Equal(t, []string{
		"member:member.visited",
		"visits:member.visited",
		"member:member.visit.ended",
		"visits:club.visited",
	}, got)
}

func TestTable(t *testing.T) {
	t.Parallel()
	producer := &fakeProducer{}
	logger := &MockLogger{}

	table, err := NewTable(Config{
		Salt: "s3cret",
		Producers: map[string]map[string]string{
			"Member": {"member": "members", "profile": "profiles"},
		},
		Listeners: map[string]string{"member": "member-activity"},
	}, producer, WithTableLogger(logger))
	require.NoError(t, err)

	assert.Equal(t, []string{"Member"}, table.Models())
	observers := table.Observers("Member")
	require.Len(t, observers, 2)
	assert.Equal(t, "member", observers[0].Type())
	assert.Equal(t, "members", observers[0].Topic())
	assert.Equal(t, "profiles", observers[1].Topic())
	assert.Nil(t, table.Observers("Club"))

	for _, o := range observers {
		o.Created(context.Background(), member{id: "2019"})
	}
	sent := producer.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, DefaultSource, sent[0].msg.Source())
	assert.True(t, sent[0].msg.Verify("s3cret"))

	d := NewDispatcher()
	require.NoError(t, table.Register(d))
	assert.Equal(t, 1, d.Dispatch(context.Background(), "member.visited", nil))
	assert.Equal(t, "member-activity", producer.messages()[2].topic)

	assert.Equal(t, 1, d.Dispatch(context.Background(), "member.visit.ended", map[string]interface{}{"club": 7}))
	sent = producer.messages()
	require.Len(t, sent, 4)
	assert.Equal(t, "member-activity", sent[3].topic)
	assert.Equal(t, "visit.ended", sent[3].msg.Event())
	assert.JSONEq(t, `{"club":7}`, string(sent[3].msg.Payload()))
}

func TestTable_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewTable(Config{}, nil)
	assert.Error(t, err)

	_, err = NewTable(Config{Producers: map[string]map[string]string{"Member": {"member": ""}}}, &fakeProducer{})
	assert.Error(t, err)

	_, err = NewTable(Config{Listeners: map[string]string{"member": ""}}, &fakeProducer{})
	assert.Error(t, err)
}

func TestModelEntity_JSON(t *testing.T) {
	t.Parallel()
	e := &modelEntity{model: struct {
		Name string `json:"name"`
	}{"Ada"}, id: "7", source: "postgres"}

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ada"}`, string(out))
	assert.Equal(t, "7", e.EventID())
	assert.Equal(t, "postgres", e.EventSource())
}
