package postgres

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aalemi-dev/stdlib-events/message"
	"github.com/aalemi-dev/stdlib-events/observability"
	"github.com/aalemi-dev/stdlib-events/observer"
)

type Member struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `json:"name"`
}

type countingPlugin struct {
	inits atomic.Int32
	err   error
}

func (p *countingPlugin) Name() string { return "counting" }

func (p *countingPlugin) Initialize(*gorm.DB) error {
	p.inits.Add(1)
	return p.err
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

func (o *recordingObserver) operations() []observability.OperationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observability.OperationContext(nil), o.ops...)
}

type fakeProducer struct {
	mu   sync.Mutex
	sent []message.Message
}

func (p *fakeProducer) Produce(_ context.Context, _ string, msg message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, msg)
	return nil
}

// dryRunDial opens statement-only connections and counts them.
func dryRunDial(dials *atomic.Int32) func(Config) (*gorm.DB, error) {
	return func(cfg Config) (*gorm.DB, error) {
		dials.Add(1)
		return gorm.Open(postgres.New(postgres.Config{DSN: cfg.Connection.DSN()}),
			&gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	}
}

func testConfig() Config {
	return Config{Connection: Connection{
		Host: "localhost", Port: "5432", User: "events", Password: "secret", DbName: "events", SSLMode: "disable",
	}}
}

func TestConnection_DSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "host=localhost port=5432 user=events password=secret dbname=events sslmode=disable",
		testConfig().Connection.DSN())
}

func TestConnectionDetails_Defaults(t *testing.T) {
	t.Parallel()

	d := ConnectionDetails{MaxIdleConns: 5}.withDefaults()
	assert.Equal(t, DefaultMaxOpenConns, d.MaxOpenConns)
	assert.Equal(t, 5, d.MaxIdleConns)
	assert.Equal(t, DefaultConnMaxLifetime, d.ConnMaxLifetime)
	assert.Equal(t, DefaultMonitorInterval, d.MonitorInterval)
}

func TestNewPostgres_InstallsPlugins(t *testing.T) {
	t.Parallel()

	var dials atomic.Int32
	plugin := &countingPlugin{}
	pg, err := newPostgres(testConfig(), dryRunDial(&dials), plugin)
	require.NoError(t, err)

	assert.EqualValues(t, 1, plugin.inits.Load())
	assert.Contains(t, pg.DB().Config.Plugins, "counting")
	assert.Equal(t, "postgres", pg.Source())
}

func TestNewPostgres_Errors(t *testing.T) {
	t.Parallel()

	_, err := newPostgres(testConfig(), func(Config) (*gorm.DB, error) {
		return nil, errors.New("connection refused")
	})
	assert.ErrorContains(t, err, "connection refused")

	var dials atomic.Int32
	_, err = newPostgres(testConfig(), dryRunDial(&dials), &countingPlugin{err: errors.New("boom")})
	assert.ErrorContains(t, err, "install plugin counting")
}

func TestRetryConnection_ReinstallsPlugins(t *testing.T) {
	t.Parallel()

	var dials atomic.Int32
	plugin := &countingPlugin{}
	pg, err := newPostgres(testConfig(), dryRunDial(&dials), plugin)
	require.NoError(t, err)
	first := pg.DB()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		pg.RetryConnection(ctx)
	}()

	pg.retryChanSignal <- errors.New("ping failed")

	assert.Eventually(t, func() bool { return pg.DB() != first }, time.Second, 10*time.Millisecond)
	assert.EqualValues(t, 2, dials.Load())
	assert.EqualValues(t, 2, plugin.inits.Load())

	require.NoError(t, pg.GracefulShutdown())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RetryConnection did not stop on shutdown")
	}
}

func TestCreate_PublishesThroughObserverPlugin(t *testing.T) {
	t.Parallel()

	producer := &fakeProducer{}
	table, err := observer.NewTable(observer.Config{
		Producers: map[string]map[string]string{"Member": {"member": "members"}},
	}, producer)
	require.NoError(t, err)

	var dials atomic.Int32
	pg, err := newPostgres(testConfig(), dryRunDial(&dials), observer.NewGormPlugin(table))
	require.NoError(t, err)
	obs := &recordingObserver{}
	pg.WithObserver(obs)

	ctx := context.Background()
	m := &Member{ID: 7, Name: "Ada"}
	require.NoError(t, pg.Create(ctx, m))
	require.NoError(t, pg.Save(ctx, m))
	require.NoError(t, pg.Delete(ctx, m))

	require.Len(t, producer.sent, 3)
	for i, event := range []string{observer.EventCreated, observer.EventUpdated, observer.EventDeleted} {
		assert.Equal(t, event, producer.sent[i].Event())
		assert.Equal(t, "7", producer.sent[i].ID())
		assert.Equal(t, "postgres", producer.sent[i].Source())
	}

	ops := obs.operations()
	require.Len(t, ops, 3)
	assert.Equal(t, "create", ops[0].Operation)
	assert.Equal(t, "members", ops[0].Resource)
	assert.Equal(t, "postgres", ops[0].Component)
}
