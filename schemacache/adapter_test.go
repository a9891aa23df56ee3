package schemacache

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"errors"
	"testing"

	"github.com/linkedin/goavro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalemi-dev/stdlib-events/observability"
)

const userSchema = `{"type":"record","name":"User","fields":[{"name":"name","type":"string"}]}`
const orderSchema = `{"type":"record","name":"Order","fields":[{"name":"total","type":"long"}]}`

func mustCodec(t *testing.T, schema string) *goavro.Codec {
	t.Helper()
	codec, err := goavro.NewCodec(schema)
	require.NoError(t, err)
	return codec
}

type recordingObserver struct {
	operations []string
	hits       []interface{}
}

func (o *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	o.operations = append(o.operations, ctx.Operation)
	o.hits = append(o.hits, ctx.Metadata["cache_hit"])
}

type failingStore struct{ err error }

func (s failingStore) Add(context.Context, string, string) (bool, error)    { return false, s.err }
func (s failingStore) Get(context.Context, string) (string, bool, error) { return "", false, s.err }
func (s failingStore) Has(context.Context, string) (bool, error)         { return false, s.err }

// ── keys ──────────────────────────────────────────────────────────────────────

func TestKey_Format(t *testing.T) {
	t.Parallel()
	a := NewCacheAdapter(NewMemoryStore(), Config{Identity: "svc"})

	sum := sha1.Sum([]byte("svc::subject_version::users-value_3")) //nolint:gosec
	assert.Equal(t, hex.EncodeToString(sum[:]), a.Key("subject_version", "users-value_3"))
}

func TestKey_DefaultIdentity(t *testing.T) {
	t.Parallel()
	a := NewCacheAdapter(NewMemoryStore(), Config{})
	b := NewCacheAdapter(NewMemoryStore(), Config{Identity: DefaultIdentity})
	assert.Equal(t, b.Key("id", "1"), a.Key("id", "1"))
}

func TestKey_IdentityNamespacesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()

	tenantA := NewCacheAdapter(store, Config{Identity: "a"})
	tenantB := NewCacheAdapter(store, Config{Identity: "b"})

	require.NoError(t, tenantA.CacheSchemaWithID(ctx, mustCodec(t, userSchema), 1))

	has, err := tenantB.HasSchemaForID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)
}

// ── write once ────────────────────────────────────────────────────────────────

func TestCacheSchemaWithID_WriteOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewCacheAdapter(NewMemoryStore(), Config{})

	require.NoError(t, a.CacheSchemaWithID(ctx, mustCodec(t, userSchema), 7))
	require.NoError(t, a.CacheSchemaWithID(ctx, mustCodec(t, orderSchema), 7))

	codec, err := a.GetWithID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, codec)
	assert.Equal(t, mustCodec(t, userSchema).CanonicalSchema(), codec.CanonicalSchema())
}

func TestCacheSchemaIDByHash_WriteOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewCacheAdapter(NewMemoryStore(), Config{})

	require.NoError(t, a.CacheSchemaIDByHash(ctx, 1, "abc"))
	require.NoError(t, a.CacheSchemaIDByHash(ctx, 2, "abc"))

	id, found, err := a.GetIDWithHash(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, id)
}

// ── key spaces ────────────────────────────────────────────────────────────────

func TestKeySpaces_DoNotCollide(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewCacheAdapter(NewMemoryStore(), Config{})

	// "5" is a valid raw key for both the id and the hash space.
	require.NoError(t, a.CacheSchemaWithID(ctx, mustCodec(t, userSchema), 5))

	has, err := a.HasSchemaIDForHash(ctx, "5")
	require.NoError(t, err)
	assert.False(t, has)

	_, found, err := a.GetIDWithHash(ctx, "5")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, a.CacheSchemaIDByHash(ctx, 9, "5"))
	codec, err := a.GetWithID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, mustCodec(t, userSchema).CanonicalSchema(), codec.CanonicalSchema())
}

func TestSubjectAndVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewCacheAdapter(NewMemoryStore(), Config{})

	has, err := a.HasSchemaForSubjectAndVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	assert.False(t, has)

	codec, err := a.GetWithSubjectAndVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	assert.Nil(t, codec)

	require.NoError(t, a.CacheSchemaWithSubjectAndVersion(ctx, mustCodec(t, userSchema), "users-value", 1))

	has, err = a.HasSchemaForSubjectAndVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = a.HasSchemaForSubjectAndVersion(ctx, "users-value", 2)
	require.NoError(t, err)
	assert.False(t, has)

	codec, err = a.GetWithSubjectAndVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	require.NotNil(t, codec)
}

// ── failures ──────────────────────────────────────────────────────────────────

func TestGetWithID_MalformedSchema(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewCacheAdapter(store, Config{})

	_, err := store.Add(ctx, a.Key("id", "3"), "{not a schema")
	require.NoError(t, err)

	codec, err := a.GetWithID(ctx, 3)
	assert.Nil(t, codec)
	assert.ErrorIs(t, err, ErrMalformedSchema)
}

func TestGetIDWithHash_MalformedValue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryStore()
	a := NewCacheAdapter(store, Config{})

	_, err := store.Add(ctx, a.Key("hash", "h"), "seven")
	require.NoError(t, err)

	_, _, err = a.GetIDWithHash(ctx, "h")
	assert.ErrorIs(t, err, ErrMalformedSchema)
}

func TestCacheSchema_NilCodec(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	a := NewCacheAdapter(NewMemoryStore(), Config{})

	assert.ErrorIs(t, a.CacheSchemaWithID(ctx, nil, 1), ErrMalformedSchema)
	assert.ErrorIs(t, a.CacheSchemaWithSubjectAndVersion(ctx, nil, "users-value", 1), ErrMalformedSchema)

	has, err := a.HasSchemaForID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = a.HasSchemaForSubjectAndVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStoreErrorsPropagate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	boom := errors.New("boom")
	a := NewCacheAdapter(failingStore{err: boom}, Config{})

	assert.ErrorIs(t, a.CacheSchemaWithID(ctx, mustCodec(t, userSchema), 1), boom)
	_, err := a.GetWithID(ctx, 1)
	assert.ErrorIs(t, err, boom)
	_, err = a.HasSchemaForID(ctx, 1)
	assert.ErrorIs(t, err, boom)
}

// ── observer ──────────────────────────────────────────────────────────────────

func TestObserver_ReportsCacheHits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	obs := &recordingObserver{}
	a := NewCacheAdapter(NewMemoryStore(), Config{}).WithObserver(obs)

	_, _ = a.GetWithID(ctx, 1)
	_ = a.CacheSchemaWithID(ctx, mustCodec(t, userSchema), 1)
	_, _ = a.GetWithID(ctx, 1)

	assert.Equal(t, []string{"get_with_id", "cache_schema_with_id", "get_with_id"}, obs.operations)
	assert.Equal(t, false, obs.hits[0])
	assert.Equal(t, true, obs.hits[2])
}

// ── store selection ───────────────────────────────────────────────────────────

func TestNewStore(t *testing.T) {
	t.Parallel()

	s, err := NewStore(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewStore(context.Background(), Config{Backend: "etcd"})
	assert.Error(t, err)
}
