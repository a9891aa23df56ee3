package schema_registry

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userSchema = `{"type":"record","name":"User","fields":[{"name":"name","type":"string"},{"name":"age","type":"int"}]}`

func newTestClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: srvURL})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{URL: "http://localhost:8081"})
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
}

func TestClient_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, srv := newFakeRegistry(t)
	c := newTestClient(t, srv.URL)

	id, err := c.RegisterSchema(ctx, "users-value", userSchema, "AVRO")
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	schema, err := c.GetSchemaByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, userSchema, schema)

	latest, err := c.GetLatestSchema(ctx, "users-value")
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)
	assert.Equal(t, 1, latest.Version)
	assert.Equal(t, "users-value", latest.Subject)

	v1, err := c.GetSchemaBySubjectVersion(ctx, "users-value", 1)
	require.NoError(t, err)
	assert.Equal(t, userSchema, v1.Schema)

	found, err := c.LookupSchema(ctx, "users-value", userSchema, "AVRO")
	require.NoError(t, err)
	assert.Equal(t, id, found.ID)

	ok, err := c.CheckCompatibility(ctx, "users-value", userSchema, "AVRO")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_ErrorCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeRegistry(t)
	c := newTestClient(t, srv.URL)
	f.seed("users-value", userSchema)

	_, err := c.GetSchemaByID(ctx, 99)
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = c.GetLatestSchema(ctx, "missing-value")
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	_, err = c.GetSchemaBySubjectVersion(ctx, "users-value", 7)
	assert.ErrorIs(t, err, ErrVersionNotFound)

	_, err = c.LookupSchema(ctx, "users-value", `{"type":"string"}`, "AVRO")
	assert.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = c.LookupSchema(ctx, "missing-value", userSchema, "AVRO")
	assert.ErrorIs(t, err, ErrSubjectNotFound)

	var regErr *RegistryError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, http.StatusNotFound, regErr.StatusCode)
	assert.Equal(t, CodeSubjectNotFound, regErr.Code)
}

func TestRegistryError_PlainBody(t *testing.T) {
	t.Parallel()
	err := newRegistryError(http.StatusInternalServerError, []byte("boom"))
	assert.Equal(t, "boom", err.Message)
	assert.Nil(t, err.Unwrap())
	assert.Contains(t, err.Error(), "500")
}

func TestClient_BasicAuth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f, srv := newFakeRegistry(t)
	f.username, f.password = "user", "secret"
	id := f.seed("users-value", userSchema)

	anonymous := newTestClient(t, srv.URL)
	_, err := anonymous.GetSchemaByID(ctx, id)
	assert.Error(t, err)

	authed, err := NewClient(Config{URL: srv.URL, Username: "user", Password: "secret"})
	require.NoError(t, err)
	_, err = authed.GetSchemaByID(ctx, id)
	assert.NoError(t, err)
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, err := NewClient(Config{URL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.GetSchemaByID(ctx, 1)
	assert.Error(t, err)
	_, err = c.RegisterSchema(ctx, "s", `{"type":"string"}`, "AVRO")
	assert.Error(t, err)
	_, err = c.CheckCompatibility(ctx, "s", `{"type":"string"}`, "AVRO")
	assert.Error(t, err)
}

func TestClient_ContextCancelled(t *testing.T) {
	t.Parallel()
	_, srv := newFakeRegistry(t)
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetSchemaByID(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSchemaPayload(t *testing.T) {
	t.Parallel()
	assert.NotContains(t, schemaPayload("{}", "AVRO"), "schemaType")
	assert.NotContains(t, schemaPayload("{}", ""), "schemaType")
	assert.Equal(t, "JSON", schemaPayload("{}", "JSON")["schemaType"])
}

// ── wire format ───────────────────────────────────────────────────────────────

func TestEncodeDecodeSchemaID(t *testing.T) {
	t.Parallel()
	header := EncodeSchemaID(258)
	assert.Equal(t, []byte{0x0, 0x0, 0x0, 0x1, 0x2}, header)

	id, payload, err := DecodeSchemaID(append(header, 'x'))
	require.NoError(t, err)
	assert.Equal(t, 258, id)
	assert.Equal(t, []byte("x"), payload)
}

func TestDecodeSchemaID_Invalid(t *testing.T) {
	t.Parallel()
	_, _, err := DecodeSchemaID([]byte{0x0, 0x1})
	assert.Error(t, err)

	_, _, err = DecodeSchemaID([]byte{0x1, 0x0, 0x0, 0x0, 0x1})
	assert.Error(t, err)
}

func TestHasWireHeader(t *testing.T) {
	t.Parallel()
	assert.True(t, HasWireHeader(EncodeSchemaID(1)))
	assert.False(t, HasWireHeader([]byte(`{"type":"member"}`)))
	assert.False(t, HasWireHeader([]byte{0x0}))
}

// ── logger ────────────────────────────────────────────────────────────────────

func TestWithLogger(t *testing.T) {
	t.Parallel()
	client := &Client{}
	logger := &captureLogger{}
	out := client.WithLogger(logger)
	assert.Equal(t, client, out)
	assert.Equal(t, logger, client.logger)
}

func TestRegisterSchema_LogsOutcome(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, srv := newFakeRegistry(t)
	logger := &captureLogger{}
	c := newTestClient(t, srv.URL).WithLogger(logger)

	_, err := c.RegisterSchema(ctx, "users-value", userSchema, "AVRO")
	require.NoError(t, err)
	assert.Len(t, logger.infos, 1)

	bad := newTestClient(t, "http://127.0.0.1:1").WithLogger(logger)
	bad.httpClient.Timeout = 100 * time.Millisecond
	_, err = bad.RegisterSchema(ctx, "users-value", userSchema, "AVRO")
	require.Error(t, err)
	assert.Len(t, logger.errors, 1)
}

func TestLogMethods_NoLogger(t *testing.T) {
	t.Parallel()
	client := &Client{}
	ctx := context.Background()
	// must not panic
	client.logInfo(ctx, "info", nil)
	client.logWarn(ctx, "warn", nil)
	client.logError(ctx, "error", nil, nil)
}
